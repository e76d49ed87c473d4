package archive_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cristiano-superacao/prescrimed-sub000/internal/application/archive"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/infrastructure/blob/fs"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/testutil"
	"github.com/cristiano-superacao/prescrimed-sub000/pkg/logger"
)

func TestExport_GuardaYRelee(t *testing.T) {
	env := testutil.NewSQLite(t)
	store, err := fs.New(t.TempDir())
	require.NoError(t, err)
	exp := archive.NewExporter(env.Tenants, env.Counters, env.Items, env.Movements, store, logger.Nop())
	ctx := context.Background()

	tn := env.SeedTenant(t, "Lar", "casa-repouso", 3, time.Now().Add(-time.Hour))
	env.SeedItem(t, tn.ID, "Gaze", decimal.NewFromInt(4), decimal.Zero)
	env.SeedItem(t, tn.ID, "Soro", decimal.NewFromInt(2), decimal.Zero)

	info, doc, err := exp.Export(ctx, tn.ID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(info.Key, "ledger/casa_03/"), info.Key)
	assert.True(t, strings.HasSuffix(info.Key, ".json.gz"))
	assert.Len(t, doc.Items, 2)
	assert.Len(t, doc.Movements, 2)

	back, err := exp.Read(ctx, info.Key)
	require.NoError(t, err)
	assert.Equal(t, tn.ID, back.Tenant.ID)
	require.Len(t, back.Movements, 2)
	assert.Less(t, back.Movements[0].Seq, back.Movements[1].Seq)

	list, err := exp.List(ctx, tn.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, info.Key, list[0].Key)
}

func TestExport_TenantInexistente(t *testing.T) {
	env := testutil.NewSQLite(t)
	store, err := fs.New(t.TempDir())
	require.NoError(t, err)
	exp := archive.NewExporter(env.Tenants, env.Counters, env.Items, env.Movements, store, logger.Nop())

	_, _, err = exp.Export(context.Background(), "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
