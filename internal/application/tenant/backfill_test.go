package tenant_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cristiano-superacao/prescrimed-sub000/internal/application/tenant"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain/entity"
)

// Existen Casa_01, Casa_03 y Casa_04 con el contador sin sembrar; los cinco
// legados reciben 5..9 en orden de alta.
func TestBackfill_SiembraYAsignaDespuesDelMaximo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	base := time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)

	for i, n := range []int64{1, 3, 4} {
		f.env.SeedTenant(t, "existente", "casa-repouso", n, base.Add(time.Duration(i)*time.Hour))
	}
	var legacy []*entity.Tenant
	for i := 0; i < 5; i++ {
		legacy = append(legacy, f.env.SeedTenant(t, "legado", "casa-repouso", 0, base.Add(time.Duration(10+i)*time.Hour)))
	}

	report, err := f.back.Run(ctx, tenant.BackfillOptions{})
	require.NoError(t, err)
	assert.Equal(t, 5, report.Pending)
	assert.Equal(t, int64(4), report.Seeded["casa-repouso"])
	require.Len(t, report.Assigned, 5)

	for i, a := range report.Assigned {
		assert.Equal(t, legacy[i].ID, a.TenantID)
		assert.Equal(t, int64(5+i), a.CodeNumber)
	}
	assert.Equal(t, "Casa_05", report.Assigned[0].Code)
	assert.Equal(t, "Casa_09", report.Assigned[4].Code)

	c, err := f.env.Counters.Get(ctx, "casa-repouso")
	require.NoError(t, err)
	assert.Equal(t, int64(9), c.LastNumber)

	pending, err := f.env.Tenants.CountMissingCode(ctx)
	require.NoError(t, err)
	assert.Zero(t, pending)
}

func TestBackfill_Reejecutable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.env.SeedTenant(t, "existente", "petshop", 2, time.Now().Add(-2*time.Hour))
	f.env.SeedTenant(t, "legado", "petshop", 0, time.Now().Add(-time.Hour))

	_, err := f.back.Run(ctx, tenant.BackfillOptions{})
	require.NoError(t, err)
	before, err := f.env.Counters.Get(ctx, "petshop")
	require.NoError(t, err)

	again, err := f.back.Run(ctx, tenant.BackfillOptions{})
	require.NoError(t, err)
	assert.Empty(t, again.Assigned)
	assert.Zero(t, again.Pending)

	after, err := f.env.Counters.Get(ctx, "petshop")
	require.NoError(t, err)
	assert.Equal(t, before.LastNumber, after.LastNumber)
	assert.Equal(t, int64(3), after.LastNumber)
}

func TestBackfill_DryRunNoEscribe(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.env.SeedTenant(t, "existente", "fisioterapia", 6, time.Now().Add(-3*time.Hour))
	f.env.SeedTenant(t, "legado A", "fisioterapia", 0, time.Now().Add(-2*time.Hour))
	f.env.SeedTenant(t, "legado B", "fisioterapia", 0, time.Now().Add(-time.Hour))

	report, err := f.back.Run(ctx, tenant.BackfillOptions{DryRun: true})
	require.NoError(t, err)
	assert.True(t, report.DryRun)
	require.Len(t, report.Assigned, 2)
	assert.Equal(t, "Fisio_07", report.Assigned[0].Code)
	assert.Equal(t, "Fisio_08", report.Assigned[1].Code)

	c, err := f.env.Counters.Get(ctx, "fisioterapia")
	require.NoError(t, err)
	assert.Nil(t, c, "dry-run no siembra contadores")

	pending, err := f.env.Tenants.CountMissingCode(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, pending)
	assert.Empty(t, f.pub.Events())
}

func TestBackfill_LimitYCategoriaPorDefecto(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.env.SeedTenant(t, "sin categoría", "", 0, time.Now().Add(-3*time.Hour))
	f.env.SeedTenant(t, "legado", "petshop", 0, time.Now().Add(-2*time.Hour))
	f.env.SeedTenant(t, "roto", "hospital", 0, time.Now().Add(-time.Hour))

	report, err := f.back.Run(ctx, tenant.BackfillOptions{Limit: 1})
	require.NoError(t, err)
	require.Len(t, report.Assigned, 1)
	assert.Equal(t, first.ID, report.Assigned[0].TenantID)
	assert.Equal(t, "casa-repouso", report.Assigned[0].Category)
	assert.Equal(t, "Casa_01", report.Assigned[0].Code)

	rest, err := f.back.Run(ctx, tenant.BackfillOptions{})
	require.NoError(t, err)
	require.Len(t, rest.Assigned, 1)
	assert.Equal(t, "Pet_01", rest.Assigned[0].Code)
	require.Len(t, rest.Skipped, 1)

	pending, err := f.env.Tenants.CountMissingCode(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, pending, "la categoría desconocida queda pendiente")
}

// Los omitidos por categoría desconocida no ocupan el tope: corridas sucesivas
// siguen avanzando hacia los tenants válidos más nuevos.
func TestBackfill_LimitNoSeBloqueaConOmitidos(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.env.SeedTenant(t, "roto A", "hospital", 0, time.Now().Add(-3*time.Hour))
	f.env.SeedTenant(t, "roto B", "hospital", 0, time.Now().Add(-2*time.Hour))
	valid := f.env.SeedTenant(t, "legado", "petshop", 0, time.Now().Add(-time.Hour))

	report, err := f.back.Run(ctx, tenant.BackfillOptions{Limit: 2})
	require.NoError(t, err)
	require.Len(t, report.Assigned, 1)
	assert.Equal(t, valid.ID, report.Assigned[0].TenantID)
	assert.Equal(t, "Pet_01", report.Assigned[0].Code)
	assert.Len(t, report.Skipped, 2)

	again, err := f.back.Run(ctx, tenant.BackfillOptions{Limit: 2})
	require.NoError(t, err)
	assert.Empty(t, again.Assigned)
	assert.Equal(t, 2, again.Pending)

	pending, err := f.env.Tenants.CountMissingCode(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, pending)
}
