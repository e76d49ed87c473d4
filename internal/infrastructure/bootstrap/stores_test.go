package bootstrap_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cristiano-superacao/prescrimed-sub000/internal/application/events"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/infrastructure/bootstrap"
	"github.com/cristiano-superacao/prescrimed-sub000/pkg/config"
	"github.com/cristiano-superacao/prescrimed-sub000/pkg/logger"
)

func TestOpenStores_SQLite(t *testing.T) {
	cfg := config.DBConfig{
		Driver:        config.DriverSQLite,
		SQLitePath:    filepath.Join(t.TempDir(), "core.db"),
		LockTimeoutMS: 2000,
		AutoMigrate:   true,
	}
	stores, err := bootstrap.OpenStores(context.Background(), cfg, logger.Nop())
	require.NoError(t, err)
	defer stores.Close()

	assert.Equal(t, config.DriverSQLite, stores.Driver)
	require.NoError(t, stores.Ping(context.Background()))
	list, err := stores.Counters.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestOpenStores_DriverDesconocido(t *testing.T) {
	_, err := bootstrap.OpenStores(context.Background(), config.DBConfig{Driver: "oracle"}, logger.Nop())
	assert.Error(t, err)
}

func TestAdaptadoresOpcionales(t *testing.T) {
	pub, closePub := bootstrap.Publisher(config.KafkaConfig{}, logger.Nop())
	defer closePub()
	assert.IsType(t, events.Nop{}, pub)

	th, closeTh := bootstrap.AlertThrottle(context.Background(), config.RedisConfig{}, logger.Nop())
	defer closeTh()
	assert.Nil(t, th)

	store, err := bootstrap.BlobStore(context.Background(), config.ArchiveConfig{Driver: "fs", Root: t.TempDir()})
	require.NoError(t, err)
	assert.NotNil(t, store)

	_, err = bootstrap.BlobStore(context.Background(), config.ArchiveConfig{Driver: "ftp"})
	assert.Error(t, err)
}
