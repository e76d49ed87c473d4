package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/cristiano-superacao/prescrimed-sub000/internal/application/archive"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/application/events"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/application/inventory"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/infrastructure/blob/fs"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/infrastructure/blob/s3"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/infrastructure/kafka"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/infrastructure/redis"
	"github.com/cristiano-superacao/prescrimed-sub000/pkg/config"
	"github.com/cristiano-superacao/prescrimed-sub000/pkg/logger"
)

// Publisher Kafka si hay brokers; si no, events.Nop. El cierre va en el func devuelto.
func Publisher(cfg config.KafkaConfig, log *logger.Logger) (events.Publisher, func()) {
	if !cfg.Enabled() {
		log.Info().Msg("kafka no configurado, eventos descartados")
		return events.Nop{}, func() {}
	}
	p := kafka.NewPublisher(cfg.Brokers, kafka.Topics{Inventory: cfg.TopicInventory, Tenants: cfg.TopicTenants})
	log.Info().Strs("brokers", cfg.Brokers).Msg("publicador kafka listo")
	return p, func() { _ = p.Close() }
}

// AlertThrottle Redis si hay REDIS_ADDR; si no, nil (sin límite). Un Redis caído no
// impide arrancar: se registra y se sigue sin throttle.
func AlertThrottle(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) (inventory.AlertThrottle, func()) {
	if cfg.Addr == "" {
		return nil, func() {}
	}
	rdb, err := redis.NewClient(ctx, cfg.Addr, cfg.Password, cfg.DB)
	if err != nil {
		log.Warn().Err(err).Msg("redis no disponible, alertas sin throttle")
		return nil, func() {}
	}
	ttl := time.Duration(cfg.LowStockAlertTTLMin) * time.Minute
	return redis.NewAlertThrottle(rdb, ttl), func() { _ = rdb.Close() }
}

// BlobStore destino de los archivos del libro según ARCHIVE_DRIVER.
func BlobStore(ctx context.Context, cfg config.ArchiveConfig) (archive.BlobStore, error) {
	switch cfg.Driver {
	case "", "fs":
		store, err := fs.New(cfg.Root)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "s3":
		store, err := s3.New(ctx, s3.Config{
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			Endpoint:  cfg.S3Endpoint,
			PathStyle: cfg.S3PathStyle,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	return nil, fmt.Errorf("ARCHIVE_DRIVER inválido %q (fs|s3)", cfg.Driver)
}
