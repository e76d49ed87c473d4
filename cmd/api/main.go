package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	_ "github.com/cristiano-superacao/prescrimed-sub000/docs"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/application/archive"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/application/inventory"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/application/sequence"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/application/tenant"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/infrastructure/bootstrap"
	httpRouter "github.com/cristiano-superacao/prescrimed-sub000/internal/interfaces/http"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/observability"
	"github.com/cristiano-superacao/prescrimed-sub000/pkg/config"
	"github.com/cristiano-superacao/prescrimed-sub000/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("db_driver", cfg.DB.Driver).
		Msg("iniciando aplicación")

	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("JWT_SECRET requerido")
	}

	ctx := context.Background()

	tp, err := observability.InitTracer(cfg.App.Name, cfg.Tracing.JaegerEndpoint)
	if err != nil {
		log.Warn().Err(err).Msg("tracing deshabilitado")
	}
	if tp != nil {
		defer func() { _ = tp.Shutdown(context.Background()) }()
	}

	stores, err := bootstrap.OpenStores(ctx, cfg.DB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("abrir almacén")
	}
	defer stores.Close()

	publisher, closePublisher := bootstrap.Publisher(cfg.Kafka, log)
	defer closePublisher()
	throttle, closeThrottle := bootstrap.AlertThrottle(ctx, cfg.Redis, log)
	defer closeThrottle()

	var exporter *archive.Exporter
	blobs, err := bootstrap.BlobStore(ctx, cfg.Archive)
	if err != nil {
		log.Warn().Err(err).Msg("archivo del libro deshabilitado")
	} else {
		exporter = archive.NewExporter(stores.Tenants, stores.Counters, stores.Items, stores.Movements, blobs, log)
	}

	retry := sequence.RetryPolicy{
		MaxAttempts: cfg.Sequence.MaxRetries,
		BaseDelay:   time.Duration(cfg.Sequence.BackoffMS) * time.Millisecond,
		MaxDelay:    500 * time.Millisecond,
	}
	allocator := sequence.NewAllocator(stores.Tx, retry, log)
	registrar := tenant.NewRegistrar(stores.Tx, stores.Tenants, allocator, retry, publisher, log)
	backfill := tenant.NewBackfill(stores.Tx, stores.Tenants, allocator, retry, publisher, log)
	ledger := inventory.NewRegisterMovementUseCase(stores.Tx, publisher, throttle, log)
	itemUC := inventory.NewItemUseCase(stores.Tx, stores.Items, stores.Movements, ledger)
	movementQuery := inventory.NewMovementQueryUseCase(stores.Movements)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(cors.New())
	app.Use(httpRouter.MetricsMiddleware())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Prescrimed Core API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		status := "ok"
		if err := stores.Ping(c.UserContext()); err != nil {
			status = "degraded"
		}
		return c.JSON(fiber.Map{"status": status, "service": cfg.App.Name, "db": stores.Driver})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	httpRouter.Router(app, httpRouter.RouterDeps{
		Registrar:     registrar,
		Backfill:      backfill,
		Allocator:     allocator,
		Items:         itemUC,
		Ledger:        ledger,
		MovementQuery: movementQuery,
		Exporter:      exporter,
		JWTSecret:     cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
