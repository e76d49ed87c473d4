// Comando backfill_codes asigna códigos de categoría a los tenants creados antes
// del asignador. Se puede ejecutar varias veces sin efectos duplicados.
//
//	backfill_codes --dry-run
//	backfill_codes --limit 100
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/cristiano-superacao/prescrimed-sub000/internal/application/sequence"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/application/tenant"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/infrastructure/bootstrap"
	"github.com/cristiano-superacao/prescrimed-sub000/pkg/config"
	"github.com/cristiano-superacao/prescrimed-sub000/pkg/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	flags := pflag.NewFlagSet("backfill_codes", pflag.ContinueOnError)
	flags.Bool("dry-run", false, "reporta los códigos que se asignarían sin escribir")
	flags.Int("limit", 0, "máximo de tenants a procesar (0 = todos)")
	flags.String("db-driver", "", "postgres | sqlite (por defecto DB_DRIVER)")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return 0
		}
		return 2
	}

	v := viper.New()
	_ = v.BindPFlag("DRY_RUN", flags.Lookup("dry-run"))
	_ = v.BindPFlag("LIMIT", flags.Lookup("limit"))
	if flags.Changed("db-driver") {
		_ = v.BindPFlag("DB_DRIVER", flags.Lookup("db-driver"))
	}

	cfg, err := config.LoadWith(v)
	if err != nil {
		fmt.Fprintln(os.Stderr, "cargar configuración:", err)
		return 1
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Out: os.Stderr})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stores, err := bootstrap.OpenStores(ctx, cfg.DB, log)
	if err != nil {
		log.Error().Err(err).Msg("abrir almacén")
		return 1
	}
	defer stores.Close()

	publisher, closePublisher := bootstrap.Publisher(cfg.Kafka, log)
	defer closePublisher()

	retry := sequence.RetryPolicy{
		MaxAttempts: cfg.Sequence.MaxRetries,
		BaseDelay:   time.Duration(cfg.Sequence.BackoffMS) * time.Millisecond,
		MaxDelay:    500 * time.Millisecond,
	}
	allocator := sequence.NewAllocator(stores.Tx, retry, log)
	backfill := tenant.NewBackfill(stores.Tx, stores.Tenants, allocator, retry, publisher, log)

	report, err := backfill.Run(ctx, tenant.BackfillOptions{
		DryRun: v.GetBool("DRY_RUN"),
		Limit:  v.GetInt("LIMIT"),
	})
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if report != nil {
		_ = enc.Encode(report)
	}
	if err != nil {
		log.Error().Err(err).Int("assigned", len(report.Assigned)).Msg("backfill interrumpido")
		return 1
	}
	return 0
}
