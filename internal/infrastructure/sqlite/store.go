// Package sqlite implementa los puertos de persistencia sobre SQLite (modernc, sin cgo)
// con sqlx. Todas las transacciones abren con BEGIN IMMEDIATE: el candado de escritura
// se toma al inicio y los escritores quedan serializados.
package sqlite

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // driver puro Go
)

//go:embed schema.sql
var schema string

// DefaultBusyTimeout espera ante el candado de escritura antes de devolver SQLITE_BUSY.
const DefaultBusyTimeout = 5 * time.Second

// Store conexión SQLite compartida por repositorios y TxRunner.
type Store struct {
	db   *sqlx.DB
	path string
}

// Open abre (o crea) la base en path, aplica pragmas y, si migrate es true, el esquema.
func Open(ctx context.Context, path string, busyTimeout time.Duration, migrate bool) (*Store, error) {
	if path == "" {
		path = "prescrimed.db"
	}
	if busyTimeout <= 0 {
		busyTimeout = DefaultBusyTimeout
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}

	db, err := sqlx.Open("sqlite", dsn(path, busyTimeout))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	s := &Store{db: db, path: path}
	if migrate {
		if err := s.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return s, nil
}

func dsn(path string, busyTimeout time.Duration) string {
	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busyTimeout.Milliseconds()))
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "synchronous(NORMAL)")
	q.Set("_txlock", "immediate")
	q.Set("_time_format", "sqlite")
	return "file:" + path + "?" + q.Encode()
}

// Migrate aplica el esquema embebido (idempotente).
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply sqlite schema: %w", err)
	}
	return nil
}

// DB expone la conexión para lecturas fuera de transacción.
func (s *Store) DB() *sqlx.DB { return s.db }

// Path ruta del archivo de base.
func (s *Store) Path() string { return s.path }

// Close cierra la conexión.
func (s *Store) Close() error { return s.db.Close() }
