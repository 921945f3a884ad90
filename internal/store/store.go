// Package store is the embedded, single-writer persistence layer. It wraps a
// gorm sqlite database and exposes one repository method per persisted
// operation. Multi-entity writes go through Transaction so that one logical
// operation lands as a single atomic unit.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"shopledger/internal/logger"
	"shopledger/pkg/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Store is the ledger database.
type Store struct {
	db  *gorm.DB
	log zerolog.Logger
}

// allModels lists every table the ledger owns, in migration order.
var allModels = []interface{}{
	&models.Customer{},
	&models.InventoryItem{},
	&models.Job{},
	&models.Part{},
	&models.Invoice{},
	&models.Payment{},
	&models.Expense{},
	&models.Reminder{},
	&models.Attachment{},
	&models.AuditLog{},
	&models.ExternalReference{},
	&models.Settings{},
}

// Open opens (creating if needed) the sqlite database at path and migrates it.
// ":memory:" gives a private in-memory database.
func Open(path string) (*Store, error) {
	const op = "store.Open"

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open %s: %w", op, path, err)
	}

	// One connection: the ledger has a single writer, and an in-memory
	// database only exists on the connection that created it.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	sqlDB.SetMaxOpenConns(1)

	return New(db)
}

// New wraps an existing gorm handle and migrates the schema.
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(allModels...); err != nil {
		return nil, fmt.Errorf("store.New: auto-migrate failed: %w", err)
	}
	return &Store{db: db, log: logger.WithComponent("store")}, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Transaction runs fn inside one database transaction. Every write fn makes
// through tx commits together or not at all. Nested calls use savepoints.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(gtx *gorm.DB) error {
		return fn(&Store{db: gtx, log: s.log})
	})
}

// errRollback forces a rollback from inside Rollback.
var errRollback = errors.New("rollback requested")

// Rollback runs fn inside a transaction that is always rolled back. It is
// used for dry runs: fn sees its own writes, nothing is persisted.
func (s *Store) Rollback(ctx context.Context, fn func(tx *Store) error) error {
	err := s.Transaction(ctx, func(tx *Store) error {
		if err := fn(tx); err != nil {
			return err
		}
		return errRollback
	})
	if errors.Is(err, errRollback) {
		return nil
	}
	return err
}

func (s *Store) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
