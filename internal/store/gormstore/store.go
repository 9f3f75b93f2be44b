package gormstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"fincoach/internal/store"
	"fincoach/internal/store/model"
)

// GormStore implements the storage port using Gorm + SQLite.
type GormStore struct {
	db *gorm.DB
}

var _ store.Store = (*GormStore)(nil)

// New opens (or creates) the SQLite database at path and migrates the schema.
func New(path string) (*GormStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("gorm store: database path cannot be empty")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}
	return NewFromDB(db)
}

// NewFromDB wraps an existing gorm handle, running migrations on it.
func NewFromDB(db *gorm.DB) (*GormStore, error) {
	if db == nil {
		return nil, fmt.Errorf("gorm store: db handle cannot be nil")
	}
	models := []interface{}{
		&model.AccountModel{},
		&model.TransactionModel{},
		&model.ConsentModel{},
		&model.SignalModel{},
		&model.PersonaAssignmentModel{},
		&model.RecommendationModel{},
		&model.TraceStepModel{},
	}
	if err := db.AutoMigrate(models...); err != nil {
		return nil, err
	}
	if sqlDB, err := db.DB(); err == nil {
		// SQLite + WAL: keep contention low while allowing concurrent
		// HTTP reads alongside pipeline writes.
		sqlDB.SetMaxOpenConns(2)
		sqlDB.SetMaxIdleConns(2)
	}
	return &GormStore{db: db}, nil
}

// Begin starts a transaction-scoped unit of work.
func (s *GormStore) Begin(ctx context.Context) (store.UnitOfWork, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("gorm store not initialized")
	}
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return &unitOfWork{tx: tx}, nil
}

// Close closes the underlying database connection.
func (s *GormStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// GormDB exposes the underlying handle for seeding and tests.
func (s *GormStore) GormDB() *gorm.DB {
	if s == nil {
		return nil
	}
	return s.db
}

type unitOfWork struct {
	tx *gorm.DB
}

var _ store.UnitOfWork = (*unitOfWork)(nil)

func (u *unitOfWork) Commit() error {
	if u == nil || u.tx == nil {
		return fmt.Errorf("unit of work not initialized")
	}
	return u.tx.Commit().Error
}

func (u *unitOfWork) Rollback() error {
	if u == nil || u.tx == nil {
		return fmt.Errorf("unit of work not initialized")
	}
	return u.tx.Rollback().Error
}

func (u *unitOfWork) Records() store.RecordRepository { return &recordRepo{tx: u.tx} }
func (u *unitOfWork) Consents() store.ConsentRepository {
	return &consentRepo{tx: u.tx}
}
func (u *unitOfWork) Signals() store.SignalRepository { return &signalRepo{tx: u.tx} }
func (u *unitOfWork) Personas() store.PersonaRepository {
	return &personaRepo{tx: u.tx}
}
func (u *unitOfWork) Recommendations() store.RecommendationRepository {
	return &recommendationRepo{tx: u.tx}
}
