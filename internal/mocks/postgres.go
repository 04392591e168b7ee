package mocks

import (
	"context"
	"errors"

	"github.com/Billy-Davies-2/picklewickel-scores/internal/dal"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/logger"
)

// MockPostgresStore provides a mock Postgres store using SQLite for local development
type MockPostgresStore struct {
	dal.Store
}

// NewMockPostgresStore creates a mock Postgres store backed by SQLite
func NewMockPostgresStore(sqliteFile string) (*MockPostgresStore, error) {
	logger.Info("Using MOCK Postgres (SQLite) for local development")

	sqliteStore, err := dal.NewSQLiteStore(sqliteFile)
	if err != nil {
		return nil, err
	}

	return &MockPostgresStore{
		Store: sqliteStore,
	}, nil
}

// ErrStoreDown is returned by every FailingStore call
var ErrStoreDown = errors.New("store unavailable")

// FailingStore is a store whose every call fails, for exercising outage paths
type FailingStore struct{}

func (FailingStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, ErrStoreDown
}

func (FailingStore) Set(ctx context.Context, key string, value []byte) error {
	return ErrStoreDown
}

func (FailingStore) Ping(ctx context.Context) error {
	return ErrStoreDown
}

func (FailingStore) Close() error {
	return nil
}
