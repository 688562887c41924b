// Package store persists session snapshots keyed by session id.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/interviewer/internal/session"
)

// ErrNotFound is returned by Get and Delete for an unknown session id.
var ErrNotFound = errors.New("session not found")

// Store upserts whole snapshots by session id. Implementations must be safe
// for concurrent writes to distinct ids.
type Store interface {
	Upsert(ctx context.Context, snap *session.Snapshot) error
	Get(ctx context.Context, id string) (*session.Snapshot, error)
	Delete(ctx context.Context, id string) error
	Close(ctx context.Context) error
}

// Drivers accepted by Open.
const (
	DriverMemory = "memory"
	DriverBadger = "badger"
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

type Config struct {
	Driver string       `mapstructure:"driver"`
	Badger BadgerConfig `mapstructure:"badger"`
	SQLite SQLiteConfig `mapstructure:"sqlite"`
	Mongo  MongoConfig  `mapstructure:"mongo"`
}

type BadgerConfig struct {
	Dir      string `mapstructure:"dir"`
	InMemory bool   `mapstructure:"in-memory"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

type MongoConfig struct {
	URI        string `mapstructure:"uri"`
	Database   string `mapstructure:"database"`
	Collection string `mapstructure:"collection"`
}

// Open builds the backend selected by cfg.Driver. An empty driver means memory.
func Open(ctx context.Context, cfg Config, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	logger.Info("opening session store", zap.String("driver", driver))

	switch driver {
	case "", DriverMemory:
		return NewMemory(), nil
	case DriverBadger:
		return NewBadger(cfg.Badger, logger)
	case DriverSQLite:
		return NewSQLite(cfg.SQLite.Path)
	case DriverMongo:
		return NewMongo(ctx, cfg.Mongo)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

func validateSnapshot(snap *session.Snapshot) error {
	if snap == nil {
		return errors.New("snapshot is nil")
	}
	if strings.TrimSpace(snap.SessionID) == "" {
		return errors.New("snapshot has no session id")
	}
	return nil
}
