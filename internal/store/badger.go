package store

import (
	"context"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	"github.com/spigell/interviewer/internal/session"
)

const badgerKeyPrefix = "session:"

// Badger keeps msgpack-encoded snapshots in an embedded BadgerDB.
type Badger struct {
	db *badger.DB
}

func NewBadger(cfg BadgerConfig, logger *zap.Logger) (*Badger, error) {
	if !cfg.InMemory && cfg.Dir == "" {
		return nil, errors.New("badger dir is required for on-disk mode")
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	opts := badger.DefaultOptions(cfg.Dir)
	if cfg.InMemory {
		opts = opts.WithInMemory(true)
	}
	opts = opts.WithLogger(badgerLogger{logger: logger.Sugar().Named("badger")})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &Badger{db: db}, nil
}

func badgerKey(id string) []byte {
	return []byte(badgerKeyPrefix + id)
}

func (b *Badger) Upsert(_ context.Context, snap *session.Snapshot) error {
	if err := validateSnapshot(snap); err != nil {
		return err
	}

	value, err := msgpack.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(badgerKey(snap.SessionID), value)
	})
}

func (b *Badger) Get(_ context.Context, id string) (*session.Snapshot, error) {
	var value []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(badgerKey(id))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var snap session.Snapshot
	if err := msgpack.Unmarshal(value, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

func (b *Badger) Delete(_ context.Context, id string) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(badgerKey(id)); err != nil {
			return err
		}
		return txn.Delete(badgerKey(id))
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	return err
}

func (b *Badger) Close(context.Context) error {
	return b.db.Close()
}

// badgerLogger routes badger output to zap, dropping its chatty info and debug lines.
type badgerLogger struct {
	logger *zap.SugaredLogger
}

func (l badgerLogger) Errorf(f string, v ...interface{})   { l.logger.Errorf(f, v...) }
func (l badgerLogger) Warningf(f string, v ...interface{}) { l.logger.Warnf(f, v...) }
func (badgerLogger) Infof(string, ...interface{})          {}
func (badgerLogger) Debugf(string, ...interface{})         {}

var _ Store = (*Badger)(nil)
