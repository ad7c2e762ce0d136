package storage

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/dgraph-io/badger/v4"

	"github.com/dep2p/go-p2pcomm/internal/util/logger"
	pkgif "github.com/dep2p/go-p2pcomm/pkg/interfaces"
)

var log = logger.Logger("core/storage")

// DB BadgerDB 键值存储
type DB struct {
	db     *badger.DB
	closed atomic.Bool
}

var _ pkgif.Engine = (*DB)(nil)

// Open 打开数据库
func Open(cfg Config) (*DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.ensureDir(); err != nil {
		return nil, fmt.Errorf("storage: create dir: %w", err)
	}

	opts := badger.DefaultOptions(cfg.Path).
		WithSyncWrites(cfg.SyncWrites).
		WithLogger(&badgerLogger{log})
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true).WithLogger(&badgerLogger{log})
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("storage: open: %w", err)
	}

	log.Debug("数据库已打开", "path", cfg.Path, "inMemory", cfg.InMemory)
	return &DB{db: db}, nil
}

// Get 获取键值，不存在时返回 ErrNotFound
func (d *DB) Get(key []byte) ([]byte, error) {
	if err := d.check(key); err != nil {
		return nil, err
	}

	var value []byte
	err := d.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	return value, err
}

// Put 写入键值
func (d *DB) Put(key, value []byte) error {
	if err := d.check(key); err != nil {
		return err
	}
	return d.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
}

// Delete 删除键，不存在时不报错
func (d *DB) Delete(key []byte) error {
	if err := d.check(key); err != nil {
		return err
	}
	return d.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

// Has 检查键是否存在
func (d *DB) Has(key []byte) (bool, error) {
	if err := d.check(key); err != nil {
		return false, err
	}

	err := d.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		return err
	})
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, badger.ErrKeyNotFound):
		return false, nil
	default:
		return false, err
	}
}

// Scan 按键序遍历前缀下的键值对
func (d *DB) Scan(prefix []byte, fn func(key, value []byte) error) error {
	if d.closed.Load() {
		return ErrClosed
	}

	return d.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			err := item.Value(func(v []byte) error {
				return fn(item.Key(), v)
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// Close 关闭数据库，可重复调用
func (d *DB) Close() error {
	if d.closed.Swap(true) {
		return nil
	}
	return d.db.Close()
}

func (d *DB) check(key []byte) error {
	if d.closed.Load() {
		return ErrClosed
	}
	if len(key) == 0 {
		return ErrEmptyKey
	}
	return nil
}

// badgerLogger 将 badger 日志转到 slog
type badgerLogger struct {
	l *slog.Logger
}

func (b *badgerLogger) Errorf(format string, args ...interface{}) {
	b.l.Error(fmt.Sprintf(format, args...))
}

func (b *badgerLogger) Warningf(format string, args ...interface{}) {
	b.l.Warn(fmt.Sprintf(format, args...))
}

func (b *badgerLogger) Infof(format string, args ...interface{}) {
	b.l.Debug(fmt.Sprintf(format, args...))
}

func (b *badgerLogger) Debugf(format string, args ...interface{}) {
	b.l.Debug(fmt.Sprintf(format, args...))
}
