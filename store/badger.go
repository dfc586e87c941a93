package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/rushteam/prodrec/core"
)

// BadgerStore 是 BadgerDB 实现的 Store，适合单机持久化。
// 读写都在事务中完成。
type BadgerStore struct {
	db     *badger.DB
	owned  bool
	prefix string
}

// NewBadgerStore 打开 dir 下的 BadgerDB；dir 为空时使用内存模式。
func NewBadgerStore(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleStore, core.ErrorCodeUnavailable,
			fmt.Sprintf("store: open badger %s", dir), err)
	}
	return &BadgerStore{db: db, owned: true, prefix: "prodrec:"}, nil
}

// NewBadgerStoreFromDB 复用已打开的 DB，Close 不会关闭它。
func NewBadgerStoreFromDB(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db, prefix: "prodrec:"}
}

func (b *BadgerStore) Name() string { return "badger" }

func (b *BadgerStore) key(k string) []byte { return []byte(b.prefix + k) }

func (b *BadgerStore) Get(ctx context.Context, key string) ([]byte, error) {
	var out []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(b.key(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return core.ErrStoreNotFound
		}
		if err != nil {
			return fmt.Errorf("get %s: %w", key, err)
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (b *BadgerStore) Set(ctx context.Context, key string, value []byte) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(b.key(key), value)
	})
}

func (b *BadgerStore) Delete(ctx context.Context, key string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(b.key(key))
	})
}

func (b *BadgerStore) Close() error {
	if !b.owned {
		return nil
	}
	return b.db.Close()
}
