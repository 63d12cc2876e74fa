package kvstore

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

var (
	ErrKeyNotFound = errors.New("key not found")
	ErrKeyEmpty    = errors.New("key is empty")
	ErrNilValue    = errors.New("the passed value is nil, which is not allowed")
)

type KVPair struct {
	Key   string
	Value []byte
}

type Options struct {
	// Directory is ignored when InMemory is set.
	Directory string
	InMemory  bool
	Prefix    string
	Codec     Codec
}

type BadgerStore struct {
	db     *badger.DB
	prefix string
	codec  Codec
}

func NewBadgerStore(opts Options) (*BadgerStore, error) {
	bopts := badger.DefaultOptions(opts.Directory).WithLogger(nil)
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	}
	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	codec := opts.Codec
	if codec == nil {
		codec = JSON
	}
	return &BadgerStore{
		db:     db,
		prefix: opts.Prefix,
		codec:  codec,
	}, nil
}

func (b *BadgerStore) fullKey(k string) ([]byte, error) {
	if k == "" {
		return nil, ErrKeyEmpty
	}
	if b.prefix != "" {
		return []byte(b.prefix + "/" + k), nil
	}
	return []byte(k), nil
}

func (b *BadgerStore) Get(key string) ([]byte, error) {
	var out []byte
	err := b.View(func(tx *Tx) error {
		v, err := tx.Get(key)
		out = v
		return err
	})
	return out, err
}

func (b *BadgerStore) Set(key string, value []byte) error {
	return b.Update(func(tx *Tx) error {
		return tx.Set(key, value)
	})
}

func (b *BadgerStore) SetAny(key string, value any) error {
	return b.Update(func(tx *Tx) error {
		return tx.SetAny(key, value)
	})
}

// GetAny decodes the value at key into value. found is false when the key
// does not exist.
func (b *BadgerStore) GetAny(key string, value any) (found bool, err error) {
	err = b.View(func(tx *Tx) error {
		found, err = tx.GetAny(key, value)
		return err
	})
	return found, err
}

// List returns every pair under prefix in key order. Keys are returned
// without the store prefix.
func (b *BadgerStore) List(prefix string) ([]*KVPair, error) {
	if prefix == "" {
		return nil, fmt.Errorf("prefix is empty")
	}
	searchPrefix, _ := b.fullKey(prefix)

	result := make([]*KVPair, 0)
	err := b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(searchPrefix); it.ValidForPrefix(searchPrefix); it.Next() {
			item := it.Item()
			k := item.KeyCopy(nil)
			v, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			result = append(result, &KVPair{
				Key:   b.trimPrefix(k),
				Value: v,
			})
		}
		return nil
	})
	return result, err
}

func (b *BadgerStore) trimPrefix(k []byte) string {
	if b.prefix == "" {
		return string(k)
	}
	return string(k[len(b.prefix)+1:])
}

func (b *BadgerStore) Delete(key string) error {
	return b.Update(func(tx *Tx) error {
		return tx.Delete(key)
	})
}

// Update runs fn in one read-write transaction. Nothing fn writes is visible
// unless it returns nil.
func (b *BadgerStore) Update(fn func(tx *Tx) error) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return fn(&Tx{txn: txn, store: b})
	})
}

// View runs fn in a read-only transaction.
func (b *BadgerStore) View(fn func(tx *Tx) error) error {
	return b.db.View(func(txn *badger.Txn) error {
		return fn(&Tx{txn: txn, store: b})
	})
}

// Codec returns the codec SetAny and GetAny use.
func (b *BadgerStore) Codec() Codec {
	return b.codec
}

func (b *BadgerStore) Close() error {
	return b.db.Close()
}

// Tx is a transaction over the store's keyspace.
type Tx struct {
	txn   *badger.Txn
	store *BadgerStore
}

func (t *Tx) Get(key string) ([]byte, error) {
	k, err := t.store.fullKey(key)
	if err != nil {
		return nil, err
	}
	item, err := t.txn.Get(k)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}
	return item.ValueCopy(nil)
}

func (t *Tx) Set(key string, value []byte) error {
	k, err := t.store.fullKey(key)
	if err != nil {
		return err
	}
	return t.txn.Set(k, value)
}

func (t *Tx) SetAny(key string, value any) error {
	if value == nil {
		return ErrNilValue
	}
	data, err := t.store.codec.Marshal(value)
	if err != nil {
		return err
	}
	return t.Set(key, data)
}

func (t *Tx) GetAny(key string, value any) (bool, error) {
	if value == nil {
		return false, ErrNilValue
	}
	data, err := t.Get(key)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, t.store.codec.Unmarshal(data, value)
}

func (t *Tx) Delete(key string) error {
	k, err := t.store.fullKey(key)
	if err != nil {
		return err
	}
	return t.txn.Delete(k)
}
