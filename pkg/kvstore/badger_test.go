package kvstore

import (
	"errors"
	"testing"
)

type record struct {
	Name  string `json:"name"`
	Value uint64 `json:"value"`
}

func newStore(t *testing.T, prefix string) *BadgerStore {
	t.Helper()
	store, err := NewBadgerStore(Options{InMemory: true, Prefix: prefix})
	if err != nil {
		t.Fatalf("Failed to create BadgerStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestBadgerStore_BasicOperations(t *testing.T) {
	store := newStore(t, "")

	if err := store.Set("test_key", []byte("test_value")); err != nil {
		t.Fatalf("Failed to set key: %v", err)
	}
	got, err := store.Get("test_key")
	if err != nil {
		t.Fatalf("Failed to get key: %v", err)
	}
	if string(got) != "test_value" {
		t.Errorf("Expected value test_value, got %s", got)
	}

	if err := store.Delete("test_key"); err != nil {
		t.Fatalf("Failed to delete key: %v", err)
	}
	if _, err := store.Get("test_key"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("Expected ErrKeyNotFound after delete, got %v", err)
	}
}

func TestBadgerStore_EmptyKey(t *testing.T) {
	store := newStore(t, "")
	if err := store.Set("", []byte("x")); !errors.Is(err, ErrKeyEmpty) {
		t.Errorf("Expected ErrKeyEmpty, got %v", err)
	}
}

func TestBadgerStore_AnyValues(t *testing.T) {
	store := newStore(t, "game")

	if err := store.SetAny("r1", record{Name: "jackpot", Value: 42}); err != nil {
		t.Fatalf("Failed to set value: %v", err)
	}

	var r record
	found, err := store.GetAny("r1", &r)
	if err != nil || !found {
		t.Fatalf("Expected record, found=%v err=%v", found, err)
	}
	if r.Name != "jackpot" || r.Value != 42 {
		t.Errorf("Unexpected record %+v", r)
	}

	found, err = store.GetAny("missing", &r)
	if err != nil || found {
		t.Errorf("Expected not found, found=%v err=%v", found, err)
	}

	if err := store.SetAny("nil", nil); !errors.Is(err, ErrNilValue) {
		t.Errorf("Expected ErrNilValue, got %v", err)
	}
}

func TestBadgerStore_ListStripsPrefix(t *testing.T) {
	store := newStore(t, "game")

	for _, k := range []string{"rounds/2", "rounds/1", "other/1"} {
		if err := store.Set(k, []byte(k)); err != nil {
			t.Fatalf("Failed to set %s: %v", k, err)
		}
	}

	pairs, err := store.List("rounds/")
	if err != nil {
		t.Fatalf("Failed to list: %v", err)
	}
	if len(pairs) != 2 {
		t.Fatalf("Expected 2 pairs, got %d", len(pairs))
	}
	if pairs[0].Key != "rounds/1" || pairs[1].Key != "rounds/2" {
		t.Errorf("Unexpected keys %s, %s", pairs[0].Key, pairs[1].Key)
	}
}

func TestBadgerStore_UpdateIsAtomic(t *testing.T) {
	store := newStore(t, "")
	boom := errors.New("boom")

	err := store.Update(func(tx *Tx) error {
		if err := tx.Set("a", []byte("1")); err != nil {
			return err
		}
		if err := tx.Set("b", []byte("2")); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Expected boom, got %v", err)
	}
	if _, err := store.Get("a"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("Expected no write to survive a failed update, got %v", err)
	}

	err = store.Update(func(tx *Tx) error {
		if err := tx.Set("a", []byte("1")); err != nil {
			return err
		}
		v, err := tx.Get("a")
		if err != nil {
			return err
		}
		if string(v) != "1" {
			t.Errorf("Expected to read own write, got %s", v)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
}

func TestGobCodec(t *testing.T) {
	data, err := Gob.Marshal(record{Name: "n", Value: 1})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var r record
	if err := Gob.Unmarshal(data, &r); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if r.Name != "n" || r.Value != 1 {
		t.Errorf("Unexpected record %+v", r)
	}
}
