package store

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rushteam/prodrec/core"
)

func openBackends(t *testing.T) map[string]core.Store {
	t.Helper()
	ctx := context.Background()

	fileStore, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	badgerStore, err := NewBadgerStore("")
	if err != nil {
		t.Fatalf("NewBadgerStore() error = %v", err)
	}
	sqliteStore, err := NewSQLiteStore(ctx, filepath.Join(t.TempDir(), "kv.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}

	backends := map[string]core.Store{
		"memory": NewMemoryStore(),
		"file":   fileStore,
		"badger": badgerStore,
		"sqlite": sqliteStore,
	}
	if addr := os.Getenv("PRODREC_TEST_REDIS_ADDR"); addr != "" {
		redisStore, err := NewRedisStore(ctx, addr, "", 15)
		if err != nil {
			t.Fatalf("NewRedisStore() error = %v", err)
		}
		backends["redis"] = redisStore
	}
	t.Cleanup(func() {
		for _, s := range backends {
			_ = s.Close()
		}
	})
	return backends
}

func TestStore_Conformance(t *testing.T) {
	ctx := context.Background()
	for name, s := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			key := "test/conformance"
			_ = s.Delete(ctx, key)

			if _, err := s.Get(ctx, key); !core.IsStoreNotFound(err) {
				t.Fatalf("Get(missing) error = %v, want not found", err)
			}

			v1 := []byte{0x00, 0x01, 0xff, 'a'}
			if err := s.Set(ctx, key, v1); err != nil {
				t.Fatalf("Set() error = %v", err)
			}
			got, err := s.Get(ctx, key)
			if err != nil || !bytes.Equal(got, v1) {
				t.Fatalf("Get() = %v, %v; want %v", got, err, v1)
			}

			v2 := bytes.Repeat([]byte("x"), 1<<16)
			if err := s.Set(ctx, key, v2); err != nil {
				t.Fatalf("Set(overwrite) error = %v", err)
			}
			if got, _ := s.Get(ctx, key); !bytes.Equal(got, v2) {
				t.Errorf("overwrite not visible, len = %d", len(got))
			}

			if err := s.Delete(ctx, key); err != nil {
				t.Fatalf("Delete() error = %v", err)
			}
			if _, err := s.Get(ctx, key); !core.IsStoreNotFound(err) {
				t.Errorf("Get(deleted) error = %v", err)
			}
			if err := s.Delete(ctx, key); err != nil {
				t.Errorf("Delete(missing) error = %v", err)
			}
		})
	}
}

func TestMemoryStore_CopiesValues(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	v := []byte("abc")
	_ = s.Set(ctx, "k", v)
	v[0] = 'z'
	got, _ := s.Get(ctx, "k")
	if string(got) != "abc" {
		t.Errorf("stored value mutated: %q", got)
	}
}

func TestFileStore_NoTempLeftovers(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	if err := s.Set(context.Background(), "prodrec/artifact", []byte("data")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 || entries[0].Name() != "prodrec_artifact.bin" {
		t.Errorf("dir entries = %v", entries)
	}
}

func TestOpen_UnknownBackend(t *testing.T) {
	if _, err := Open(context.Background(), Config{Backend: "s3"}); !core.IsNotSupported(err) {
		t.Errorf("Open() error = %v", err)
	}
	s, err := Open(context.Background(), Config{Backend: BackendMemory})
	if err != nil || s.Name() != "memory" {
		t.Errorf("Open(memory) = %v, %v", s, err)
	}
}
