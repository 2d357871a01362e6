package kv_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/fanhub-app/fanhub/internal/repo/kv"
)

func newSQLiteStore(t *testing.T) kv.Store {
	t.Helper()

	store, err := kv.NewSQLiteStore(kv.SQLiteStoreConfig{
		DatabasePath: filepath.Join(t.TempDir(), "kv.db"),
	})
	if err != nil {
		t.Fatalf("new sqlite store: %v", err)
	}

	t.Cleanup(func() { _ = store.Close() })

	return store
}

func newRedisStore(t *testing.T) kv.Store {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := kv.NewRedisStoreWithClient(rdb, "test:")

	t.Cleanup(func() {
		_ = store.Close()
		mr.Close()
	})

	return store
}

//nolint:paralleltest
func TestStore_Conformance(t *testing.T) {
	backends := []struct {
		name  string
		setup func(t *testing.T) kv.Store
	}{
		{name: "sqlite", setup: newSQLiteStore},
		{name: "redis", setup: newRedisStore},
		{name: "memory", setup: func(t *testing.T) kv.Store {
			t.Helper()
			return kv.NewMemoryStore()
		}},
	}

	for _, backend := range backends {
		t.Run(backend.name, func(t *testing.T) {
			store := backend.setup(t)
			ctx := context.Background()

			// missing key is not an error
			if _, ok, err := store.Get(ctx, "absent"); err != nil || ok {
				t.Fatalf("Get(absent) = ok %t, err %v; want false, nil", ok, err)
			}

			// set and read back
			if err := store.Set(ctx, "auth_token", "abc123"); err != nil {
				t.Fatalf("Set: %v", err)
			}

			value, ok, err := store.Get(ctx, "auth_token")
			if err != nil || !ok || value != "abc123" {
				t.Fatalf("Get = %q, %t, %v; want abc123, true, nil", value, ok, err)
			}

			// overwrite
			if err := store.Set(ctx, "auth_token", "def456"); err != nil {
				t.Fatalf("Set overwrite: %v", err)
			}

			value, _, _ = store.Get(ctx, "auth_token")
			if value != "def456" {
				t.Fatalf("Get after overwrite = %q, want def456", value)
			}

			// delete, twice
			if err := store.Delete(ctx, "auth_token"); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if err := store.Delete(ctx, "auth_token"); err != nil {
				t.Fatalf("Delete (again): %v", err)
			}

			if _, ok, _ := store.Get(ctx, "auth_token"); ok {
				t.Fatal("Get after delete reported a value")
			}
		})
	}
}

//nolint:paralleltest
func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.db")
	ctx := context.Background()

	store, err := kv.NewSQLiteStore(kv.SQLiteStoreConfig{DatabasePath: path})
	if err != nil {
		t.Fatalf("new sqlite store: %v", err)
	}

	if err := store.Set(ctx, "auth_token", "persisted"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := kv.NewSQLiteStore(kv.SQLiteStoreConfig{DatabasePath: path})
	if err != nil {
		t.Fatalf("reopen sqlite store: %v", err)
	}
	defer reopened.Close()

	value, ok, err := reopened.Get(ctx, "auth_token")
	if err != nil || !ok || value != "persisted" {
		t.Fatalf("Get after reopen = %q, %t, %v; want persisted, true, nil", value, ok, err)
	}
}

func TestFactory_UnknownBackend(t *testing.T) {
	t.Parallel()

	_, err := kv.Factory(kv.Config{Backend: "etcd"})()
	if !errors.Is(err, kv.ErrUnknownBackend) {
		t.Fatalf("err = %v, want ErrUnknownBackend", err)
	}
}

func TestFactory_Memory(t *testing.T) {
	t.Parallel()

	store, err := kv.Factory(kv.Config{Backend: "memory"})()
	if err != nil {
		t.Fatalf("factory: %v", err)
	}

	if _, ok := store.(*kv.MemoryStore); !ok {
		t.Fatalf("store = %T, want *kv.MemoryStore", store)
	}
}
