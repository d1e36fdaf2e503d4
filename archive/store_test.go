package archive_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/go-cmp/cmp"

	"github.com/tailored-agentic-units/agentcomm/archive"
)

// backends returns a fresh Store for every implementation.
func backends(t *testing.T) map[string]archive.Store {
	t.Helper()
	ctx := context.Background()

	sqlite, err := archive.NewSQLiteStore(ctx, filepath.Join(t.TempDir(), "archive.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}

	mr := miniredis.RunT(t)
	redis, err := archive.NewRedisStore(ctx, mr.Addr(), "test:")
	if err != nil {
		t.Fatalf("NewRedisStore() error = %v", err)
	}

	stores := map[string]archive.Store{
		"file":   archive.NewFileStore(t.TempDir()),
		"sqlite": sqlite,
		"redis":  redis,
	}
	t.Cleanup(func() {
		for name, store := range stores {
			if err := store.Close(); err != nil {
				t.Errorf("%s Close() error = %v", name, err)
			}
		}
	})
	return stores
}

func TestStore_Contract(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			keys, err := store.List(ctx, "")
			if err != nil {
				t.Fatalf("List() on empty store error = %v", err)
			}
			if len(keys) != 0 {
				t.Errorf("List() on empty store = %v, want none", keys)
			}

			entries := []archive.Entry{
				{Key: "threads/t-1.json", Value: []byte(`{"id":"t-1"}`)},
				{Key: "messages/b.json", Value: []byte(`{"id":"b"}`)},
				{Key: "messages/a.json", Value: []byte(`{"id":"a"}`)},
			}
			if err := store.Save(ctx, entries...); err != nil {
				t.Fatalf("Save() error = %v", err)
			}

			keys, err = store.List(ctx, "messages/")
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if diff := cmp.Diff([]string{"messages/a.json", "messages/b.json"}, keys); diff != "" {
				t.Errorf("List(messages/) mismatch (-want +got):\n%s", diff)
			}

			all, err := store.List(ctx, "")
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(all) != 3 {
				t.Errorf("List(\"\") = %v, want 3 keys", all)
			}

			loaded, err := store.Load(ctx, "messages/b.json", "threads/t-1.json")
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if string(loaded[0].Value) != `{"id":"b"}` || loaded[1].Key != "threads/t-1.json" {
				t.Errorf("Load() = %+v, want requested order", loaded)
			}

			if err := store.Save(ctx, archive.Entry{Key: "messages/a.json", Value: []byte("v2")}); err != nil {
				t.Fatalf("Save() overwrite error = %v", err)
			}
			loaded, err = store.Load(ctx, "messages/a.json")
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if string(loaded[0].Value) != "v2" {
				t.Errorf("overwritten value = %q, want v2", loaded[0].Value)
			}

			if _, err := store.Load(ctx, "messages/missing.json"); !errors.Is(err, archive.ErrKeyNotFound) {
				t.Errorf("Load(missing) error = %v, want ErrKeyNotFound", err)
			}

			if err := store.Delete(ctx, "messages/a.json", "messages/missing.json"); err != nil {
				t.Fatalf("Delete() error = %v", err)
			}
			keys, _ = store.List(ctx, "messages/")
			if diff := cmp.Diff([]string{"messages/b.json"}, keys); diff != "" {
				t.Errorf("List() after Delete mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRedisStore_PrefixIsolation(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	first, err := archive.NewRedisStore(ctx, mr.Addr(), "hub-a:")
	if err != nil {
		t.Fatalf("NewRedisStore() error = %v", err)
	}
	defer first.Close()

	second, err := archive.NewRedisStore(ctx, "redis://"+mr.Addr(), "hub-b:")
	if err != nil {
		t.Fatalf("NewRedisStore(url) error = %v", err)
	}
	defer second.Close()

	if err := first.Save(ctx, archive.Entry{Key: "messages/x.json", Value: []byte("a")}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	keys, err := second.List(ctx, "")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("second store sees %v, want nothing", keys)
	}

	if !mr.Exists("hub-a:messages/x.json") {
		t.Error("expected prefixed key in redis")
	}
}

func TestNewRedisStore_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	if _, err := archive.NewRedisStore(context.Background(), addr, ""); err == nil {
		t.Error("NewRedisStore() should fail when redis is unreachable")
	}
}
