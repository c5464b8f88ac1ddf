package kvstore

import (
	"errors"
	"strings"
	"testing"
)

func backends(t *testing.T, quota int) map[string]Store {
	t.Helper()
	sqlite, err := NewSQLiteStore(t.TempDir(), quota)
	if err != nil {
		t.Fatalf("sqlite store: %v", err)
	}
	t.Cleanup(func() { _ = sqlite.Close() })
	return map[string]Store{
		"memory": NewMemStore(quota),
		"file":   NewFileStore(t.TempDir(), quota),
		"sqlite": sqlite,
	}
}

func TestStoreSetGetRemove(t *testing.T) {
	for name, st := range backends(t, 0) {
		t.Run(name, func(t *testing.T) {
			if _, ok := st.Get("missing"); ok {
				t.Fatalf("unexpected hit for missing key")
			}
			if err := st.Set("a", "1"); err != nil {
				t.Fatalf("set: %v", err)
			}
			if err := st.Set("b", "2"); err != nil {
				t.Fatalf("set: %v", err)
			}
			if err := st.Set("a", "updated"); err != nil {
				t.Fatalf("overwrite: %v", err)
			}

			v, ok := st.Get("a")
			if !ok || v != "updated" {
				t.Fatalf("get a = %q, %v", v, ok)
			}

			keys := st.Keys()
			if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
				t.Fatalf("keys = %v", keys)
			}

			st.Remove("a")
			if _, ok := st.Get("a"); ok {
				t.Fatalf("removed key still present")
			}
			// Removing an absent key is fine.
			st.Remove("a")
		})
	}
}

func TestStoreQuota(t *testing.T) {
	for name, st := range backends(t, 32) {
		t.Run(name, func(t *testing.T) {
			if err := st.Set("k", strings.Repeat("v", 20)); err != nil {
				t.Fatalf("set within quota: %v", err)
			}
			err := st.Set("k2", strings.Repeat("v", 20))
			if !errors.Is(err, ErrQuotaExceeded) {
				t.Fatalf("expected ErrQuotaExceeded, got %v", err)
			}
			// The rejected write is not applied.
			if _, ok := st.Get("k2"); ok {
				t.Fatalf("rejected write was applied")
			}
			// Overwriting an existing key re-counts only the new value.
			if err := st.Set("k", "small"); err != nil {
				t.Fatalf("overwrite within quota: %v", err)
			}
		})
	}
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	st := NewFileStore(dir, 0)
	if err := st.Set("persist", "me"); err != nil {
		t.Fatalf("set: %v", err)
	}

	again := NewFileStore(dir, 0)
	v, ok := again.Get("persist")
	if !ok || v != "me" {
		t.Fatalf("reopened store: got %q, %v", v, ok)
	}
}

func TestSQLiteStoreSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	st, err := NewSQLiteStore(dir, 0)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := st.Set("persist", "me"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	again, err := NewSQLiteStore(dir, 0)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer again.Close()
	v, ok := again.Get("persist")
	if !ok || v != "me" {
		t.Fatalf("reopened store: got %q, %v", v, ok)
	}
}
