package utils

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

type sample struct {
	ID    string `json:"id"`
	Nodes int    `json:"nodes"`
}

func TestSnapshotStore(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "snapshots")
	store, err := OpenSnapshotStore(dbPath)
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}

	testSnapshotMissing(t, store)
	saved := testSnapshotRoundTrip(t, store)

	if err := store.Close(); err != nil {
		t.Fatalf("Failed to close store: %v", err)
	}

	testSnapshotPersistence(t, dbPath, saved)
}

func testSnapshotMissing(t *testing.T, store *SnapshotStore) {
	var out []sample
	if _, err := store.Load("facilities", &out); !errors.Is(err, ErrNoSnapshot) {
		t.Errorf("Load on empty store: err = %v, want ErrNoSnapshot", err)
	}
}

func testSnapshotRoundTrip(t *testing.T, store *SnapshotStore) time.Time {
	first := []sample{{"a", 1}}
	second := []sample{{"a", 1}, {"b", 7}}
	at := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

	if err := store.Save("facilities", first, at.Add(-time.Hour)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Save("facilities", second, at); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	var out []sample
	got, err := store.Load("facilities", &out)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !got.Equal(at) {
		t.Errorf("saved at = %v, want %v", got, at)
	}
	if len(out) != 2 || out[1] != (sample{"b", 7}) {
		t.Errorf("Load = %+v, want latest save", out)
	}
	return at
}

func testSnapshotPersistence(t *testing.T, dbPath string, saved time.Time) {
	store, err := OpenSnapshotStore(dbPath)
	if err != nil {
		t.Fatalf("Failed to reopen store: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			t.Logf("Error closing store: %v", err)
		}
	}()

	var out []sample
	got, err := store.Load("facilities", &out)
	if err != nil || !got.Equal(saved) || len(out) != 2 {
		t.Errorf("after reopen: %v %v %+v", got, err, out)
	}
}
