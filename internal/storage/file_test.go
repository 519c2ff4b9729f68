package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fintrack/internal/core"
)

func TestFileStoreLoadMissingSnapshot(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	_, ok, err := fs.Load(context.Background())
	if err != nil {
		t.Fatalf("missing snapshot is not an error: %v", err)
	}
	if ok {
		t.Fatalf("expected ok=false for a fresh directory")
	}
}

func TestFileStoreSaveLoadRoundTrip(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	state := core.DefaultState()
	state.PIN = "1234"
	state.Transactions = []core.Transaction{{
		ID:       "t1",
		Type:     core.Expense,
		Amount:   core.Money{Cents: 4200},
		Category: core.Food,
		Date:     core.NewDate(2025, time.August, 1),
		Note:     "lunch",
	}}

	if err := fs.Save(ctx, state.PersistSafe()); err != nil {
		t.Fatal(err)
	}

	got, ok, err := fs.Load(ctx)
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if got.IsLocked {
		t.Fatalf("persisted snapshot must carry isLocked=false")
	}
	if got.PIN != "1234" {
		t.Fatalf("pin lost in round trip: %q", got.PIN)
	}
	if len(got.Transactions) != 1 || got.Transactions[0].Amount.Cents != 4200 {
		t.Fatalf("transactions lost in round trip: %+v", got.Transactions)
	}
}

func TestFileStoreCorruptSnapshotIsAnError(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(fs.Path(), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	_, _, err = fs.Load(context.Background())
	if err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestFileStoreLeavesNoTempFileBehind(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := fs.Save(context.Background(), core.DefaultState()); err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Fatalf("temp file left behind: %s", e.Name())
		}
	}
	if filepath.Base(fs.Path()) != SnapshotKey+".json" {
		t.Fatalf("snapshot file name: %s", fs.Path())
	}
}
