package dal

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Billy-Davies-2/picklewickel-scores/internal/errs"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/models"
)

type brokenStore struct{ MemoryStore }

func (b *brokenStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, errors.New("connection refused")
}

func (b *brokenStore) Set(ctx context.Context, key string, value []byte) error {
	return errors.New("connection refused")
}

func TestMemoryStoreGetMissingKey(t *testing.T) {
	s := NewMemoryStore()

	_, ok, err := s.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if ok {
		t.Error("expected missing key to report ok=false")
	}
}

func TestMemoryStoreCopiesOnReadAndWrite(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	in := []byte(`[1]`)
	if err := s.Set(ctx, "k", in); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	in[1] = '9'

	out, _, _ := s.Get(ctx, "k")
	if string(out) != "[1]" {
		t.Errorf("stored value changed through caller slice: %s", out)
	}
	out[1] = '7'

	again, _, _ := s.Get(ctx, "k")
	if string(again) != "[1]" {
		t.Errorf("stored value changed through returned slice: %s", again)
	}
}

func TestLoadAllEmptyCollection(t *testing.T) {
	s := NewMemoryStore()

	got, err := LoadAll[models.Match](context.Background(), s, CollectionMatches)
	if err != nil {
		t.Fatalf("LoadAll() failed: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", got)
	}
}

func TestReplaceAllThenLoadAll(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	records := []models.Tournament{
		{ID: "t1", Name: "PPA Atlanta Open", League: "PPA", StartDate: "2025-03-01", EndDate: "2025-03-05"},
		{ID: "t2", Name: "MLP Dallas", League: "MLP", StartDate: "2025-04-10", EndDate: "2025-04-13"},
	}
	if err := ReplaceAll(ctx, s, CollectionTournaments, records); err != nil {
		t.Fatalf("ReplaceAll() failed: %v", err)
	}

	got, err := LoadAll[models.Tournament](ctx, s, CollectionTournaments)
	if err != nil {
		t.Fatalf("LoadAll() failed: %v", err)
	}
	if len(got) != 2 || got[1].Name != "MLP Dallas" {
		t.Errorf("unexpected records: %+v", got)
	}

	// Replacing with nil writes an empty collection, not null
	if err := ReplaceAll[models.Tournament](ctx, s, CollectionTournaments, nil); err != nil {
		t.Fatalf("ReplaceAll(nil) failed: %v", err)
	}
	raw, _, _ := s.Get(ctx, string(CollectionTournaments))
	if string(raw) != "[]" {
		t.Errorf("expected [] document, got %s", raw)
	}
}

func TestLoadAllNullDocument(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	s.Set(ctx, string(CollectionMatches), []byte("null"))

	got, err := LoadAll[models.Match](ctx, s, CollectionMatches)
	if err != nil {
		t.Fatalf("LoadAll() failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no records, got %d", len(got))
	}
}

func TestStoreFailuresBecomeStorageErrors(t *testing.T) {
	s := &brokenStore{}
	ctx := context.Background()

	_, err := LoadAll[models.Match](ctx, s, CollectionMatches)
	if !errs.IsStorage(err) {
		t.Errorf("expected StorageError from LoadAll, got %v", err)
	}

	err = ReplaceAll(ctx, s, CollectionMatches, []models.Match{{ID: "m"}})
	if !errs.IsStorage(err) {
		t.Errorf("expected StorageError from ReplaceAll, got %v", err)
	}
}

func TestLoadAllCorruptDocument(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	s.Set(ctx, string(CollectionMatches), []byte(`{"not":"an array"}`))

	_, err := LoadAll[models.Match](ctx, s, CollectionMatches)
	var se *errs.StorageError
	if !errors.As(err, &se) || se.Op != "decode" {
		t.Errorf("expected decode StorageError, got %v", err)
	}
}

func TestLoadSeedDir(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	write := func(name, body string) {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("picklewickel_tournaments_v1.json", `[{"id":"t1","name":"PPA Atlanta Open"}]`)
	write("picklewickel_scrape-targets_v1.json", `[{"id":"seeded"}]`)
	write("unrelated.json", `[]`)

	s := NewMemoryStore()
	s.Set(ctx, string(CollectionScrapeTargets), []byte(`[{"id":"live"}]`))

	seeded, err := LoadSeedDir(ctx, s, dir)
	if err != nil {
		t.Fatalf("LoadSeedDir() failed: %v", err)
	}
	if len(seeded) != 1 || seeded[0] != CollectionTournaments {
		t.Errorf("expected only tournaments seeded, got %v", seeded)
	}

	targets, _, _ := s.Get(ctx, string(CollectionScrapeTargets))
	if string(targets) != `[{"id":"live"}]` {
		t.Errorf("existing collection was overwritten: %s", targets)
	}
}

func TestLoadSeedDirMissing(t *testing.T) {
	seeded, err := LoadSeedDir(context.Background(), NewMemoryStore(), filepath.Join(t.TempDir(), "absent"))
	if err != nil || seeded != nil {
		t.Errorf("expected no-op for missing dir, got %v %v", seeded, err)
	}
}

func TestNewID(t *testing.T) {
	a, b := NewID("target"), NewID("target")
	if a == b {
		t.Error("NewID returned duplicate ids")
	}
	if len(a) < len("target_") || a[:7] != "target_" {
		t.Errorf("unexpected id format %q", a)
	}
	if NewMatchID() == NewMatchID() {
		t.Error("NewMatchID returned duplicate ids")
	}
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "scores.sqlite"))
	if err != nil {
		t.Fatalf("NewSQLiteStore() failed: %v", err)
	}
	defer s.Close()
	ctx := context.Background()

	if err := s.Ping(ctx); err != nil {
		t.Fatalf("Ping() failed: %v", err)
	}

	want := []models.ScrapeTarget{{ID: "target_1", League: "PPA", URL: "https://example.com/live"}}
	if err := ReplaceAll(ctx, s, CollectionScrapeTargets, want); err != nil {
		t.Fatalf("ReplaceAll() failed: %v", err)
	}
	// Second write goes through the upsert path
	want[0].IsActive = true
	if err := ReplaceAll(ctx, s, CollectionScrapeTargets, want); err != nil {
		t.Fatalf("ReplaceAll() failed: %v", err)
	}

	got, err := LoadAll[models.ScrapeTarget](ctx, s, CollectionScrapeTargets)
	if err != nil {
		t.Fatalf("LoadAll() failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != "target_1" || !got[0].IsActive {
		t.Errorf("unexpected targets after reload: %+v", got)
	}
}

func TestSQLiteStoreReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scores.sqlite")
	ctx := context.Background()

	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore() failed: %v", err)
	}
	if err := s.Set(ctx, string(CollectionMatches), []byte(`[]`)); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	s.Close()

	s, err = NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()

	v, ok, err := s.Get(ctx, string(CollectionMatches))
	if err != nil || !ok || string(v) != "[]" {
		t.Errorf("Get() = %q, %v, %v", v, ok, err)
	}
}
