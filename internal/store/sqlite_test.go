package store

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) Repository {
	t.Helper()
	repo, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	t.Cleanup(func() {
		if err := repo.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
	})
	return repo
}

func TestGetRecordMissing(t *testing.T) {
	repo := newTestStore(t)

	blob, err := repo.GetRecord(context.Background(), RecordSettings)
	if err != nil {
		t.Fatalf("GetRecord failed: %v", err)
	}
	if blob != nil {
		t.Errorf("Expected nil for missing record, got %q", blob)
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	want := []byte(`{"provider":"gemini"}`)
	if err := repo.PutRecord(ctx, RecordSettings, want); err != nil {
		t.Fatalf("PutRecord failed: %v", err)
	}

	got, err := repo.GetRecord(ctx, RecordSettings)
	if err != nil {
		t.Fatalf("GetRecord failed: %v", err)
	}
	if string(got) != string(want) {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestPutRecordOverwrites(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	if err := repo.PutRecord(ctx, RecordSessions, []byte(`[1]`)); err != nil {
		t.Fatalf("first PutRecord failed: %v", err)
	}
	if err := repo.PutRecord(ctx, RecordSessions, []byte(`[1,2]`)); err != nil {
		t.Fatalf("second PutRecord failed: %v", err)
	}

	got, err := repo.GetRecord(ctx, RecordSessions)
	if err != nil {
		t.Fatalf("GetRecord failed: %v", err)
	}
	if string(got) != `[1,2]` {
		t.Errorf("Expected complete overwrite, got %q", got)
	}
}

func TestRecordsAreIndependent(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	if err := repo.PutRecord(ctx, RecordSettings, []byte(`{}`)); err != nil {
		t.Fatalf("PutRecord failed: %v", err)
	}

	got, err := repo.GetRecord(ctx, RecordSessions)
	if err != nil {
		t.Fatalf("GetRecord failed: %v", err)
	}
	if got != nil {
		t.Errorf("Expected sessions record untouched, got %q", got)
	}
}
