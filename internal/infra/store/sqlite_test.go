package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/bryanwahyu/doc-insight/internal/domain/analysis"
	"github.com/bryanwahyu/doc-insight/internal/domain/users"
)

func openTestSQLite(t *testing.T, path string) *SQLite {
	t.Helper()
	s, err := OpenSQLite(context.Background(), path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteUsers(t *testing.T) {
	s := openTestSQLite(t, filepath.Join(t.TempDir(), "test.db"))
	ctx := context.Background()

	u := &users.User{
		ID:           "u-1",
		Email:        "ana@example.com",
		Name:         "Ana",
		PasswordHash: "hash",
		Token:        "tok-1",
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.Save(ctx, u); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.Get(ctx, "u-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Email != u.Email || got.Token != u.Token || got.PasswordHash != u.PasswordHash {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if !got.CreatedAt.Equal(u.CreatedAt) {
		t.Errorf("created_at = %v, want %v", got.CreatedAt, u.CreatedAt)
	}

	if _, err := s.FindByEmail(ctx, "ana@example.com"); err != nil {
		t.Errorf("find by email: %v", err)
	}
	if _, err := s.FindByToken(ctx, "tok-1"); err != nil {
		t.Errorf("find by token: %v", err)
	}
	if _, err := s.FindByToken(ctx, ""); !errors.Is(err, users.ErrNotFound) {
		t.Errorf("empty token must never resolve, err = %v", err)
	}
	if _, err := s.Get(ctx, "nope"); !errors.Is(err, users.ErrNotFound) {
		t.Errorf("unknown id err = %v", err)
	}

	// Save again rotates the token in place.
	u.Token = "tok-2"
	if err := s.Save(ctx, u); err != nil {
		t.Fatalf("save update: %v", err)
	}
	if _, err := s.FindByToken(ctx, "tok-1"); !errors.Is(err, users.ErrNotFound) {
		t.Errorf("stale token still resolves, err = %v", err)
	}
	if _, err := s.FindByToken(ctx, "tok-2"); err != nil {
		t.Errorf("rotated token: %v", err)
	}
}

func TestSQLiteLedger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	s := openTestSQLite(t, path)
	ctx := context.Background()
	id := users.UserID("u-1")

	if err := s.Init(ctx, id); err != nil {
		t.Fatalf("init: %v", err)
	}

	total := analysis.HistoryLimit + 5
	for i := 0; i < total; i++ {
		rec := analysis.Record{
			ID:               fmt.Sprintf("u-1_%08d", i),
			OwnerID:          id,
			OriginalFilename: "doc.pdf",
			Timestamp:        time.Now().UTC(),
		}
		if err := s.Append(ctx, id, rec); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	history, err := s.History(ctx, id)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != analysis.HistoryLimit {
		t.Fatalf("history length = %d, want %d", len(history), analysis.HistoryLimit)
	}
	newest := fmt.Sprintf("u-1_%08d", total-1)
	if history[0].ID != newest {
		t.Errorf("history[0] = %q, want %q", history[0].ID, newest)
	}

	st, err := s.Stats(ctx, id)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.DocumentsAnalyzed != total || st.ReportsGenerated != total {
		t.Errorf("counters = %d/%d, want %d", st.DocumentsAnalyzed, st.ReportsGenerated, total)
	}
	if st.LastAnalysis == nil {
		t.Error("last analysis not set")
	}

	// Delete one record; counters stay put.
	if _, err := s.DeleteRecord(ctx, id, newest); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Record(ctx, id, newest); !errors.Is(err, analysis.ErrNotFound) {
		t.Errorf("deleted record still found, err = %v", err)
	}
	st2, _ := s.Stats(ctx, id)
	if st2.DocumentsAnalyzed != total {
		t.Errorf("delete changed counters: %d", st2.DocumentsAnalyzed)
	}
	if len(st2.AnalysisHistory) != analysis.HistoryLimit-1 {
		t.Errorf("history length after delete = %d", len(st2.AnalysisHistory))
	}

	if _, err := s.DeleteRecord(ctx, id, "u-1_missing"); !errors.Is(err, analysis.ErrNotFound) {
		t.Errorf("deleting missing record err = %v", err)
	}

	// Everything survives a close and reopen of the same file.
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	s2 := openTestSQLite(t, path)
	st3, err := s2.Stats(ctx, id)
	if err != nil {
		t.Fatalf("stats after reopen: %v", err)
	}
	if st3.DocumentsAnalyzed != total || len(st3.AnalysisHistory) != analysis.HistoryLimit-1 {
		t.Errorf("persisted stats mismatch: %+v", st3)
	}
}

func TestSQLiteStatsForUnknownUser(t *testing.T) {
	s := openTestSQLite(t, filepath.Join(t.TempDir(), "test.db"))
	st, err := s.Stats(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.DocumentsAnalyzed != 0 || st.AnalysisHistory == nil || len(st.AnalysisHistory) != 0 {
		t.Errorf("unknown user stats = %+v, want zero value with empty history", st)
	}
}
