package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bryanwahyu/doc-insight/internal/domain/analysis"
	"github.com/bryanwahyu/doc-insight/internal/domain/users"
)

func TestJSONStoreUsers(t *testing.T) {
	dir := t.TempDir()
	s, err := NewJSON(dir)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
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
	if got.Email != u.Email || got.Token != u.Token {
		t.Errorf("round trip mismatch: %+v", got)
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

	// A second store over the same directory sees the same data.
	s2, err := NewJSON(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if _, err := s2.Get(ctx, "u-1"); err != nil {
		t.Errorf("get after reopen: %v", err)
	}
}

func TestJSONStoreLedger(t *testing.T) {
	dir := t.TempDir()
	s, err := NewJSON(dir)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := context.Background()
	id := users.UserID("u-1")

	if err := s.Init(ctx, id); err != nil {
		t.Fatalf("init: %v", err)
	}

	total := analysis.HistoryLimit + 3
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

	// Counters and remaining history survive a reopen.
	s2, _ := NewJSON(dir)
	st2, err := s2.Stats(ctx, id)
	if err != nil {
		t.Fatalf("stats after reopen: %v", err)
	}
	if st2.DocumentsAnalyzed != total || len(st2.AnalysisHistory) != analysis.HistoryLimit {
		t.Errorf("persisted stats mismatch: %+v", st2)
	}

	// Delete one record; counters stay put.
	if _, err := s.DeleteRecord(ctx, id, newest); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Record(ctx, id, newest); !errors.Is(err, analysis.ErrNotFound) {
		t.Errorf("deleted record still found, err = %v", err)
	}
	st3, _ := s.Stats(ctx, id)
	if st3.DocumentsAnalyzed != total {
		t.Errorf("delete changed counters: %d", st3.DocumentsAnalyzed)
	}
	if len(st3.AnalysisHistory) != analysis.HistoryLimit-1 {
		t.Errorf("history length after delete = %d", len(st3.AnalysisHistory))
	}

	if _, err := s.DeleteRecord(ctx, id, "u-1_missing"); !errors.Is(err, analysis.ErrNotFound) {
		t.Errorf("deleting missing record err = %v", err)
	}
}

func TestJSONStoreStatsForUnknownUser(t *testing.T) {
	s, err := NewJSON(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	st, err := s.Stats(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.DocumentsAnalyzed != 0 || st.AnalysisHistory == nil || len(st.AnalysisHistory) != 0 {
		t.Errorf("unknown user stats = %+v, want zero value with empty history", st)
	}
}
