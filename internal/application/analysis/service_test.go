package analysis

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bryanwahyu/doc-insight/internal/application"
	domain "github.com/bryanwahyu/doc-insight/internal/domain/analysis"
	"github.com/bryanwahyu/doc-insight/internal/domain/users"
	"github.com/bryanwahyu/doc-insight/internal/infra/store"
)

// stubAI answers every prompt with a fixed prefix plus the first prompt
// line, and fails any prompt containing failOn.
type stubAI struct {
	mu     sync.Mutex
	calls  int
	failOn string
}

func (a *stubAI) Generate(ctx context.Context, prompt string) (string, error) {
	a.mu.Lock()
	a.calls++
	a.mu.Unlock()
	if a.failOn != "" && strings.Contains(prompt, a.failOn) {
		return "", errors.New("model overloaded")
	}
	line, _, _ := strings.Cut(prompt, "\n")
	return "ok: " + line, nil
}

type stubExtractor struct{}

func (stubExtractor) Extract(ctx context.Context, path, fileType string) (string, error) {
	return "text of " + filepath.Base(path), nil
}

// stubRenderer writes a marker file so tests can assert on paths.
type stubRenderer struct{}

func (stubRenderer) RenderDocx(path string, rec *domain.Record) error {
	return os.WriteFile(path, []byte("docx:"+rec.ID), 0o644)
}

func (stubRenderer) RenderPDF(path string, rec *domain.Record) error {
	return os.WriteFile(path, []byte("pdf:"+rec.ID), 0o644)
}

func newTestService(t *testing.T, client *stubAI) (*Service, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	svc := &Service{
		Ledger:      mem,
		AI:          client,
		Extractor:   stubExtractor{},
		Renderer:    stubRenderer{},
		Clock:       application.SystemClock{},
		UploadDir:   filepath.Join(t.TempDir(), "uploads"),
		ReportDir:   filepath.Join(t.TempDir(), "reports"),
		TaskTimeout: 5 * time.Second,
	}
	return svc, mem
}

func writeUpload(t *testing.T, svc *Service, id users.UserID, name string, mtime time.Time) string {
	t.Helper()
	path, err := svc.SaveUpload(id, name, strings.NewReader("content of "+name))
	if err != nil {
		t.Fatalf("save upload %s: %v", name, err)
	}
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("chtimes %s: %v", name, err)
	}
	return path
}

func TestAnalyzePopulatesAllResults(t *testing.T) {
	client := &stubAI{}
	svc, _ := newTestService(t, client)
	id := users.UserID("user-1")
	ctx := context.Background()

	now := time.Now()
	writeUpload(t, svc, id, "thesis.docx", now)
	writeUpload(t, svc, id, "shot1.png", now)
	writeUpload(t, svc, id, "shot2.jpg", now)

	rec, err := svc.Analyze(ctx, id)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	if client.calls != 6 {
		t.Errorf("AI called %d times, want 6", client.calls)
	}
	for name, got := range map[string]string{
		"summary":                  rec.Summary,
		"grammar_correction":       rec.GrammarCorrection,
		"suggestions":              rec.Suggestions,
		"inconsistencies":          rec.Inconsistencies,
		"repetition_check":         rec.RepetitionCheck,
		"internal_inconsistencies": rec.InternalInconsistencies,
	} {
		if !strings.HasPrefix(got, "ok: ") {
			t.Errorf("%s = %q, want stub output", name, got)
		}
	}

	if !strings.HasPrefix(rec.ID, string(id)+"_") {
		t.Errorf("record ID %q not prefixed with owner", rec.ID)
	}
	if rec.OwnerID != id {
		t.Errorf("owner = %q", rec.OwnerID)
	}
	if rec.OriginalFilename != "thesis.docx" {
		t.Errorf("original filename = %q", rec.OriginalFilename)
	}
	if _, err := os.Stat(rec.ReportPath); err != nil {
		t.Errorf("report file missing: %v", err)
	}
}

func TestAnalyzeIsolatesTaskFailure(t *testing.T) {
	client := &stubAI{failOn: "Summarize the following document"}
	svc, _ := newTestService(t, client)
	id := users.UserID("user-1")

	writeUpload(t, svc, id, "doc.pdf", time.Now())

	rec, err := svc.Analyze(context.Background(), id)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if rec.Summary != "Error: model overloaded" {
		t.Errorf("summary = %q, want embedded error string", rec.Summary)
	}
	// The other five slots still carry real output.
	if !strings.HasPrefix(rec.GrammarCorrection, "ok: ") || !strings.HasPrefix(rec.InternalInconsistencies, "ok: ") {
		t.Errorf("sibling tasks aborted: %+v", rec.Results)
	}
}

func TestAnalyzePicksNewestDocument(t *testing.T) {
	svc, _ := newTestService(t, &stubAI{})
	id := users.UserID("user-1")

	base := time.Now().Add(-time.Hour)
	writeUpload(t, svc, id, "old.pdf", base)
	writeUpload(t, svc, id, "new.docx", base.Add(30*time.Minute))
	writeUpload(t, svc, id, "notes.txt", base.Add(45*time.Minute)) // ignored type

	rec, err := svc.Analyze(context.Background(), id)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if rec.OriginalFilename != "new.docx" {
		t.Errorf("picked %q, want new.docx", rec.OriginalFilename)
	}
	if rec.FileType != "docx" {
		t.Errorf("file type = %q", rec.FileType)
	}
}

// countingExtractor records every path it is asked to extract.
type countingExtractor struct {
	mu    sync.Mutex
	paths []string
}

func (e *countingExtractor) Extract(ctx context.Context, path, fileType string) (string, error) {
	e.mu.Lock()
	e.paths = append(e.paths, path)
	e.mu.Unlock()
	return "text", nil
}

func TestAnalyzeScreenshotCap(t *testing.T) {
	svc, _ := newTestService(t, &stubAI{})
	ext := &countingExtractor{}
	svc.Extractor = ext
	id := users.UserID("user-1")

	base := time.Now().Add(-time.Hour)
	writeUpload(t, svc, id, "doc.pdf", base)
	for i := 0; i < 7; i++ {
		writeUpload(t, svc, id, fmt.Sprintf("shot%d.png", i), base.Add(time.Duration(i)*time.Minute))
	}

	if _, err := svc.Analyze(context.Background(), id); err != nil {
		t.Fatalf("analyze: %v", err)
	}
	// One document plus at most five screenshots.
	if len(ext.paths) != 6 {
		t.Errorf("extracted %d files, want 6: %v", len(ext.paths), ext.paths)
	}
}

func TestAnalyzeNoDocument(t *testing.T) {
	svc, _ := newTestService(t, &stubAI{})
	id := users.UserID("user-1")

	// No upload dir at all.
	if _, err := svc.Analyze(context.Background(), id); !errors.Is(err, domain.ErrNoDocument) {
		t.Fatalf("err = %v, want ErrNoDocument", err)
	}

	// Screenshots alone are not enough.
	writeUpload(t, svc, id, "only.png", time.Now())
	if _, err := svc.Analyze(context.Background(), id); !errors.Is(err, domain.ErrNoDocument) {
		t.Fatalf("err = %v, want ErrNoDocument", err)
	}
}

func TestHistoryCapAndOrder(t *testing.T) {
	svc, _ := newTestService(t, &stubAI{})
	id := users.UserID("user-1")
	ctx := context.Background()

	writeUpload(t, svc, id, "doc.pdf", time.Now())

	var lastID string
	for i := 0; i < domain.HistoryLimit+5; i++ {
		rec, err := svc.Analyze(ctx, id)
		if err != nil {
			t.Fatalf("analyze %d: %v", i, err)
		}
		lastID = rec.ID
	}

	history, err := svc.History(ctx, id)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != domain.HistoryLimit {
		t.Fatalf("history length = %d, want %d", len(history), domain.HistoryLimit)
	}
	if history[0].ID != lastID {
		t.Errorf("newest record not first: got %q, want %q", history[0].ID, lastID)
	}

	st, err := svc.Stats(ctx, id)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.DocumentsAnalyzed != domain.HistoryLimit+5 {
		t.Errorf("documents analyzed = %d, counters must outlive eviction", st.DocumentsAnalyzed)
	}
	if st.LastAnalysis == nil {
		t.Error("last analysis not set")
	}
}

func TestDeleteRemovesRecordAndFiles(t *testing.T) {
	svc, _ := newTestService(t, &stubAI{})
	id := users.UserID("user-1")
	ctx := context.Background()

	writeUpload(t, svc, id, "doc.pdf", time.Now())
	rec, err := svc.Analyze(ctx, id)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	if err := svc.Delete(ctx, id, rec.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := os.Stat(rec.ReportPath); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("report file still present after delete")
	}
	if _, err := svc.Get(ctx, id, rec.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("get after delete err = %v, want ErrNotFound", err)
	}
	if err := svc.Delete(ctx, id, rec.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestReportFile(t *testing.T) {
	svc, _ := newTestService(t, &stubAI{})
	id := users.UserID("user-1")
	ctx := context.Background()

	writeUpload(t, svc, id, "doc.pdf", time.Now())
	rec, err := svc.Analyze(ctx, id)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	docx, err := svc.ReportFile(ctx, id, rec.ID, "docx")
	if err != nil {
		t.Fatalf("report file docx: %v", err)
	}
	if docx != rec.ReportPath {
		t.Errorf("docx path = %q, want %q", docx, rec.ReportPath)
	}

	// PDF is rendered lazily and then reused.
	pdf, err := svc.ReportFile(ctx, id, rec.ID, "pdf")
	if err != nil {
		t.Fatalf("report file pdf: %v", err)
	}
	if !strings.HasSuffix(pdf, ".pdf") {
		t.Errorf("pdf path = %q", pdf)
	}
	if _, err := os.Stat(pdf); err != nil {
		t.Fatalf("pdf not rendered: %v", err)
	}
	again, err := svc.ReportFile(ctx, id, rec.ID, "pdf")
	if err != nil || again != pdf {
		t.Errorf("cached pdf lookup = %q, %v", again, err)
	}

	if _, err := svc.ReportFile(ctx, id, "user-1_deadbeef", "docx"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown report err = %v, want ErrNotFound", err)
	}
}
