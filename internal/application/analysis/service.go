package analysis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bryanwahyu/doc-insight/internal/application"
	"github.com/bryanwahyu/doc-insight/internal/domain/ai"
	domain "github.com/bryanwahyu/doc-insight/internal/domain/analysis"
	"github.com/bryanwahyu/doc-insight/internal/domain/users"
	"github.com/bryanwahyu/doc-insight/internal/infra/ai/prompt"
)

const maxScreenshots = 5

// Service implements the document-analysis use-cases: store uploads, run
// the six-task pipeline, serve and delete history entries and report files.
type Service struct {
	Ledger    domain.Ledger
	AI        ai.Client
	Extractor domain.Extractor
	Renderer  domain.Renderer
	Mirror    domain.Mirror // optional, may be nil
	Clock     application.Clock

	UploadDir   string
	ReportDir   string
	TaskTimeout time.Duration
}

// SaveUpload stores one uploaded file under the user's upload directory,
// preserving the (already sanitized) client filename.
func (s *Service) SaveUpload(id users.UserID, filename string, src io.Reader) (string, error) {
	dir := filepath.Join(s.UploadDir, string(id))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, filename)
	dst, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}
	return path, nil
}

// Analyze runs the full pipeline for the user's most recent uploads:
// pick document and screenshots by modification time, extract text, fan out
// the six AI tasks, render the report and append the record to history.
func (s *Service) Analyze(ctx context.Context, id users.UserID) (*domain.Record, error) {
	docPath, screenshots, err := s.selectUploads(id)
	if err != nil {
		return nil, err
	}

	fileType := domain.DetectFileType(docPath)
	docText, err := s.Extractor.Extract(ctx, docPath, fileType)
	if err != nil {
		return nil, fmt.Errorf("extract document: %w", err)
	}

	shotTexts := make([]string, 0, len(screenshots))
	for _, p := range screenshots {
		text, err := s.Extractor.Extract(ctx, p, domain.TypeImage)
		if err != nil {
			return nil, fmt.Errorf("extract screenshot %s: %w", filepath.Base(p), err)
		}
		shotTexts = append(shotTexts, text)
	}

	results := s.runTasks(ctx, docText, shotTexts)

	now := s.Clock.Now()
	shortID := strings.SplitN(uuid.New().String(), "-", 2)[0]
	reportID := fmt.Sprintf("%s_%s", id, shortID)

	reportDir := filepath.Join(s.ReportDir, string(id))
	if err := os.MkdirAll(reportDir, 0o755); err != nil {
		return nil, err
	}
	reportPath := filepath.Join(reportDir, "report_"+reportID+".docx")

	rec := domain.Record{
		ID:               reportID,
		OwnerID:          id,
		OriginalFilename: filepath.Base(docPath),
		Timestamp:        now,
		Results:          results,
		ReportPath:       reportPath,
		FileType:         fileType,
	}

	if err := s.Renderer.RenderDocx(reportPath, &rec); err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}

	if s.Mirror != nil {
		key := fmt.Sprintf("%s/%s", id, filepath.Base(reportPath))
		url, err := s.Mirror.UploadReport(ctx, reportPath, key)
		if err != nil {
			log.Printf("report mirror failed for %s: %v", reportID, err)
		} else {
			rec.ArtifactURL = url
		}
	}

	if err := s.Ledger.Append(ctx, id, rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// selectUploads re-derives "the current document" from the upload directory:
// newest modification time first, one document plus up to five screenshots.
// There is no linkage between an upload batch and an analyze call; this
// mtime heuristic is the contract.
func (s *Service) selectUploads(id users.UserID) (string, []string, error) {
	dir := filepath.Join(s.UploadDir, string(id))
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil, domain.ErrNoDocument
	}
	if err != nil {
		return "", nil, err
	}

	type file struct {
		path  string
		mtime time.Time
	}
	var files []file
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, file{filepath.Join(dir, e.Name()), info.ModTime()})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].mtime.After(files[j].mtime) })

	var docPath string
	var screenshots []string
	for _, f := range files {
		switch domain.DetectFileType(f.path) {
		case domain.TypePDF, domain.TypeDocx:
			if docPath == "" {
				docPath = f.path
			}
		case domain.TypeImage:
			if len(screenshots) < maxScreenshots {
				screenshots = append(screenshots, f.path)
			}
		}
	}
	if docPath == "" {
		return "", nil, domain.ErrNoDocument
	}
	return docPath, screenshots, nil
}

// runTasks fans out the six prompts concurrently and joins all of them.
// A failed call becomes an error string in its own slot; it never aborts
// the siblings.
func (s *Service) runTasks(ctx context.Context, docText string, shotTexts []string) domain.Results {
	var res domain.Results
	tasks := []struct {
		dst    *string
		prompt string
	}{
		{&res.Summary, prompt.Summarize(docText)},
		{&res.GrammarCorrection, prompt.GrammarCorrect(docText)},
		{&res.Suggestions, prompt.Suggestions(docText)},
		{&res.Inconsistencies, prompt.Inconsistencies(docText, shotTexts)},
		{&res.RepetitionCheck, prompt.RepetitionCheck(docText)},
		{&res.InternalInconsistencies, prompt.InternalInconsistencies(docText)},
	}

	timeout := s.TaskTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	var wg sync.WaitGroup
	for _, t := range tasks {
		wg.Add(1)
		go func(dst *string, p string) {
			defer wg.Done()
			tctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			out, err := s.AI.Generate(tctx, p)
			if err != nil {
				*dst = fmt.Sprintf("Error: %v", err)
				return
			}
			*dst = out
		}(t.dst, t.prompt)
	}
	wg.Wait()
	return res
}

// Get returns one history record. Ownership is checked by the caller via
// users.CanAccess before the lookup.
func (s *Service) Get(ctx context.Context, id users.UserID, reportID string) (*domain.Record, error) {
	return s.Ledger.Record(ctx, id, reportID)
}

// Delete removes the record from history and best-effort deletes the
// rendered files. A missing file is not an error.
func (s *Service) Delete(ctx context.Context, id users.UserID, reportID string) error {
	if _, err := s.Ledger.DeleteRecord(ctx, id, reportID); err != nil {
		return err
	}
	dir := filepath.Join(s.ReportDir, string(id))
	os.Remove(filepath.Join(dir, "report_"+reportID+".docx"))
	os.Remove(filepath.Join(dir, "report_"+reportID+".pdf"))
	return nil
}

func (s *Service) History(ctx context.Context, id users.UserID) ([]domain.Record, error) {
	return s.Ledger.History(ctx, id)
}

func (s *Service) Stats(ctx context.Context, id users.UserID) (*domain.Stats, error) {
	return s.Ledger.Stats(ctx, id)
}

// ReportFile resolves the on-disk report for download. The PDF variant is
// rendered lazily from the stored record on first request and kept.
func (s *Service) ReportFile(ctx context.Context, id users.UserID, reportID, format string) (string, error) {
	dir := filepath.Join(s.ReportDir, string(id))
	docxPath := filepath.Join(dir, "report_"+reportID+".docx")
	if _, err := os.Stat(docxPath); err != nil {
		return "", domain.ErrNotFound
	}

	if strings.EqualFold(format, "pdf") {
		pdfPath := filepath.Join(dir, "report_"+reportID+".pdf")
		if _, err := os.Stat(pdfPath); err == nil {
			return pdfPath, nil
		}
		rec, err := s.Ledger.Record(ctx, id, reportID)
		if err != nil {
			return "", err
		}
		if err := s.Renderer.RenderPDF(pdfPath, rec); err != nil {
			return "", fmt.Errorf("convert report to pdf: %w", err)
		}
		return pdfPath, nil
	}

	return docxPath, nil
}
