package analysis

import (
	"context"

	"github.com/bryanwahyu/doc-insight/internal/domain/users"
)

// Extractor port: plain-text extraction for an uploaded file.
// fileType is "pdf", "docx" or "image"; anything else yields empty text.
type Extractor interface {
	Extract(ctx context.Context, path, fileType string) (string, error)
}

// Renderer port: writes the formatted report for a record.
type Renderer interface {
	RenderDocx(path string, rec *Record) error
	RenderPDF(path string, rec *Record) error
}

// Mirror port: optional off-box copy of a rendered report.
type Mirror interface {
	UploadReport(ctx context.Context, localPath, key string) (string, error)
}

// Ledger port: per-user history plus counters.
// Append must front-insert, truncate to HistoryLimit and bump the counters
// in a single read-modify-write.
type Ledger interface {
	Init(ctx context.Context, id users.UserID) error
	Append(ctx context.Context, id users.UserID, rec Record) error
	Record(ctx context.Context, id users.UserID, recordID string) (*Record, error)
	DeleteRecord(ctx context.Context, id users.UserID, recordID string) (*Record, error)
	History(ctx context.Context, id users.UserID) ([]Record, error)
	Stats(ctx context.Context, id users.UserID) (*Stats, error)
}
