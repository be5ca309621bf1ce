package analysis

import (
	"time"

	"github.com/bryanwahyu/doc-insight/internal/domain/users"
)

// HistoryLimit caps per-user analysis history. Oldest entries are evicted.
const HistoryLimit = 20

// Results holds the six AI task outputs. Any field may carry an embedded
// error string instead of real content when the upstream call failed.
type Results struct {
	Summary                 string `json:"summary"`
	GrammarCorrection       string `json:"grammar_correction"`
	Suggestions             string `json:"suggestions"`
	Inconsistencies         string `json:"inconsistencies"`
	RepetitionCheck         string `json:"repetition_check"`
	InternalInconsistencies string `json:"internal_inconsistencies"`
}

// Aggregate Root: Record, one completed analysis run.
// ID is formatted "{user_id}_{short_uuid}"; OwnerID carries the owning
// user explicitly as well so authorization never depends on id parsing alone.
type Record struct {
	ID               string       `json:"id"`
	OwnerID          users.UserID `json:"owner_id"`
	OriginalFilename string       `json:"original_filename"`
	Timestamp        time.Time    `json:"timestamp"`
	Results
	ReportPath  string `json:"report_path"`
	FileType    string `json:"file_type"`
	ArtifactURL string `json:"artifact_url,omitempty"`
}

// Stats are the per-user counters plus the bounded history.
type Stats struct {
	DocumentsAnalyzed int        `json:"documents_analyzed"`
	ReportsGenerated  int        `json:"reports_generated"`
	LastAnalysis      *time.Time `json:"last_analysis"`
	AnalysisHistory   []Record   `json:"analysis_history"`
}
