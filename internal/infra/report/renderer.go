package report

import "github.com/bryanwahyu/doc-insight/internal/domain/analysis"

// FileRenderer implements the analysis.Renderer port.
type FileRenderer struct{}

func (FileRenderer) RenderDocx(path string, rec *analysis.Record) error {
	return WriteDocx(path, Compose(rec))
}

func (FileRenderer) RenderPDF(path string, rec *analysis.Record) error {
	return WritePDF(path, Compose(rec))
}
