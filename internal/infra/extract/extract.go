// Package extract pulls plain text out of uploaded files: PDF via pdfcpu,
// DOCX via the OOXML archive, images via the tesseract CLI.
package extract

import (
	"context"

	"github.com/bryanwahyu/doc-insight/internal/domain/analysis"
)

// Extractor runs text extraction. OCRCommand overrides the tesseract binary
// name, mainly for tests.
type Extractor struct {
	OCRCommand string
}

// Extract returns the plain text of the file. An unsupported type yields
// empty text and no error; a failure on a supported type propagates and is
// fatal to the analyze request.
func (e *Extractor) Extract(ctx context.Context, path, fileType string) (string, error) {
	switch fileType {
	case analysis.TypePDF:
		return extractPDF(path)
	case analysis.TypeDocx:
		return extractDocx(path)
	case analysis.TypeImage:
		return e.runOCR(ctx, path)
	default:
		return "", nil
	}
}
