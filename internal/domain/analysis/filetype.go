package analysis

import (
	"path/filepath"
	"strings"
)

// File type names shared by the analyze pipeline and the extractor.
const (
	TypePDF   = "pdf"
	TypeDocx  = "docx"
	TypeImage = "image"
)

// DetectFileType maps a filename to its file type. Comparison is
// case-insensitive; unknown extensions return "".
func DetectFileType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return TypePDF
	case ".docx":
		return TypeDocx
	case ".png", ".jpg", ".jpeg":
		return TypeImage
	default:
		return ""
	}
}
