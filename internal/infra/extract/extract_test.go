package extract

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bryanwahyu/doc-insight/internal/domain/analysis"
)

func writeDocx(t *testing.T, documentXML string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.docx")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("zip create: %v", err)
	}
	if _, err := w.Write([]byte(documentXML)); err != nil {
		t.Fatalf("zip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return path
}

func TestExtractDocx(t *testing.T) {
	const doc = `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>
<w:p><w:r><w:t>First paragraph</w:t></w:r></w:p>
<w:p><w:r><w:t>Split </w:t></w:r><w:r><w:t>run</w:t></w:r></w:p>
<w:p><w:r><w:t>Ampersand &amp; entity</w:t></w:r></w:p>
</w:body></w:document>`

	path := writeDocx(t, doc)
	got, err := extractDocx(path)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	want := "First paragraph\nSplit run\nAmpersand & entity"
	if got != want {
		t.Errorf("extractDocx = %q, want %q", got, want)
	}
}

func TestExtractDocxMissingDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.docx")
	f, _ := os.Create(path)
	zip.NewWriter(f).Close()
	f.Close()

	if _, err := extractDocx(path); err == nil {
		t.Fatal("expected error for archive without word/document.xml")
	}
}

func TestExtractUnknownType(t *testing.T) {
	e := &Extractor{}
	got, err := e.Extract(context.Background(), "whatever.bin", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "" {
		t.Errorf("unknown type text = %q, want empty", got)
	}
}

func TestRunOCRStubCommand(t *testing.T) {
	if _, err := os.Stat("/bin/echo"); err != nil {
		t.Skip("no /bin/echo available")
	}
	e := &Extractor{OCRCommand: "/bin/echo"}
	out, err := e.Extract(context.Background(), "shot.png", analysis.TypeImage)
	if err != nil {
		t.Fatalf("ocr: %v", err)
	}
	if !strings.Contains(out, "shot.png") {
		t.Errorf("ocr output = %q", out)
	}
}

func TestRunOCRMissingBinary(t *testing.T) {
	e := &Extractor{OCRCommand: "definitely-not-a-binary-xyz"}
	if _, err := e.Extract(context.Background(), "shot.png", analysis.TypeImage); err == nil {
		t.Fatal("expected error for missing ocr binary")
	}
}
