package extract

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

// runOCR shells out to tesseract and returns its raw stdout. There is no
// usable pure-Go OCR engine; the CLI keeps the dependency out of the build.
func (e *Extractor) runOCR(ctx context.Context, path string) (string, error) {
	bin := e.OCRCommand
	if bin == "" {
		bin = "tesseract"
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, path, "stdout")
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("ocr %s: %w: %s", path, err, bytes.TrimSpace(stderr.Bytes()))
	}
	return stdout.String(), nil
}
