// Package handles writes Handle.net batch files that mint one handle per
// digitized unit, each resolving to the unit's IIIF viewer page.
package handles

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/lehigh-university-libraries/daobatch/internal/config"
)

// DefaultDir is where batch files are written unless told otherwise
const DefaultDir = "HANDLES"

// Writer renders batch text for a list of identifiers
type Writer struct {
	cfg config.Handles
}

// NewWriter creates a batch writer
func NewWriter(cfg config.Handles) *Writer {
	return &Writer{cfg: cfg}
}

// Handle is the full handle for an identifier
func (w *Writer) Handle(identifier string) string {
	return w.cfg.Prefix + "/" + identifier
}

// Write emits one CREATE block per identifier
func (w *Writer) Write(out io.Writer, identifiers []string) error {
	bw := bufio.NewWriter(out)
	for _, id := range identifiers {
		handle := w.Handle(id)
		fmt.Fprintf(bw, "CREATE %s\n", handle)
		fmt.Fprintf(bw, "100 HS_ADMIN 86400 1110 ADMIN 300:111111111111:%s\n", handle)
		fmt.Fprintf(bw, "300 HS_SECKEY 86400 1100 UTF8 %s\n", w.cfg.Password)
		fmt.Fprintf(bw, "201 URL 86400 1110 UTF8 %s%s\n\n", w.cfg.IIIFBase, id)
	}
	return bw.Flush()
}

// FileName is the batch file name for a given time
func FileName(now time.Time) string {
	return fmt.Sprintf("handle_batch_text-%s.txt", now.Format("20060102-150405"))
}

// WriteFile writes a timestamped batch file under dir and returns its path
func (w *Writer) WriteFile(dir string, identifiers []string, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(dir, FileName(now))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create batch file: %w", err)
	}
	defer f.Close()

	if err := w.Write(f, identifiers); err != nil {
		return "", fmt.Errorf("failed to write batch file: %w", err)
	}

	slog.Info("Wrote handle batch", "path", path, "handles", len(identifiers))
	return path, nil
}
