package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/civicpie/wardsync/internal/civic"
)

// ReportWriter persists change reports and run summaries as timestamped
// JSON files for human review.
type ReportWriter struct {
	dir string
}

// NewReportWriter creates the report directory if needed.
func NewReportWriter(dir string) (*ReportWriter, error) {
	if dir == "" {
		return nil, fmt.Errorf("report directory is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create report directory: %w", err)
	}
	return &ReportWriter{dir: dir}, nil
}

// WriteChangeReport writes the report and returns the file path. Empty
// reports are written too; an empty file is the positive signal that the
// run compared and found nothing.
func (w *ReportWriter) WriteChangeReport(report civic.ChangeReport) (string, error) {
	name := fmt.Sprintf("changes-%s.json", report.GeneratedAt.UTC().Format("20060102T150405Z"))
	return w.write(name, report)
}

// WriteRunSummary writes any JSON-encodable run summary.
func (w *ReportWriter) WriteRunSummary(name string, summary any) (string, error) {
	file := fmt.Sprintf("%s-%s.json", name, time.Now().UTC().Format("20060102T150405Z"))
	return w.write(file, summary)
}

func (w *ReportWriter) write(name string, v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}
	path := filepath.Join(w.dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}
