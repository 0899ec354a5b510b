package journal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Report is the audit record of one finished workflow run.
type Report struct {
	Timestamp    time.Time `json:"timestamp"`
	Kind         string    `json:"kind"`
	RunID        string    `json:"run_id,omitempty"`
	Sequence     int       `json:"sequence"`
	Success      bool      `json:"success"`
	PromptDigest string    `json:"prompt_digest,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	Summary      any       `json:"summary,omitempty"`
}

// Writer stores reports in a directory as one JSON file each. A nil Writer
// discards reports.
type Writer struct {
	dir   string
	nowFn func() time.Time

	mu  sync.Mutex
	seq int
}

// NewWriter constructs a journal writer. An empty dir disables journaling.
func NewWriter(dir string) *Writer {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil
	}
	_ = os.MkdirAll(dir, 0o755)
	return &Writer{dir: dir, nowFn: time.Now}
}

// Write persists rec and returns the file path.
func (w *Writer) Write(rec *Report) (string, error) {
	if w == nil {
		return "", nil
	}
	if rec == nil {
		return "", fmt.Errorf("journal: nil report")
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	if rec.Timestamp.IsZero() {
		rec.Timestamp = w.nowFn()
	}
	w.seq++
	rec.Sequence = w.seq
	kind := rec.Kind
	if kind == "" {
		kind = "run"
	}
	name := fmt.Sprintf("%s_%s_%05d.json", kind, rec.Timestamp.UTC().Format("20060102_150405"), w.seq)
	path := filepath.Join(w.dir, name)
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", fmt.Errorf("journal: encode %s report: %w", kind, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("journal: write %s: %w", path, err)
	}
	return path, nil
}
