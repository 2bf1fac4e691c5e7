package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
)

// ReportVersion is the schema version written into every report.
const ReportVersion = "1.0"

// Entry records what happened to one position during a pass.
type Entry struct {
	Symbol     string           `json:"symbol"`
	Action     string           `json:"action"` // no_action, amend, submit, rejected
	OrderID    string           `json:"order_id,omitempty"`
	Quantity   *decimal.Decimal `json:"quantity,omitempty"`
	LimitPrice *decimal.Decimal `json:"limit_price,omitempty"`
	StopPrice  *decimal.Decimal `json:"stop_price,omitempty"`
	Command    string           `json:"command,omitempty"`
	Note       string           `json:"note,omitempty"`
	Error      string           `json:"error,omitempty"`
	// AppliedOrderID is the broker order id after an applied amend/submit.
	AppliedOrderID string `json:"applied_order_id,omitempty"`
}

// Report is the outcome of one reconciliation pass.
type Report struct {
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
	Applied   bool      `json:"applied"`
	Positions int       `json:"positions"`
	Orders    int       `json:"orders"`
	Entries   []Entry   `json:"entries"`
}

// Count returns the number of entries with the given action.
func (r *Report) Count(action string) int {
	n := 0
	for _, e := range r.Entries {
		if e.Action == action {
			n++
		}
	}
	return n
}

// Failed returns the entries that were rejected or whose action failed.
func (r *Report) Failed() []Entry {
	var out []Entry
	for _, e := range r.Entries {
		if e.Error != "" {
			out = append(out, e)
		}
	}
	return out
}

// LoadReport reads a report from path. A missing file yields (nil, nil).
func LoadReport(path string) (*Report, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var r Report
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("decode report %s: %w", path, err)
	}
	return &r, nil
}

// SaveReport writes the report to path using an atomic write pattern:
// write a temporary file next to it, sync, then rename over path.
func SaveReport(path string, r *Report) error {
	if r.Version == "" {
		r.Version = ReportVersion
	}
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	// Same directory so the rename stays on one filesystem.
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp report file: %w", err)
	}
	tmpFile := f.Name()
	defer os.Remove(tmpFile)
	defer f.Close()

	if _, err := f.Write(b); err != nil {
		return fmt.Errorf("write temp report file: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync temp report file: %w", err)
	}
	// Close explicitly before renaming (essential on Windows)
	if err := f.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmpFile, path); err != nil {
		return fmt.Errorf("replace report file: %w", err)
	}
	return nil
}
