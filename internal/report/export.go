// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/trialscout/pkg/types"
)

// Export is the downloadable report document: the report fields inline plus
// the export instant and the presentation filter active at export time.
type Export struct {
	types.TrialsReport `yaml:",inline"`

	ExportDate   time.Time `json:"exportDate" yaml:"exportDate"`
	ActiveFilter *Filter   `json:"activeFilter" yaml:"activeFilter"`
}

// NewExport wraps r for download. A zero filter is recorded as null.
func NewExport(r *types.TrialsReport, filter Filter, now time.Time) Export {
	e := Export{TrialsReport: *r, ExportDate: now.UTC()}
	if !filter.IsZero() {
		f := filter
		e.ActiveFilter = &f
	}
	return e
}

// WriteJSON writes e as indented JSON.
func WriteJSON(w io.Writer, e Export) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(e)
}

// WriteYAML writes e as YAML.
func WriteYAML(w io.Writer, e Export) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(e); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}

// SaveExport writes e into dir as trials-report-<timestamp>.<format> and
// returns the file path.
func SaveExport(dir string, e Export, format types.ExportFormat) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating export directory: %w", err)
	}

	var write func(io.Writer, Export) error
	switch format {
	case types.ExportJSON, "":
		format = types.ExportJSON
		write = WriteJSON
	case types.ExportYAML:
		write = WriteYAML
	default:
		return "", fmt.Errorf("unsupported export format %q: use json or yaml", format)
	}

	name := fmt.Sprintf("trials-report-%s.%s", e.ExportDate.UTC().Format("20060102T150405Z"), format)
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating export file: %w", err)
	}
	if err := write(f, e); err != nil {
		f.Close()
		return "", fmt.Errorf("writing export: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing export file: %w", err)
	}
	return path, nil
}

// LoadExport reads an export written by SaveExport. The encoding is chosen
// by file extension.
func LoadExport(path string) (Export, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Export{}, fmt.Errorf("reading export: %w", err)
	}

	var e Export
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &e)
	default:
		err = json.Unmarshal(data, &e)
	}
	if err != nil {
		return Export{}, fmt.Errorf("parsing export %s: %w", path, err)
	}
	return e, nil
}
