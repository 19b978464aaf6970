package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "trialscout/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// MaxRetries bounds retries on HTTP 429 and 503 (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// SearchConfig holds settings for the trials search client.
type SearchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// BaseURL is the ClinicalTrials.gov v2 API root
	// (default "https://clinicaltrials.gov/api/v2").
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// PageSize is the number of studies requested per page (default 20).
	PageSize int `json:"page_size" yaml:"page_size" mapstructure:"page_size"`

	// APIKey is an optional key sent as x-api-key for mirrors that need one.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`
}

// MemoryBackend selects where disclosed user facts are kept.
type MemoryBackend string

const (
	MemoryInProcess MemoryBackend = "memory"
	MemorySQLite    MemoryBackend = "sqlite"
)

// MemoryConfig holds settings for the memory store.
type MemoryConfig struct {
	// Backend selects the store: memory or sqlite.
	Backend MemoryBackend `json:"backend" yaml:"backend" mapstructure:"backend"`

	// DBPath is the SQLite database file used by the sqlite backend.
	DBPath string `json:"db_path" yaml:"db_path" mapstructure:"db_path"`
}

// ExportFormat selects the report export encoding.
type ExportFormat string

const (
	ExportJSON ExportFormat = "json"
	ExportYAML ExportFormat = "yaml"
)

// ReportConfig holds settings for report generation and export.
type ReportConfig struct {
	// OutputDir is the directory exported reports are written to.
	OutputDir string `json:"output_dir" yaml:"output_dir" mapstructure:"output_dir"`

	// Format selects the export encoding: json or yaml.
	Format ExportFormat `json:"format" yaml:"format" mapstructure:"format"`

	// RequireTrials makes generate_report refuse to run when no search
	// results have been recorded.
	RequireTrials bool `json:"require_trials" yaml:"require_trials" mapstructure:"require_trials"`
}

// AppConfig groups all configuration for a trialscout process.
type AppConfig struct {
	Search SearchConfig `json:"search" yaml:"search" mapstructure:"search"`
	Memory MemoryConfig `json:"memory" yaml:"memory" mapstructure:"memory"`
	Report ReportConfig `json:"report" yaml:"report" mapstructure:"report"`
}

// DefaultAppConfig returns the configuration used when no file or flag
// overrides a value.
func DefaultAppConfig() AppConfig {
	return AppConfig{
		Search: SearchConfig{
			HTTPConfig: HTTPConfig{
				Timeout:    30 * time.Second,
				UserAgent:  "trialscout/0.1",
				MaxRetries: 5,
			},
			BaseURL:  "https://clinicaltrials.gov/api/v2",
			PageSize: 20,
		},
		Memory: MemoryConfig{
			Backend: MemoryInProcess,
			DBPath:  "data/memory.db",
		},
		Report: ReportConfig{
			OutputDir: "output/reports",
			Format:    ExportJSON,
		},
	}
}
