// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads credentials from a directory of plain-text files.
// Each file holds one secret: the filename is the key and the trimmed
// contents are the value. Environment variables override files, so
// OPENAI_API_KEY wins over .secrets/openai-api-key.
package secrets

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// DefaultDir is where the CLI looks for secret files.
const DefaultDir = ".secrets"

// Known keys.
const (
	OpenAIAPIKey   = "openai-api-key"
	RelayServerURL = "relay-server-url"
	CTGovAPIKey    = "ctgov-api-key"
)

// Secrets is a read-only view over loaded credentials.
type Secrets struct {
	values map[string]string
	getenv func(string) string
}

// Load reads every regular, non-hidden file in dir. A missing directory is
// not an error and yields an empty set. Unreadable files are logged and
// skipped.
func Load(dir string) (*Secrets, error) {
	s := &Secrets{values: map[string]string{}, getenv: os.Getenv}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			slog.Warn("could not read secret", "key", name, "error", err)
			continue
		}
		if v := strings.TrimSpace(string(data)); v != "" {
			s.values[name] = v
		}
	}
	return s, nil
}

// EnvName maps a key to its overriding environment variable:
// "ctgov-api-key" becomes "CTGOV_API_KEY".
func EnvName(key string) string {
	return strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
}

// Get returns the value for key and whether it was set.
func (s *Secrets) Get(key string) (string, bool) {
	if s == nil {
		return "", false
	}
	if s.getenv != nil {
		if v := strings.TrimSpace(s.getenv(EnvName(key))); v != "" {
			return v, true
		}
	}
	v, ok := s.values[key]
	return v, ok
}

// Lookup returns the value for key, or fallback when unset.
func (s *Secrets) Lookup(key, fallback string) string {
	if v, ok := s.Get(key); ok {
		return v
	}
	return fallback
}

// Keys lists the file-backed keys, for diagnostics. Values are never logged.
func (s *Secrets) Keys() []string {
	if s == nil {
		return nil
	}
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	return keys
}
