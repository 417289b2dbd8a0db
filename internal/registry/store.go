package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is the on-disk encoding of the registry file.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFor picks the encoding from the file extension: .json means JSON,
// anything else YAML.
func FormatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// document is the persisted registry.
type document struct {
	Track []string `json:"track" yaml:"track"`
}

// fileStore reads and writes the registry file. It does no locking of its
// own; Registry serializes access with the registry lock.
type fileStore struct {
	path   string
	format Format
}

func newFileStore(path string) *fileStore {
	return &fileStore{path: path, format: FormatFor(path)}
}

// load returns an empty document when the file does not exist.
func (s *fileStore) load() (*document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &document{}, nil
		}
		return nil, fmt.Errorf("failed to read registry file: %w", err)
	}

	var doc document
	switch s.format {
	case FormatJSON:
		if len(strings.TrimSpace(string(data))) == 0 {
			return &doc, nil
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse registry as JSON: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse registry as YAML: %w", err)
		}
	}
	return &doc, nil
}

// save writes to a temp file in the same directory, then renames it over
// the registry.
func (s *fileStore) save(doc *document) error {
	if doc.Track == nil {
		doc.Track = []string{}
	}

	var data []byte
	var err error
	switch s.format {
	case FormatJSON:
		data, err = json.MarshalIndent(doc, "", "  ")
	default:
		data, err = yaml.Marshal(doc)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create registry directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp registry file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp registry file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp registry file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp registry file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to save registry file: %w", err)
	}
	return nil
}
