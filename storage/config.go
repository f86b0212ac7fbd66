package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Document is a decoded JSON config file.
type Document map[string]any

// LoadConfig reads the JSON document at path. A missing file yields an
// empty document.
func LoadConfig(path string) (Document, error) {
	clean, err := sanitizePath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(clean)
	if errors.Is(err, os.ErrNotExist) {
		return Document{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return Document{}, nil
	}
	doc := Document{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", clean, err)
	}
	return doc, nil
}

// SaveConfig writes doc to path through a temp file and rename, leaving the
// file readable only by its owner.
func SaveConfig(path string, doc Document) error {
	clean, err := sanitizePath(path)
	if err != nil {
		return err
	}
	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	payload = append(payload, '\n')

	dir := filepath.Dir(clean)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(clean)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, clean)
}

// Section returns the object stored under key, creating it when absent or
// not an object.
func (d Document) Section(key string) map[string]any {
	if sec, ok := d[key].(map[string]any); ok {
		return sec
	}
	sec := map[string]any{}
	d[key] = sec
	return sec
}

func sanitizePath(p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" {
		return "", errors.New("empty config path")
	}
	if strings.ContainsRune(p, 0) {
		return "", errors.New("invalid config path")
	}
	return filepath.Clean(p), nil
}
