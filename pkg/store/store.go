// Package store writes the collected deep links to one JSON file per category.
package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/paulstuart/gollm/unityrel/pkg/model"
)

// DefaultDir returns the directory holding the running executable.
func DefaultDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to locate executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe), nil
}

// Path is the file a category is written to inside dir.
func Path(dir string, c model.Category) string {
	return filepath.Join(dir, string(c)+".json")
}

// WriteAll writes every category of agg to <dir>/<CATEGORY>.json, replacing
// existing files, and returns the paths written.
func WriteAll(dir string, agg *model.Aggregate) ([]string, error) {
	paths := make([]string, 0, len(model.Categories))
	for _, c := range model.Categories {
		path := Path(dir, c)
		if err := Write(path, agg.Set(c)); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// Write stores one LinkSet as 2-space indented JSON. Non-ASCII and HTML
// characters are written literally.
func Write(path string, set *model.LinkSet) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(set); err != nil {
		return fmt.Errorf("error marshaling %s: %w", path, err)
	}

	if err := os.WriteFile(path, bytes.TrimRight(buf.Bytes(), "\n"), 0644); err != nil {
		return fmt.Errorf("error writing JSON to file %s: %w", path, err)
	}
	return nil
}

// ReadCategory loads a previously written category file from dir.
func ReadCategory(dir string, c model.Category) (*model.LinkSet, error) {
	path := Path(dir, c)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", path, err)
	}
	set := model.NewLinkSet()
	if err := json.Unmarshal(data, set); err != nil {
		return nil, fmt.Errorf("error decoding %s: %w", path, err)
	}
	return set, nil
}
