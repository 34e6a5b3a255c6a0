package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ibeckermayer/replyloop/internal/types"
)

// writeJSON replaces path with the indented JSON encoding of v
func writeJSON(path string, v any, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// SaveItems overwrites the data file with the collected items in order
func SaveItems(path string, items []types.Item) error {
	if items == nil {
		items = []types.Item{}
	}
	if err := writeJSON(path, items, 0644); err != nil {
		return fmt.Errorf("failed to write data file: %w", err)
	}
	return nil
}

// LoadItems reads the data file written by the last collection
func LoadItems(path string) ([]types.Item, error) {
	var items []types.Item
	if err := readJSON(path, &items); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, types.ErrNoItems
		}
		return nil, err
	}
	return items, nil
}

// SaveResult overwrites the results file
func SaveResult(path string, result *types.Result) error {
	if err := writeJSON(path, result, 0644); err != nil {
		return fmt.Errorf("failed to write results file: %w", err)
	}
	return nil
}

// LoadResult reads the results file, returning types.ErrNoResults when it is absent
func LoadResult(path string) (*types.Result, error) {
	var result types.Result
	if err := readJSON(path, &result); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, types.ErrNoResults
		}
		return nil, err
	}
	return &result, nil
}
