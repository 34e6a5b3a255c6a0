package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// StepName identifies a pipeline step for caching purposes.
type StepName string

const (
	Step1Items      StepName = "step1_items"
	Step2Classified StepName = "step2_classified"
	Step3Scored     StepName = "step3_scored"
	Step4Result     StepName = "step4_result"
)

// Cache writes debugging snapshots under a single cache root
type Cache struct {
	root string
}

// NewCache returns a cache rooted at dir
func NewCache(dir string) *Cache {
	return &Cache{root: dir}
}

func (c *Cache) stepDir(step StepName) string {
	return filepath.Join(c.root, string(step))
}

// generateFilename creates a timestamped filename with the given extension.
// Milliseconds keep names unique and chronologically sortable.
func generateFilename(ext string) string {
	return time.Now().Format("2006-01-02T15-04-05.000") + ext
}

// SaveStepOutput saves JSON-serializable data to the step's cache directory.
// Returns the path to the saved file.
func SaveStepOutput[T any](c *Cache, step StepName, data T) (string, error) {
	dir := c.stepDir(step)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create step cache dir: %w", err)
	}

	path := filepath.Join(dir, generateFilename(".json"))

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal step output: %w", err)
	}

	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return "", fmt.Errorf("failed to write step output: %w", err)
	}

	return path, nil
}

// LoadLatestStepOutput loads the most recent output from a step's cache directory.
// Returns the data, the filepath it was loaded from, and any error.
func LoadLatestStepOutput[T any](c *Cache, step StepName) (T, string, error) {
	var zero T

	latestPath, err := c.LatestStepFile(step)
	if err != nil {
		return zero, "", err
	}

	var data T
	if err := readJSON(latestPath, &data); err != nil {
		return zero, "", fmt.Errorf("failed to load step output: %w", err)
	}

	return data, latestPath, nil
}

// LatestStepFile returns the path to the most recent file in a step's cache directory.
func (c *Cache) LatestStepFile(step StepName) (string, error) {
	entries, err := os.ReadDir(c.stepDir(step))
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("no cached output for step %s", step)
		}
		return "", err
	}

	// os.ReadDir sorts by name, which is chronological for our timestamps
	var latest string
	for _, entry := range entries {
		if !entry.IsDir() {
			latest = entry.Name()
		}
	}
	if latest == "" {
		return "", fmt.Errorf("no cached output for step %s", step)
	}

	return filepath.Join(c.stepDir(step), latest), nil
}
