package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// LLMExchange represents a prompt/response pair for caching
type LLMExchange struct {
	Timestamp time.Time `json:"timestamp"`
	Provider  string    `json:"provider"` // e.g. "openai"
	Model     string    `json:"model"`
	Agent     string    `json:"agent"`
	Prompt    string    `json:"prompt"`
	Response  string    `json:"response"`
	Error     string    `json:"error,omitempty"`
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// LLMCacheDir returns the directory holding cached model exchanges
func (c *Cache) LLMCacheDir() string {
	return filepath.Join(c.root, "llm")
}

// SaveLLMExchange writes an exchange to a timestamped file named after its agent.
// Returns the path to the saved file.
func (c *Cache) SaveLLMExchange(exchange LLMExchange) (string, error) {
	dir := c.LLMCacheDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	name := unsafeName.ReplaceAllString(exchange.Agent, "_")
	if name == "" {
		name = "agent"
	}
	// Suffix keeps exchanges from the same millisecond apart
	suffix := uuid.NewString()[:8]
	path := filepath.Join(dir, time.Now().Format("2006-01-02T15-04-05.000")+"-"+name+"-"+suffix+".json")

	data, err := json.MarshalIndent(exchange, "", "  ")
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}

	return path, nil
}
