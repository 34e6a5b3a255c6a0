package providers

import (
	"context"
	"log/slog"
	"time"

	"github.com/ibeckermayer/replyloop/internal/store"
)

// Recorder wraps a Provider and caches every prompt/response pair for debugging
type Recorder struct {
	next     Provider
	cache    *store.Cache
	provider string
	model    string
}

// described is implemented by providers that can name themselves in cached exchanges
type described interface {
	Name() string
	Model() string
}

// NewRecorder caches exchanges made through next under cache
func NewRecorder(next Provider, cache *store.Cache) *Recorder {
	r := &Recorder{next: next, cache: cache}
	if d, ok := next.(described); ok {
		r.provider = d.Name()
		r.model = d.Model()
	}
	return r
}

// Run delegates to the wrapped provider and records the exchange
func (r *Recorder) Run(ctx context.Context, agent Agent, input string) (string, error) {
	resp, err := r.next.Run(ctx, agent, input)

	exchange := store.LLMExchange{
		Timestamp: time.Now(),
		Provider:  r.provider,
		Model:     r.model,
		Agent:     agent.Name,
		Prompt:    input,
		Response:  resp,
	}
	if err != nil {
		exchange.Error = err.Error()
	}

	if cachePath, cacheErr := r.cache.SaveLLMExchange(exchange); cacheErr != nil {
		slog.Warn("Failed to cache LLM exchange", "error", cacheErr)
	} else {
		slog.Debug("Cached LLM exchange", "path", cachePath)
	}

	return resp, err
}
