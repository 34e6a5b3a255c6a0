package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/ibeckermayer/replyloop/internal/config"
	"github.com/ibeckermayer/replyloop/internal/types"
)

// DefaultWaitTimeout bounds WaitVisible when the caller passes zero
const DefaultWaitTimeout = 30 * time.Second

// Page is a single controlled browser tab with its own browsing context.
// Query methods return types.ErrElementNotFound when a selector matches nothing.
type Page interface {
	Navigate(ctx context.Context, url string) error
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error
	Exists(ctx context.Context, selector string) (bool, error)
	Text(ctx context.Context, selector string) (string, error)
	TextAll(ctx context.Context, selector string) ([]string, error)
	Attribute(ctx context.Context, selector, name string) (string, error)
	AttributeAll(ctx context.Context, selector, name string) ([]string, error)
	Fill(ctx context.Context, selector, value string) error
	Click(ctx context.Context, selector string) error
	ScrollToBottom(ctx context.Context) error
	Sleep(ctx context.Context, d time.Duration) error
	Screenshot(ctx context.Context, path string) error
	SessionState(ctx context.Context) (*types.SessionState, error)
	Close() error
}

// Launcher opens fresh pages, optionally seeded with a saved session
type Launcher interface {
	Open(ctx context.Context, state *types.SessionState) (Page, error)
}

// New returns the launcher for the configured engine
func New(cfg config.ScrapingConfig) (Launcher, error) {
	switch cfg.Engine {
	case "", config.EngineChromedp:
		return NewChromedpLauncher(cfg.Headless), nil
	case config.EnginePlaywright:
		return NewPlaywrightLauncher(cfg.Headless), nil
	default:
		return nil, fmt.Errorf("unknown browser engine: %s", cfg.Engine)
	}
}

// sleep waits for d or until ctx is done
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
