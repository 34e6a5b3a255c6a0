package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ibeckermayer/replyloop/internal/browser"
	"github.com/ibeckermayer/replyloop/internal/types"
)

// TimelineMarker is present only when the home timeline is shown to a logged-in user
const TimelineMarker = `div[aria-label="Timeline: Your Home Timeline"]`

const defaultPollInterval = 2 * time.Second

// Manager handles X.com authentication
type Manager struct {
	store        *SessionStore
	launcher     browser.Launcher
	timelineURL  string
	loginTimeout time.Duration
	pollInterval time.Duration
}

// NewManager creates a new auth manager
func NewManager(store *SessionStore, launcher browser.Launcher, timelineURL string, loginTimeout time.Duration) *Manager {
	return &Manager{
		store:        store,
		launcher:     launcher,
		timelineURL:  timelineURL,
		loginTimeout: loginTimeout,
		pollInterval: defaultPollInterval,
	}
}

// SetPollInterval overrides how often the login marker is checked
func (m *Manager) SetPollInterval(d time.Duration) {
	m.pollInterval = d
}

// Store returns the underlying session store
func (m *Manager) Store() *SessionStore {
	return m.store
}

// IsAuthenticated checks if we have stored session state
func (m *Manager) IsAuthenticated() bool {
	return m.store.Exists()
}

// EnsureLoggedIn blocks until the page shows the authenticated timeline.
// When a manual login was needed, the new session is snapshotted and saved.
func (m *Manager) EnsureLoggedIn(ctx context.Context, page browser.Page) error {
	ok, err := page.Exists(ctx, TimelineMarker)
	if err != nil {
		return fmt.Errorf("failed to check login state: %w", err)
	}
	if ok {
		return nil
	}

	slog.Info("Waiting for manual login in the browser window", "timeout", m.loginTimeout)
	if err := m.waitForLogin(ctx, page); err != nil {
		return err
	}
	slog.Info("Login detected")

	state, err := page.SessionState(ctx)
	if err != nil {
		return fmt.Errorf("failed to snapshot session: %w", err)
	}
	if err := m.store.Save(state); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	slog.Info("Session state saved", "path", m.store.Path())
	return nil
}

// waitForLogin polls until the timeline marker appears or the login budget runs out
func (m *Manager) waitForLogin(ctx context.Context, page browser.Page) error {
	timeout := time.NewTimer(m.loginTimeout)
	defer timeout.Stop()
	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-timeout.C:
			return types.ErrLoginTimeout
		case <-ticker.C:
			ok, err := page.Exists(ctx, TimelineMarker)
			if err != nil {
				// Page may be mid-navigation during the login flow
				slog.Debug("Login marker check failed", "error", err)
				continue
			}
			if ok {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Login opens a browser window for the user to log in to X.com and saves the session
func (m *Manager) Login(ctx context.Context) error {
	var seed *types.SessionState
	if state, err := m.store.Load(); err == nil {
		seed = state
	}

	page, err := m.launcher.Open(ctx, seed)
	if err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	defer page.Close()

	if err := page.Navigate(ctx, m.timelineURL); err != nil {
		return fmt.Errorf("failed to navigate to timeline: %w", err)
	}

	if err := m.EnsureLoggedIn(ctx, page); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	return nil
}

// Logout clears stored credentials
func (m *Manager) Logout() error {
	return m.store.Clear()
}
