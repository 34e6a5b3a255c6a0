// Package poster submits a reply to an X.com post through a browser page.
package poster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ibeckermayer/replyloop/internal/auth"
	"github.com/ibeckermayer/replyloop/internal/browser"
	"github.com/ibeckermayer/replyloop/internal/types"
)

// X.com reply flow selectors
const (
	TweetContainer = `[data-testid="tweet"]`
	ReplyButton    = `[data-testid="reply"]`
	ReplyTextarea  = `[data-testid="tweetTextarea_0"]`
	SubmitButton   = `[data-testid="tweetButton"]`
	// Present once the composer closes and the thread is shown again
	PostedMarker = `[data-testid="cellInnerDiv"] article`
)

const (
	beforeSubmitDelay = 1 * time.Second
	afterSubmitDelay  = 5 * time.Second
)

// Outcome reports the result of a post attempt
type Outcome struct {
	Posted     bool
	Screenshot string
	Err        error
}

// Poster replies to posts using the saved session
type Poster struct {
	launcher   browser.Launcher
	sessions   *auth.SessionStore
	screenshot string
}

// New creates a poster that saves its confirmation screenshot to screenshotPath
func New(launcher browser.Launcher, sessions *auth.SessionStore, screenshotPath string) *Poster {
	return &Poster{
		launcher:   launcher,
		sessions:   sessions,
		screenshot: screenshotPath,
	}
}

// Post replies to url with text. Failures are reported in the Outcome, never returned.
func (p *Poster) Post(ctx context.Context, url, text string) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = Outcome{Screenshot: out.Screenshot, Err: fmt.Errorf("poster panic: %v", r)}
			slog.Error("Reply failed", "url", url, "error", out.Err)
		}
	}()

	slog.Info("Preparing to reply", "url", url, "text", text)

	state, err := p.sessions.Load()
	if err != nil {
		if errors.Is(err, types.ErrNoSession) {
			slog.Error("No session state found, log in first", "path", p.sessions.Path())
		}
		return Outcome{Err: fmt.Errorf("failed to load session: %w", err)}
	}

	page, err := p.launcher.Open(ctx, state)
	if err != nil {
		slog.Error("Failed to open browser", "error", err)
		return Outcome{Err: fmt.Errorf("failed to open browser: %w", err)}
	}
	defer page.Close()

	out = p.reply(ctx, page, url, text)
	if out.Err != nil {
		slog.Error("Reply failed", "url", url, "error", out.Err)
	}
	return out
}

func (p *Poster) reply(ctx context.Context, page browser.Page, url, text string) Outcome {
	if err := page.Navigate(ctx, url); err != nil {
		return Outcome{Err: fmt.Errorf("failed to navigate to post: %w", err)}
	}
	if err := page.WaitVisible(ctx, TweetContainer, 0); err != nil {
		return Outcome{Err: fmt.Errorf("post did not load: %w", err)}
	}

	if err := clickRequired(ctx, page, ReplyButton, "reply button"); err != nil {
		return Outcome{Err: err}
	}

	if err := page.WaitVisible(ctx, ReplyTextarea, 0); err != nil {
		return Outcome{Err: fmt.Errorf("reply text field did not appear: %w", err)}
	}
	if err := page.Fill(ctx, ReplyTextarea, text); err != nil {
		return Outcome{Err: fmt.Errorf("failed to type reply: %w", err)}
	}
	if err := page.Sleep(ctx, beforeSubmitDelay); err != nil {
		return Outcome{Err: err}
	}

	slog.Info("Submitting reply")
	if err := clickRequired(ctx, page, SubmitButton, "reply submit button"); err != nil {
		return Outcome{Err: err}
	}

	if err := page.Sleep(ctx, afterSubmitDelay); err != nil {
		return Outcome{Err: err}
	}
	if ok, err := page.Exists(ctx, PostedMarker); err != nil {
		slog.Warn("Error waiting for reply confirmation", "error", err)
	} else if ok {
		slog.Info("Reply successfully posted")
	} else {
		slog.Warn("Unable to confirm if reply was posted")
	}

	out := Outcome{Posted: true}
	if err := page.Screenshot(ctx, p.screenshot); err != nil {
		// The reply is already submitted at this point
		slog.Warn("Failed to save screenshot", "path", p.screenshot, "error", err)
	} else {
		out.Screenshot = p.screenshot
		slog.Info("Screenshot saved", "path", p.screenshot)
	}
	return out
}

func clickRequired(ctx context.Context, page browser.Page, selector, name string) error {
	ok, err := page.Exists(ctx, selector)
	if err != nil {
		return fmt.Errorf("failed to find %s: %w", name, err)
	}
	if !ok {
		return fmt.Errorf("couldn't find %s: %w", name, types.ErrElementNotFound)
	}
	if err := page.Click(ctx, selector); err != nil {
		return fmt.Errorf("failed to click %s: %w", name, err)
	}
	return nil
}
