// Package scraper collects timeline items from X.com through a browser page.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/ibeckermayer/replyloop/internal/auth"
	"github.com/ibeckermayer/replyloop/internal/browser"
	"github.com/ibeckermayer/replyloop/internal/config"
	"github.com/ibeckermayer/replyloop/internal/logging"
	"github.com/ibeckermayer/replyloop/internal/store"
	"github.com/ibeckermayer/replyloop/internal/types"
)

// Collector handles extracting items from the X.com home timeline
type Collector struct {
	launcher browser.Launcher
	auth     *auth.Manager
	cfg      config.ScrapingConfig
	dataFile string
}

// New creates a new collector writing to dataFile
func New(launcher browser.Launcher, authManager *auth.Manager, cfg config.ScrapingConfig, dataFile string) *Collector {
	return &Collector{
		launcher: launcher,
		auth:     authManager,
		cfg:      cfg,
		dataFile: dataFile,
	}
}

// Collect scrolls the timeline scrollCount times, visits every discovered
// permalink and overwrites the data file with the resulting items.
func (c *Collector) Collect(ctx context.Context, scrollCount int) ([]types.Item, error) {
	var seed *types.SessionState
	state, err := c.auth.Store().Load()
	switch {
	case err == nil:
		seed = state
		slog.Info("Loaded session state", "path", c.auth.Store().Path())
	case errors.Is(err, types.ErrNoSession):
		slog.Info("No saved session, manual login will be required")
	default:
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	page, err := c.launcher.Open(ctx, seed)
	if err != nil {
		return nil, fmt.Errorf("failed to open browser: %w", err)
	}
	defer page.Close()

	if err := page.Navigate(ctx, c.cfg.TimelineURL); err != nil {
		return nil, fmt.Errorf("failed to load timeline: %w", err)
	}

	if err := c.auth.EnsureLoggedIn(ctx, page); err != nil {
		return nil, err
	}
	if err := page.WaitVisible(ctx, auth.TimelineMarker, 0); err != nil {
		return nil, fmt.Errorf("timeline did not load: %w", err)
	}
	slog.Info("Timeline loaded")

	urls, err := c.timelineURLs(ctx, page, scrollCount)
	if err != nil {
		return nil, err
	}
	slog.Info("Extracted post URLs", "count", len(urls))

	items := make([]types.Item, 0, len(urls))
	for _, u := range urls {
		item, ok, err := c.extractItem(ctx, page, u)
		if err != nil {
			return nil, fmt.Errorf("failed to extract %s: %w", u, err)
		}
		if !ok {
			slog.Warn("Post text not found, skipping", "url", u)
			continue
		}
		items = append(items, item)
	}

	if err := store.SaveItems(c.dataFile, items); err != nil {
		return nil, err
	}
	slog.Info("Items saved", "count", len(items), "path", c.dataFile)

	return items, nil
}

// timelineURLs scrolls the timeline and returns the deduplicated permalinks in first-seen order
func (c *Collector) timelineURLs(ctx context.Context, page browser.Page, scrollCount int) ([]string, error) {
	for i := 0; i < scrollCount; i++ {
		if err := c.scroll(ctx, page); err != nil {
			return nil, err
		}
		slog.Debug("Scrolled timeline", "scroll", i+1, "of", scrollCount)
	}

	hrefs, err := page.AttributeAll(ctx, TimelineStatusLink, "href")
	if err != nil {
		return nil, fmt.Errorf("failed to extract post URLs: %w", err)
	}

	return dedupeURLs(hrefs), nil
}

// extractItem reads one permalink page. ok is false when the post body is missing.
func (c *Collector) extractItem(ctx context.Context, page browser.Page, u string) (types.Item, bool, error) {
	if err := page.Navigate(ctx, u); err != nil {
		return types.Item{}, false, err
	}
	if err := page.WaitVisible(ctx, WaitForTweet, 0); err != nil {
		return types.Item{}, false, err
	}

	post, err := page.Text(ctx, TweetText)
	if errors.Is(err, types.ErrElementNotFound) {
		return types.Item{}, false, nil
	}
	if err != nil {
		return types.Item{}, false, err
	}

	// Replies load lazily below the post
	if err := c.scroll(ctx, page); err != nil {
		return types.Item{}, false, err
	}

	stats, err := page.Attribute(ctx, TweetStats, "aria-label")
	if err != nil && !errors.Is(err, types.ErrElementNotFound) {
		return types.Item{}, false, err
	}

	comments, err := page.TextAll(ctx, ThreadText)
	if err != nil {
		return types.Item{}, false, err
	}
	if comments == nil {
		comments = []string{}
	}

	slog.Debug("Extracted post", "url", u, "post", logging.Excerpt(post, 60), "comments", len(comments))

	return types.Item{
		URL:      u,
		Post:     post,
		Stats:    stats,
		Comments: comments,
	}, true, nil
}

func (c *Collector) scroll(ctx context.Context, page browser.Page) error {
	if err := page.ScrollToBottom(ctx); err != nil {
		return fmt.Errorf("failed to scroll: %w", err)
	}
	return page.Sleep(ctx, c.cfg.SettleDelay())
}

// dedupeURLs normalizes permalinks and drops repeats, keeping first-seen order
func dedupeURLs(hrefs []string) []string {
	seen := make(map[string]bool, len(hrefs))
	out := make([]string, 0, len(hrefs))
	for _, h := range hrefs {
		u := normalizeURL(h)
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}

// normalizeURL strips query and fragment and resolves relative links against x.com
func normalizeURL(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if u.Host == "" {
		u.Scheme = "https"
		u.Host = "x.com"
	}
	u.RawQuery = ""
	u.Fragment = ""
	u.Path = strings.TrimSuffix(u.Path, "/")
	return u.String()
}
