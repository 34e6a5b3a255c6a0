// Package news fetches recent headlines from RSS/Atom feeds.
package news

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/ibeckermayer/replyloop/internal/logging"
	"github.com/ibeckermayer/replyloop/internal/types"
)

const (
	summaryLen   = 280
	fetchTimeout = 20 * time.Second
)

var tagRe = regexp.MustCompile(`<[^>]*>`)

// Fetcher reads headlines from a fixed list of feeds
type Fetcher struct {
	feeds []string
	max   int
}

// NewFetcher creates a fetcher returning at most max headlines across feeds
func NewFetcher(feeds []string, max int) *Fetcher {
	return &Fetcher{feeds: feeds, max: max}
}

// Headlines fetches every feed and returns the newest headlines first.
// A feed that fails is logged and skipped; an error is returned only when all fail.
func (f *Fetcher) Headlines(ctx context.Context) ([]types.Headline, error) {
	if len(f.feeds) == 0 {
		return nil, errors.New("no news feeds configured")
	}

	var (
		all    []types.Headline
		failed int
	)
	for _, url := range f.feeds {
		headlines, err := f.fetchFeed(ctx, url)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			failed++
			slog.Warn("Failed to fetch feed", "url", url, "error", err)
			continue
		}
		all = append(all, headlines...)
	}
	if failed == len(f.feeds) {
		return nil, fmt.Errorf("all %d news feeds failed", failed)
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].PublishedAt.After(all[j].PublishedAt)
	})
	if f.max > 0 && len(all) > f.max {
		all = all[:f.max]
	}

	slog.Info("Fetched headlines", "count", len(all), "feeds", len(f.feeds)-failed)
	return all, nil
}

// fetchFeed retrieves and parses one RSS/Atom feed
func (f *Fetcher) fetchFeed(ctx context.Context, url string) ([]types.Headline, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	parser := gofeed.NewParser()
	feed, err := parser.ParseURLWithContext(url, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}

	headlines := make([]types.Headline, 0, len(feed.Items))
	for _, item := range feed.Items {
		if strings.TrimSpace(item.Title) == "" {
			continue
		}

		// Parse published date
		var publishedAt time.Time
		if item.PublishedParsed != nil {
			publishedAt = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			publishedAt = *item.UpdatedParsed
		}

		// Get description/summary
		summary := item.Description
		if summary == "" {
			summary = item.Content
		}

		headlines = append(headlines, types.Headline{
			Title:       strings.TrimSpace(item.Title),
			URL:         item.Link,
			Summary:     cleanSummary(summary),
			Source:      feed.Title,
			PublishedAt: publishedAt,
		})
	}

	return headlines, nil
}

// cleanSummary strips markup from a feed description and shortens it
func cleanSummary(s string) string {
	s = html.UnescapeString(tagRe.ReplaceAllString(s, " "))
	return logging.Excerpt(s, summaryLen)
}
