package app

import (
	"fmt"
	"log/slog"

	"github.com/ibeckermayer/replyloop/internal/analyzer"
	"github.com/ibeckermayer/replyloop/internal/analyzer/providers"
	"github.com/ibeckermayer/replyloop/internal/auth"
	"github.com/ibeckermayer/replyloop/internal/browser"
	"github.com/ibeckermayer/replyloop/internal/config"
	"github.com/ibeckermayer/replyloop/internal/news"
	"github.com/ibeckermayer/replyloop/internal/notifier"
	"github.com/ibeckermayer/replyloop/internal/poster"
	"github.com/ibeckermayer/replyloop/internal/report"
	"github.com/ibeckermayer/replyloop/internal/scraper"
	"github.com/ibeckermayer/replyloop/internal/store"
)

// stopper is implemented by launchers that keep a driver process alive
type stopper interface {
	Stop() error
}

// Build wires every component from cfg. A missing model provider is not fatal
// here so that login and posting still work; Analyze reports it instead.
func Build(cfg *config.Config) (*App, error) {
	if err := cfg.ResolveFiles(); err != nil {
		return nil, fmt.Errorf("failed to resolve file locations: %w", err)
	}

	launcher, err := browser.New(cfg.Scraping)
	if err != nil {
		return nil, err
	}

	cacheDir, err := config.CacheDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get cache directory: %w", err)
	}
	cache := store.NewCache(cacheDir)

	reports, err := report.New()
	if err != nil {
		return nil, err
	}

	history, err := store.OpenHistory(cfg.Files.HistoryDB)
	if err != nil {
		return nil, err
	}

	sessions := auth.NewSessionStore(cfg.Files.SessionFile)
	authManager := auth.NewManager(sessions, launcher, cfg.Scraping.TimelineURL, cfg.Scraping.LoginTimeout())

	c := Components{
		Auth:      authManager,
		Collector: scraper.New(launcher, authManager, cfg.Scraping, cfg.Files.DataFile),
		Poster:    poster.New(launcher, sessions, cfg.Files.ScreenshotFile),
		Cache:     cache,
		History:   history,
		Reports:   reports,
		Closers:   []func() error{history.Close},
	}
	if s, ok := launcher.(stopper); ok {
		c.Closers = append(c.Closers, s.Stop)
	}

	provider, err := providers.New(cfg.Analysis)
	if err != nil {
		c.AnalyzerErr = fmt.Errorf("language model unavailable: %w", err)
		slog.Warn("Analysis disabled", "error", err)
	} else {
		c.Analyzer = analyzer.New(providers.NewRecorder(provider, cache), cfg.Topic)
	}

	if cfg.Reply.GeneratePost && len(cfg.Reply.NewsFeeds) > 0 {
		c.News = news.NewFetcher(cfg.Reply.NewsFeeds, cfg.Reply.MaxHeadlines)
	}

	if cfg.Email.Enabled() {
		n, err := notifier.NewFromConfig(cfg.Email)
		if err != nil {
			slog.Warn("Email notifications disabled", "error", err)
		} else {
			c.Notifier = n
		}
	}

	return New(cfg, c), nil
}
