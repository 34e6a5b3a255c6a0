// Package app sequences collection, analysis, confirmation and posting.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ibeckermayer/replyloop/internal/analyzer"
	"github.com/ibeckermayer/replyloop/internal/auth"
	"github.com/ibeckermayer/replyloop/internal/config"
	"github.com/ibeckermayer/replyloop/internal/news"
	"github.com/ibeckermayer/replyloop/internal/notifier"
	"github.com/ibeckermayer/replyloop/internal/poster"
	"github.com/ibeckermayer/replyloop/internal/report"
	"github.com/ibeckermayer/replyloop/internal/scraper"
	"github.com/ibeckermayer/replyloop/internal/store"
	"github.com/ibeckermayer/replyloop/internal/types"
)

// Components are the collaborators an App sequences.
// News, Cache, History, Notifier and Reports are optional.
type Components struct {
	Auth      *auth.Manager
	Collector *scraper.Collector
	Analyzer  *analyzer.Analyzer
	Poster    *poster.Poster
	News      *news.Fetcher
	Cache     *store.Cache
	History   *store.History
	Notifier  *notifier.Notifier
	Reports   *report.Builder

	// AnalyzerErr explains a missing Analyzer (no API key, unknown provider)
	AnalyzerErr error
	// Closers run on Close, in order
	Closers []func() error
}

// App holds the application state.
type App struct {
	cfg *config.Config
	Components

	// run is held for the duration of one pipeline step or loop
	run sync.Mutex

	mu     sync.RWMutex
	items  []types.Item
	result *types.Result
}

// New creates a new App instance.
func New(cfg *config.Config, c Components) *App {
	return &App{cfg: cfg, Components: c}
}

// Config returns the configuration the app was built with
func (a *App) Config() *config.Config {
	return a.cfg
}

// Close releases the history database and browser engine
func (a *App) Close() error {
	var errs []error
	for _, c := range a.Closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// acquire takes the run guard without blocking
func (a *App) acquire() (func(), error) {
	if !a.run.TryLock() {
		return nil, types.ErrBusy
	}
	return a.run.Unlock, nil
}

// Busy reports whether a run is in progress
func (a *App) Busy() bool {
	if a.run.TryLock() {
		a.run.Unlock()
		return false
	}
	return true
}

// IsAuthenticated checks if a session is stored.
func (a *App) IsAuthenticated() bool {
	return a.Auth.IsAuthenticated()
}

// Login opens a browser window for a manual X.com login.
func (a *App) Login(ctx context.Context) error {
	release, err := a.acquire()
	if err != nil {
		return err
	}
	defer release()

	slog.Info("Login triggered, opening browser for X.com authentication")
	if err := a.Auth.Login(ctx); err != nil {
		return err
	}
	slog.Info("Login successful, session saved")
	return nil
}

// Logout clears the stored session.
func (a *App) Logout() error {
	slog.Info("Logout triggered, clearing stored session")
	return a.Auth.Logout()
}

// Collect scrapes the timeline and writes the data file.
// Scroll counts outside 1-10 fall back to the default with a warning.
func (a *App) Collect(ctx context.Context, scrollCount int) ([]types.Item, error) {
	release, err := a.acquire()
	if err != nil {
		return nil, err
	}
	defer release()
	return a.collect(ctx, scrollCount)
}

func (a *App) collect(ctx context.Context, scrollCount int) ([]types.Item, error) {
	n, ok := config.ClampScrollCount(scrollCount)
	if !ok {
		slog.Warn("Scroll count must be between 1 and 10, using default",
			"requested", scrollCount, "using", n)
	}

	items, err := a.Collector.Collect(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("failed to collect items: %w", err)
	}
	saveStep(a.Cache, store.Step1Items, items)

	a.mu.Lock()
	a.items = items
	a.result = nil
	a.mu.Unlock()
	return items, nil
}

// RestoreItems rewrites the data file from the most recent cached collection,
// so analysis can be repeated without scraping again
func (a *App) RestoreItems() ([]types.Item, error) {
	release, err := a.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	if a.Cache == nil {
		return nil, types.ErrNoItems
	}
	items, path, err := store.LoadLatestStepOutput[[]types.Item](a.Cache, store.Step1Items)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrNoItems, err)
	}
	if err := store.SaveItems(a.cfg.Files.DataFile, items); err != nil {
		return nil, err
	}
	slog.Info("Restored items from cache", "path", path, "count", len(items))

	a.mu.Lock()
	a.items = items
	a.result = nil
	a.mu.Unlock()
	return items, nil
}

// Analyze reads the data file and runs classify, score, select and reply
// generation. The result is persisted before it is returned.
func (a *App) Analyze(ctx context.Context) (*types.Result, error) {
	release, err := a.acquire()
	if err != nil {
		return nil, err
	}
	defer release()
	return a.analyze(ctx)
}

func (a *App) analyze(ctx context.Context) (*types.Result, error) {
	if a.Analyzer == nil {
		if a.AnalyzerErr != nil {
			return nil, a.AnalyzerErr
		}
		return nil, errors.New("no language model configured")
	}

	items, err := store.LoadItems(a.cfg.Files.DataFile)
	if err != nil {
		return nil, err
	}
	slog.Info("Analyzing items", "count", len(items))

	classified, err := a.Analyzer.Classify(ctx, items)
	if err != nil {
		return nil, err
	}
	saveStep(a.Cache, store.Step2Classified, classified)
	slog.Info("Classification complete", "on_topic", len(classified), "total", len(items))
	if len(classified) == 0 {
		return nil, types.ErrNoOnTopicItems
	}

	scored, err := a.Analyzer.Score(ctx, classified)
	if err != nil {
		return nil, err
	}
	saveStep(a.Cache, store.Step3Scored, scored)

	best, err := analyzer.SelectBest(scored)
	if err != nil {
		return nil, err
	}
	slog.Info("Selected best item", "url", best.Item.URL, "score", best.Engagement.Potential)

	reply, err := a.Analyzer.GenerateReply(ctx, best)
	if err != nil {
		return nil, err
	}

	result := &types.Result{
		RunID:     uuid.NewString(),
		CreatedAt: time.Now(),
		BestItem: types.Selection{
			URL:             best.Item.URL,
			Post:            best.Item.Post,
			Stats:           best.Item.Stats,
			EngagementScore: best.Engagement.Potential,
			Categories:      best.Classification.Categories,
		},
		GeneratedReply: reply,
		Summary: types.AnalysisSummary{
			TotalItems:   len(items),
			OnTopicCount: len(classified),
			BestScore:    best.Engagement.Potential,
		},
	}

	if a.cfg.Reply.GeneratePost {
		result.GeneratedPost = a.generatePost(ctx, classified)
	}

	if err := a.persist(result); err != nil {
		return nil, err
	}
	if a.History != nil {
		if err := a.History.RecordRun(result); err != nil {
			slog.Warn("Failed to record run history", "run_id", result.RunID, "error", err)
		}
	}
	a.notify(result)
	return result, nil
}

// generatePost is best effort; a failure leaves the result without a post
func (a *App) generatePost(ctx context.Context, classified []types.ClassifiedItem) *types.GeneratedReply {
	var analysis *types.NewsAnalysis
	if a.News != nil {
		headlines, err := a.News.Headlines(ctx)
		if err != nil {
			slog.Warn("Skipping news context", "error", err)
		} else if na, err := a.Analyzer.AnalyzeNews(ctx, headlines); err != nil {
			slog.Warn("News analysis failed", "error", err)
		} else {
			analysis = &na
		}
	}

	post, err := a.Analyzer.GeneratePost(ctx, classified, analysis)
	if err != nil {
		slog.Warn("Post generation failed", "error", err)
		return nil
	}
	return &post
}

func (a *App) persist(result *types.Result) error {
	if err := store.SaveResult(a.cfg.Files.ResultsFile, result); err != nil {
		return fmt.Errorf("failed to save results: %w", err)
	}
	saveStep(a.Cache, store.Step4Result, result)

	a.mu.Lock()
	a.result = result
	a.mu.Unlock()
	slog.Info("Results saved", "path", a.cfg.Files.ResultsFile, "run_id", result.RunID)
	return nil
}

func (a *App) notify(result *types.Result) {
	if a.Notifier == nil || a.Reports == nil {
		return
	}
	r, err := a.Reports.Build(result)
	if err != nil {
		slog.Warn("Failed to build report", "error", err)
		return
	}
	if err := a.Notifier.SendReport(r); err != nil {
		slog.Warn("Failed to send report", "error", err)
		return
	}
	slog.Info("Report sent", "run_id", result.RunID)
}

// Confirm posts the generated reply, or editedReply when it is not blank,
// to the selected item and records the outcome. Posting failures are
// reported in the returned Result's Posting, not as an error.
func (a *App) Confirm(ctx context.Context, editedReply string) (*types.Result, error) {
	release, err := a.acquire()
	if err != nil {
		return nil, err
	}
	defer release()
	return a.confirm(ctx, editedReply)
}

func (a *App) confirm(ctx context.Context, editedReply string) (*types.Result, error) {
	result, err := a.Result()
	if err != nil {
		return nil, err
	}

	text := result.GeneratedReply.Text
	edited := false
	if strings.TrimSpace(editedReply) != "" && editedReply != text {
		text = editedReply
		edited = true
	}

	out := a.Poster.Post(ctx, result.BestItem.URL, text)
	posting := &types.Posting{
		Posted:     out.Posted,
		ReplyText:  text,
		Edited:     edited,
		Screenshot: out.Screenshot,
		PostedAt:   time.Now(),
	}
	if out.Err != nil {
		posting.Error = out.Err.Error()
	}

	updated := *result
	updated.Posting = posting
	if err := a.persist(&updated); err != nil {
		return nil, err
	}
	if a.History != nil {
		if err := a.History.RecordReply(updated.RunID, updated.BestItem.URL, posting); err != nil {
			slog.Warn("Failed to record reply history", "run_id", updated.RunID, "error", err)
		}
	}
	return &updated, nil
}

// Restart discards the current items and result so the next run starts from collection.
// It returns ErrBusy while a step is running.
func (a *App) Restart() error {
	unlock, err := a.acquire()
	if err != nil {
		return err
	}
	defer unlock()
	return a.restart()
}

func (a *App) restart() error {
	a.mu.Lock()
	a.items = nil
	a.result = nil
	a.mu.Unlock()

	var errs []error
	for _, path := range []string{a.cfg.Files.DataFile, a.cfg.Files.ResultsFile} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
		}
	}
	slog.Info("State cleared, starting over")
	return errors.Join(errs...)
}

// Items returns the last collected items, falling back to the data file
func (a *App) Items() ([]types.Item, error) {
	a.mu.RLock()
	items := a.items
	a.mu.RUnlock()
	if items != nil {
		return items, nil
	}
	return store.LoadItems(a.cfg.Files.DataFile)
}

// Result returns the last analysis result, falling back to the results file
func (a *App) Result() (*types.Result, error) {
	a.mu.RLock()
	result := a.result
	a.mu.RUnlock()
	if result != nil {
		return result, nil
	}
	return store.LoadResult(a.cfg.Files.ResultsFile)
}

// Status is a point-in-time view of the app
type Status struct {
	Authenticated bool   `json:"authenticated"`
	Busy          bool   `json:"busy"`
	ItemCount     int    `json:"item_count"`
	HasResult     bool   `json:"has_result"`
	RunID         string `json:"run_id,omitempty"`
	Posted        bool   `json:"posted"`
}

// Status reports session, run and result state
func (a *App) Status() Status {
	s := Status{
		Authenticated: a.IsAuthenticated(),
		Busy:          a.Busy(),
	}
	if items, err := a.Items(); err == nil {
		s.ItemCount = len(items)
	}
	if result, err := a.Result(); err == nil {
		s.HasResult = true
		s.RunID = result.RunID
		s.Posted = result.Posting != nil && result.Posting.Posted
	}
	return s
}

// saveStep writes a debug snapshot of a pipeline step when a cache is configured
func saveStep[T any](c *store.Cache, step store.StepName, data T) {
	if c == nil {
		return
	}
	path, err := store.SaveStepOutput(c, step, data)
	if err != nil {
		slog.Warn("Failed to cache step output", "step", step, "error", err)
		return
	}
	slog.Debug("Cached step output", "step", step, "path", path)
}
