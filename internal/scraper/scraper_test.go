package scraper

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibeckermayer/replyloop/internal/auth"
	"github.com/ibeckermayer/replyloop/internal/browser/browsertest"
	"github.com/ibeckermayer/replyloop/internal/config"
	"github.com/ibeckermayer/replyloop/internal/store"
	"github.com/ibeckermayer/replyloop/internal/types"
)

const home = "https://x.com/home?lang=en"

type fixture struct {
	collector *Collector
	launcher  *browsertest.Launcher
	sessions  *auth.SessionStore
	dataFile  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	launcher := browsertest.NewLauncher()
	sessions := auth.NewSessionStore(filepath.Join(dir, "state.json"))
	manager := auth.NewManager(sessions, launcher, home, time.Second)
	manager.SetPollInterval(time.Millisecond)

	cfg := config.Default().Scraping
	dataFile := filepath.Join(dir, "data.json")

	return &fixture{
		collector: New(launcher, manager, cfg, dataFile),
		launcher:  launcher,
		sessions:  sessions,
		dataFile:  dataFile,
	}
}

func (f *fixture) loggedIn(t *testing.T) {
	t.Helper()
	require.NoError(t, f.sessions.Save(&types.SessionState{
		Cookies: []types.Cookie{{Name: "auth_token", Value: "t", Domain: ".x.com", Path: "/"}},
	}))
	f.launcher.Page.SetText(home, auth.TimelineMarker, "timeline")
}

func (f *fixture) addPost(url, text, stats string, comments ...string) {
	p := f.launcher.Page
	p.SetText(url, TweetContainer, "tweet")
	if text != "" {
		p.SetText(url, TweetText, text)
	}
	if stats != "" {
		p.SetAttribute(url, TweetStats, "aria-label", stats)
	}
	p.SetText(url, ThreadText, comments...)
}

func TestCollectExtractsItemsInOrder(t *testing.T) {
	f := newFixture(t)
	f.loggedIn(t)
	f.launcher.Page.SetAttribute(home, TimelineStatusLink, "href",
		"https://x.com/alice/status/1?s=20",
		"https://x.com/bob/status/2",
		"https://x.com/alice/status/1#reply",
		"/carol/status/3",
	)
	f.addPost("https://x.com/alice/status/1", "LLMs are eating the world", "12 replies, 40 likes", "LLMs are eating the world", "agreed")
	f.addPost("https://x.com/bob/status/2", "", "")
	f.addPost("https://x.com/carol/status/3", "Rust 2.0 when", "")

	items, err := f.collector.Collect(context.Background(), 3)
	require.NoError(t, err)

	require.Len(t, items, 2)
	assert.Equal(t, "https://x.com/alice/status/1", items[0].URL)
	assert.Equal(t, "LLMs are eating the world", items[0].Post)
	assert.Equal(t, "12 replies, 40 likes", items[0].Stats)
	assert.Equal(t, []string{"LLMs are eating the world", "agreed"}, items[0].Comments)

	assert.Equal(t, "https://x.com/carol/status/3", items[1].URL)
	assert.Equal(t, "", items[1].Stats)
	assert.Equal(t, []string{}, items[1].Comments)

	// 3 timeline scrolls plus one per extracted post
	page := f.launcher.Page
	assert.Equal(t, 3+2, page.Scrolls)
	assert.Equal(t, time.Duration(5)*config.Default().Scraping.SettleDelay(), page.Slept)
	assert.True(t, page.Closed())

	saved, err := store.LoadItems(f.dataFile)
	require.NoError(t, err)
	assert.Equal(t, items, saved)
}

func TestCollectSeedsSession(t *testing.T) {
	f := newFixture(t)
	f.loggedIn(t)

	_, err := f.collector.Collect(context.Background(), 1)
	require.NoError(t, err)

	require.Len(t, f.launcher.Opened, 1)
	require.NotNil(t, f.launcher.Opened[0])
	assert.Equal(t, "auth_token", f.launcher.Opened[0].Cookies[0].Name)
}

func TestCollectWaitsForLoginAndSavesSession(t *testing.T) {
	f := newFixture(t)
	page := f.launcher.Page
	page.SetText(home, auth.TimelineMarker, "timeline")
	page.AppearAfter[auth.TimelineMarker] = 2
	page.State = &types.SessionState{Cookies: []types.Cookie{{Name: "fresh"}}}

	_, err := f.collector.Collect(context.Background(), 1)
	require.NoError(t, err)

	assert.Nil(t, f.launcher.Opened[0])
	state, err := f.sessions.Load()
	require.NoError(t, err)
	assert.Equal(t, "fresh", state.Cookies[0].Name)
}

func TestCollectLoginTimeoutClosesPage(t *testing.T) {
	f := newFixture(t)
	f.collector.auth = auth.NewManager(f.sessions, f.launcher, home, 10*time.Millisecond)
	f.collector.auth.SetPollInterval(time.Millisecond)

	_, err := f.collector.Collect(context.Background(), 1)
	assert.ErrorIs(t, err, types.ErrLoginTimeout)
	assert.True(t, f.launcher.Page.Closed())
	assert.NoFileExists(t, f.dataFile)
}

func TestCollectAbortsOnNavigationError(t *testing.T) {
	f := newFixture(t)
	f.loggedIn(t)
	f.launcher.Page.SetAttribute(home, TimelineStatusLink, "href", "https://x.com/a/status/1")
	f.launcher.Page.Fail["Navigate"] = errors.New("net::ERR_CONNECTION_RESET")

	_, err := f.collector.Collect(context.Background(), 1)
	assert.ErrorContains(t, err, "ERR_CONNECTION_RESET")
	assert.True(t, f.launcher.Page.Closed())
}

func TestCollectOpenFailure(t *testing.T) {
	f := newFixture(t)
	f.launcher.OpenErr = errors.New("chrome not found")

	_, err := f.collector.Collect(context.Background(), 1)
	assert.ErrorContains(t, err, "chrome not found")
}

func TestDedupeURLs(t *testing.T) {
	got := dedupeURLs([]string{
		"https://x.com/a/status/1",
		" https://x.com/a/status/1/ ",
		"https://x.com/a/status/1?ref=home",
		"",
		"/b/status/2#top",
		"https://x.com/b/status/2",
		"https://x.com/c/status/3",
	})
	assert.Equal(t, []string{
		"https://x.com/a/status/1",
		"https://x.com/b/status/2",
		"https://x.com/c/status/3",
	}, got)
}
