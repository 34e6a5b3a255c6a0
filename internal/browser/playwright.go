package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/ibeckermayer/replyloop/internal/types"
)

// PlaywrightLauncher opens pages through a lazily started Playwright driver
type PlaywrightLauncher struct {
	headless bool

	mu sync.Mutex
	pw *playwright.Playwright
}

// NewPlaywrightLauncher creates a playwright-backed launcher
func NewPlaywrightLauncher(headless bool) *PlaywrightLauncher {
	return &PlaywrightLauncher{headless: headless}
}

// start installs and runs the Playwright driver once
func (l *PlaywrightLauncher) start() (*playwright.Playwright, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.pw != nil {
		return l.pw, nil
	}

	opts := &playwright.RunOptions{
		Browsers: []string{"chromium"},
		Verbose:  false,
		Stdout:   io.Discard,
		Stderr:   io.Discard,
	}
	if err := playwright.Install(opts); err != nil {
		return nil, fmt.Errorf("failed to install playwright: %w", err)
	}
	pw, err := playwright.Run(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}
	l.pw = pw
	return pw, nil
}

// Stop shuts the Playwright driver down
func (l *PlaywrightLauncher) Stop() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.pw == nil {
		return nil
	}
	err := l.pw.Stop()
	l.pw = nil
	return err
}

// Open launches Chromium with a new context seeded from state
func (l *PlaywrightLauncher) Open(ctx context.Context, state *types.SessionState) (Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pw, err := l.start()
	if err != nil {
		return nil, err
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(l.headless),
		Args:     launchArgs,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	contextOpts := playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  ViewportWidth,
			Height: ViewportHeight,
		},
		DeviceScaleFactor: playwright.Float(2),
		UserAgent:         playwright.String(DefaultUserAgent),
	}
	if state != nil {
		contextOpts.StorageState = toStorageState(state)
	}

	bctx, err := browser.NewContext(contextOpts)
	if err != nil {
		browser.Close()
		return nil, fmt.Errorf("failed to create context: %w", err)
	}

	page, err := bctx.NewPage()
	if err != nil {
		bctx.Close()
		browser.Close()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	return &playwrightPage{browser: browser, context: bctx, page: page}, nil
}

func toStorageState(state *types.SessionState) *playwright.OptionalStorageState {
	out := &playwright.OptionalStorageState{}
	for _, c := range state.Cookies {
		oc := playwright.OptionalCookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   playwright.String(c.Domain),
			Path:     playwright.String(c.Path),
			HttpOnly: playwright.Bool(c.HTTPOnly),
			Secure:   playwright.Bool(c.Secure),
		}
		if c.Expires > 0 {
			oc.Expires = playwright.Float(c.Expires)
		}
		if c.SameSite != "" {
			ss := playwright.SameSiteAttribute(c.SameSite)
			oc.SameSite = &ss
		}
		out.Cookies = append(out.Cookies, oc)
	}
	for _, o := range state.Origins {
		origin := playwright.Origin{Origin: o.Origin}
		for _, e := range o.LocalStorage {
			origin.LocalStorage = append(origin.LocalStorage, playwright.NameValue{Name: e.Name, Value: e.Value})
		}
		out.Origins = append(out.Origins, origin)
	}
	return out
}

type playwrightPage struct {
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page
}

// query evaluates a DOM query script and decodes its result
func (p *playwrightPage) query(ctx context.Context, js string) (queryResult, error) {
	var res queryResult
	if err := ctx.Err(); err != nil {
		return res, err
	}
	raw, err := p.page.Evaluate(js)
	if err != nil {
		return res, err
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return res, err
	}
	err = json.Unmarshal(b, &res)
	return res, err
}

func (p *playwrightPage) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := p.page.Goto(url); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

func (p *playwrightPage) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if timeout <= 0 {
		timeout = DefaultWaitTimeout
	}
	_, err := p.page.WaitForSelector(selector, playwright.PageWaitForSelectorOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		return fmt.Errorf("waiting for %s: %w", selector, err)
	}
	return nil
}

func (p *playwrightPage) Exists(ctx context.Context, selector string) (bool, error) {
	res, err := p.query(ctx, existsJS(selector))
	return res.Found, err
}

func (p *playwrightPage) Text(ctx context.Context, selector string) (string, error) {
	res, err := p.query(ctx, textJS(selector))
	if err != nil {
		return "", err
	}
	if !res.Found {
		return "", fmt.Errorf("%s: %w", selector, types.ErrElementNotFound)
	}
	return res.Value, nil
}

func (p *playwrightPage) TextAll(ctx context.Context, selector string) ([]string, error) {
	res, err := p.query(ctx, textAllJS(selector))
	return res.Values, err
}

func (p *playwrightPage) Attribute(ctx context.Context, selector, name string) (string, error) {
	res, err := p.query(ctx, attributeJS(selector, name))
	if err != nil {
		return "", err
	}
	if !res.Found {
		return "", fmt.Errorf("%s[%s]: %w", selector, name, types.ErrElementNotFound)
	}
	return res.Value, nil
}

func (p *playwrightPage) AttributeAll(ctx context.Context, selector, name string) ([]string, error) {
	res, err := p.query(ctx, attributeAllJS(selector, name))
	return res.Values, err
}

func (p *playwrightPage) Fill(ctx context.Context, selector, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.page.Fill(selector, value); err != nil {
		return fmt.Errorf("fill failed: %w", err)
	}
	return nil
}

func (p *playwrightPage) Click(ctx context.Context, selector string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.page.Click(selector); err != nil {
		return fmt.Errorf("click failed: %w", err)
	}
	return nil
}

func (p *playwrightPage) ScrollToBottom(ctx context.Context) error {
	_, err := p.query(ctx, `(function() { `+scrollToBottomJS+`; return {found: true}; })()`)
	return err
}

func (p *playwrightPage) Sleep(ctx context.Context, d time.Duration) error {
	return sleep(ctx, d)
}

func (p *playwrightPage) Screenshot(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := p.page.Screenshot(playwright.PageScreenshotOptions{Path: playwright.String(path)}); err != nil {
		return fmt.Errorf("failed to capture screenshot: %w", err)
	}
	return nil
}

func (p *playwrightPage) SessionState(ctx context.Context) (*types.SessionState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	st, err := p.context.StorageState()
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot storage state: %w", err)
	}

	state := &types.SessionState{CapturedAt: time.Now()}
	for _, c := range st.Cookies {
		cookie := types.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  c.Expires,
			HTTPOnly: c.HttpOnly,
			Secure:   c.Secure,
		}
		if c.SameSite != nil {
			cookie.SameSite = string(*c.SameSite)
		}
		state.Cookies = append(state.Cookies, cookie)
	}
	for _, o := range st.Origins {
		origin := types.OriginStorage{Origin: o.Origin}
		for _, e := range o.LocalStorage {
			origin.LocalStorage = append(origin.LocalStorage, types.StorageEntry{Name: e.Name, Value: e.Value})
		}
		state.Origins = append(state.Origins, origin)
	}
	return state, nil
}

func (p *playwrightPage) Close() error {
	// Continue cleanup on errors
	_ = p.page.Close()
	_ = p.context.Close()
	return p.browser.Close()
}
