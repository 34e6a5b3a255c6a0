package browser

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"

	"github.com/ibeckermayer/replyloop/internal/types"
)

// ChromedpLauncher opens pages in a fresh Chrome process per call
type ChromedpLauncher struct {
	headless bool
}

// NewChromedpLauncher creates a chromedp-backed launcher
func NewChromedpLauncher(headless bool) *ChromedpLauncher {
	return &ChromedpLauncher{headless: headless}
}

// Open starts a browser, injects the saved cookies, and returns its page.
// Saved localStorage is applied the first time the page lands on a matching origin.
func (l *ChromedpLauncher) Open(ctx context.Context, state *types.SessionState) (Page, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, Options(l.headless)...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	p := &chromedpPage{
		ctx: browserCtx,
		cancel: func() {
			browserCancel()
			allocCancel()
		},
		pending: make(map[string]map[string]string),
	}

	// Start the browser before issuing CDP commands
	if err := chromedp.Run(browserCtx); err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	if state != nil {
		if err := p.injectCookies(state.Cookies); err != nil {
			p.Close()
			return nil, fmt.Errorf("failed to inject cookies: %w", err)
		}
		for _, o := range state.Origins {
			entries := make(map[string]string, len(o.LocalStorage))
			for _, e := range o.LocalStorage {
				entries[e.Name] = e.Value
			}
			p.pending[o.Origin] = entries
		}
	}

	return p, nil
}

type chromedpPage struct {
	ctx     context.Context
	cancel  func()
	pending map[string]map[string]string
}

// injectCookies sets cookies in the browser context
func (p *chromedpPage) injectCookies(cookies []types.Cookie) error {
	return chromedp.Run(p.ctx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			for _, c := range cookies {
				params := network.SetCookie(c.Name, c.Value).
					WithDomain(c.Domain).
					WithPath(c.Path).
					WithSecure(c.Secure).
					WithHTTPOnly(c.HTTPOnly)
				if c.SameSite != "" {
					params = params.WithSameSite(network.CookieSameSite(c.SameSite))
				}
				if c.Expires > 0 {
					exp := cdp.TimeSinceEpoch(time.Unix(int64(c.Expires), 0))
					params = params.WithExpires(&exp)
				}
				if err := params.Do(ctx); err != nil {
					return err
				}
			}
			return nil
		}),
	)
}

// run executes actions on the browser context unless the caller already gave up
func (p *chromedpPage) run(ctx context.Context, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return chromedp.Run(p.ctx, actions...)
}

func (p *chromedpPage) query(ctx context.Context, js string) (queryResult, error) {
	var res queryResult
	if err := p.run(ctx, chromedp.Evaluate(js, &res)); err != nil {
		return res, err
	}
	return res, nil
}

func (p *chromedpPage) Navigate(ctx context.Context, url string) error {
	if err := p.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return p.restoreLocalStorage(ctx)
}

// restoreLocalStorage writes pending entries for the current origin once
func (p *chromedpPage) restoreLocalStorage(ctx context.Context) error {
	if len(p.pending) == 0 {
		return nil
	}
	var origin string
	if err := p.run(ctx, chromedp.Evaluate(`location.origin`, &origin)); err != nil {
		return err
	}
	entries, ok := p.pending[origin]
	if !ok {
		return nil
	}
	delete(p.pending, origin)
	var ignored bool
	return p.run(ctx, chromedp.Evaluate(setLocalStorageJS(entries), &ignored))
}

func (p *chromedpPage) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if timeout <= 0 {
		timeout = DefaultWaitTimeout
	}
	tctx, cancel := context.WithTimeout(p.ctx, timeout)
	defer cancel()

	if err := chromedp.Run(tctx, chromedp.WaitVisible(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("waiting for %s: %w", selector, err)
	}
	return nil
}

func (p *chromedpPage) Exists(ctx context.Context, selector string) (bool, error) {
	res, err := p.query(ctx, existsJS(selector))
	return res.Found, err
}

func (p *chromedpPage) Text(ctx context.Context, selector string) (string, error) {
	res, err := p.query(ctx, textJS(selector))
	if err != nil {
		return "", err
	}
	if !res.Found {
		return "", fmt.Errorf("%s: %w", selector, types.ErrElementNotFound)
	}
	return res.Value, nil
}

func (p *chromedpPage) TextAll(ctx context.Context, selector string) ([]string, error) {
	res, err := p.query(ctx, textAllJS(selector))
	return res.Values, err
}

func (p *chromedpPage) Attribute(ctx context.Context, selector, name string) (string, error) {
	res, err := p.query(ctx, attributeJS(selector, name))
	if err != nil {
		return "", err
	}
	if !res.Found {
		return "", fmt.Errorf("%s[%s]: %w", selector, name, types.ErrElementNotFound)
	}
	return res.Value, nil
}

func (p *chromedpPage) AttributeAll(ctx context.Context, selector, name string) ([]string, error) {
	res, err := p.query(ctx, attributeAllJS(selector, name))
	return res.Values, err
}

func (p *chromedpPage) Fill(ctx context.Context, selector, value string) error {
	return p.run(ctx,
		chromedp.Focus(selector, chromedp.ByQuery),
		chromedp.SendKeys(selector, value, chromedp.ByQuery),
	)
}

func (p *chromedpPage) Click(ctx context.Context, selector string) error {
	return p.run(ctx, chromedp.Click(selector, chromedp.ByQuery))
}

func (p *chromedpPage) ScrollToBottom(ctx context.Context) error {
	var ignored bool
	return p.run(ctx, chromedp.Evaluate(scrollToBottomJS, &ignored))
}

func (p *chromedpPage) Sleep(ctx context.Context, d time.Duration) error {
	return sleep(ctx, d)
}

func (p *chromedpPage) Screenshot(ctx context.Context, path string) error {
	var buf []byte
	if err := p.run(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return fmt.Errorf("failed to capture screenshot: %w", err)
	}
	return os.WriteFile(path, buf, 0644)
}

func (p *chromedpPage) SessionState(ctx context.Context) (*types.SessionState, error) {
	var cookies []*network.Cookie
	err := p.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		cookies, err = storage.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to extract cookies: %w", err)
	}

	var origin types.OriginStorage
	if err := p.run(ctx, chromedp.Evaluate(localStorageJS, &origin)); err != nil {
		return nil, fmt.Errorf("failed to extract local storage: %w", err)
	}

	state := &types.SessionState{
		Cookies:    make([]types.Cookie, 0, len(cookies)),
		CapturedAt: time.Now(),
	}
	for _, c := range cookies {
		state.Cookies = append(state.Cookies, types.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  c.Expires,
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
			SameSite: string(c.SameSite),
		})
	}
	if origin.Origin != "" {
		state.Origins = append(state.Origins, origin)
	}
	return state, nil
}

func (p *chromedpPage) Close() error {
	p.cancel()
	return nil
}
