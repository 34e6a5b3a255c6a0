// Package browsertest provides a scriptable in-memory browser for tests.
package browsertest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/ibeckermayer/replyloop/internal/browser"
	"github.com/ibeckermayer/replyloop/internal/types"
)

// Document describes what selectors resolve to on one URL
type Document struct {
	Texts      map[string][]string
	Attributes map[string]map[string][]string // selector -> attribute -> values
}

// Launcher hands out a single shared fake Page and records every Open call
type Launcher struct {
	mu sync.Mutex

	Page    *Page
	OpenErr error
	Opened  []*types.SessionState
}

// NewLauncher returns a launcher with an empty page
func NewLauncher() *Launcher {
	return &Launcher{Page: NewPage()}
}

func (l *Launcher) Open(ctx context.Context, state *types.SessionState) (browser.Page, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.Opened = append(l.Opened, state)
	if l.OpenErr != nil {
		return nil, l.OpenErr
	}
	l.Page.closed = false
	return l.Page, nil
}

// OpenCount reports how many pages were opened
func (l *Launcher) OpenCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.Opened)
}

// Page is a fake browser.Page driven by per-URL documents
type Page struct {
	mu sync.Mutex

	Docs map[string]*Document
	// AppearAfter makes a selector exist only after it has been polled this many times
	AppearAfter map[string]int
	// Fail forces an error from the named method ("Navigate", "Click", ...)
	Fail  map[string]error
	State *types.SessionState

	URL         string
	Visited     []string
	Filled      map[string]string
	Clicked     []string
	Scrolls     int
	Slept       time.Duration
	Screenshots []string
	CloseCount  int

	polls  map[string]int
	closed bool
}

// NewPage returns an empty fake page
func NewPage() *Page {
	return &Page{
		Docs:        make(map[string]*Document),
		AppearAfter: make(map[string]int),
		Fail:        make(map[string]error),
		Filled:      make(map[string]string),
		polls:       make(map[string]int),
		State:       &types.SessionState{},
	}
}

// Doc returns the document for url, creating it when missing
func (p *Page) Doc(url string) *Document {
	p.mu.Lock()
	defer p.mu.Unlock()

	d, ok := p.Docs[url]
	if !ok {
		d = &Document{
			Texts:      make(map[string][]string),
			Attributes: make(map[string]map[string][]string),
		}
		p.Docs[url] = d
	}
	return d
}

// SetText makes selector resolve to the given texts on url
func (p *Page) SetText(url, selector string, values ...string) {
	d := p.Doc(url)
	p.mu.Lock()
	defer p.mu.Unlock()
	d.Texts[selector] = values
}

// SetAttribute makes selector's attribute resolve to the given values on url
func (p *Page) SetAttribute(url, selector, name string, values ...string) {
	d := p.Doc(url)
	p.mu.Lock()
	defer p.mu.Unlock()
	if d.Attributes[selector] == nil {
		d.Attributes[selector] = make(map[string][]string)
	}
	d.Attributes[selector][name] = values
}

// Closed reports whether the page has been closed since the last Open
func (p *Page) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *Page) fail(method string) error {
	if err, ok := p.Fail[method]; ok {
		return err
	}
	return nil
}

// present resolves whether selector matches on the current document
func (p *Page) present(selector string) bool {
	if n, ok := p.AppearAfter[selector]; ok {
		p.polls[selector]++
		if p.polls[selector] <= n {
			return false
		}
	}
	d := p.Docs[p.URL]
	if d == nil {
		return false
	}
	if len(d.Texts[selector]) > 0 {
		return true
	}
	for _, v := range d.Attributes[selector] {
		if len(v) > 0 {
			return true
		}
	}
	return false
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.fail("Navigate"); err != nil {
		return err
	}
	p.URL = url
	p.Visited = append(p.Visited, url)
	return nil
}

func (p *Page) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.fail("WaitVisible"); err != nil {
		return err
	}
	if !p.present(selector) {
		return fmt.Errorf("waiting for %s: %w", selector, context.DeadlineExceeded)
	}
	return nil
}

func (p *Page) Exists(ctx context.Context, selector string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.fail("Exists"); err != nil {
		return false, err
	}
	return p.present(selector), nil
}

func (p *Page) Text(ctx context.Context, selector string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.fail("Text"); err != nil {
		return "", err
	}
	if d := p.Docs[p.URL]; d != nil && len(d.Texts[selector]) > 0 {
		return d.Texts[selector][0], nil
	}
	return "", fmt.Errorf("%s: %w", selector, types.ErrElementNotFound)
}

func (p *Page) TextAll(ctx context.Context, selector string) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.fail("TextAll"); err != nil {
		return nil, err
	}
	if d := p.Docs[p.URL]; d != nil {
		return append([]string(nil), d.Texts[selector]...), nil
	}
	return nil, nil
}

func (p *Page) Attribute(ctx context.Context, selector, name string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.fail("Attribute"); err != nil {
		return "", err
	}
	if d := p.Docs[p.URL]; d != nil && len(d.Attributes[selector][name]) > 0 {
		return d.Attributes[selector][name][0], nil
	}
	return "", fmt.Errorf("%s[%s]: %w", selector, name, types.ErrElementNotFound)
}

func (p *Page) AttributeAll(ctx context.Context, selector, name string) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.fail("AttributeAll"); err != nil {
		return nil, err
	}
	if d := p.Docs[p.URL]; d != nil {
		return append([]string(nil), d.Attributes[selector][name]...), nil
	}
	return nil, nil
}

func (p *Page) Fill(ctx context.Context, selector, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.fail("Fill"); err != nil {
		return err
	}
	p.Filled[selector] = value
	return nil
}

func (p *Page) Click(ctx context.Context, selector string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.fail("Click"); err != nil {
		return err
	}
	p.Clicked = append(p.Clicked, selector)
	return nil
}

func (p *Page) ScrollToBottom(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.fail("ScrollToBottom"); err != nil {
		return err
	}
	p.Scrolls++
	return nil
}

// Sleep records the requested delay without waiting
func (p *Page) Sleep(ctx context.Context, d time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	p.Slept += d
	return nil
}

func (p *Page) Screenshot(ctx context.Context, path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.fail("Screenshot"); err != nil {
		return err
	}
	p.Screenshots = append(p.Screenshots, path)
	return os.WriteFile(path, []byte("png"), 0644)
}

func (p *Page) SessionState(ctx context.Context) (*types.SessionState, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.fail("SessionState"); err != nil {
		return nil, err
	}
	if p.State == nil {
		return nil, errors.New("no session state")
	}
	st := *p.State
	return &st, nil
}

func (p *Page) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.CloseCount++
	return nil
}
