// Package browser provides the controlled-browser capability used by the collector,
// the login flow, and the poster, with chromedp and playwright engines.
package browser

import "github.com/chromedp/chromedp"

// DefaultUserAgent is a realistic Chrome user agent
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Desktop viewport (14-inch MacBook Pro)
const (
	ViewportWidth  = 1512
	ViewportHeight = 982
)

// launchArgs are shared by both engines to reduce automation fingerprints
var launchArgs = []string{
	// Prevent navigator.webdriver = true, which X checks
	"--disable-blink-features=AutomationControlled",
	"--no-sandbox",
	"--disable-infobars",
	"--disable-extensions",
	"--start-maximized",
}

// Options returns chromedp allocator options with anti-bot-detection measures.
func Options(headless bool) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("start-maximized", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("no-default-browser-check", true),
		chromedp.UserAgent(DefaultUserAgent),
		chromedp.WindowSize(ViewportWidth, ViewportHeight),
	)

	if headless {
		opts = append(opts, chromedp.Flag("disable-gpu", true))
	}

	return opts
}
