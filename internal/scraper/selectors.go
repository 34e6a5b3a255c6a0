package scraper

// X.com DOM selectors
// These are isolated here because X changes their DOM frequently
// Update these when scraping breaks

const (
	// Timeline selectors
	TimelineStatusLink = `[data-testid="User-Name"] a[href*="/status/"]`

	// Permalink page selectors
	TweetContainer = `[data-testid="tweet"]`
	TweetText      = `[data-testid="tweet"] [data-testid="tweetText"]`
	TweetStats     = `[data-testid="tweet"] div[aria-label*="like"]`
	ThreadText     = `article[data-testid="tweet"] div[data-testid="tweetText"]`
)

// Common wait conditions
const (
	WaitForTweet = TweetContainer
)
