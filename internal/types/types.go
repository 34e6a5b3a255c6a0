package types

import "time"

// OnTopicThreshold is the minimum classifier confidence for an item to be retained
const OnTopicThreshold = 0.7

// Item represents a scraped X post
type Item struct {
	URL      string   `json:"url"`
	Post     string   `json:"post"`
	Stats    string   `json:"stats"`
	Comments []string `json:"comments"`
}

// Classification is the on-topic classifier output for an item
type Classification struct {
	IsOnTopic  bool     `json:"is_on_topic"`
	Confidence float64  `json:"confidence"`
	Reasoning  string   `json:"reasoning"`
	Categories []string `json:"categories"`
}

// Retained reports whether the classification keeps its item in the pipeline
func (c Classification) Retained() bool {
	return c.IsOnTopic && c.Confidence >= OnTopicThreshold
}

// EngagementScore is the scorer output for a retained item
type EngagementScore struct {
	Potential float64  `json:"potential"`
	Reasoning string   `json:"reasoning"`
	Factors   []string `json:"factors"`
}

// ClassifiedItem is an item that passed classification
type ClassifiedItem struct {
	Item           Item           `json:"item"`
	Classification Classification `json:"classification"`
}

// ScoredItem combines an item with its classification and engagement score
type ScoredItem struct {
	Item           Item            `json:"item"`
	Classification Classification  `json:"classification"`
	Engagement     EngagementScore `json:"engagement"`
}

// GeneratedReply is the reply (or standalone post) text produced by the generator
type GeneratedReply struct {
	Text      string `json:"text"`
	Tone      string `json:"tone"`
	Style     string `json:"style"`
	Reasoning string `json:"reasoning"`
}

// NewsAnalysis summarizes recent headlines for the post generator
type NewsAnalysis struct {
	Summary   string   `json:"summary"`
	KeyPoints []string `json:"key_points"`
	Relevance float64  `json:"relevance"`
}

// Headline is a single news entry fetched from a feed
type Headline struct {
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Summary     string    `json:"summary"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"published_at"`
}

// Selection summarizes the chosen item inside a Result
type Selection struct {
	URL             string   `json:"url"`
	Post            string   `json:"post"`
	Stats           string   `json:"stats"`
	EngagementScore float64  `json:"engagement_score"`
	Categories      []string `json:"categories"`
}

// AnalysisSummary holds the counters reported for an analysis run
type AnalysisSummary struct {
	TotalItems   int     `json:"total_items"`
	OnTopicCount int     `json:"on_topic_count"`
	BestScore    float64 `json:"best_score"`
}

// Posting records the outcome of a post attempt
type Posting struct {
	Posted     bool      `json:"posted"`
	ReplyText  string    `json:"reply_text"`
	Edited     bool      `json:"edited"`
	Screenshot string    `json:"screenshot,omitempty"`
	Error      string    `json:"error,omitempty"`
	PostedAt   time.Time `json:"posted_at"`
}

// Result is what an analysis run writes to the results file
type Result struct {
	RunID          string          `json:"run_id"`
	CreatedAt      time.Time       `json:"created_at"`
	BestItem       Selection       `json:"best_item"`
	GeneratedReply GeneratedReply  `json:"generated_reply"`
	GeneratedPost  *GeneratedReply `json:"generated_post,omitempty"`
	Summary        AnalysisSummary `json:"analysis_summary"`
	Posting        *Posting        `json:"posting,omitempty"`
}

// Cookie is an engine-neutral browser cookie
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"`
	HTTPOnly bool    `json:"http_only"`
	Secure   bool    `json:"secure"`
	SameSite string  `json:"same_site,omitempty"`
}

// StorageEntry is one localStorage key/value pair
type StorageEntry struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// OriginStorage holds the localStorage snapshot of one origin
type OriginStorage struct {
	Origin       string         `json:"origin"`
	LocalStorage []StorageEntry `json:"local_storage"`
}

// SessionState is an authenticated browsing session snapshot
type SessionState struct {
	Cookies    []Cookie        `json:"cookies"`
	Origins    []OriginStorage `json:"origins"`
	CapturedAt time.Time       `json:"captured_at"`
}
