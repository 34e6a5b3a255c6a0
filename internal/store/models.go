package store

import "time"

// RunRecord is one analysis run in the history database
type RunRecord struct {
	RunID        string    `json:"run_id"`
	CreatedAt    time.Time `json:"created_at"`
	TotalItems   int       `json:"total_items"`
	OnTopicCount int       `json:"on_topic_count"`
	BestScore    float64   `json:"best_score"`
	BestURL      string    `json:"best_url"`
	ReplyText    string    `json:"reply_text"`
}

// ReplyRecord is one post attempt in the history database
type ReplyRecord struct {
	ID         int64     `json:"id"`
	RunID      string    `json:"run_id"`
	URL        string    `json:"url"`
	Text       string    `json:"text"`
	Edited     bool      `json:"edited"`
	Posted     bool      `json:"posted"`
	Screenshot string    `json:"screenshot"`
	Error      string    `json:"error"`
	PostedAt   time.Time `json:"posted_at"`
}
