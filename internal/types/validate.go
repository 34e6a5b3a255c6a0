package types

import "strings"

// Validate checks field presence and ranges of a classifier output
func (c *Classification) Validate() error {
	if c.Confidence < 0 || c.Confidence > 1 {
		return &MalformedOutputError{Agent: "classifier", Field: "confidence", Reason: "must be within [0,1]"}
	}
	c.Categories = dedupe(c.Categories)
	return nil
}

// Validate checks field presence and ranges of a scorer output
func (e *EngagementScore) Validate() error {
	if e.Potential < 0 || e.Potential > 10 {
		return &MalformedOutputError{Agent: "scorer", Field: "potential", Reason: "must be within [0,10]"}
	}
	return nil
}

// Validate checks that a generated reply carries text
func (g *GeneratedReply) Validate() error {
	g.Text = strings.TrimSpace(g.Text)
	if g.Text == "" {
		return &MalformedOutputError{Agent: "generator", Field: "text", Reason: "is empty"}
	}
	return nil
}

// Validate checks the news analysis relevance range
func (n *NewsAnalysis) Validate() error {
	if n.Relevance < 0 || n.Relevance > 10 {
		return &MalformedOutputError{Agent: "news", Field: "relevance", Reason: "must be within [0,10]"}
	}
	return nil
}

// dedupe removes blank and repeated entries, keeping first-seen order
func dedupe(in []string) []string {
	if in == nil {
		return nil
	}
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
