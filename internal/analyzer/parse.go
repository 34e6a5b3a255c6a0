package analyzer

import (
	"encoding/json"
	"errors"

	"github.com/ibeckermayer/replyloop/internal/types"
)

// Wire shapes use pointers so missing required fields are detected

type classificationOutput struct {
	IsOnTopic  *bool    `json:"is_on_topic"`
	Confidence *float64 `json:"confidence"`
	Reasoning  string   `json:"reasoning"`
	Categories []string `json:"categories"`
}

type engagementOutput struct {
	Potential *float64 `json:"potential"`
	Reasoning string   `json:"reasoning"`
	Factors   []string `json:"factors"`
}

type newsOutput struct {
	Summary   string   `json:"summary"`
	KeyPoints []string `json:"key_points"`
	Relevance *float64 `json:"relevance"`
}

func malformed(agent, field, reason, raw string) error {
	return &types.MalformedOutputError{Agent: agent, Field: field, Reason: reason, Raw: raw}
}

func decode(agent, raw string, v any) error {
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return malformed(agent, "", "is not valid JSON: "+err.Error(), raw)
	}
	return nil
}

// attach labels a validation error with the agent and raw response it came from
func attach(err error, agent, raw string) error {
	var m *types.MalformedOutputError
	if errors.As(err, &m) {
		m.Agent = agent
		m.Raw = raw
	}
	return err
}

func parseClassification(raw string) (types.Classification, error) {
	var out classificationOutput
	if err := decode(ClassifierAgent, raw, &out); err != nil {
		return types.Classification{}, err
	}
	if out.IsOnTopic == nil {
		return types.Classification{}, malformed(ClassifierAgent, "is_on_topic", "is missing", raw)
	}
	if out.Confidence == nil {
		return types.Classification{}, malformed(ClassifierAgent, "confidence", "is missing", raw)
	}

	c := types.Classification{
		IsOnTopic:  *out.IsOnTopic,
		Confidence: *out.Confidence,
		Reasoning:  out.Reasoning,
		Categories: out.Categories,
	}
	if err := c.Validate(); err != nil {
		return types.Classification{}, attach(err, ClassifierAgent, raw)
	}
	return c, nil
}

func parseEngagement(raw string) (types.EngagementScore, error) {
	var out engagementOutput
	if err := decode(ScorerAgent, raw, &out); err != nil {
		return types.EngagementScore{}, err
	}
	if out.Potential == nil {
		return types.EngagementScore{}, malformed(ScorerAgent, "potential", "is missing", raw)
	}

	e := types.EngagementScore{
		Potential: *out.Potential,
		Reasoning: out.Reasoning,
		Factors:   out.Factors,
	}
	if err := e.Validate(); err != nil {
		return types.EngagementScore{}, attach(err, ScorerAgent, raw)
	}
	return e, nil
}

func parseReply(agent, raw string) (types.GeneratedReply, error) {
	var r types.GeneratedReply
	if err := decode(agent, raw, &r); err != nil {
		return types.GeneratedReply{}, err
	}
	if err := r.Validate(); err != nil {
		return types.GeneratedReply{}, attach(err, agent, raw)
	}
	return r, nil
}

func parseNews(raw string) (types.NewsAnalysis, error) {
	var out newsOutput
	if err := decode(NewsAgent, raw, &out); err != nil {
		return types.NewsAnalysis{}, err
	}
	if out.Relevance == nil {
		return types.NewsAnalysis{}, malformed(NewsAgent, "relevance", "is missing", raw)
	}

	n := types.NewsAnalysis{
		Summary:   out.Summary,
		KeyPoints: out.KeyPoints,
		Relevance: *out.Relevance,
	}
	if err := n.Validate(); err != nil {
		return types.NewsAnalysis{}, attach(err, NewsAgent, raw)
	}
	return n, nil
}
