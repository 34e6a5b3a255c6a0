// Package analyzer classifies, scores and selects timeline items and
// generates replies for them through a language model provider.
package analyzer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ibeckermayer/replyloop/internal/analyzer/providers"
	"github.com/ibeckermayer/replyloop/internal/config"
	"github.com/ibeckermayer/replyloop/internal/logging"
	"github.com/ibeckermayer/replyloop/internal/types"
)

const excerptLen = 100

// Analyzer handles LLM-based item analysis
type Analyzer struct {
	provider providers.Provider
	topic    config.TopicConfig
}

// New creates a new analyzer running agents for topic through provider
func New(provider providers.Provider, topic config.TopicConfig) *Analyzer {
	return &Analyzer{
		provider: provider,
		topic:    topic,
	}
}

// Classify runs the topic classifier over each item in order and keeps only
// on-topic items at or above the confidence threshold. Items whose model call
// fails are logged and dropped. The returned error is only set when ctx ends.
func (a *Analyzer) Classify(ctx context.Context, items []types.Item) ([]types.ClassifiedItem, error) {
	agent := classifierAgent(a.topic)

	return foldItems(ctx, "classify", items,
		func(it types.Item) string { return it.Post },
		func(ctx context.Context, it types.Item) (types.ClassifiedItem, bool, error) {
			raw, err := a.provider.Run(ctx, agent, buildClassifyInput(it))
			if err != nil {
				return types.ClassifiedItem{}, false, err
			}
			c, err := parseClassification(raw)
			if err != nil {
				return types.ClassifiedItem{}, false, err
			}

			if !c.Retained() {
				slog.Info("Not on topic", "post", logging.Excerpt(it.Post, excerptLen), "confidence", c.Confidence)
				return types.ClassifiedItem{}, false, nil
			}
			slog.Info("On-topic item found",
				"post", logging.Excerpt(it.Post, excerptLen),
				"categories", c.Categories,
				"confidence", fmt.Sprintf("%.2f", c.Confidence))
			return types.ClassifiedItem{Item: cloneItem(it), Classification: c}, true, nil
		})
}

// Score runs the engagement scorer over each classified item in order.
// Items whose model call fails are logged and dropped.
func (a *Analyzer) Score(ctx context.Context, classified []types.ClassifiedItem) ([]types.ScoredItem, error) {
	agent := scorerAgent(a.topic)

	return foldItems(ctx, "score", classified,
		func(ci types.ClassifiedItem) string { return ci.Item.Post },
		func(ctx context.Context, ci types.ClassifiedItem) (types.ScoredItem, bool, error) {
			raw, err := a.provider.Run(ctx, agent, buildScoreInput(ci))
			if err != nil {
				return types.ScoredItem{}, false, err
			}
			e, err := parseEngagement(raw)
			if err != nil {
				return types.ScoredItem{}, false, err
			}

			slog.Info("Engagement scored", "score", fmt.Sprintf("%.1f/10", e.Potential), "factors", e.Factors)
			return types.ScoredItem{
				Item:           cloneItem(ci.Item),
				Classification: cloneClassification(ci.Classification),
				Engagement:     e,
			}, true, nil
		})
}

// SelectBest returns the item with the highest engagement potential.
// Ties resolve to the earliest item.
func SelectBest(scored []types.ScoredItem) (types.ScoredItem, error) {
	if len(scored) == 0 {
		return types.ScoredItem{}, &types.EmptyInputError{Stage: "select"}
	}

	best := 0
	for i := 1; i < len(scored); i++ {
		if scored[i].Engagement.Potential > scored[best].Engagement.Potential {
			best = i
		}
	}

	b := scored[best]
	return types.ScoredItem{
		Item:           cloneItem(b.Item),
		Classification: cloneClassification(b.Classification),
		Engagement: types.EngagementScore{
			Potential: b.Engagement.Potential,
			Reasoning: b.Engagement.Reasoning,
			Factors:   cloneStrings(b.Engagement.Factors),
		},
	}, nil
}

// GenerateReply writes a reply to the selected item. There is no retry.
func (a *Analyzer) GenerateReply(ctx context.Context, selection types.ScoredItem) (types.GeneratedReply, error) {
	raw, err := a.provider.Run(ctx, replyAgent(a.topic), buildReplyInput(selection))
	if err != nil {
		return types.GeneratedReply{}, fmt.Errorf("failed to generate reply: %w", err)
	}
	reply, err := parseReply(ReplyAgent, raw)
	if err != nil {
		return types.GeneratedReply{}, fmt.Errorf("failed to generate reply: %w", err)
	}
	return reply, nil
}

// AnalyzeNews summarizes headlines for the post generator
func (a *Analyzer) AnalyzeNews(ctx context.Context, headlines []types.Headline) (types.NewsAnalysis, error) {
	if len(headlines) == 0 {
		return types.NewsAnalysis{}, &types.EmptyInputError{Stage: "news"}
	}
	raw, err := a.provider.Run(ctx, newsAgent(a.topic), buildNewsInput(headlines))
	if err != nil {
		return types.NewsAnalysis{}, fmt.Errorf("failed to analyze news: %w", err)
	}
	return parseNews(raw)
}

// GeneratePost writes a standalone post from the categories seen across
// classified items, optionally informed by a news analysis.
func (a *Analyzer) GeneratePost(ctx context.Context, classified []types.ClassifiedItem, news *types.NewsAnalysis) (types.GeneratedReply, error) {
	var categories []string
	for _, ci := range classified {
		categories = append(categories, ci.Classification.Categories...)
	}
	categories = uniqueStrings(categories)

	raw, err := a.provider.Run(ctx, postAgent(a.topic), buildPostInput(categories, news))
	if err != nil {
		return types.GeneratedReply{}, fmt.Errorf("failed to generate post: %w", err)
	}
	post, err := parseReply(PostAgent, raw)
	if err != nil {
		return types.GeneratedReply{}, fmt.Errorf("failed to generate post: %w", err)
	}
	return post, nil
}
