package analyzer

import (
	"fmt"
	"strings"

	"github.com/ibeckermayer/replyloop/internal/types"
)

// Comment counts shown to each agent
const (
	classifyComments = 5
	scoreComments    = 10
	replyComments    = 5
	postCategories   = 10
)

func firstN(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func buildClassifyInput(item types.Item) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Post: %s\n", item.Post)
	fmt.Fprintf(&sb, "Stats: %s\n", item.Stats)
	fmt.Fprintf(&sb, "Sample comments: %s\n", strings.Join(firstN(item.Comments, classifyComments), " | "))
	return sb.String()
}

func buildScoreInput(ci types.ClassifiedItem) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Post: %s\n", ci.Item.Post)
	fmt.Fprintf(&sb, "Stats: %s\n", ci.Item.Stats)
	fmt.Fprintf(&sb, "Comments: %s\n", strings.Join(firstN(ci.Item.Comments, scoreComments), " | "))
	fmt.Fprintf(&sb, "Categories: %s\n", strings.Join(ci.Classification.Categories, ", "))
	fmt.Fprintf(&sb, "Classifier reasoning: %s\n", ci.Classification.Reasoning)
	return sb.String()
}

func buildReplyInput(si types.ScoredItem) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Original post: %s\n", si.Item.Post)
	fmt.Fprintf(&sb, "Post stats: %s\n", si.Item.Stats)
	fmt.Fprintf(&sb, "Categories: %s\n", strings.Join(si.Classification.Categories, ", "))
	fmt.Fprintf(&sb, "Engagement factors: %s\n", strings.Join(si.Engagement.Factors, ", "))
	fmt.Fprintf(&sb, "Sample comments: %s\n", strings.Join(firstN(si.Item.Comments, replyComments), " | "))
	sb.WriteString("\nWrite a reply a well informed person would post. It should sound authentic and keep the conversation going.\n")
	return sb.String()
}

func buildNewsInput(headlines []types.Headline) string {
	var sb strings.Builder
	sb.WriteString("## Headlines\n\n")
	for i, h := range headlines {
		fmt.Fprintf(&sb, "%d. %s", i+1, h.Title)
		if h.Source != "" {
			fmt.Fprintf(&sb, " (%s)", h.Source)
		}
		sb.WriteString("\n")
		if h.Summary != "" {
			fmt.Fprintf(&sb, "   %s\n", h.Summary)
		}
	}
	return sb.String()
}

func buildPostInput(categories []string, news *types.NewsAnalysis) string {
	var sb strings.Builder
	sb.WriteString("Write an engaging standalone post based on these insights.\n\n")
	fmt.Fprintf(&sb, "Trending categories: %s\n", strings.Join(firstN(categories, postCategories), ", "))
	if news != nil {
		fmt.Fprintf(&sb, "\nRecent news: %s\n", news.Summary)
		for _, p := range news.KeyPoints {
			fmt.Fprintf(&sb, "- %s\n", p)
		}
	}
	sb.WriteString("\nShare an observation the community will find thought provoking. Keep it original.\n")
	return sb.String()
}
