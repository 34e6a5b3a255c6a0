// Package report renders an analysis result for email and terminal output.
package report

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/ibeckermayer/replyloop/internal/types"
)

const maxPostLen = 280

// Builder renders results using the built-in HTML template
type Builder struct {
	template *template.Template
}

// New creates a new report builder
func New() (*Builder, error) {
	tmpl, err := template.New("report").Parse(defaultTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}

	return &Builder{template: tmpl}, nil
}

// Report is a rendered result ready for sending or printing
type Report struct {
	Subject   string
	HTMLBody  string
	PlainBody string
	RunID     string
	CreatedAt time.Time
}

// reportData is the template data structure
type reportData struct {
	Title      string
	Date       string
	Post       string
	URL        string
	Stats      string
	Score      float64
	Categories []string
	Reply      types.GeneratedReply
	NewPost    *types.GeneratedReply
	Summary    types.AnalysisSummary
	Posting    *types.Posting
}

// Build renders a result
func (b *Builder) Build(r *types.Result) (*Report, error) {
	if r == nil {
		return nil, types.ErrNoResults
	}

	data := reportData{
		Title:      "Reply candidate",
		Date:       r.CreatedAt.Format("Monday, January 2 15:04"),
		Post:       truncate(r.BestItem.Post, maxPostLen),
		URL:        r.BestItem.URL,
		Stats:      r.BestItem.Stats,
		Score:      r.BestItem.EngagementScore,
		Categories: r.BestItem.Categories,
		Reply:      r.GeneratedReply,
		NewPost:    r.GeneratedPost,
		Summary:    r.Summary,
		Posting:    r.Posting,
	}

	var htmlBuf bytes.Buffer
	if err := b.template.Execute(&htmlBuf, data); err != nil {
		return nil, fmt.Errorf("failed to render template: %w", err)
	}

	return &Report{
		Subject:   fmt.Sprintf("replyloop - %.1f/10 candidate, %s", r.BestItem.EngagementScore, r.CreatedAt.Format("Jan 2 15:04")),
		HTMLBody:  htmlBuf.String(),
		PlainBody: Plain(r),
		RunID:     r.RunID,
		CreatedAt: r.CreatedAt,
	}, nil
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}

// Plain renders a result as terminal-friendly text
func Plain(r *types.Result) string {
	var buf strings.Builder

	buf.WriteString("ORIGINAL POST\n")
	fmt.Fprintf(&buf, "  %s\n", r.BestItem.Post)
	fmt.Fprintf(&buf, "  URL: %s\n", r.BestItem.URL)
	if r.BestItem.Stats != "" {
		fmt.Fprintf(&buf, "  Stats: %s\n", r.BestItem.Stats)
	}
	if len(r.BestItem.Categories) > 0 {
		fmt.Fprintf(&buf, "  Categories: %s\n", strings.Join(r.BestItem.Categories, ", "))
	}
	fmt.Fprintf(&buf, "  Engagement score: %.1f/10\n\n", r.BestItem.EngagementScore)

	buf.WriteString("GENERATED REPLY\n")
	writeGenerated(&buf, r.GeneratedReply)

	if r.GeneratedPost != nil {
		buf.WriteString("\nGENERATED POST\n")
		writeGenerated(&buf, *r.GeneratedPost)
	}

	fmt.Fprintf(&buf, "\nAnalyzed %d items, %d on topic, best score %.1f\n",
		r.Summary.TotalItems, r.Summary.OnTopicCount, r.Summary.BestScore)

	if p := r.Posting; p != nil {
		if p.Posted {
			fmt.Fprintf(&buf, "Posted at %s", p.PostedAt.Format(time.Kitchen))
		} else {
			buf.WriteString("Not posted")
		}
		if p.Edited {
			buf.WriteString(" (edited)")
		}
		if p.Screenshot != "" {
			fmt.Fprintf(&buf, ", screenshot: %s", p.Screenshot)
		}
		if p.Error != "" {
			fmt.Fprintf(&buf, ", error: %s", p.Error)
		}
		buf.WriteString("\n")
	}

	return buf.String()
}

func writeGenerated(buf *strings.Builder, g types.GeneratedReply) {
	fmt.Fprintf(buf, "  %s\n", g.Text)
	if g.Tone != "" {
		fmt.Fprintf(buf, "  Tone: %s\n", g.Tone)
	}
	if g.Style != "" {
		fmt.Fprintf(buf, "  Style: %s\n", g.Style)
	}
	if g.Reasoning != "" {
		fmt.Fprintf(buf, "  Reasoning: %s\n", g.Reasoning)
	}
}

const defaultTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <title>{{.Title}}</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; background: #f5f5f5; }
        .container { background: white; border-radius: 8px; padding: 20px; }
        h1 { color: #1da1f2; margin-bottom: 5px; }
        h2 { font-size: 15px; color: #333; margin: 20px 0 8px; }
        .date { color: #666; margin-bottom: 20px; }
        .post { border-left: 3px solid #1da1f2; padding: 8px 12px; line-height: 1.4; }
        .reply { background: #e8f5fd; border-radius: 8px; padding: 12px; line-height: 1.4; }
        .meta { color: #666; font-size: 13px; margin-top: 6px; }
        .topic { background: #e8f5fd; color: #1da1f2; padding: 2px 8px; border-radius: 12px; font-size: 12px; margin-right: 5px; }
        .link { color: #1da1f2; text-decoration: none; }
        .footer { margin-top: 20px; padding-top: 15px; border-top: 1px solid #eee; color: #999; font-size: 12px; text-align: center; }
    </style>
</head>
<body>
    <div class="container">
        <h1>{{.Title}}</h1>
        <div class="date">{{.Date}}</div>

        <h2>Original post · {{printf "%.1f" .Score}}/10</h2>
        <div class="post">{{.Post}}</div>
        <div class="meta">{{.Stats}}</div>
        <div class="meta">{{range .Categories}}<span class="topic">{{.}}</span>{{end}}</div>
        <a href="{{.URL}}" class="link">View on X →</a>

        <h2>Generated reply</h2>
        <div class="reply">{{.Reply.Text}}</div>
        <div class="meta">{{.Reply.Tone}}{{if .Reply.Style}} · {{.Reply.Style}}{{end}}</div>

        {{with .NewPost}}
        <h2>Generated post</h2>
        <div class="reply">{{.Text}}</div>
        <div class="meta">{{.Tone}}{{if .Style}} · {{.Style}}{{end}}</div>
        {{end}}

        {{with .Posting}}
        <h2>Posting</h2>
        <div class="meta">{{if .Posted}}Posted{{else}}Not posted{{end}}{{if .Edited}} (edited){{end}}{{if .Error}} · {{.Error}}{{end}}</div>
        {{end}}

        <div class="footer">
            Analyzed {{.Summary.TotalItems}} items · {{.Summary.OnTopicCount}} on topic · Generated by replyloop
        </div>
    </div>
</body>
</html>`
