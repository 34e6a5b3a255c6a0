package analyzer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibeckermayer/replyloop/internal/analyzer/providers"
	"github.com/ibeckermayer/replyloop/internal/config"
	"github.com/ibeckermayer/replyloop/internal/types"
)

// scriptedProvider answers by agent name and the post text found in the input
type scriptedProvider struct {
	mu      sync.Mutex
	answers map[string]map[string]string // agent -> post -> raw response
	errs    map[string]error             // post -> error
	inputs  map[string][]string          // agent -> inputs seen
}

func newScripted() *scriptedProvider {
	return &scriptedProvider{
		answers: make(map[string]map[string]string),
		errs:    make(map[string]error),
		inputs:  make(map[string][]string),
	}
}

func (s *scriptedProvider) on(agent, post, raw string) *scriptedProvider {
	if s.answers[agent] == nil {
		s.answers[agent] = make(map[string]string)
	}
	s.answers[agent][post] = raw
	return s
}

func (s *scriptedProvider) Run(ctx context.Context, agent providers.Agent, input string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inputs[agent.Name] = append(s.inputs[agent.Name], input)

	for post, err := range s.errs {
		if strings.Contains(input, post+"\n") {
			return "", err
		}
	}
	for post, raw := range s.answers[agent.Name] {
		if post == "*" || strings.Contains(input, post+"\n") {
			return raw, nil
		}
	}
	return "", fmt.Errorf("no scripted answer for %s", agent.Name)
}

func classification(onTopic bool, confidence float64, categories ...string) string {
	quoted := make([]string, len(categories))
	for i, c := range categories {
		quoted[i] = fmt.Sprintf("%q", c)
	}
	return fmt.Sprintf(`{"is_on_topic": %t, "confidence": %v, "reasoning": "r", "categories": [%s]}`,
		onTopic, confidence, strings.Join(quoted, ","))
}

func engagement(potential float64, factors ...string) string {
	quoted := make([]string, len(factors))
	for i, f := range factors {
		quoted[i] = fmt.Sprintf("%q", f)
	}
	return fmt.Sprintf(`{"potential": %v, "reasoning": "r", "factors": [%s]}`, potential, strings.Join(quoted, ","))
}

func items(posts ...string) []types.Item {
	out := make([]types.Item, len(posts))
	for i, p := range posts {
		out[i] = types.Item{
			URL:      fmt.Sprintf("https://x.com/u/status/%d", i+1),
			Post:     p,
			Stats:    "1 like",
			Comments: []string{"c1", "c2", "c3", "c4", "c5", "c6", "c7", "c8", "c9", "c10", "c11"},
		}
	}
	return out
}

func newAnalyzer(p providers.Provider) *Analyzer {
	return New(p, config.Default().Topic)
}

// fiveItemScenario has two on-topic items with confidences 0.9 and 0.75
// scored 6.0 and 8.5
func fiveItemScenario() *scriptedProvider {
	return newScripted().
		on(ClassifierAgent, "p1", classification(false, 0.95)).
		on(ClassifierAgent, "p2", classification(true, 0.9, "AI")).
		on(ClassifierAgent, "p3", classification(true, 0.6, "startups")).
		on(ClassifierAgent, "p4", classification(true, 0.75, "devtools", "AI")).
		on(ClassifierAgent, "p5", classification(false, 0.2)).
		on(ScorerAgent, "p2", engagement(6.0, "trending")).
		on(ScorerAgent, "p4", engagement(8.5, "controversial", "founders"))
}

func TestFiveItemScenario(t *testing.T) {
	a := newAnalyzer(fiveItemScenario())
	in := items("p1", "p2", "p3", "p4", "p5")

	classified, err := a.Classify(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, classified, 2)
	assert.Equal(t, "p2", classified[0].Item.Post)
	assert.Equal(t, "p4", classified[1].Item.Post)

	scored, err := a.Score(context.Background(), classified)
	require.NoError(t, err)
	require.Len(t, scored, 2)

	best, err := SelectBest(scored)
	require.NoError(t, err)
	assert.Equal(t, "p4", best.Item.Post)
	assert.Equal(t, 8.5, best.Engagement.Potential)
	assert.Equal(t, []string{"devtools", "AI"}, best.Classification.Categories)
}

func TestClassifyThreshold(t *testing.T) {
	confidences := []float64{0, 0.1, 0.5, 0.69, 0.6999, 0.7, 0.71, 0.9, 1}
	p := newScripted()
	var posts []string
	for i, c := range confidences {
		on := fmt.Sprintf("on%d", i)
		off := fmt.Sprintf("off%d", i)
		p.on(ClassifierAgent, on, classification(true, c))
		p.on(ClassifierAgent, off, classification(false, c))
		posts = append(posts, on, off)
	}

	classified, err := newAnalyzer(p).Classify(context.Background(), items(posts...))
	require.NoError(t, err)

	require.Len(t, classified, 4)
	for _, ci := range classified {
		assert.True(t, ci.Classification.IsOnTopic)
		assert.GreaterOrEqual(t, ci.Classification.Confidence, types.OnTopicThreshold)
	}
}

func TestClassifyDropsFailures(t *testing.T) {
	p := newScripted().
		on(ClassifierAgent, "bad-json", `{"is_on_topic": tru`).
		on(ClassifierAgent, "out-of-range", classification(true, 1.5)).
		on(ClassifierAgent, "missing", `{"confidence": 0.9}`).
		on(ClassifierAgent, "good", classification(true, 0.8, "AI", "AI", " ", "ML"))
	p.errs["boom"] = errors.New("rate limited")

	classified, err := newAnalyzer(p).Classify(context.Background(), items("bad-json", "boom", "out-of-range", "missing", "good"))
	require.NoError(t, err)
	require.Len(t, classified, 1)
	assert.Equal(t, "good", classified[0].Item.Post)
	assert.Equal(t, []string{"AI", "ML"}, classified[0].Classification.Categories)
}

func TestClassifyPromptLimitsComments(t *testing.T) {
	p := newScripted().on(ClassifierAgent, "*", classification(false, 0.1))
	_, err := newAnalyzer(p).Classify(context.Background(), items("post"))
	require.NoError(t, err)

	require.Len(t, p.inputs[ClassifierAgent], 1)
	input := p.inputs[ClassifierAgent][0]
	assert.Contains(t, input, "c1 | c2 | c3 | c4 | c5\n")
	assert.NotContains(t, input, "c6")
}

func TestScorePromptCarriesClassification(t *testing.T) {
	p := newScripted().on(ScorerAgent, "*", engagement(5))
	classified := []types.ClassifiedItem{{
		Item:           items("post")[0],
		Classification: types.Classification{IsOnTopic: true, Confidence: 0.9, Reasoning: "about compilers", Categories: []string{"PL"}},
	}}

	_, err := newAnalyzer(p).Score(context.Background(), classified)
	require.NoError(t, err)

	input := p.inputs[ScorerAgent][0]
	assert.Contains(t, input, "c10")
	assert.NotContains(t, input, "c11")
	assert.Contains(t, input, "Categories: PL")
	assert.Contains(t, input, "about compilers")
}

func TestScoreDropsFailures(t *testing.T) {
	p := newScripted().
		on(ScorerAgent, "ok", engagement(4)).
		on(ScorerAgent, "high", engagement(11)).
		on(ScorerAgent, "missing", `{"reasoning": "no score"}`)

	var classified []types.ClassifiedItem
	for _, it := range items("ok", "high", "missing") {
		classified = append(classified, types.ClassifiedItem{Item: it, Classification: types.Classification{IsOnTopic: true, Confidence: 0.9}})
	}

	scored, err := newAnalyzer(p).Score(context.Background(), classified)
	require.NoError(t, err)
	require.Len(t, scored, 1)
	assert.Equal(t, "ok", scored[0].Item.Post)
}

func TestPipelineDoesNotMutateInputs(t *testing.T) {
	a := newAnalyzer(fiveItemScenario())
	in := items("p1", "p2", "p3", "p4", "p5")
	before := items("p1", "p2", "p3", "p4", "p5")

	classified, err := a.Classify(context.Background(), in)
	require.NoError(t, err)
	classified[0].Item.Comments[0] = "changed"
	assert.Equal(t, before, in)

	snapshot := append([]types.ClassifiedItem(nil), classified...)
	scored, err := a.Score(context.Background(), classified)
	require.NoError(t, err)
	scored[0].Classification.Categories[0] = "changed"
	assert.Equal(t, snapshot[0].Classification.Categories, classified[0].Classification.Categories)
	assert.Equal(t, "AI", classified[0].Classification.Categories[0])
}

func TestPipelineIdempotent(t *testing.T) {
	a := newAnalyzer(fiveItemScenario())
	in := items("p1", "p2", "p3", "p4", "p5")

	run := func() types.ScoredItem {
		classified, err := a.Classify(context.Background(), in)
		require.NoError(t, err)
		scored, err := a.Score(context.Background(), classified)
		require.NoError(t, err)
		best, err := SelectBest(scored)
		require.NoError(t, err)
		return best
	}

	assert.Equal(t, run(), run())
}

func TestClassifyStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := newScripted().on(ClassifierAgent, "*", classification(true, 0.9))
	out, err := newAnalyzer(p).Classify(ctx, items("a", "b"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, out)
	assert.Empty(t, p.inputs[ClassifierAgent])
}

func scoredWith(potentials ...float64) []types.ScoredItem {
	out := make([]types.ScoredItem, len(potentials))
	for i, p := range potentials {
		out[i] = types.ScoredItem{
			Item:       types.Item{URL: fmt.Sprintf("u%d", i)},
			Engagement: types.EngagementScore{Potential: p},
		}
	}
	return out
}

func TestSelectBest(t *testing.T) {
	cases := []struct {
		name       string
		potentials []float64
		wantURL    string
	}{
		{"single", []float64{3}, "u0"},
		{"unique max", []float64{1, 9.5, 4}, "u1"},
		{"max last", []float64{1, 2, 3}, "u2"},
		{"tie takes earliest", []float64{5, 8, 2, 8}, "u1"},
		{"all equal", []float64{0, 0, 0}, "u0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := scoredWith(tc.potentials...)
			best, err := SelectBest(in)
			require.NoError(t, err)
			assert.Equal(t, tc.wantURL, best.Item.URL)
			for _, s := range in {
				assert.LessOrEqual(t, s.Engagement.Potential, best.Engagement.Potential)
			}
		})
	}
}

func TestSelectBestEmpty(t *testing.T) {
	_, err := SelectBest(nil)
	var empty *types.EmptyInputError
	require.ErrorAs(t, err, &empty)

	_, err = SelectBest([]types.ScoredItem{})
	assert.ErrorAs(t, err, &empty)
}

func TestGenerateReply(t *testing.T) {
	p := newScripted().on(ReplyAgent, "*", `{"text": "  Shipping beats planning.  ", "tone": "agrees", "style": "dry", "reasoning": "r"}`)
	best := scoredWith(7)[0]
	best.Item.Post = "plans are useless"
	best.Item.Comments = []string{"a", "b", "c", "d", "e", "f"}
	best.Engagement.Factors = []string{"hot take"}

	reply, err := newAnalyzer(p).GenerateReply(context.Background(), best)
	require.NoError(t, err)
	assert.Equal(t, "Shipping beats planning.", reply.Text)
	assert.Equal(t, "agrees", reply.Tone)

	input := p.inputs[ReplyAgent][0]
	assert.Contains(t, input, "Original post: plans are useless")
	assert.Contains(t, input, "hot take")
	assert.NotContains(t, input, "| f")
}

func TestGenerateReplyMalformed(t *testing.T) {
	p := newScripted().on(ReplyAgent, "*", `{"text": "   ", "tone": "agrees"}`)

	_, err := newAnalyzer(p).GenerateReply(context.Background(), scoredWith(1)[0])
	var m *types.MalformedOutputError
	require.ErrorAs(t, err, &m)
	assert.Equal(t, ReplyAgent, m.Agent)
	assert.Equal(t, "text", m.Field)
}

func TestGeneratePostWithNews(t *testing.T) {
	p := newScripted().
		on(NewsAgent, "*", `{"summary": "GPUs are scarce", "key_points": ["prices up"], "relevance": 7}`).
		on(PostAgent, "*", `{"text": "Compute is the new oil.", "tone": "bold", "style": "aphorism", "reasoning": "r"}`)
	a := newAnalyzer(p)

	news, err := a.AnalyzeNews(context.Background(), []types.Headline{{Title: "Nvidia sells out", Source: "HN"}})
	require.NoError(t, err)
	assert.Equal(t, 7.0, news.Relevance)
	assert.Contains(t, p.inputs[NewsAgent][0], "1. Nvidia sells out (HN)")

	classified := []types.ClassifiedItem{
		{Classification: types.Classification{Categories: []string{"AI", "hardware"}}},
		{Classification: types.Classification{Categories: []string{"AI", "cloud"}}},
	}
	post, err := a.GeneratePost(context.Background(), classified, &news)
	require.NoError(t, err)
	assert.Equal(t, "Compute is the new oil.", post.Text)

	input := p.inputs[PostAgent][0]
	assert.Contains(t, input, "Trending categories: AI, hardware, cloud")
	assert.Contains(t, input, "GPUs are scarce")
	assert.Contains(t, input, "- prices up")
}

func TestAnalyzeNewsEmpty(t *testing.T) {
	_, err := newAnalyzer(newScripted()).AnalyzeNews(context.Background(), nil)
	var empty *types.EmptyInputError
	assert.ErrorAs(t, err, &empty)
}
