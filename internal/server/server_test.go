package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibeckermayer/replyloop/internal/app"
	"github.com/ibeckermayer/replyloop/internal/scheduler"
	"github.com/ibeckermayer/replyloop/internal/types"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakePipeline records calls and returns canned values
type fakePipeline struct {
	items      []types.Item
	result     *types.Result
	err        error
	scrolls    []int
	edited     []string
	restarts   int
	confirmErr error
	restartErr error
}

func (f *fakePipeline) Status() app.Status {
	return app.Status{Authenticated: true, ItemCount: len(f.items), HasResult: f.result != nil}
}

func (f *fakePipeline) Collect(ctx context.Context, scrollCount int) ([]types.Item, error) {
	f.scrolls = append(f.scrolls, scrollCount)
	return f.items, f.err
}

func (f *fakePipeline) Items() ([]types.Item, error) {
	if f.items == nil {
		return nil, types.ErrNoItems
	}
	return f.items, nil
}

func (f *fakePipeline) Analyze(ctx context.Context) (*types.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakePipeline) Result() (*types.Result, error) {
	if f.result == nil {
		return nil, types.ErrNoResults
	}
	return f.result, nil
}

func (f *fakePipeline) Confirm(ctx context.Context, editedReply string) (*types.Result, error) {
	f.edited = append(f.edited, editedReply)
	if f.confirmErr != nil {
		return nil, f.confirmErr
	}
	r := *f.result
	text := r.GeneratedReply.Text
	if editedReply != "" {
		text = editedReply
	}
	r.Posting = &types.Posting{Posted: true, ReplyText: text, Edited: editedReply != ""}
	return &r, nil
}

func (f *fakePipeline) Restart() error {
	if f.restartErr != nil {
		return f.restartErr
	}
	f.restarts++
	f.result = nil
	return nil
}

func (f *fakePipeline) UserMessage(err error) string {
	return "msg: " + err.Error()
}

type fakeJobs struct{}

func (fakeJobs) ListJobs() []scheduler.JobInfo {
	return []scheduler.JobInfo{{Name: "pipeline", NextRun: time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)}}
}

func sampleResult() *types.Result {
	return &types.Result{
		RunID:          "run-1",
		BestItem:       types.Selection{URL: "https://x.com/a/status/1", Post: "post", EngagementScore: 8.5},
		GeneratedReply: types.GeneratedReply{Text: "generated"},
		Summary:        types.AnalysisSummary{TotalItems: 5, OnTopicCount: 2, BestScore: 8.5},
	}
}

func postForm(t *testing.T, r http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func postJSON(t *testing.T, r http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func TestStatus(t *testing.T) {
	r := NewRouter(&fakePipeline{}, fakeJobs{})

	w := get(r, "/api/status")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string]any](t, w)
	assert.Equal(t, true, body["app"].(map[string]any)["authenticated"])
	assert.Len(t, body["jobs"], 1)

	r = NewRouter(&fakePipeline{}, nil)
	body = decode[map[string]any](t, get(r, "/api/status"))
	assert.NotContains(t, body, "jobs")
}

func TestFetchScrollCount(t *testing.T) {
	tests := []struct {
		name    string
		send    func(http.Handler) *httptest.ResponseRecorder
		want    int
		warning bool
	}{
		{"form value", func(r http.Handler) *httptest.ResponseRecorder {
			return postForm(t, r, "/api/fetch", url.Values{"scroll_count": {"5"}})
		}, 5, false},
		{"missing uses default", func(r http.Handler) *httptest.ResponseRecorder {
			return postForm(t, r, "/api/fetch", url.Values{})
		}, 3, false},
		{"out of range", func(r http.Handler) *httptest.ResponseRecorder {
			return postForm(t, r, "/api/fetch", url.Values{"scroll_count": {"11"}})
		}, 3, true},
		{"not a number", func(r http.Handler) *httptest.ResponseRecorder {
			return postForm(t, r, "/api/fetch", url.Values{"scroll_count": {"lots"}})
		}, 3, true},
		{"json number", func(r http.Handler) *httptest.ResponseRecorder {
			return postJSON(t, r, "/api/fetch", `{"scroll_count": 7}`)
		}, 7, false},
		{"json zero", func(r http.Handler) *httptest.ResponseRecorder {
			return postJSON(t, r, "/api/fetch", `{"scroll_count": 0}`)
		}, 3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakePipeline{items: []types.Item{{URL: "https://x.com/a/status/1", Post: "p", Comments: []string{}}}}
			w := tt.send(NewRouter(p, nil))

			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			assert.Equal(t, []int{tt.want}, p.scrolls)
			resp := decode[FetchResponse](t, w)
			assert.Equal(t, tt.want, resp.ScrollCount)
			assert.Equal(t, 1, resp.Count)
			assert.Equal(t, tt.warning, resp.Warning != "")
		})
	}
}

func TestFetchErrorsUseUserMessage(t *testing.T) {
	p := &fakePipeline{err: types.ErrLoginTimeout}
	w := postForm(t, NewRouter(p, nil), "/api/fetch", url.Values{"scroll_count": {"2"}})

	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.Equal(t, "msg: "+types.ErrLoginTimeout.Error(), decode[map[string]string](t, w)["error"])
}

func TestItemsAndResults(t *testing.T) {
	p := &fakePipeline{}
	r := NewRouter(p, nil)

	assert.Equal(t, http.StatusNotFound, get(r, "/api/items").Code)
	assert.Equal(t, http.StatusNotFound, get(r, "/api/results").Code)

	p.items = []types.Item{{URL: "u", Post: "p", Comments: []string{}}}
	p.result = sampleResult()

	w := get(r, "/api/items")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode[map[string]any](t, w)["count"])

	w = get(r, "/api/results")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "run-1", decode[types.Result](t, w).RunID)
}

func TestAnalyze(t *testing.T) {
	p := &fakePipeline{result: sampleResult()}
	w := postForm(t, NewRouter(p, nil), "/api/analyze", nil)
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[types.Result](t, w)
	assert.Equal(t, types.AnalysisSummary{TotalItems: 5, OnTopicCount: 2, BestScore: 8.5}, res.Summary)

	p.err = types.ErrNoOnTopicItems
	w = postForm(t, NewRouter(p, nil), "/api/analyze", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	p.err = &types.EmptyInputError{Stage: "select"}
	w = postForm(t, NewRouter(p, nil), "/api/analyze", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	p.err = types.ErrBusy
	w = postForm(t, NewRouter(p, nil), "/api/analyze", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestConfirmYesPostsEditedReply(t *testing.T) {
	p := &fakePipeline{result: sampleResult()}
	r := NewRouter(p, nil)

	w := postForm(t, r, "/api/confirm", url.Values{"confirm": {"yes"}, "edited_reply": {"my words"}})
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[ConfirmResponse](t, w)
	assert.Equal(t, "posted", resp.Status)
	assert.Equal(t, "my words", resp.Result.Posting.ReplyText)
	assert.Equal(t, []string{"my words"}, p.edited)

	w = postJSON(t, r, "/api/confirm", `{"confirm": "yes"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"my words", ""}, p.edited)
}

func TestConfirmNoRestarts(t *testing.T) {
	p := &fakePipeline{result: sampleResult()}
	w := postForm(t, NewRouter(p, nil), "/api/confirm", url.Values{"confirm": {"no"}})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "restarted", decode[ConfirmResponse](t, w).Status)
	assert.Equal(t, 1, p.restarts)
	assert.Empty(t, p.edited)
}

func TestConfirmCancelRestarts(t *testing.T) {
	p := &fakePipeline{result: sampleResult()}
	w := postJSON(t, NewRouter(p, nil), "/api/confirm", `{"confirm": "Cancel"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "restarted", decode[ConfirmResponse](t, w).Status)
	assert.Equal(t, 1, p.restarts)
}

func TestConfirmRequiresAnswer(t *testing.T) {
	for _, body := range []string{
		`{}`,
		`{"confirm": "ye"}`,
		`{"edited_reply": "my text"}`,
	} {
		t.Run(body, func(t *testing.T) {
			p := &fakePipeline{result: sampleResult()}
			w := postJSON(t, NewRouter(p, nil), "/api/confirm", body)

			require.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, decode[map[string]string](t, w)["error"], `"yes"`)
			assert.Zero(t, p.restarts)
			assert.Empty(t, p.edited)
			assert.NotNil(t, p.result)
		})
	}
}

func TestRestartWhileBusy(t *testing.T) {
	p := &fakePipeline{result: sampleResult(), restartErr: types.ErrBusy}

	w := postForm(t, NewRouter(p, nil), "/api/restart", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = postForm(t, NewRouter(p, nil), "/api/confirm", url.Values{"confirm": {"no"}})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.NotNil(t, p.result)
}

func TestConfirmWithoutResults(t *testing.T) {
	p := &fakePipeline{confirmErr: types.ErrNoResults}
	w := postForm(t, NewRouter(p, nil), "/api/confirm", url.Values{"confirm": {"yes"}})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRestart(t *testing.T) {
	p := &fakePipeline{result: sampleResult()}
	w := postForm(t, NewRouter(p, nil), "/api/restart", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, p.restarts)
	assert.Nil(t, p.result)
}

func TestParseScrollCount(t *testing.T) {
	n, warn := parseScrollCount(" 10 ")
	assert.Equal(t, 10, n)
	assert.Empty(t, warn)

	n, warn = parseScrollCount("2.5")
	assert.Equal(t, 3, n)
	assert.NotEmpty(t, warn)
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, "127.0.0.1:0", NewRouter(&fakePipeline{}, nil)) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
