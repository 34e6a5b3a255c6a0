package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/ibeckermayer/replyloop/internal/config"
	"github.com/ibeckermayer/replyloop/internal/types"
)

// FetchRequest carries the number of timeline scrolls
type FetchRequest struct {
	ScrollCount string `form:"scroll_count"`
}

// FetchResponse lists the collected items
type FetchResponse struct {
	ScrollCount int          `json:"scroll_count"`
	Count       int          `json:"count"`
	Items       []types.Item `json:"items"`
	Warning     string       `json:"warning,omitempty"`
}

// ConfirmRequest is the operator's answer to a generated reply
type ConfirmRequest struct {
	Confirm     string `form:"confirm" json:"confirm"`
	EditedReply string `form:"edited_reply" json:"edited_reply"`
}

// ConfirmResponse reports a post attempt or a restart
type ConfirmResponse struct {
	Status  string        `json:"status"` // "posted", "failed", "restarted"
	Message string        `json:"message"`
	Result  *types.Result `json:"result,omitempty"`
}

func (h *handlers) handleStatus(c *gin.Context) {
	resp := gin.H{"app": h.pipeline.Status()}
	if h.jobs != nil {
		resp["jobs"] = h.jobs.ListJobs()
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handlers) handleFetch(c *gin.Context) {
	raw, err := scrollCountParam(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	n, warning := parseScrollCount(raw)

	items, err := h.pipeline.Collect(c.Request.Context(), n)
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := FetchResponse{ScrollCount: n, Count: len(items), Items: items, Warning: warning}
	if len(items) == 0 && resp.Warning == "" {
		resp.Warning = "No tweets were found. Please try again."
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handlers) handleItems(c *gin.Context) {
	items, err := h.pipeline.Items()
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(items), "items": items})
}

func (h *handlers) handleAnalyze(c *gin.Context) {
	result, err := h.pipeline.Analyze(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *handlers) handleResults(c *gin.Context) {
	result, err := h.pipeline.Result()
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *handlers) handleConfirm(c *gin.Context) {
	var req ConfirmRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	switch strings.ToLower(strings.TrimSpace(req.Confirm)) {
	case "yes":
	case "no", "cancel":
		if err := h.pipeline.Restart(); err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, ConfirmResponse{Status: "restarted", Message: "Reply cancelled. Starting over."})
		return
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": `Please answer "yes" to post the reply or "no" to start over.`})
		return
	}

	result, err := h.pipeline.Confirm(c.Request.Context(), req.EditedReply)
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := ConfirmResponse{Status: "posted", Message: "Reply posted successfully!", Result: result}
	if result.Posting == nil || !result.Posting.Posted {
		resp.Status = "failed"
		resp.Message = "Failed to post reply."
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handlers) handleRestart(c *gin.Context) {
	if err := h.pipeline.Restart(); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ConfirmResponse{Status: "restarted", Message: "Starting over."})
}

// respondError maps pipeline errors to a status code and operator text
func (h *handlers) respondError(c *gin.Context, err error) {
	var empty *types.EmptyInputError
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, types.ErrBusy):
		status = http.StatusConflict
	case errors.Is(err, types.ErrNoItems), errors.Is(err, types.ErrNoResults):
		status = http.StatusNotFound
	case errors.Is(err, types.ErrNoOnTopicItems), errors.As(err, &empty):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, types.ErrLoginTimeout):
		status = http.StatusGatewayTimeout
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": h.pipeline.UserMessage(err)})
}

// scrollCountParam reads scroll_count from a form or JSON body
func scrollCountParam(c *gin.Context) (string, error) {
	if c.ContentType() != binding.MIMEJSON {
		var req FetchRequest
		if err := c.ShouldBind(&req); err != nil {
			return "", err
		}
		return req.ScrollCount, nil
	}

	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		return "", err
	}
	switch v := body["scroll_count"].(type) {
	case nil:
		return "", nil
	case float64:
		if v != float64(int(v)) {
			return strconv.FormatFloat(v, 'f', -1, 64), nil
		}
		return strconv.Itoa(int(v)), nil
	case string:
		return v, nil
	default:
		return "invalid", nil
	}
}

// parseScrollCount applies the default with a warning for bad input.
// A missing value silently uses the default.
func parseScrollCount(raw string) (int, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return config.DefaultScrollCount, ""
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return config.DefaultScrollCount, "Please enter a valid number for scroll count."
	}
	if clamped, ok := config.ClampScrollCount(n); !ok {
		return clamped, "Please enter a valid number between 1 and 10 for scroll count."
	}
	return n, ""
}
