package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/ibeckermayer/replyloop/internal/types"
)

// UserMessage turns an error from any pipeline step into operator-facing text
func (a *App) UserMessage(err error) string {
	var empty *types.EmptyInputError
	var malformed *types.MalformedOutputError

	switch {
	case err == nil:
		return ""
	case errors.Is(err, types.ErrNoOnTopicItems):
		return fmt.Sprintf("No %s-related tweets found.", a.cfg.Topic.Name)
	case errors.As(err, &empty):
		return "No items to select from."
	case errors.Is(err, types.ErrNoItems):
		return "No tweets available for analysis. Please fetch tweets first."
	case errors.Is(err, types.ErrNoResults):
		return "No analysis results found. Please analyze tweets first."
	case errors.Is(err, types.ErrNoSession):
		return "Not logged in to X. Run the login command first."
	case errors.Is(err, types.ErrLoginTimeout):
		return "Timed out waiting for login to X. Please try again."
	case errors.Is(err, types.ErrBusy):
		return "Another run is already in progress. Try again when it finishes."
	case errors.As(err, &malformed):
		return fmt.Sprintf("The %s returned an unexpected response. Please try again.", malformed.Agent)
	case errors.Is(err, context.Canceled):
		return "Cancelled."
	case errors.Is(err, context.DeadlineExceeded):
		return "The operation timed out."
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}
