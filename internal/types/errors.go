package types

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSession is returned when no session state has been saved yet
	ErrNoSession = errors.New("no saved session state")

	// ErrLoginTimeout is returned when the manual login wait runs out
	ErrLoginTimeout = errors.New("timed out waiting for manual login")

	// ErrNoOnTopicItems is returned when classification retains nothing
	ErrNoOnTopicItems = errors.New("no on-topic items found")

	// ErrNoItems is returned when the data file holds no items
	ErrNoItems = errors.New("no items collected")

	// ErrNoResults is returned when a confirmation arrives without an analysis result
	ErrNoResults = errors.New("no analysis results available")

	// ErrBusy is returned when a pipeline run is already in progress
	ErrBusy = errors.New("a pipeline run is already in progress")

	// ErrElementNotFound is returned by browser pages when a selector matches nothing
	ErrElementNotFound = errors.New("element not found")
)

// EmptyInputError is returned by selection when there is nothing to select from
type EmptyInputError struct {
	Stage string
}

func (e *EmptyInputError) Error() string {
	if e.Stage == "" {
		return "no items to select from"
	}
	return fmt.Sprintf("%s: no items to select from", e.Stage)
}

// MalformedOutputError is returned when a model response does not match its expected shape
type MalformedOutputError struct {
	Agent  string
	Field  string
	Reason string
	Raw    string
}

func (e *MalformedOutputError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("malformed %s output: %s (response was: %.200s)", e.Agent, e.Reason, e.Raw)
	}
	return fmt.Sprintf("malformed %s output: field %q %s (response was: %.200s)", e.Agent, e.Field, e.Reason, e.Raw)
}
