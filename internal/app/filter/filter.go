// Package filter provides the admission chain for download requests.
package filter

import (
	"context"
)

// Candidate represents a download request to be validated.
type Candidate struct {
	Locator   string
	ContentID string // "" when the locator carries none
	Group     string // destination subdirectory, "" for the root
}

// Result represents the result of a filter check.
type Result struct {
	Accepted bool
	Code     string // e.g., "already_downloaded", "already_queued"
	Detail   string
}

// Accept returns an accepted result.
func Accept() Result {
	return Result{Accepted: true}
}

// Reject returns a rejected result with the given code.
func Reject(code, detail string) Result {
	return Result{Accepted: false, Code: code, Detail: detail}
}

// Filter is the interface for admission filters.
type Filter interface {
	// Name returns the filter name.
	Name() string
	// ReturnCodes returns the codes this filter can return.
	ReturnCodes() []string
	// Check performs the filter check.
	Check(ctx context.Context, c Candidate) Result
}
