package filter

import (
	"context"
)

// CodeAlreadyDownloaded is returned when the content is already in the library.
const CodeAlreadyDownloaded = "already_downloaded"

// Library looks up downloaded files by content ID.
type Library interface {
	FindContentID(group, id string) (string, bool)
}

// DuplicateContentFilter rejects content already present as a file in the
// destination directory. Candidates without a content ID are accepted.
type DuplicateContentFilter struct {
	library Library
}

// NewDuplicateContentFilter creates a new duplicate content filter.
func NewDuplicateContentFilter(library Library) *DuplicateContentFilter {
	return &DuplicateContentFilter{
		library: library,
	}
}

// Name returns the filter name.
func (f *DuplicateContentFilter) Name() string {
	return "duplicate_content_filter"
}

// ReturnCodes returns possible return codes.
func (f *DuplicateContentFilter) ReturnCodes() []string {
	return []string{CodeAlreadyDownloaded}
}

// Check performs the duplicate check.
func (f *DuplicateContentFilter) Check(ctx context.Context, c Candidate) Result {
	if c.ContentID == "" {
		return Accept()
	}
	if path, ok := f.library.FindContentID(c.Group, c.ContentID); ok {
		return Reject(CodeAlreadyDownloaded, path)
	}
	return Accept()
}
