package analysis

import "errors"

var (
	// ErrNotFound indicates the record id is absent from the user's history.
	ErrNotFound = errors.New("analysis not found")

	// ErrNoDocument indicates no compatible uploaded document (.pdf, .docx)
	// exists for the user.
	ErrNoDocument = errors.New("no compatible document found in recent uploads")
)
