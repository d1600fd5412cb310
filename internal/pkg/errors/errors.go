package errors

import "errors"

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrTemplateNotFound marks an unknown template id at answer, progress or
	// render time.
	ErrTemplateNotFound = errors.New("template not found")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrRunNotDraft marks a mutation attempted after a run was submitted.
	ErrRunNotDraft = errors.New("run is not in draft status")
)
