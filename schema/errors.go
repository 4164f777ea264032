package schema

import "errors"

var (
	// ErrInvalidArgument indicates a caller supplied an argument the operation cannot accept.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidRotation indicates a rotation angle that is not a multiple of 90 degrees.
	ErrInvalidRotation = errors.New("rotation must be a multiple of 90 degrees")
	// ErrPageMismatch indicates a new page order that does not contain the same pages.
	ErrPageMismatch = errors.New("new order must contain the same pages")
	// ErrEmptyCommand indicates a job was submitted without an argv.
	ErrEmptyCommand = errors.New("empty command")
	// ErrQueueClosed indicates the job queue no longer accepts jobs.
	ErrQueueClosed = errors.New("job queue closed")
	// ErrDocumentNotLoaded indicates the renderer has no document loaded.
	ErrDocumentNotLoaded = errors.New("document not loaded")
	// ErrInvalidPageRange indicates an unusable page range token.
	ErrInvalidPageRange = errors.New("invalid page range")
	// ErrUnknownPreset indicates an optimize preset that does not exist.
	ErrUnknownPreset = errors.New("unknown preset")
)
