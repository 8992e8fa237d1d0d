package cli

import "errors"

// CLI-specific sentinel errors.
// These are setup/validation errors that don't belong to domain packages.

var (
	// ErrAPIKeyMissing indicates YOUTUBE_API_KEY environment variable is not set.
	ErrAPIKeyMissing = errors.New("YOUTUBE_API_KEY environment variable not set")

	// ErrOpenAIKeyMissing indicates OPENAI_API_KEY is not set while scoring is requested.
	ErrOpenAIKeyMissing = errors.New("OPENAI_API_KEY environment variable not set")

	// ErrOutputUnavailable indicates an output file or database could not be opened.
	ErrOutputUnavailable = errors.New("cannot open output")

	// ErrFileNotFound indicates the specified input file does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrInvalidFlag indicates a flag value outside its accepted range.
	ErrInvalidFlag = errors.New("invalid flag value")
)
