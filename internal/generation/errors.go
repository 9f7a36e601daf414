package generation

import "errors"

// Common errors returned by summarizer implementations.
var (
	// ErrSummaryFailed is returned when summary generation fails for any
	// general reason.
	ErrSummaryFailed = errors.New("failed to generate insight summary")

	// ErrInvalidResponse is returned when the LLM response is missing or
	// malformed.
	ErrInvalidResponse = errors.New("invalid response from language model")

	// ErrContentBlocked is returned when the LLM refuses the request due to
	// safety filters.
	ErrContentBlocked = errors.New("content blocked by language model safety filters")

	// ErrTransientFailure is returned for temporary errors that might
	// resolve on retry.
	ErrTransientFailure = errors.New("transient error during summary generation")

	// ErrInvalidConfig is returned when the summarizer configuration is
	// invalid.
	ErrInvalidConfig = errors.New("invalid summarizer configuration")
)
