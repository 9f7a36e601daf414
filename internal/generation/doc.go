// Package generation defines the boundary between the application core and
// external LLM services used to write narrative insight summaries. Consumers
// depend on the Summarizer interface; the concrete Gemini implementation
// lives in internal/platform/gemini.
package generation
