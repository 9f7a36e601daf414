// Package gemini implements generation.Summarizer using Google's Gemini API
// via the google.golang.org/genai client. It renders an analysis report into
// a prompt, calls the model with retry and backoff, and returns the narrative
// summary text.
package gemini
