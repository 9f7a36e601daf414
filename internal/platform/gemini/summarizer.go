package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"text/template"
	"time"

	"github.com/sortlab/sortlab-api/internal/config"
	"github.com/sortlab/sortlab-api/internal/domain"
	"github.com/sortlab/sortlab-api/internal/domain/analysis"
	"github.com/sortlab/sortlab-api/internal/generation"
	"google.golang.org/genai"
)

// GeminiSummarizer implements generation.Summarizer using the Gemini API.
type GeminiSummarizer struct {
	logger         *slog.Logger
	config         config.LLMConfig
	promptTemplate *template.Template
	client         *genai.Client
	model          string
}

var _ generation.Summarizer = (*GeminiSummarizer)(nil)

// NewGeminiSummarizer creates a summarizer backed by the Gemini API. If
// PromptTemplatePath is empty the built-in template is used.
func NewGeminiSummarizer(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*GeminiSummarizer, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	promptTemplate, err := loadPromptTemplate(cfg.PromptTemplatePath)
	if err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v",
			generation.ErrInvalidConfig, err)
	}

	return &GeminiSummarizer{
		logger:         logger.With(slog.String("component", "gemini_summarizer")),
		config:         cfg,
		promptTemplate: promptTemplate,
		client:         client,
		model:          cfg.ModelName,
	}, nil
}

// loadPromptTemplate parses the template at path, or the built-in template
// when path is empty.
func loadPromptTemplate(path string) (*template.Template, error) {
	content := defaultPromptTemplate
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read prompt template from %s: %v",
				generation.ErrInvalidConfig, path, err)
		}
		content = string(raw)
	}

	tmpl, err := template.New("insight").Parse(content)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse prompt template: %v",
			generation.ErrInvalidConfig, err)
	}
	return tmpl, nil
}

// Summarize renders the report into a prompt and calls the model.
func (g *GeminiSummarizer) Summarize(
	ctx context.Context,
	study *domain.Study,
	report *analysis.Report,
) (string, error) {
	if study == nil {
		return "", fmt.Errorf("%w: study is nil", generation.ErrSummaryFailed)
	}
	if report == nil {
		return "", fmt.Errorf("%w: report is nil", generation.ErrSummaryFailed)
	}

	prompt, err := renderPrompt(g.promptTemplate, study, report)
	if err != nil {
		return "", fmt.Errorf("%w: %v", generation.ErrSummaryFailed, err)
	}

	g.logger.DebugContext(ctx, "generated prompt from analysis report",
		"study_id", study.ID,
		"prompt_length", len(prompt))

	summary, err := g.callWithRetry(ctx, prompt)
	if err != nil {
		return "", err
	}

	g.logger.InfoContext(ctx, "summary generated",
		"study_id", study.ID,
		"summary_length", len(summary))
	return summary, nil
}

// callWithRetry calls the Gemini API with exponential backoff and jitter.
// Permanent errors (blocked content, malformed responses) are returned
// immediately; everything else is treated as transient and retried up to
// MaxRetries times.
func (g *GeminiSummarizer) callWithRetry(ctx context.Context, prompt string) (string, error) {
	maxRetries := g.config.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	baseDelay := g.config.RetryBackoffSeconds
	if baseDelay < 1 {
		baseDelay = 2
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		g.logger.InfoContext(ctx, "calling Gemini API",
			"attempt", attempt+1,
			"max_attempts", maxRetries+1)

		summary, err := g.call(ctx, prompt)
		if err == nil {
			return summary, nil
		}
		lastErr = err

		if errors.Is(err, generation.ErrContentBlocked) || errors.Is(err, generation.ErrInvalidResponse) {
			g.logger.WarnContext(ctx, "permanent error from Gemini API, not retrying",
				"error", err)
			return "", err
		}

		g.logger.ErrorContext(ctx, "Gemini API call failed",
			"attempt", attempt+1,
			"error", err)

		if attempt == maxRetries {
			break
		}

		// delay = base * 2^attempt, scaled by jitter in [0.5, 1.0).
		backoff := float64(baseDelay) * math.Pow(2, float64(attempt))
		delay := time.Duration(backoff * (0.5 + rng.Float64()*0.5) * float64(time.Second))

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", fmt.Errorf("%w: %v", generation.ErrTransientFailure, ctx.Err())
		}
	}

	return "", fmt.Errorf("%w: exceeded %d attempt(s): %v",
		generation.ErrTransientFailure, maxRetries+1, lastErr)
}

// call makes a single Gemini API request and extracts the response text.
func (g *GeminiSummarizer) call(ctx context.Context, prompt string) (string, error) {
	if g.config.RequestTimeoutSecs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(g.config.RequestTimeoutSecs)*time.Second)
		defer cancel()
	}

	genConfig := &genai.GenerateContentConfig{}
	if g.config.Temperature > 0 {
		genConfig.Temperature = genai.Ptr(g.config.Temperature)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), genConfig)
	if err != nil {
		return "", fmt.Errorf("%w: %v", generation.ErrTransientFailure, err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no content generated", generation.ErrInvalidResponse)
	}
	if resp.Candidates[0].FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: response stopped by safety filters", generation.ErrContentBlocked)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("%w: empty response text", generation.ErrInvalidResponse)
	}

	return text, nil
}
