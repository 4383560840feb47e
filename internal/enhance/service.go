// Package enhance cleans up OCR text with a language model served behind an
// OpenAI compatible API (GPT4All, llama.cpp, vLLM or OpenAI itself).
//
// Enhancement is best effort: whenever it is disabled, the server is
// unreachable or the answer is unusable, the raw OCR text is returned
// unchanged.
package enhance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"docextract/internal/config"
	"docextract/internal/logger"
	"docextract/pkg/models"
)

// Config configures the enhancement client.
type Config struct {
	Enabled     bool
	BaseURL     string // e.g. http://localhost:4891/v1
	APIKey      string // optional for local servers
	Model       string
	MaxTokens   int
	Temperature float32
	TopP        float32
	Timeout     time.Duration
	MaxRetries  int // retries after the first attempt
}

// ConfigFrom extracts the enhancement settings from the application config.
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		Enabled:     cfg.EnhanceEnabled,
		BaseURL:     cfg.EnhanceBaseURL,
		APIKey:      cfg.EnhanceAPIKey,
		Model:       cfg.EnhanceModel,
		MaxTokens:   cfg.EnhanceMaxTokens,
		Temperature: cfg.EnhanceTemperature,
		TopP:        cfg.EnhanceTopP,
		Timeout:     cfg.EnhanceTimeout,
		MaxRetries:  cfg.EnhanceMaxRetries,
	}
}

// Service sends OCR text through a chat completion model.
type Service struct {
	client *openai.Client
	config Config
	log    zerolog.Logger
}

// New creates a service talking to cfg.BaseURL.
func New(cfg Config) *Service {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	return NewWithClient(cfg, openai.NewClientWithConfig(clientCfg))
}

// NewWithClient creates a service with an explicit client.
func NewWithClient(cfg Config, client *openai.Client) *Service {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	return &Service{
		client: client,
		config: cfg,
		log:    logger.WithComponent("enhance"),
	}
}

// WithLogger returns a copy of s that logs to log.
func (s *Service) WithLogger(log zerolog.Logger) *Service {
	cp := *s
	cp.log = log
	return &cp
}

// Enabled reports whether enhancement is switched on.
func (s *Service) Enabled() bool {
	return s != nil && s.config.Enabled
}

// Enhance returns the model's cleaned up version of raw and true, or raw
// and false when enhancement did not apply. Errors are logged, never returned.
func (s *Service) Enhance(ctx context.Context, raw string, family models.DocumentFamily) (string, bool) {
	if strings.TrimSpace(raw) == "" || !s.Enabled() {
		return raw, false
	}

	text, err := s.complete(ctx, buildPrompt(raw, family))
	if err != nil {
		s.log.Error().
			Err(err).
			Str("family", family.String()).
			Msg("Enhancement failed, returning original OCR text")
		return raw, false
	}
	return text, true
}

func (s *Service) complete(ctx context.Context, prompt string) (string, error) {
	const op = "Enhance"

	if s.config.Model == "" {
		return "", WrapEnhanceError(op, ErrModelNotConfigured, 0)
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	s.log.Debug().
		Int("prompt_length", len(prompt)).
		Str("model", s.config.Model).
		Float32("temperature", s.config.Temperature).
		Msg("Sending enhancement request")

	attempts := s.config.MaxRetries + 1
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       s.config.Model,
			Temperature: s.config.Temperature,
			TopP:        s.config.TopP,
			MaxTokens:   s.config.MaxTokens,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
		})
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return "", WrapEnhanceError(op, ctx.Err(), attempt)
			}
			s.log.Warn().
				Err(err).
				Int("attempt", attempt).
				Int("max_retries", s.config.MaxRetries).
				Msg("Enhancement request failed, retrying")
			continue
		}

		if len(resp.Choices) == 0 {
			lastErr = ErrNoChoices
			continue
		}

		text := cleanResponse(resp.Choices[0].Message.Content)
		if text == "" {
			lastErr = ErrEmptyResponse
			continue
		}

		s.log.Debug().
			Int("attempt", attempt).
			Int("response_length", len(text)).
			Msg("Received enhanced text")
		return text, nil
	}

	return "", WrapEnhanceError(op, lastErr, attempts)
}

// IsServerAvailable reports whether the model server answers a model listing.
func (s *Service) IsServerAvailable(ctx context.Context) bool {
	if s == nil || s.client == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := s.client.ListModels(ctx); err != nil {
		s.log.Debug().Err(err).Msg("Enhancement server not available")
		return false
	}
	return true
}

func documentKind(family models.DocumentFamily) string {
	switch family {
	case models.FamilyPassport:
		return "passport"
	case models.FamilyEmiratesID:
		return "Emirates ID"
	case models.FamilyTradeLicense:
		return "UAE trade license"
	}
	return "document"
}

func buildPrompt(text string, family models.DocumentFamily) string {
	return fmt.Sprintf(`You are an OCR post-processor for %s documents.

RULES:
- Do NOT add new information
- Do NOT infer missing values
- Fix OCR errors only
- Preserve numbers, dates, and IDs
- Preserve MRZ lines EXACTLY
- Return plain text only (no markdown)

OCR TEXT:
%s`, documentKind(family), text)
}

// cleanResponse trims the answer and drops a surrounding markdown fence,
// which small local models add despite the prompt.
func cleanResponse(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") && strings.HasSuffix(s, "```") && len(s) >= 6 {
		s = strings.TrimSuffix(s, "```")
		if i := strings.Index(s, "\n"); i >= 0 {
			s = s[i+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
	}
	return strings.TrimSpace(s)
}
