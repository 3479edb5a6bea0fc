package generator

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

// GeminiLLM implements LLMClient on top of google.golang.org/genai (generateContent).
type GeminiLLM struct {
	settings LLMSettings
	logger   *zap.Logger
}

func NewGeminiLLM(settings LLMSettings, logger *zap.Logger) *GeminiLLM {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GeminiLLM{settings: settings, logger: logger.Named("gemini")}
}

func (g *GeminiLLM) Provider() Provider { return ProviderGemini }

func (g *GeminiLLM) Complete(ctx context.Context, prompt Prompt, creds Credentials) (string, error) {
	if creds.APIKey == "" {
		return "", newError(KindMissingCredential, ProviderGemini, creds.Model, "")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      creds.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  g.settings.HTTPClient,
		HTTPOptions: genai.HTTPOptions{BaseURL: g.settings.BaseURL},
	})
	if err != nil {
		return "", err
	}

	start := time.Now()
	g.logger.Debug("generate content", zap.String("model", creds.Model), zap.Int("prompt_len", len(prompt.User)))

	// The prompt is the only content part; no system instruction, no role.
	contents := []*genai.Content{{Parts: []*genai.Part{genai.NewPartFromText(prompt.User)}}}
	resp, err := client.Models.GenerateContent(ctx, creds.Model, contents, nil)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			g.logger.Warn("generate content rejected", zap.Int("status", apiErr.Code), zap.String("model", creds.Model))
			return "", classifyStatus(ProviderGemini, creds.Model, apiErr.Code, apiErr.Message)
		}
		g.logger.Warn("generate content failed", zap.Error(err))
		return "", err
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", newError(KindSafetyBlocked, ProviderGemini, creds.Model, string(resp.PromptFeedback.BlockReason))
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return "", &Error{Kind: KindEmptyResponse, Provider: ProviderGemini, Model: creds.Model,
			msg: "Gemini returned no candidates. Please try again."}
	}
	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", newError(KindSafetyBlocked, ProviderGemini, creds.Model, "")
	}

	text := strings.TrimSpace(joinParts(candidate.Content))
	if text == "" {
		return "", newError(KindEmptyResponse, ProviderGemini, creds.Model, "")
	}
	g.logger.Debug("generate content done", zap.Duration("elapsed", time.Since(start)), zap.Int("response_len", len(text)))
	return text, nil
}

// joinParts concatenates every text part with a single space.
func joinParts(content *genai.Content) string {
	if content == nil {
		return ""
	}
	texts := lo.FilterMap(content.Parts, func(p *genai.Part, _ int) (string, bool) {
		if p == nil {
			return "", false
		}
		return p.Text, true
	})
	return strings.Join(texts, " ")
}
