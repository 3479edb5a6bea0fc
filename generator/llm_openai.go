package generator

import (
	"context"
	"errors"
	"strings"
	"time"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"
)

const (
	openAITemperature = 0.8
	openAIMaxTokens   = 180
)

// OpenAILLM implements LLMClient using the official openai-go SDK (chat completions).
type OpenAILLM struct {
	settings LLMSettings
	logger   *zap.Logger
}

func NewOpenAILLM(settings LLMSettings, logger *zap.Logger) *OpenAILLM {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OpenAILLM{settings: settings, logger: logger.Named("openai")}
}

func (o *OpenAILLM) Provider() Provider { return ProviderOpenAI }

func (o *OpenAILLM) options(apiKey string) []option.RequestOption {
	// One attempt per user action: the SDK would otherwise retry 429/5xx twice.
	opts := []option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}
	if o.settings.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(o.settings.BaseURL))
	}
	if o.settings.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(o.settings.HTTPClient))
	}
	return opts
}

func (o *OpenAILLM) Complete(ctx context.Context, prompt Prompt, creds Credentials) (string, error) {
	if creds.APIKey == "" {
		return "", newError(KindMissingCredential, ProviderOpenAI, creds.Model, "")
	}
	client := openai.NewClient(o.options(creds.APIKey)...)

	start := time.Now()
	o.logger.Debug("chat completion", zap.String("model", creds.Model), zap.Int("prompt_len", len(prompt.User)))

	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(creds.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(prompt.System),
			openai.UserMessage(prompt.User),
		},
		Temperature: openai.Float(openAITemperature),
		MaxTokens:   openai.Int(openAIMaxTokens),
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			o.logger.Warn("chat completion rejected", zap.Int("status", apiErr.StatusCode), zap.String("model", creds.Model))
			return "", classifyStatus(ProviderOpenAI, creds.Model, apiErr.StatusCode, apiErr.Message)
		}
		o.logger.Warn("chat completion failed", zap.Error(err))
		return "", err
	}

	text := ""
	if len(resp.Choices) > 0 {
		text = strings.TrimSpace(resp.Choices[0].Message.Content)
	}
	if text == "" {
		return "", newError(KindEmptyResponse, ProviderOpenAI, creds.Model, "")
	}
	o.logger.Debug("chat completion done", zap.Duration("elapsed", time.Since(start)), zap.Int("response_len", len(text)))
	return text, nil
}
