package generator

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// Observer receives one callback per finished Generate call.
type Observer interface {
	ObserveGeneration(provider Provider, outcome string, elapsed time.Duration)
}

// Client 根据凭据选择服务商，生成并归一化结果。
type Client struct {
	llms     map[Provider]LLMClient
	logger   *zap.Logger
	observer Observer
}

type ClientOption func(*Client)

// WithLogger sets the client logger.
func WithLogger(l *zap.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithObserver records outcomes (metrics).
func WithObserver(o Observer) ClientOption {
	return func(c *Client) { c.observer = o }
}

func NewClient(llms []LLMClient, opts ...ClientOption) (*Client, error) {
	if len(llms) == 0 {
		return nil, errors.New("at least one llm client is required")
	}
	c := &Client{llms: make(map[Provider]LLMClient, len(llms)), logger: zap.NewNop()}
	for _, l := range llms {
		if l == nil {
			return nil, errors.New("llm client is nil")
		}
		c.llms[l.Provider()] = l
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NewDefaultClient wires the OpenAI and Gemini adapters.
func NewDefaultClient(openaiSettings, geminiSettings LLMSettings, opts ...ClientOption) *Client {
	c := &Client{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	c.llms = map[Provider]LLMClient{
		ProviderOpenAI: NewOpenAILLM(openaiSettings, c.logger),
		ProviderGemini: NewGeminiLLM(geminiSettings, c.logger),
	}
	return c
}

// Generate 发起一次生成请求；任何失败都被归入错误分类，不会重试。
func (c *Client) Generate(ctx context.Context, req Request, creds Credentials) Result {
	creds = creds.WithDefaults()
	start := time.Now()
	res := c.generate(ctx, req, creds)

	outcome := "ok"
	if res.Err != nil {
		outcome = string(res.Err.Kind)
		c.logger.Info("comment generation failed",
			zap.String("provider", string(creds.Provider)),
			zap.String("model", creds.Model),
			zap.String("kind", outcome),
			zap.String("detail", res.Err.Detail))
	} else {
		c.logger.Info("comment generated",
			zap.String("provider", string(creds.Provider)),
			zap.String("model", creds.Model),
			zap.String("style", string(req.Style)),
			zap.Int("len", len(res.Text)))
	}
	if c.observer != nil {
		c.observer.ObserveGeneration(creds.Provider, outcome, time.Since(start))
	}
	return res
}

func (c *Client) generate(ctx context.Context, req Request, creds Credentials) Result {
	if creds.APIKey == "" {
		return Result{Err: errNoAPIKey(creds.Provider)}
	}
	llm, ok := c.llms[creds.Provider]
	if !ok {
		return Result{Err: &Error{Kind: KindProvider, Provider: creds.Provider, Model: creds.Model,
			Detail: "provider not configured"}}
	}

	prompt := BuildPrompt(req)
	raw, err := llm.Complete(ctx, prompt, creds)
	if err != nil {
		return Result{Err: normalize(err, creds.Provider, creds.Model)}
	}
	text := PostProcess(raw)
	if text == "" {
		return Result{Err: newError(KindEmptyResponse, creds.Provider, creds.Model, "")}
	}
	return Result{Text: text}
}
