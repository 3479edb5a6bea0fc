package generator

import (
	"context"
	"net/http"
)

// LLMClient 抽象大模型客户端，便于替换/Mock。
// 实现只负责请求构造与响应解析，错误分类交给 errors.go。
type LLMClient interface {
	Provider() Provider
	Complete(ctx context.Context, prompt Prompt, creds Credentials) (string, error)
}

// LLMSettings 提供给具体实现的基础配置。
type LLMSettings struct {
	// BaseURL overrides the provider endpoint (gateways, tests).
	BaseURL string
	// HTTPClient is optional; nil uses the SDK default transport.
	HTTPClient *http.Client
}
