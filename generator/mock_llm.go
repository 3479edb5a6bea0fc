package generator

import (
	"context"
	"sync"
)

// MockLLM 一个简单的占位实现，便于本地调试和测试，不调用外部模型。
// 它记录每次调用，返回预设的 Reply 或 Err。
type MockLLM struct {
	For   Provider
	Reply string
	Err   error

	mu    sync.Mutex
	calls []MockCall
}

// MockCall is one recorded Complete invocation.
type MockCall struct {
	Prompt Prompt
	Creds  Credentials
}

func (m *MockLLM) Provider() Provider {
	if m.For == "" {
		return ProviderOpenAI
	}
	return m.For
}

func (m *MockLLM) Complete(_ context.Context, prompt Prompt, creds Credentials) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, MockCall{Prompt: prompt, Creds: creds})
	m.mu.Unlock()
	if m.Err != nil {
		return "", m.Err
	}
	return m.Reply, nil
}

// Calls returns a copy of the recorded invocations.
func (m *MockLLM) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockCall(nil), m.calls...)
}
