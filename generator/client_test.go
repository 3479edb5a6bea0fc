package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	srv   *httptest.Server
	calls atomic.Int32
	last  atomic.Value // map[string]any request body
	path  atomic.Value // string
	auth  atomic.Value // string
}

func newFakeProvider(t *testing.T, status int, body string) *fakeProvider {
	t.Helper()
	fp := &fakeProvider{}
	fp.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fp.calls.Add(1)
		fp.path.Store(r.URL.Path)
		if v := r.Header.Get("Authorization"); v != "" {
			fp.auth.Store(v)
		} else {
			fp.auth.Store(r.Header.Get("x-goog-api-key"))
		}
		raw, _ := io.ReadAll(r.Body)
		var decoded map[string]any
		_ = json.Unmarshal(raw, &decoded)
		fp.last.Store(decoded)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(fp.srv.Close)
	return fp
}

func (fp *fakeProvider) client() *Client {
	return NewDefaultClient(
		LLMSettings{BaseURL: fp.srv.URL + "/v1/"},
		LLMSettings{BaseURL: fp.srv.URL + "/"},
	)
}

func openAIChoice(content string) string {
	b, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1,
		"model":   "m",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
	})
	return string(b)
}

func openAIErrorBody(msg string) string {
	return fmt.Sprintf(`{"error":{"message":%q,"type":"invalid_request_error","param":"","code":"x"}}`, msg)
}

func geminiErrorBody(code int, msg string) string {
	return fmt.Sprintf(`{"error":{"code":%d,"message":%q,"status":"FAILED"}}`, code, msg)
}

func TestGenerateOpenAIRoundTrip(t *testing.T) {
	reply := "Totally agree — remote work needs trust, not surveillance."
	fp := newFakeProvider(t, http.StatusOK, openAIChoice("  "+reply+"\n"))

	res := fp.client().Generate(context.Background(),
		Request{SourceText: "Great insight on remote work.", Style: StyleShort, Tone: ToneDefault},
		Credentials{Provider: ProviderOpenAI, APIKey: "k", Model: "m"})

	require.True(t, res.OK(), res.Message())
	assert.Equal(t, reply, res.Text)
	assert.Nil(t, res.Err)
	assert.Equal(t, int32(1), fp.calls.Load())
	assert.Equal(t, "/v1/chat/completions", fp.path.Load())
	assert.Equal(t, "Bearer k", fp.auth.Load())

	body := fp.last.Load().(map[string]any)
	assert.Equal(t, "m", body["model"])
	assert.EqualValues(t, 0.8, body["temperature"])
	assert.EqualValues(t, 180, body["max_tokens"])
	msgs := body["messages"].([]any)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	user := msgs[1].(map[string]any)
	assert.Equal(t, "user", user["role"])
	assert.Contains(t, user["content"], `"""Great insight on remote work."""`)
}

func TestGenerateGeminiJoinsParts(t *testing.T) {
	fp := newFakeProvider(t, http.StatusOK,
		`{"candidates":[{"content":{"role":"model","parts":[{"text":"Love this"},{"text":"perspective! "}]},"finishReason":"STOP"}]}`)

	res := fp.client().Generate(context.Background(),
		Request{SourceText: "Shipping beats perfect.", Style: StyleLong},
		Credentials{Provider: ProviderGemini, APIKey: "gk"})

	require.True(t, res.OK(), res.Message())
	assert.Equal(t, "Love this perspective!", res.Text)
	assert.Equal(t, "/v1beta/models/"+DefaultGeminiModel+":generateContent", fp.path.Load())
	assert.Equal(t, "gk", fp.auth.Load())

	body := fp.last.Load().(map[string]any)
	contents := body["contents"].([]any)
	require.Len(t, contents, 1)
	parts := contents[0].(map[string]any)["parts"].([]any)
	require.Len(t, parts, 1)
	assert.Contains(t, parts[0].(map[string]any)["text"], `"""Shipping beats perfect."""`)
}

func TestGenerateStatusMapping(t *testing.T) {
	cases := []struct {
		status int
		want   Kind
	}{
		{http.StatusUnauthorized, KindInvalidCredential},
		{http.StatusForbidden, KindInvalidCredential},
		{http.StatusNotFound, KindModelNotFound},
		{http.StatusTooManyRequests, KindRateLimited},
		{http.StatusBadRequest, KindProvider},
	}
	for _, provider := range []Provider{ProviderOpenAI, ProviderGemini} {
		for _, tc := range cases {
			t.Run(fmt.Sprintf("%s/%d", provider, tc.status), func(t *testing.T) {
				body := openAIErrorBody("upstream says no")
				if provider == ProviderGemini {
					body = geminiErrorBody(tc.status, "upstream says no")
				}
				fp := newFakeProvider(t, tc.status, body)

				res := fp.client().Generate(context.Background(),
					Request{SourceText: "post", Style: StyleShort},
					Credentials{Provider: provider, APIKey: "k", Model: "my-model"})

				require.False(t, res.OK())
				assert.Empty(t, res.Text)
				assert.Equal(t, tc.want, res.Err.Kind)
				assert.Equal(t, int32(1), fp.calls.Load(), "exactly one attempt")
				switch tc.want {
				case KindModelNotFound:
					assert.Contains(t, res.Message(), `"my-model"`)
				case KindInvalidCredential:
					assert.Contains(t, res.Message(), provider.DisplayName())
				case KindProvider:
					assert.Equal(t, provider.DisplayName()+" API error: upstream says no", res.Message())
				}
			})
		}
	}
}

func TestGenerateEmptyResponse(t *testing.T) {
	t.Run("openai", func(t *testing.T) {
		fp := newFakeProvider(t, http.StatusOK, openAIChoice(" \n\t "))
		res := fp.client().Generate(context.Background(), Request{SourceText: "p"}, Credentials{APIKey: "k"})
		require.NotNil(t, res.Err)
		assert.Equal(t, KindEmptyResponse, res.Err.Kind)
		assert.Equal(t, "OpenAI returned an empty response. Please try again.", res.Message())
	})
	t.Run("openai no choices", func(t *testing.T) {
		fp := newFakeProvider(t, http.StatusOK, `{"id":"x","object":"chat.completion","created":1,"model":"m","choices":[]}`)
		res := fp.client().Generate(context.Background(), Request{SourceText: "p"}, Credentials{APIKey: "k"})
		require.NotNil(t, res.Err)
		assert.Equal(t, KindEmptyResponse, res.Err.Kind)
	})
	t.Run("gemini", func(t *testing.T) {
		fp := newFakeProvider(t, http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":"  "}]}}]}`)
		res := fp.client().Generate(context.Background(), Request{SourceText: "p"}, Credentials{Provider: ProviderGemini, APIKey: "k"})
		require.NotNil(t, res.Err)
		assert.Equal(t, KindEmptyResponse, res.Err.Kind)
	})
	t.Run("gemini no candidates", func(t *testing.T) {
		fp := newFakeProvider(t, http.StatusOK, `{"candidates":[]}`)
		res := fp.client().Generate(context.Background(), Request{SourceText: "p"}, Credentials{Provider: ProviderGemini, APIKey: "k"})
		require.NotNil(t, res.Err)
		assert.Equal(t, KindEmptyResponse, res.Err.Kind)
		assert.Equal(t, "Gemini returned no candidates. Please try again.", res.Message())
	})
}

func TestGenerateGeminiSafety(t *testing.T) {
	t.Run("prompt blocked", func(t *testing.T) {
		fp := newFakeProvider(t, http.StatusOK, `{"promptFeedback":{"blockReason":"SAFETY"}}`)
		res := fp.client().Generate(context.Background(), Request{SourceText: "p"}, Credentials{Provider: ProviderGemini, APIKey: "k"})
		require.NotNil(t, res.Err)
		assert.Equal(t, KindSafetyBlocked, res.Err.Kind)
		assert.Equal(t, "Content blocked by Gemini safety filters: SAFETY", res.Message())
	})
	t.Run("candidate blocked", func(t *testing.T) {
		fp := newFakeProvider(t, http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":"partial"}]},"finishReason":"SAFETY"}]}`)
		res := fp.client().Generate(context.Background(), Request{SourceText: "p"}, Credentials{Provider: ProviderGemini, APIKey: "k"})
		require.NotNil(t, res.Err)
		assert.Equal(t, KindSafetyBlocked, res.Err.Kind)
		assert.Empty(t, res.Text)
	})
}

func TestGenerateMissingKeyMakesNoCall(t *testing.T) {
	for _, provider := range []Provider{ProviderOpenAI, ProviderGemini} {
		fp := newFakeProvider(t, http.StatusOK, openAIChoice("unused"))
		res := fp.client().Generate(context.Background(), Request{SourceText: "p"}, Credentials{Provider: provider, APIKey: "  "})
		require.NotNil(t, res.Err)
		assert.Equal(t, KindMissingCredential, res.Err.Kind)
		assert.Equal(t, int32(0), fp.calls.Load())
	}
}

func TestAdapterMissingKey(t *testing.T) {
	_, err := NewOpenAILLM(LLMSettings{}, nil).Complete(context.Background(), Prompt{}, Credentials{})
	var ge *Error
	require.True(t, errors.As(err, &ge))
	assert.Equal(t, KindMissingCredential, ge.Kind)
	assert.Equal(t, "Missing OpenAI API key. Please set your API key in the settings.", ge.Error())

	_, err = NewGeminiLLM(LLMSettings{}, nil).Complete(context.Background(), Prompt{}, Credentials{})
	require.True(t, errors.As(err, &ge))
	assert.Equal(t, KindMissingCredential, ge.Kind)
}

func TestGenerateConnectivity(t *testing.T) {
	for _, provider := range []Provider{ProviderOpenAI, ProviderGemini} {
		fp := newFakeProvider(t, http.StatusOK, "")
		c := fp.client()
		fp.srv.Close()

		res := c.Generate(context.Background(), Request{SourceText: "p"}, Credentials{Provider: provider, APIKey: "k"})
		require.NotNil(t, res.Err)
		assert.Equal(t, KindConnectivity, res.Err.Kind)
		assert.Equal(t, "Failed to connect to "+provider.DisplayName()+". Please check your internet connection and try again.", res.Message())
	}
}

func TestGenerateMalformedBodyIsConnectivity(t *testing.T) {
	fp := newFakeProvider(t, http.StatusOK, `{not json`)
	res := fp.client().Generate(context.Background(), Request{SourceText: "p"}, Credentials{Provider: ProviderGemini, APIKey: "k"})
	require.NotNil(t, res.Err)
	assert.Equal(t, KindConnectivity, res.Err.Kind)
}

func TestNormalizeDoesNotDoubleWrap(t *testing.T) {
	classified := newError(KindRateLimited, ProviderOpenAI, "m", "")
	mock := &MockLLM{Err: fmt.Errorf("adapter: %w", classified)}
	c, err := NewClient([]LLMClient{mock})
	require.NoError(t, err)

	res := c.Generate(context.Background(), Request{SourceText: "p"}, Credentials{APIKey: "k"})
	require.NotNil(t, res.Err)
	assert.Same(t, classified, res.Err)

	mock.Err = errors.New("dial tcp: connection refused")
	res = c.Generate(context.Background(), Request{SourceText: "p"}, Credentials{APIKey: "k"})
	assert.Equal(t, KindConnectivity, res.Err.Kind)
}

func TestGenerateUsesConfiguredProviderOnly(t *testing.T) {
	openaiMock := &MockLLM{For: ProviderOpenAI, Reply: "from openai"}
	geminiMock := &MockLLM{For: ProviderGemini, Reply: "from gemini"}
	c, err := NewClient([]LLMClient{openaiMock, geminiMock})
	require.NoError(t, err)

	res := c.Generate(context.Background(), Request{SourceText: "p", Style: StyleShort}, Credentials{Provider: ProviderGemini, APIKey: "k"})
	assert.Equal(t, "from gemini", res.Text)
	assert.Len(t, geminiMock.Calls(), 1)
	assert.Empty(t, openaiMock.Calls())
	assert.Equal(t, DefaultGeminiModel, geminiMock.Calls()[0].Creds.Model)
}

type recordingObserver struct{ outcomes []string }

func (r *recordingObserver) ObserveGeneration(_ Provider, outcome string, _ time.Duration) {
	r.outcomes = append(r.outcomes, outcome)
}

func TestGenerateReportsOutcome(t *testing.T) {
	obs := &recordingObserver{}
	c, err := NewClient([]LLMClient{&MockLLM{Reply: "fine"}}, WithObserver(obs))
	require.NoError(t, err)

	c.Generate(context.Background(), Request{SourceText: "p"}, Credentials{APIKey: "k"})
	c.Generate(context.Background(), Request{SourceText: "p"}, Credentials{})
	assert.Equal(t, []string{"ok", string(KindMissingCredential)}, obs.outcomes)
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient(nil)
	assert.Error(t, err)
	_, err = NewClient([]LLMClient{nil})
	assert.Error(t, err)
}
