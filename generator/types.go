package generator

import "strings"

// Style 控制评论长度/形式。
type Style string

const (
	StyleShort Style = "short"
	StyleLong  Style = "long"
	// StyleEmoji is the default: anything that is not short or long.
	StyleEmoji Style = "emoji"
)

// ParseStyle maps free-form input onto the three known styles.
func ParseStyle(s string) Style {
	switch Style(strings.ToLower(strings.TrimSpace(s))) {
	case StyleShort:
		return StyleShort
	case StyleLong:
		return StyleLong
	default:
		return StyleEmoji
	}
}

// Tone 目前只随请求传递，不参与提示词生成。
type Tone string

const (
	ToneDefault      Tone = "default"
	ToneProfessional Tone = "professional"
	ToneCasual       Tone = "casual"
	ToneSupportive   Tone = "supportive"
	ToneThoughtful   Tone = "thoughtful"
	ToneEnthusiastic Tone = "enthusiastic"
)

// Tones lists the selectable tones in toolbar order.
var Tones = []Tone{ToneDefault, ToneProfessional, ToneCasual, ToneSupportive, ToneThoughtful, ToneEnthusiastic}

// ParseTone returns ToneDefault for empty or unknown values.
func ParseTone(s string) Tone {
	t := Tone(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Tones {
		if t == known {
			return t
		}
	}
	return ToneDefault
}

// Request 一次评论生成请求。
type Request struct {
	SourceText string
	Style      Style
	Tone       Tone
}

// Provider 标识模型服务商。
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"
)

const (
	DefaultOpenAIModel = "gpt-3.5-turbo"
	DefaultGeminiModel = "gemini-1.5-flash"
)

// ParseProvider falls back to OpenAI like the options page does.
func ParseProvider(s string) Provider {
	if Provider(strings.ToLower(strings.TrimSpace(s))) == ProviderGemini {
		return ProviderGemini
	}
	return ProviderOpenAI
}

// DefaultModel returns the model used when none is configured.
func DefaultModel(p Provider) string {
	if p == ProviderGemini {
		return DefaultGeminiModel
	}
	return DefaultOpenAIModel
}

// DisplayName is the provider name used in user-facing messages.
func (p Provider) DisplayName() string {
	if p == ProviderGemini {
		return "Gemini"
	}
	return "OpenAI"
}

// Credentials 从设置中读取的服务商凭据。
type Credentials struct {
	Provider Provider
	APIKey   string
	Model    string
}

// WithDefaults fills in the provider-specific default model.
func (c Credentials) WithDefaults() Credentials {
	c.Provider = ParseProvider(string(c.Provider))
	c.APIKey = strings.TrimSpace(c.APIKey)
	c.Model = strings.TrimSpace(c.Model)
	if c.Model == "" {
		c.Model = DefaultModel(c.Provider)
	}
	return c
}

// Result 生成结果：Text 与 Err 有且只有一个被填充。
type Result struct {
	Text string
	Err  *Error
}

// OK reports whether the result carries a comment.
func (r Result) OK() bool { return r.Err == nil }

// Message is the string handed to presentation code on failure.
func (r Result) Message() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}
