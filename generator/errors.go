package generator

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies a generation failure.
type Kind string

const (
	KindMissingCredential Kind = "missing-credential"
	KindInvalidCredential Kind = "invalid-credential"
	KindRateLimited       Kind = "rate-limited"
	KindModelNotFound     Kind = "model-not-found"
	KindSafetyBlocked     Kind = "safety-blocked"
	KindEmptyResponse     Kind = "empty-response"
	KindProvider          Kind = "generic-provider-error"
	KindConnectivity      Kind = "connectivity-error"
)

// Error is a classified, user-presentable generation failure.
// Error() is the exact string shown to the user.
type Error struct {
	Kind     Kind
	Provider Provider
	Model    string
	// Detail carries the provider message (generic) or block reason (safety).
	Detail string
	msg    string
}

func (e *Error) Error() string {
	if e.msg != "" {
		return e.msg
	}
	name := e.Provider.DisplayName()
	switch e.Kind {
	case KindMissingCredential:
		return fmt.Sprintf("Missing %s API key. Please set your API key in the settings.", name)
	case KindInvalidCredential:
		return fmt.Sprintf("Invalid %s API key. Please check your API key in the settings.", name)
	case KindRateLimited:
		return fmt.Sprintf("%s API rate limit exceeded. Please try again later.", name)
	case KindModelNotFound:
		return fmt.Sprintf("Model %q not found. Please check your model name in the settings.", e.Model)
	case KindSafetyBlocked:
		if e.Detail != "" {
			return fmt.Sprintf("Content blocked by %s safety filters: %s", name, e.Detail)
		}
		return fmt.Sprintf("%s blocked the generated comment due to safety concerns. Please try with a different post.", name)
	case KindEmptyResponse:
		return fmt.Sprintf("%s returned an empty response. Please try again.", name)
	case KindProvider:
		return fmt.Sprintf("%s API error: %s", name, e.Detail)
	default:
		return fmt.Sprintf("Failed to connect to %s. Please check your internet connection and try again.", name)
	}
}

func newError(kind Kind, p Provider, model, detail string) *Error {
	return &Error{Kind: kind, Provider: p, Model: model, Detail: detail}
}

// errNoAPIKey is returned before provider dispatch when no key is stored.
func errNoAPIKey(p Provider) *Error {
	return &Error{Kind: KindMissingCredential, Provider: p, msg: "No API key set. Please configure your API key in the settings."}
}

// classifyStatus maps a non-success HTTP status onto the taxonomy.
// message is the provider's own error text and may be empty.
func classifyStatus(p Provider, model string, status int, message string) *Error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return newError(KindInvalidCredential, p, model, message)
	case http.StatusTooManyRequests:
		return newError(KindRateLimited, p, model, message)
	case http.StatusNotFound:
		return newError(KindModelNotFound, p, model, message)
	}
	if strings.TrimSpace(message) == "" {
		message = fmt.Sprintf("HTTP %d: %s", status, http.StatusText(status))
	}
	return newError(KindProvider, p, model, message)
}

// normalize passes classified errors through and maps everything else
// (transport failures, undecodable bodies) to a connectivity error.
func normalize(err error, p Provider, model string) *Error {
	if err == nil {
		return nil
	}
	var ge *Error
	if errors.As(err, &ge) {
		return ge
	}
	return &Error{Kind: KindConnectivity, Provider: p, Model: model, Detail: err.Error()}
}
