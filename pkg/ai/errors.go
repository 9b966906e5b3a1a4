package ai

import "fmt"

// ErrorCategory classifies provider failures at the client boundary so the
// rest of the code never has to match on vendor error strings.
type ErrorCategory string

const (
	CategoryAuth        ErrorCategory = "auth"
	CategoryRateLimited ErrorCategory = "rate_limited"
	CategoryUnavailable ErrorCategory = "unavailable"
	CategoryOther       ErrorCategory = "other"
)

// ProviderError is a classified failure from a language-model provider.
type ProviderError struct {
	Provider string
	Category ErrorCategory
	Message  string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s api error (%s): %s", e.Provider, e.Category, e.Message)
}

// classifyStatus maps an HTTP status to an error category.
func classifyStatus(status int) ErrorCategory {
	switch {
	case status == 401 || status == 403:
		return CategoryAuth
	case status == 429:
		return CategoryRateLimited
	case status >= 500:
		return CategoryUnavailable
	default:
		return CategoryOther
	}
}
