package modeladapter

import (
	"net/http"
	"strconv"
	"time"
)

// RateLimitInfo is the quota snapshot a provider reports in response headers.
// It is informational only; nothing in this module throttles on it.
type RateLimitInfo struct {
	RemainingRequests int
	RemainingTokens   int
	RequestsReset     time.Time
	TokensReset       time.Time
}

// RateLimitHeaders names the four headers a provider uses to report quota.
type RateLimitHeaders struct {
	RemainingRequests string
	RemainingTokens   string
	RequestsReset     string
	TokensReset       string
}

var (
	// OpenAIRateLimitHeaders is the x-ratelimit-* convention, shared by Groq.
	OpenAIRateLimitHeaders = RateLimitHeaders{
		RemainingRequests: "x-ratelimit-remaining-requests",
		RemainingTokens:   "x-ratelimit-remaining-tokens",
		RequestsReset:     "x-ratelimit-reset-requests",
		TokensReset:       "x-ratelimit-reset-tokens",
	}

	// AnthropicRateLimitHeaders is the anthropic-ratelimit-* convention.
	AnthropicRateLimitHeaders = RateLimitHeaders{
		RemainingRequests: "anthropic-ratelimit-requests-remaining",
		RemainingTokens:   "anthropic-ratelimit-tokens-remaining",
		RequestsReset:     "anthropic-ratelimit-requests-reset",
		TokensReset:       "anthropic-ratelimit-tokens-reset",
	}
)

// Parse reads the snapshot from h. Reset values may be RFC 3339 timestamps or
// durations relative to now. The bool is false when neither remaining count
// is present.
func (n RateLimitHeaders) Parse(h http.Header, now time.Time) (RateLimitInfo, bool) {
	reqRemaining := h.Get(n.RemainingRequests)
	tokRemaining := h.Get(n.RemainingTokens)

	if reqRemaining == "" && tokRemaining == "" {
		return RateLimitInfo{}, false
	}

	var info RateLimitInfo
	info.RemainingRequests, _ = strconv.Atoi(reqRemaining)
	info.RemainingTokens, _ = strconv.Atoi(tokRemaining)
	info.RequestsReset = resetAt(h.Get(n.RequestsReset), now)
	info.TokensReset = resetAt(h.Get(n.TokensReset), now)

	return info, true
}

func resetAt(val string, now time.Time) time.Time {
	if val == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, val); err == nil {
		return t
	}
	if d, err := time.ParseDuration(val); err == nil {
		return now.Add(d)
	}
	return time.Time{}
}
