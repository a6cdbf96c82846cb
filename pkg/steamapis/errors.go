package steamapis

import (
	"encoding/json"
	"fmt"
)

// Kind classifies a SteamApis failure. Each kind maps to exactly one
// row of the error contract exposed by the HTTP entry point.
type Kind string

const (
	// KindRequestTimeout: connect or read timeout exhausted all retries.
	KindRequestTimeout Kind = "request_timeout"

	// KindItemNotFound: upstream answered 400 or 404 for the item.
	KindItemNotFound Kind = "item_not_found"

	// KindRateLimitExceeded: upstream answered 429 after retries.
	KindRateLimitExceeded Kind = "rate_limit_exceeded"

	// KindUpstreamError: any other non-2xx upstream status.
	KindUpstreamError Kind = "steamapis_error"

	// KindNetworkError: transport-level failure (DNS, connection reset, ...).
	KindNetworkError Kind = "network_error"

	// KindInvalidResponse: upstream body is not valid JSON.
	KindInvalidResponse Kind = "invalid_response"

	// KindMissingMarketData: required price fields absent from the payload.
	KindMissingMarketData Kind = "missing_market_data"
)

// Details carries structured error context parsed from the upstream
// response. Fields are only set when the upstream actually sent them.
type Details struct {
	// Type is the upstream's error type string (seen on 429 responses).
	Type string `json:"type,omitempty"`

	// Requests is the upstream's quota usage object (seen on 429 responses).
	Requests json.RawMessage `json:"requests,omitempty"`

	// UpstreamResponse is the raw upstream body, as JSON when it parsed,
	// otherwise wrapped as {"error": <raw text>}.
	UpstreamResponse json.RawMessage `json:"steamapis_response,omitempty"`
}

// Error is a typed SteamApis failure with an HTTP status to surface
// and optional structured details.
type Error struct {
	Kind       Kind
	StatusCode int
	Message    string
	Details    *Details
	Err        error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("steamapis %s (status %d): %s: %v",
			e.Kind, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("steamapis %s (status %d): %s",
		e.Kind, e.StatusCode, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// retryableStatuses are the upstream statuses worth another attempt:
// rate limiting and transient server-side failures.
var retryableStatuses = map[int]bool{
	429: true,
	500: true,
	502: true,
	503: true,
	504: true,
}

// shouldRetryStatus reports whether an upstream HTTP status is retryable.
// Client errors (400, 404, ...) fail immediately.
func shouldRetryStatus(status int) bool {
	return retryableStatuses[status]
}
