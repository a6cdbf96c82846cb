package steamapis

import (
	"errors"
	"testing"
)

func TestShouldRetryStatus(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		expected bool
	}{
		{name: "bad request should not retry", status: 400, expected: false},
		{name: "not found should not retry", status: 404, expected: false},
		{name: "forbidden should not retry", status: 403, expected: false},
		{name: "rate limit should retry", status: 429, expected: true},
		{name: "internal error should retry", status: 500, expected: true},
		{name: "bad gateway should retry", status: 502, expected: true},
		{name: "service unavailable should retry", status: 503, expected: true},
		{name: "gateway timeout should retry", status: 504, expected: true},
		{name: "teapot should not retry", status: 418, expected: false},
		{name: "not implemented should not retry", status: 501, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := shouldRetryStatus(tt.status)
			if result != tt.expected {
				t.Errorf("shouldRetryStatus(%d) = %v, want %v", tt.status, result, tt.expected)
			}
		})
	}
}

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		apiError *Error
		expected string
	}{
		{
			name: "error with wrapped error",
			apiError: &Error{
				Kind:       KindNetworkError,
				StatusCode: 500,
				Message:    "Network error calling SteamApis",
				Err:        errors.New("connection refused"),
			},
			expected: "steamapis network_error (status 500): Network error calling SteamApis: connection refused",
		},
		{
			name: "error without wrapped error",
			apiError: &Error{
				Kind:       KindItemNotFound,
				StatusCode: 404,
				Message:    "Item not found on Steam market",
			},
			expected: "steamapis item_not_found (status 404): Item not found on Steam market",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.apiError.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	inner := errors.New("dial tcp: connection reset")
	apiErr := &Error{
		Kind:       KindNetworkError,
		StatusCode: 500,
		Message:    "Network error calling SteamApis",
		Err:        inner,
	}

	if !errors.Is(apiErr, inner) {
		t.Error("errors.Is should find the wrapped error")
	}

	var target *Error
	if !errors.As(error(apiErr), &target) {
		t.Error("errors.As should match *Error")
	}
	if target.Kind != KindNetworkError {
		t.Errorf("Kind = %q, want %q", target.Kind, KindNetworkError)
	}
}
