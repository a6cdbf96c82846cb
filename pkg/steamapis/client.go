// Package steamapis provides the SteamApis market/item HTTP client with
// bounded retries, per-attempt timeouts, and typed error classification.
package steamapis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/steamtools/price-service/pkg/logging"
)

// Prometheus metrics for SteamApis requests.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "steamapis_requests_total",
		Help: "Total SteamApis requests by outcome status",
	}, []string{"status"})

	requestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "steamapis_request_duration_seconds",
		Help:    "SteamApis request duration in seconds, retries included",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "steamapis_errors_total",
		Help: "Total SteamApis errors by kind",
	}, []string{"kind"})
)

// DefaultBaseURL is the production SteamApis endpoint.
const DefaultBaseURL = "https://api.steamapis.com"

// Config holds the client configuration.
type Config struct {
	// BaseURL of the SteamApis service (default: DefaultBaseURL).
	BaseURL string

	// APIKey is the SteamApis API key, sent as the api_key query parameter.
	APIKey string

	// ConnectTimeout bounds connection establishment per attempt.
	ConnectTimeout time.Duration

	// ResponseTimeout bounds the full response per attempt.
	ResponseTimeout time.Duration

	// Retry configures the bounded retry policy.
	Retry RetryConfig
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(apiKey string) Config {
	return Config{
		BaseURL:         DefaultBaseURL,
		APIKey:          apiKey,
		ConnectTimeout:  5 * time.Second,
		ResponseTimeout: 15 * time.Second,
		Retry:           DefaultRetryConfig(),
	}
}

// Client fetches per-item market data from SteamApis.
type Client struct {
	httpClient *http.Client
	config     Config
	logger     zerolog.Logger
}

// New creates a new SteamApis client.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 5 * time.Second
	}
	if cfg.ResponseTimeout <= 0 {
		cfg.ResponseTimeout = 15 * time.Second
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = DefaultRetryConfig()
	}

	return &Client{
		httpClient: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: cfg.ConnectTimeout,
				}).DialContext,
			},
		},
		config: cfg,
		logger: logging.NewLogger("steamapis-client"),
	}, nil
}

// Fetch performs a GET against /market/item/{app_id}/{market_hash_name}
// and returns the decoded payload. Network failures and the statuses
// 429/500/502/503/504 are retried up to the configured attempt bound;
// everything else fails immediately with a typed *Error.
func (c *Client) Fetch(ctx context.Context, appID, marketHashName string) (*ItemResponse, error) {
	fetchURL := fmt.Sprintf("%s/market/item/%s/%s?api_key=%s",
		strings.TrimRight(c.config.BaseURL, "/"),
		url.PathEscape(appID),
		url.PathEscape(marketHashName),
		url.QueryEscape(c.config.APIKey))

	startTime := time.Now()
	defer func() {
		requestDuration.Observe(time.Since(startTime).Seconds())
	}()

	var result *ItemResponse

	retryErr := retryWithBackoff(ctx, c.logger, c.config.Retry, func() (bool, error) {
		return c.attempt(ctx, fetchURL, appID, marketHashName, &result)
	})
	if retryErr != nil {
		var apiErr *Error
		if errors.As(retryErr, &apiErr) {
			errorsTotal.WithLabelValues(string(apiErr.Kind)).Inc()
		}
		return nil, retryErr
	}

	return result, nil
}

// attempt performs one request and classifies its outcome.
func (c *Client) attempt(ctx context.Context, fetchURL, appID, marketHashName string, result **ItemResponse) (bool, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.config.ResponseTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, fetchURL, nil)
	if err != nil {
		return false, &Error{
			Kind:       KindNetworkError,
			StatusCode: http.StatusInternalServerError,
			Message:    "Network error calling SteamApis",
			Err:        err,
		}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().
			Err(err).
			Str("app_id", appID).
			Str("market_hash_name", marketHashName).
			Msg("SteamApis request failed")
		return true, c.classifyTransportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return true, c.classifyTransportError(err)
	}

	requestsTotal.WithLabelValues(fmt.Sprintf("%d", resp.StatusCode)).Inc()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		decoded, decodeErr := decodeItemResponse(body)
		if decodeErr != nil {
			c.logger.Error().
				Err(decodeErr).
				Str("app_id", appID).
				Str("market_hash_name", marketHashName).
				Msg("JSON decode error")
			return false, &Error{
				Kind:       KindInvalidResponse,
				StatusCode: http.StatusInternalServerError,
				Message:    "Invalid JSON response from SteamApis",
				Err:        decodeErr,
			}
		}
		*result = decoded
		return false, nil
	}

	statusErr := c.buildStatusError(resp.StatusCode, body)
	c.logger.Warn().
		Str("app_id", appID).
		Str("market_hash_name", marketHashName).
		Int("status_code", resp.StatusCode).
		Str("error_kind", string(statusErr.Kind)).
		Msg("SteamApis request error")

	return shouldRetryStatus(resp.StatusCode), statusErr
}

// classifyTransportError maps transport failures to request_timeout or
// network_error.
func (c *Client) classifyTransportError(err error) *Error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &Error{
			Kind:       KindRequestTimeout,
			StatusCode: http.StatusGatewayTimeout,
			Message:    "SteamApis request timeout",
			Err:        err,
		}
	}
	return &Error{
		Kind:       KindNetworkError,
		StatusCode: http.StatusInternalServerError,
		Message:    "Network error calling SteamApis",
		Err:        err,
	}
}

// buildStatusError maps a non-2xx upstream response to a typed error,
// parsing the body as structured error data when possible.
func (c *Client) buildStatusError(status int, body []byte) *Error {
	parsed, raw := parseErrorBody(body)

	details := &Details{UpstreamResponse: raw}

	switch status {
	case http.StatusBadRequest:
		return &Error{
			Kind:       KindItemNotFound,
			StatusCode: status,
			Message:    messageOr(parsed, "No matching item found with these parameters"),
			Details:    details,
		}
	case http.StatusNotFound:
		return &Error{
			Kind:       KindItemNotFound,
			StatusCode: status,
			Message:    messageOr(parsed, "Item not found on Steam market"),
			Details:    details,
		}
	case http.StatusTooManyRequests:
		if parsed != nil {
			details.Type = parsed.Type
			details.Requests = parsed.Requests
		}
		return &Error{
			Kind:       KindRateLimitExceeded,
			StatusCode: status,
			Message:    messageOr(parsed, "Rate limit exceeded"),
			Details:    details,
		}
	default:
		return &Error{
			Kind:       KindUpstreamError,
			StatusCode: status,
			Message:    messageOr(parsed, fmt.Sprintf("SteamApis HTTP error: %d", status)),
			Details:    details,
		}
	}
}

// parseErrorBody parses an upstream error body. When the body is not
// valid JSON, the raw text is wrapped so detail payloads stay JSON.
func parseErrorBody(body []byte) (*upstreamError, json.RawMessage) {
	var parsed upstreamError
	if err := json.Unmarshal(body, &parsed); err == nil {
		return &parsed, json.RawMessage(body)
	}

	text := strings.TrimSpace(string(body))
	if text == "" {
		text = "Unknown error"
	}
	wrapped, _ := json.Marshal(map[string]string{"error": text})
	return nil, json.RawMessage(wrapped)
}

func messageOr(parsed *upstreamError, fallback string) string {
	if parsed != nil && parsed.Error != "" {
		return parsed.Error
	}
	return fallback
}

// decodeItemResponse decodes a success body. UseNumber keeps the
// histogram prices as their literal JSON digits.
func decodeItemResponse(body []byte) (*ItemResponse, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var resp ItemResponse
	if err := dec.Decode(&resp); err != nil {
		return nil, err
	}
	resp.Raw = json.RawMessage(body)
	return &resp, nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
