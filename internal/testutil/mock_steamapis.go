// Package testutil provides testing utilities for the price service.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"
)

// MockResponse defines the behavior for a mock SteamApis item response.
type MockResponse struct {
	StatusCode int
	Body       string
	Delay      time.Duration
}

// MockSteamApis is a configurable mock SteamApis server for testing.
type MockSteamApis struct {
	server *httptest.Server

	mu        sync.RWMutex
	responses map[string][]MockResponse
	fallback  MockResponse

	// Tracking
	requestCount int
	lastAPIKey   string
}

// NewMockSteamApis creates a new mock SteamApis server. Unconfigured
// items answer 404 with a SteamApis-shaped error body.
func NewMockSteamApis() *MockSteamApis {
	mock := &MockSteamApis{
		responses: make(map[string][]MockResponse),
		fallback: MockResponse{
			StatusCode: http.StatusNotFound,
			Body:       `{"error": "Item not found on Steam market"}`,
		},
	}

	mock.server = httptest.NewServer(http.HandlerFunc(mock.handle))
	return mock
}

func (m *MockSteamApis) handle(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.requestCount++
	m.lastAPIKey = r.URL.Query().Get("api_key")
	m.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/market/item/")

	m.mu.Lock()
	resp := m.fallback
	if queued, ok := m.responses[path]; ok && len(queued) > 0 {
		resp = queued[0]
		// The last configured response is sticky.
		if len(queued) > 1 {
			m.responses[path] = queued[1:]
		}
	}
	m.mu.Unlock()

	if resp.Delay > 0 {
		time.Sleep(resp.Delay)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	fmt.Fprint(w, resp.Body)
}

// SetItemResponse configures the responses for one item, served in
// order; the last one repeats for any further requests.
func (m *MockSteamApis) SetItemResponse(appID, marketHashName string, responses ...MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[appID+"/"+marketHashName] = responses
}

// SetFallbackResponse configures the response for unconfigured items.
func (m *MockSteamApis) SetFallbackResponse(resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallback = resp
}

// RequestCount returns how many requests the mock has served.
func (m *MockSteamApis) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestCount
}

// LastAPIKey returns the api_key query parameter of the last request.
func (m *MockSteamApis) LastAPIKey() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastAPIKey
}

// ResetCounters clears the request tracking.
func (m *MockSteamApis) ResetCounters() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount = 0
	m.lastAPIKey = ""
}

// URL returns the mock server's base URL.
func (m *MockSteamApis) URL() string {
	return m.server.URL
}

// Close shuts the mock server down.
func (m *MockSteamApis) Close() {
	m.server.Close()
}
