// Package testutil provides testing utilities for the donation proxy.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"
)

// MockPage defines the behavior of one mock donation page.
type MockPage struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockHCB is a configurable mock of the HCB donation start pages.
// Pages are served under /donations/start/{org_id}.
type MockHCB struct {
	server *httptest.Server
	mu     sync.RWMutex
	pages  map[string]MockPage

	// Tracking
	requestCount      int
	requestsByOrg     map[string]int
	lastRequestHeader http.Header
}

// PathPrefix is the path the mock serves donation pages under.
const PathPrefix = "/donations/start/"

// NewMockHCB creates and starts a new mock HCB server.
func NewMockHCB() *MockHCB {
	mock := &MockHCB{
		pages:         make(map[string]MockPage),
		requestsByOrg: make(map[string]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(mock.serve))
	return mock
}

func (m *MockHCB) serve(w http.ResponseWriter, r *http.Request) {
	orgID := strings.TrimPrefix(r.URL.Path, PathPrefix)

	m.mu.Lock()
	m.requestCount++
	m.requestsByOrg[orgID]++
	m.lastRequestHeader = r.Header.Clone()
	page, exists := m.pages[orgID]
	m.mu.Unlock()

	if !strings.HasPrefix(r.URL.Path, PathPrefix) || !exists {
		http.NotFound(w, r)
		return
	}

	if page.Delay > 0 {
		time.Sleep(page.Delay)
	}

	for key, value := range page.Headers {
		w.Header().Set(key, value)
	}
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
	}

	status := page.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if page.Body != "" {
		w.Write([]byte(page.Body))
	}
}

// URL returns the mock server root URL.
func (m *MockHCB) URL() string {
	return m.server.URL
}

// BaseURL returns the prefix organization ids are appended to.
func (m *MockHCB) BaseURL() string {
	return m.server.URL + strings.TrimSuffix(PathPrefix, "/")
}

// Close shuts down the mock server.
func (m *MockHCB) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockHCB) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount = 0
	m.requestsByOrg = make(map[string]int)
	m.lastRequestHeader = nil
}

// SetPage configures the page served for an organization id.
func (m *MockHCB) SetPage(orgID string, page MockPage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages[orgID] = page
}

// SetDonationPage serves a typical donation page showing raised and goal.
func (m *MockHCB) SetDonationPage(orgID, raised, goal string) {
	m.SetPage(orgID, NewDonationPage(raised, goal))
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockHCB) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestCount
}

// GetRequestCountFor returns the number of requests made for one organization.
func (m *MockHCB) GetRequestCountFor(orgID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestsByOrg[orgID]
}

// LastRequestHeader returns the headers of the most recent request.
func (m *MockHCB) LastRequestHeader() http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastRequestHeader
}

// DonationPageHTML renders a page shaped like the HCB donation start page.
// Empty amounts are left out of the markup.
func DonationPageHTML(raised, goal string) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html><head><title>Donate</title></head><body>\n")
	b.WriteString(`<div class="donation-progress">`)
	if raised != "" {
		fmt.Fprintf(&b, `<strong class="raised">%s</strong> raised`, raised)
	}
	if goal != "" {
		fmt.Fprintf(&b, ` of <span class="goal">%s</span> goal`, goal)
	}
	b.WriteString("</div>\n<form><input name=\"amount\" placeholder=\"Amount\"></form>\n</body></html>\n")
	return b.String()
}

// NewDonationPage creates a 200 OK donation page response.
func NewDonationPage(raised, goal string) MockPage {
	return MockPage{
		StatusCode: http.StatusOK,
		Body:       DonationPageHTML(raised, goal),
	}
}

// NewNotFoundPage creates a 404 response for an unknown organization.
func NewNotFoundPage() MockPage {
	return MockPage{
		StatusCode: http.StatusNotFound,
		Body:       "<html><body>Not Found</body></html>",
	}
}

// NewServerErrorPage creates a 500 Internal Server Error response.
func NewServerErrorPage() MockPage {
	return MockPage{
		StatusCode: http.StatusInternalServerError,
		Body:       "<html><body>We're sorry, but something went wrong.</body></html>",
	}
}

// NewSlowPage creates a donation page delivered after delay.
func NewSlowPage(raised, goal string, delay time.Duration) MockPage {
	page := NewDonationPage(raised, goal)
	page.Delay = delay
	return page
}
