// Package fetcher retrieves HCB donation pages.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/hcb-donation-proxy/pkg/donation"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for outbound page fetches.
var (
	hcbFetchRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hcb_fetch_requests_total",
		Help: "Total HCB page fetches by response status",
	}, []string{"status"})

	hcbFetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "hcb_fetch_duration_seconds",
		Help:    "HCB page fetch duration in seconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
	})

	hcbFetchErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hcb_fetch_errors_total",
		Help: "Total HCB page fetch failures by class",
	}, []string{"class"})
)

const (
	// DefaultBaseURL is the donation start page prefix; the organization id
	// is appended as the final path segment.
	DefaultBaseURL = "https://hcb.hackclub.com/donations/start"

	// DefaultUserAgent identifies the proxy to HCB.
	DefaultUserAgent = "hcb-scraper/1.0"

	// DefaultTimeout bounds a single page fetch including the body read.
	DefaultTimeout = 15 * time.Second

	// DefaultMaxBodyBytes is the largest page accepted.
	DefaultMaxBodyBytes = 5 << 20
)

// Client fetches donation pages over HTTP.
type Client struct {
	httpClient *http.Client
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL is the URL prefix the organization id is appended to
	BaseURL string

	// UserAgent header sent with every request (REQUIRED)
	UserAgent string

	// Timeout for the whole request, body included
	Timeout time.Duration

	// MaxBodyBytes limits the page size read into memory
	MaxBodyBytes int64
}

// DefaultConfig returns the configuration used against hcb.hackclub.com.
func DefaultConfig() Config {
	return Config{
		BaseURL:      DefaultBaseURL,
		UserAgent:    DefaultUserAgent,
		Timeout:      DefaultTimeout,
		MaxBodyBytes: DefaultMaxBodyBytes,
	}
}

// New creates a new page fetcher.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}

	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("timeout must be > 0 (got %s)", cfg.Timeout)
	}

	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		config: cfg,
		logger: log.With().Str("component", "fetcher").Logger(),
	}, nil
}

// URL returns the donation page URL for an organization id.
func (c *Client) URL(orgID string) string {
	return strings.TrimRight(c.config.BaseURL, "/") + "/" + orgID
}

// Fetch retrieves the donation page of orgID and returns its body as text
// together with the exact URL that was fetched.
//
// Any failure to complete the request or read the whole body is returned as
// a *FetchError. The status code does not matter: a 404 or 500 page with a
// readable body is returned like a 200 page. Invalid organization ids are
// rejected with donation.ErrInvalidOrgID before any request is made.
func (c *Client) Fetch(ctx context.Context, orgID string) (body string, sourceURL string, err error) {
	if err := donation.ValidateOrgID(orgID); err != nil {
		return "", "", err
	}

	sourceURL = c.URL(orgID)

	startTime := time.Now()
	defer func() {
		hcbFetchDuration.Observe(time.Since(startTime).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return "", sourceURL, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "text/html")

	c.logger.Debug().
		Str("org_id", orgID).
		Str("url", sourceURL).
		Msg("Fetching donation page")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		hcbFetchRequestsTotal.WithLabelValues("network_error").Inc()
		return "", sourceURL, c.fail(&FetchError{
			URL:        sourceURL,
			ErrorClass: classifyError(err),
			Err:        err,
		})
	}
	defer resp.Body.Close()

	hcbFetchRequestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	// Error pages are scraped like any other page; the status is only
	// recorded.
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn().
			Str("org_id", orgID).
			Str("url", sourceURL).
			Int("status", resp.StatusCode).
			Msg("Donation page returned non-2xx status")
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.config.MaxBodyBytes+1))
	if err != nil {
		return "", sourceURL, c.fail(&FetchError{
			URL:        sourceURL,
			StatusCode: resp.StatusCode,
			ErrorClass: ErrorClassBody,
			Message:    "read response body",
			Err:        err,
		})
	}
	if int64(len(data)) > c.config.MaxBodyBytes {
		return "", sourceURL, c.fail(&FetchError{
			URL:        sourceURL,
			StatusCode: resp.StatusCode,
			ErrorClass: ErrorClassBody,
			Message:    fmt.Sprintf("body exceeds %d bytes", c.config.MaxBodyBytes),
			Err:        ErrBodyTooLarge,
		})
	}

	c.logger.Debug().
		Str("org_id", orgID).
		Int("status", resp.StatusCode).
		Int("bytes", len(data)).
		Dur("duration", time.Since(startTime)).
		Msg("Fetched donation page")

	return string(data), sourceURL, nil
}

// fail records and logs a fetch error before returning it.
func (c *Client) fail(err *FetchError) error {
	hcbFetchErrorsTotal.WithLabelValues(string(err.ErrorClass)).Inc()

	c.logger.Warn().
		Err(err.Err).
		Str("url", err.URL).
		Int("status", err.StatusCode).
		Str("error_class", string(err.ErrorClass)).
		Msg("Donation page fetch failed")

	return err
}

// classifyError categorizes a transport failure for observability.
func classifyError(err error) ErrorClass {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return ErrorClassTimeout
	}
	return ErrorClassNetwork
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// IsFetchError reports whether err is, or wraps, a *FetchError.
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}
