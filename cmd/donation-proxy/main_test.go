package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/Sternrassler/hcb-donation-proxy/internal/testutil"
	"github.com/Sternrassler/hcb-donation-proxy/pkg/config"
	"github.com/Sternrassler/hcb-donation-proxy/pkg/donation"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	root := newRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append([]string{"--env-file", filepath.Join(t.TempDir(), "none.env")}, args...))

	err := root.Execute()
	return stdout.String(), err
}

func TestSnapshotCommand(t *testing.T) {
	mock := testutil.NewMockHCB()
	defer mock.Close()
	mock.SetDonationPage("hq", "$2,500.50", "$10,000")

	t.Setenv("HCB_BASE_URL", mock.BaseURL())
	t.Setenv("USER_AGENT", "snapshot-test/1.0")

	out, err := runCLI(t, "snapshot", "hq")
	require.NoError(t, err)

	var snap donation.Snapshot
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	assert.Equal(t, "$2,500.50", snap.RaisedText)
	assert.Equal(t, "$10,000", snap.GoalText)
	assert.Equal(t, 2500.50, snap.Raised)
	assert.Equal(t, 10000.0, snap.Goal)
	assert.InDelta(t, 25.005, snap.ProgressPercent, 1e-9)
	assert.Equal(t, mock.BaseURL()+"/hq", snap.SourceURL)

	_, err = time.Parse(time.RFC3339, snap.FetchedAt)
	assert.NoError(t, err)
	assert.Equal(t, "snapshot-test/1.0", mock.LastRequestHeader().Get("User-Agent"))
}

func TestSnapshotCommand_FetchError(t *testing.T) {
	mock := testutil.NewMockHCB()
	baseURL := mock.BaseURL()
	mock.Close()

	t.Setenv("HCB_BASE_URL", baseURL)

	out, err := runCLI(t, "snapshot", "unknown-org")
	assert.Error(t, err)
	assert.Empty(t, out)
}

func TestSnapshotCommand_InvalidOrgID(t *testing.T) {
	mock := testutil.NewMockHCB()
	defer mock.Close()

	t.Setenv("HCB_BASE_URL", mock.BaseURL())

	_, err := runCLI(t, "snapshot", "../admin")
	assert.ErrorIs(t, err, donation.ErrInvalidOrgID)
	assert.Zero(t, mock.GetRequestCount())
}

func TestSnapshotCommand_RequiresOrgID(t *testing.T) {
	_, err := runCLI(t, "snapshot")
	assert.Error(t, err)
}

func TestRootCommand_InvalidConfig(t *testing.T) {
	t.Setenv("CACHE_TTL", "never")

	_, err := runCLI(t, "snapshot", "hq")
	assert.Error(t, err)
}

// startServer runs a server on a random local port until the test ends.
func startServer(t *testing.T, env map[string]string) string {
	t.Helper()

	cfg, err := config.FromLookup(func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	})
	require.NoError(t, err)

	srv, err := newServer(cfg, zerolog.Nop())
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Serve(ctx, ln)
	}()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("server did not shut down")
		}
	})

	return "http://" + ln.Addr().String()
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()

	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestServer_EndToEnd(t *testing.T) {
	mock := testutil.NewMockHCB()
	defer mock.Close()
	mock.SetDonationPage("hq", "$750", "$1,000")
	mock.SetDonationPage("club", "$5", "$50")

	base := startServer(t, map[string]string{
		"HCB_BASE_URL": mock.BaseURL(),
		"WARM_ORGS":    "hq",
	})

	status, body := get(t, base+"/health")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "OK", body)

	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/ready")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 10*time.Millisecond)

	// Warmed at startup, served from cache
	status, body = get(t, base+"/donations/hq")
	require.Equal(t, http.StatusOK, status)
	var snap donation.Snapshot
	require.NoError(t, json.Unmarshal([]byte(body), &snap))
	assert.Equal(t, 75.0, snap.ProgressPercent)
	assert.Equal(t, 1, mock.GetRequestCountFor("hq"))

	status, _ = get(t, base+"/donations/club")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, mock.GetRequestCountFor("club"))

	// Unknown organizations get HCB's 404 page, which holds no amounts
	status, body = get(t, base+"/donations/missing")
	require.Equal(t, http.StatusOK, status)
	var missing donation.Snapshot
	require.NoError(t, json.Unmarshal([]byte(body), &missing))
	assert.Equal(t, "$0", missing.RaisedText)
	assert.Equal(t, "$0", missing.GoalText)
	assert.Zero(t, missing.ProgressPercent)

	status, body = get(t, base+"/metrics")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "hcb_snapshot_cache_hits_total")
}

func TestServer_RateLimit(t *testing.T) {
	mock := testutil.NewMockHCB()
	defer mock.Close()
	mock.SetDonationPage("hq", "$1", "$2")

	base := startServer(t, map[string]string{
		"HCB_BASE_URL":     mock.BaseURL(),
		"RATE_LIMIT_RPS":   "0.01",
		"RATE_LIMIT_BURST": "1",
	})

	status, _ := get(t, base+"/donations/hq")
	assert.Equal(t, http.StatusOK, status)

	status, _ = get(t, base+"/donations/hq")
	assert.Equal(t, http.StatusTooManyRequests, status)

	status, _ = get(t, base+"/health")
	assert.Equal(t, http.StatusOK, status)
}
