package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProbeFailureThreshold(t *testing.T) {
	p := newProbe("flaky", time.Second, func(context.Context) error {
		return errors.New("down")
	})

	p.run(context.Background())
	assert.True(t, p.healthy.Load(), "one failure must not flip the probe")
	p.run(context.Background())
	assert.True(t, p.healthy.Load())
	p.run(context.Background())
	assert.False(t, p.healthy.Load(), "three consecutive failures flip the probe")
}

func TestProbeRecovery(t *testing.T) {
	healthy := false
	p := newProbe("db", time.Second, func(context.Context) error {
		if healthy {
			return nil
		}
		return errors.New("down")
	})

	for range 3 {
		p.run(context.Background())
	}
	require.False(t, p.healthy.Load())

	healthy = true
	p.run(context.Background())
	assert.True(t, p.healthy.Load(), "a single success restores health")
}

func TestIsReadyRequiresManualGate(t *testing.T) {
	h := New()
	assert.False(t, h.IsReady())

	h.SetReady(true)
	assert.True(t, h.IsReady())

	h.SetReady(false)
	assert.False(t, h.IsReady())
}

func TestReadyEndpoint(t *testing.T) {
	h := New()
	h.AddReadinessCheck("postgres", time.Second, func(context.Context) error { return nil })

	rec := httptest.NewRecorder()
	h.ReadyEndpoint(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code, "not ready until SetReady")

	h.SetReady(true)
	rec = httptest.NewRecorder()
	h.ReadyEndpoint(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestLiveEndpointReportsFailures(t *testing.T) {
	h := New()
	h.AddLivenessCheck("goroutines", time.Second, func(context.Context) error {
		return errors.New("too many")
	})

	// Drive the probe past its failure threshold.
	h.mu.RLock()
	p := h.live[0]
	h.mu.RUnlock()
	for range 3 {
		p.run(context.Background())
	}

	rec := httptest.NewRecorder()
	h.LiveEndpoint(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "too many")
}

func TestGoroutineCountCheck(t *testing.T) {
	assert.NoError(t, GoroutineCountCheck(1_000_000)(context.Background()))
	assert.Error(t, GoroutineCountCheck(0)(context.Background()))
}
