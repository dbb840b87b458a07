package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mhpenta/showdown"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	// Each instance owns its registry, so constructing twice must not panic.
	m := New()
	_ = New()

	assert.NotNil(t, m.HTTPRequestsTotal)
	assert.NotNil(t, m.ComparisonsTotal)
	assert.NotNil(t, m.ProviderResults)
}

func TestObserveComparison(t *testing.T) {
	m := New()

	m.ObserveComparison([]showdown.ProviderResult{
		showdown.SuccessResult("sd", "u1"),
		showdown.FailureResult("mj", "boom"),
	}, nil, time.Second)
	m.ObserveComparison(nil, &showdown.ValidationError{Err: showdown.ErrTooFewProviders}, 0)
	m.ObserveComparison(nil, errors.New("backend down"), time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ComparisonsTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ComparisonsTotal.WithLabelValues("invalid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ComparisonsTotal.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProviderResults.WithLabelValues("sd", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProviderResults.WithLabelValues("mj", "error")))
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveHTTP(http.MethodPost, "/api/compare", http.StatusOK, 10*time.Millisecond)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `http_requests_total{method="POST",path="/api/compare",status="OK"} 1`)
}
