package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordRequest("POST", "/login", 200, 10*time.Millisecond)
	c.RecordRequest("POST", "/login", 400, 10*time.Millisecond)
	c.RecordRequest("POST", "/login", 400, 10*time.Millisecond)
	c.RecordAuthFailure("invalid_credentials")
	c.RecordReadTransition()

	require.Equal(t, 2.0, testutil.ToFloat64(c.requests.WithLabelValues("POST", "/login", "400")))
	require.Equal(t, 1.0, testutil.ToFloat64(c.authFailures.WithLabelValues("invalid_credentials")))
	require.Equal(t, 1.0, testutil.ToFloat64(c.readTransitions))
	require.Equal(t, 1, testutil.CollectAndCount(c.requestDuration))
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordReadTransition()

	rr := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	require.True(t, strings.Contains(rr.Body.String(), "messagely_messages_read_total 1"))
}
