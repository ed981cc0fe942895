package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/trunkstore-lab/trunkstore/internal/metrics"
)

func get(s *Server, path string) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	s.Engine.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
	return resp
}

func TestHealth(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	t.Run("healthy", func(t *testing.T) {
		s := New(Options{Checks: map[string]HealthCheck{"database": ok, "redis": ok}})
		resp := get(s, "/health")

		require.Equal(t, http.StatusOK, resp.Code)
		var body struct {
			Status       string            `json:"status"`
			Dependencies map[string]string `json:"dependencies"`
		}
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
		require.Equal(t, "healthy", body.Status)
		require.Equal(t, "connected", body.Dependencies["database"])
	})

	t.Run("dependency down", func(t *testing.T) {
		s := New(Options{Checks: map[string]HealthCheck{"database": down, "redis": ok}})
		resp := get(s, "/health")

		require.Equal(t, http.StatusServiceUnavailable, resp.Code)
		require.Contains(t, resp.Body.String(), `"database":"unreachable"`)
	})
}

func TestMetricsEndpoint(t *testing.T) {
	registry := prometheus.NewRegistry()
	m, err := metrics.NewPipelineMetrics(registry)
	require.NoError(t, err)
	m.RecordOutcome("freq", "stored")

	s := New(Options{Registry: registry})
	resp := get(s, "/metrics")

	require.Equal(t, http.StatusOK, resp.Code)
	require.Contains(t, resp.Body.String(), "trunkstore_records_total")
}

func TestMetricsEndpoint_DisabledWithoutRegistry(t *testing.T) {
	s := New(Options{})
	require.Equal(t, http.StatusNotFound, get(s, "/metrics").Code)
}

func TestRawPathRouting(t *testing.T) {
	s := New(Options{})
	s.Engine.GET("/v1/calls/:call_id/freqlist", func(c *gin.Context) {
		c.String(http.StatusOK, c.Param("call_id"))
	})

	resp := get(s, "/v1/calls/p25%2F2025%2F01%2F01%2Fa.m4a/freqlist")

	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, "p25/2025/01/01/a.m4a", resp.Body.String())
}
