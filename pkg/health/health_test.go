package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func up(context.Context) ComponentHealth       { return ComponentHealth{Status: StatusUp} }
func degraded(context.Context) ComponentHealth { return ComponentHealth{Status: StatusDegraded} }
func down(context.Context) ComponentHealth     { return ComponentHealth{Status: StatusDown, Message: "refused"} }

func ready(t *testing.T, c *Checker) (int, Report) {
	t.Helper()
	rec := httptest.NewRecorder()
	c.ReadyHandler()(rec, httptest.NewRequest("GET", "/health/ready", nil))
	var report Report
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&report))
	return rec.Code, report
}

func TestReadinessGate(t *testing.T) {
	c := NewChecker()
	c.Register("postgres", up)

	code, report := ready(t, c)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, StatusDown, report.Status)
	assert.Equal(t, "starting", report.Components["index"].Message)

	c.SetReady()
	assert.True(t, c.Ready())
	code, report = ready(t, c)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, StatusUp, report.Status)
	assert.NotContains(t, report.Components, "index")

	c.SetNotReady("shutting down")
	code, report = ready(t, c)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "shutting down", report.Components["index"].Message)
}

func TestRunAggregatesWorstStatus(t *testing.T) {
	c := NewChecker()
	c.SetReady()
	c.Register("postgres", up)
	c.Register("redis", degraded)
	assert.Equal(t, StatusDegraded, c.Run(context.Background()).Status)

	code, _ := ready(t, c)
	assert.Equal(t, http.StatusOK, code, "degraded cache keeps serving")

	c.Register("kafka", down)
	assert.Equal(t, StatusDown, c.Run(context.Background()).Status)
}

func TestLiveHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	NewChecker().LiveHandler()(rec, httptest.NewRequest("GET", "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
