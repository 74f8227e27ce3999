package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/templui/goalboard/internal/app"
	"github.com/templui/goalboard/internal/config"
	"github.com/templui/goalboard/internal/engine"
	"github.com/templui/goalboard/internal/handler"
	"github.com/templui/goalboard/internal/model"
	"github.com/templui/goalboard/internal/service"
)

func newHandler(t *testing.T, mutate func(cfg *config.Config)) http.Handler {
	t.Helper()

	cfg := &config.Config{
		AppName:            "Goalboard",
		AppEnv:             "development",
		DBDriver:           "sqlite",
		DBConnection:       filepath.Join(t.TempDir(), "goals.db") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)",
		MetricsEnabled:     true,
		RateLimitMutations: 1000,
		RateLimitBurst:     1000,
	}
	if mutate != nil {
		mutate(cfg)
	}

	a, err := app.New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	return SetupRoutes(a)
}

func request(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func goalJSON(title string, current, target float64) string {
	start := time.Now().UTC().AddDate(0, 0, -1)
	data, _ := json.Marshal(model.GoalDraft{
		Title:        title,
		StartDate:    start,
		EndDate:      start.AddDate(0, 1, 0),
		TargetValue:  target,
		CurrentValue: current,
	})
	return string(data)
}

func TestHealthAndMetrics(t *testing.T) {
	h := newHandler(t, nil)

	rec := request(t, h, "GET", "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	request(t, h, "GET", "/api/owners/o/goals", "")
	rec = request(t, h, "GET", "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "goalboard_http_requests_total")
}

func TestMetricsDisabled(t *testing.T) {
	h := newHandler(t, func(cfg *config.Config) { cfg.MetricsEnabled = false })

	rec := request(t, h, "GET", "/metrics", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGoalLifecycle(t *testing.T) {
	h := newHandler(t, nil)

	rec := request(t, h, "POST", "/api/owners/alice/goals", goalJSON("Run", 0, 10))
	require.Equal(t, http.StatusCreated, rec.Code)
	var goals []model.Goal
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &goals))
	require.Len(t, goals, 1)
	id := goals[0].ID

	rec = request(t, h, "PATCH", "/api/owners/alice/goals/"+id, `{"currentValue": 5}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = request(t, h, "POST", "/api/owners/alice/goals/"+id+"/participate", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = request(t, h, "GET", "/api/owners/alice/goals/"+id+"/participations", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var history []model.Participation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	require.Len(t, history, 1)
	assert.Equal(t, 1.0, history[0].Amount)

	rec = request(t, h, "GET", "/api/owners/bob/goals/"+id+"/participations", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = request(t, h, "GET", "/api/owners/alice/board", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var board engine.Board
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &board))
	assert.Len(t, board.InProgress, 1)
	assert.NotNil(t, board.New)
	assert.NotNil(t, board.Completed)

	rec = request(t, h, "GET", "/api/owners/alice/dashboard", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var summary engine.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 1, summary.Total)
	assert.Equal(t, 60.0, summary.AverageProgress)

	rec = request(t, h, "GET", "/api/owners/alice/goals/export", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "goals-export.json")
	var export service.Export
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &export))
	assert.Equal(t, "alice", export.OwnerID)
	assert.Len(t, export.Goals, 1)

	rec = request(t, h, "GET", "/api/owners/bob/goals", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = request(t, h, "DELETE", "/api/owners/bob/goals/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = request(t, h, "DELETE", "/api/owners/alice/goals/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestErrorResponses(t *testing.T) {
	h := newHandler(t, nil)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"malformed body", "POST", "/api/owners/alice/goals", `{"title":`, http.StatusBadRequest},
		{"invalid goal", "POST", "/api/owners/alice/goals", goalJSON("", 0, 0), http.StatusBadRequest},
		{"unknown goal", "PATCH", "/api/owners/alice/goals/missing", `{"title":"x"}`, http.StatusNotFound},
		{"participate unknown", "POST", "/api/owners/alice/goals/missing/participate", "", http.StatusNotFound},
		{"two pins", "PUT", "/api/owners/alice/goals/pins", `[{"id":"a","isPinned":true},{"id":"b","isPinned":true}]`, http.StatusConflict},
		{"archive unavailable", "POST", "/api/owners/alice/goals/export/archive", "", http.StatusServiceUnavailable},
		{"wrong method", "PUT", "/api/owners/alice/goals", "", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := request(t, h, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code)
		})
	}

	t.Run("validation fields are reported", func(t *testing.T) {
		rec := request(t, h, "POST", "/api/owners/alice/goals", goalJSON("", 0, 0))
		var body handler.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "invalid goal", body.Error)
		assert.Contains(t, body.Fields, "title")
		assert.Contains(t, body.Fields, "targetValue")
	})
}

func TestMutationsAreRateLimited(t *testing.T) {
	h := newHandler(t, func(cfg *config.Config) {
		cfg.RateLimitMutations = 0.001
		cfg.RateLimitBurst = 1
	})

	rec := request(t, h, "POST", "/api/owners/alice/goals", goalJSON("Run", 0, 10))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = request(t, h, "POST", "/api/owners/alice/goals", goalJSON("Run again", 0, 10))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec = request(t, h, "GET", "/api/owners/alice/goals", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
