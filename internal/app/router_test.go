package app

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mandalnilabja/flowrelay/internal/provider/langflow"
	"github.com/mandalnilabja/flowrelay/internal/relay"
	"github.com/mandalnilabja/flowrelay/internal/transport/http/handler"
	"github.com/mandalnilabja/flowrelay/internal/transport/http/middleware"
	"github.com/mandalnilabja/flowrelay/internal/types"
)

func newTestRouter(t *testing.T, enableWebUI bool) (http.Handler, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"session_id":"s-1","outputs":[]}`)
	}))
	t.Cleanup(upstream.Close)

	p := langflow.New(langflow.Config{BaseURL: upstream.URL, FlowID: "flow-1", APIKey: "secret"}, nil)
	repo := handler.NewRepo(relay.New(p, relay.Options{}), nil, p, nil)
	return NewRouter(repo, &RouterOptions{EnableWebUI: enableWebUI}), &calls
}

func TestRouter_Relay(t *testing.T) {
	router, calls := newTestRouter(t, false)

	req := httptest.NewRequest(http.MethodPost, "/relay", strings.NewReader(`{"input_value":"hi"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `{"session_id":"s-1","outputs":[]}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, int32(1), calls.Load())
}

func TestRouter_RelayMethodNotAllowed(t *testing.T) {
	router, calls := newTestRouter(t, false)

	req := httptest.NewRequest(http.MethodDelete, "/relay", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	var envelope types.RelayError
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	assert.Equal(t, http.StatusMethodNotAllowed, envelope.Status)
	assert.Equal(t, int32(0), calls.Load())
}

func TestRouter_StreamWithoutSessionID(t *testing.T) {
	router, calls := newTestRouter(t, false)

	req := httptest.NewRequest(http.MethodGet, "/relay", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, int32(0), calls.Load())
}

func TestRouter_Preflight(t *testing.T) {
	router, calls := newTestRouter(t, false)

	req := httptest.NewRequest(http.MethodOptions, "/relay", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, int32(0), calls.Load())
}

func TestRouter_Infra(t *testing.T) {
	router, _ := newTestRouter(t, false)

	t.Run("health", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"active","app":"flowrelay"}`, rec.Body.String())
	})

	t.Run("info hides credential", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/info", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"credential_set":true`)
		assert.Contains(t, rec.Body.String(), `"flow_id":"flow-1"`)
		assert.NotContains(t, rec.Body.String(), "secret")
	})

	t.Run("root status", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"relay":"/relay"`)
	})

	t.Run("unknown path", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestRouter_WebUI(t *testing.T) {
	router, _ := newTestRouter(t, true)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/static/chat.js")

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/chat.js", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/relay")
}
