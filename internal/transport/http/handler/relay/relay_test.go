package relay

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mandalnilabja/flowrelay/internal/provider/langflow"
	"github.com/mandalnilabja/flowrelay/internal/relay"
	"github.com/mandalnilabja/flowrelay/internal/types"
)

type fakeTokenizer struct {
	calls atomic.Int32
}

func (f *fakeTokenizer) CountTokens(text string) (int, error) {
	f.calls.Add(1)
	return len(strings.Fields(text)), nil
}

type testEnv struct {
	handlers *Handlers
	calls    *atomic.Int32
	logs     *bytes.Buffer
	tok      *fakeTokenizer
}

func newTestEnv(t *testing.T, apiKey string, upstream http.HandlerFunc) *testEnv {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		upstream(w, r)
	}))
	t.Cleanup(srv.Close)

	logs := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(logs, nil))
	p := langflow.New(langflow.Config{BaseURL: srv.URL, FlowID: "flow-1", APIKey: apiKey}, nil)
	tok := &fakeTokenizer{}

	return &testEnv{
		handlers: New(relay.New(p, relay.Options{Logger: logger}), tok, logger),
		calls:    &calls,
		logs:     logs,
		tok:      tok,
	}
}

func jsonUpstream(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	}
}

func TestHandleRelay_Run(t *testing.T) {
	env := newTestEnv(t, "secret", jsonUpstream(`{"outputs":[]}`))

	req := httptest.NewRequest(http.MethodPost, "/relay",
		strings.NewReader(`{"input_value":"how do stop losses work","input_type":"chat","output_type":"chat","tweaks":{}}`))
	rec := httptest.NewRecorder()
	env.handlers.HandleRelay(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `{"outputs":[]}`, rec.Body.String())
	assert.Equal(t, int32(1), env.calls.Load())
	assert.Contains(t, env.logs.String(), "mode=run")
	assert.NotContains(t, env.logs.String(), "secret")
}

func TestHandleRelay_Bootstrap(t *testing.T) {
	env := newTestEnv(t, "secret", jsonUpstream(`{"session_id":"sess-9","outputs":[]}`))

	req := httptest.NewRequest(http.MethodPost, "/relay?stream=true", strings.NewReader(`{"input_value":"hi"}`))
	rec := httptest.NewRecorder()
	env.handlers.HandleRelay(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"session_id":"sess-9"}`, rec.Body.String())
	assert.Contains(t, env.logs.String(), "session_id=sess-9")
}

func TestHandleRelay_ClientErrorsMakeNoCall(t *testing.T) {
	tests := []struct {
		name   string
		method string
		target string
		body   string
	}{
		{name: "stream without session_id", method: http.MethodGet, target: "/relay"},
		{name: "stream with empty session_id", method: http.MethodGet, target: "/relay?session_id="},
		{name: "malformed JSON", method: http.MethodPost, target: "/relay", body: `{"input_value":`},
		{name: "missing input_value", method: http.MethodPost, target: "/relay", body: `{"input_type":"chat"}`},
		{name: "bad output_type", method: http.MethodPost, target: "/relay", body: `{"input_value":"hi","output_type":"audio"}`},
		{name: "bootstrap with malformed JSON", method: http.MethodPost, target: "/relay?stream=true", body: `[]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, "secret", jsonUpstream(`{}`))

			req := httptest.NewRequest(tt.method, tt.target, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			env.handlers.HandleRelay(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, int32(0), env.calls.Load())
			assert.Contains(t, env.logs.String(), "error_kind=client_input")

			var envelope types.RelayError
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
			assert.Equal(t, http.StatusBadRequest, envelope.Status)
		})
	}
}

func TestHandleRelay_MissingCredential(t *testing.T) {
	env := newTestEnv(t, "", jsonUpstream(`{}`))

	req := httptest.NewRequest(http.MethodPost, "/relay", strings.NewReader(`{"input_value":"hi"}`))
	rec := httptest.NewRecorder()
	env.handlers.HandleRelay(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, int32(0), env.calls.Load())
	assert.Contains(t, env.logs.String(), "error_kind=misconfiguration")
}

func TestHandleRelay_MethodNotAllowed(t *testing.T) {
	env := newTestEnv(t, "secret", jsonUpstream(`{}`))

	req := httptest.NewRequest(http.MethodPut, "/relay", nil)
	rec := httptest.NewRecorder()
	env.handlers.HandleRelay(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "GET, POST", rec.Header().Get("Allow"))
	assert.Equal(t, int32(0), env.calls.Load())
}

func TestHandleRelay_Stream(t *testing.T) {
	env := newTestEnv(t, "secret", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", types.ContentTypeEventStream)
		_, _ = io.WriteString(w, "data: one\n\n")
		_, _ = io.WriteString(w, "data: two\n\n")
	})

	req := httptest.NewRequest(http.MethodGet, "/relay?session_id=sess-1", nil)
	rec := httptest.NewRecorder()
	env.handlers.HandleRelay(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "data: one\n\ndata: two\n\n", rec.Body.String())
	assert.Contains(t, env.logs.String(), "frames=2")
	assert.Zero(t, env.tok.calls.Load())
}
