package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/mandalnilabja/flowrelay/internal/types"
)

// MaxResponseBytes caps a buffered run or bootstrap reply.
const MaxResponseBytes = 16 << 20

var errMalformedBody = errors.New("upstream body is not valid JSON")

// Run forwards req to the flow run endpoint and writes the upstream JSON
// reply verbatim with the upstream status code.
func (r *Relay) Run(ctx context.Context, w http.ResponseWriter, req *types.ChatRequest) (*types.RelayResult, error) {
	startTime := time.Now()
	result := &types.RelayResult{Mode: types.ModeRun}
	defer func() { result.Duration = time.Since(startTime) }()

	body, status, relayErr := r.exchange(ctx, req, false, result)
	if relayErr != nil {
		return r.fail(ctx, w, result, relayErr)
	}

	w.Header().Set("Content-Type", types.ContentTypeJSON)
	w.WriteHeader(status)
	n, err := w.Write(body)
	result.Bytes = int64(n)
	if err != nil {
		result.Error = err
		return result, err
	}
	return result, nil
}

// Bootstrap forwards req with streaming enabled and writes only the session
// identifier from the upstream reply.
func (r *Relay) Bootstrap(ctx context.Context, w http.ResponseWriter, req *types.ChatRequest) (*types.RelayResult, error) {
	startTime := time.Now()
	result := &types.RelayResult{Mode: types.ModeBootstrap}
	defer func() { result.Duration = time.Since(startTime) }()

	body, _, relayErr := r.exchange(ctx, req, true, result)
	if relayErr != nil {
		return r.fail(ctx, w, result, relayErr)
	}

	sessionID := gjson.GetBytes(body, "session_id")
	if sessionID.Type != gjson.String || sessionID.Str == "" {
		return r.fail(ctx, w, result, types.ErrInvalidUpstreamResponse(types.ErrNoSessionID, body))
	}
	result.SessionID = sessionID.Str
	result.StatusCode = http.StatusOK

	w.Header().Set("Content-Type", types.ContentTypeJSON)
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(types.SessionHandle{SessionID: sessionID.Str}); err != nil {
		result.Error = err
		return result, err
	}
	return result, nil
}

// exchange performs one bounded run call and returns the validated reply body
// and upstream status code.
func (r *Relay) exchange(parent context.Context, req *types.ChatRequest, stream bool, result *types.RelayResult) ([]byte, int, *types.Error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, 0, types.ErrInternal("failed to encode request", err)
	}

	ctx, cancel := context.WithTimeout(parent, r.timeout)
	defer cancel()

	r.logger.Debug("forwarding chat request",
		"provider", r.upstream.Name(),
		"upstream", r.upstream.BaseURL(),
		"stream", stream,
	)
	resp, err := r.upstream.Run(ctx, payload, stream)
	if err != nil {
		return nil, 0, r.classify(ctx, err)
	}
	defer resp.Body.Close()
	result.StatusCode = resp.StatusCode

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		r.logger.Warn("upstream request failed",
			"status", resp.StatusCode,
			"status_text", http.StatusText(resp.StatusCode),
		)
		return nil, 0, types.ErrUpstreamFailure(resp.StatusCode, "upstream request failed", readDetail(resp.Body))
	}
	if !isJSON(resp.Header.Get("Content-Type")) {
		return nil, 0, types.ErrUpstreamFailure(resp.StatusCode, "upstream returned a non-JSON response", readDetail(resp.Body))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseBytes+1))
	if err != nil {
		return nil, 0, r.classify(ctx, err)
	}
	if len(body) > MaxResponseBytes {
		return nil, 0, types.ErrInvalidUpstreamResponse(fmt.Errorf("upstream body exceeds %d bytes", MaxResponseBytes), nil)
	}
	if !gjson.ValidBytes(body) {
		return nil, 0, types.ErrInvalidUpstreamResponse(errMalformedBody, body)
	}

	return body, resp.StatusCode, nil
}

// readDetail reads enough of an upstream error body for the envelope details.
// Read errors are ignored; whatever arrived is reported.
func readDetail(r io.Reader) []byte {
	body, _ := io.ReadAll(io.LimitReader(r, types.MaxDetailBytes+1))
	return body
}

// fail records relayErr and writes it unless the caller has gone away.
func (r *Relay) fail(ctx context.Context, w http.ResponseWriter, result *types.RelayResult, relayErr *types.Error) (*types.RelayResult, error) {
	result.Fail(relayErr)
	if clientGone(ctx) {
		return result, relayErr
	}
	types.WriteError(w, relayErr)
	return result, relayErr
}

// isJSON reports whether contentType names a JSON media type.
func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == types.ContentTypeJSON || strings.HasSuffix(mediaType, "+json")
}
