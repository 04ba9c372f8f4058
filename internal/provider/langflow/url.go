package langflow

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// buildRunURL constructs {base}/run/{flowID}?stream={stream}.
func buildRunURL(base, flowID string, stream bool) (string, error) {
	u, err := parseBase(base)
	if err != nil {
		return "", err
	}
	u = u.JoinPath("run", url.PathEscape(flowID))

	q := u.Query()
	q.Set("stream", strconv.FormatBool(stream))
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// buildStreamURL constructs {base}/{sessionID}/stream.
func buildStreamURL(base, sessionID string) (string, error) {
	u, err := parseBase(base)
	if err != nil {
		return "", err
	}
	return u.JoinPath(url.PathEscape(sessionID), "stream").String(), nil
}

// parseBase validates the API root.
func parseBase(base string) (*url.URL, error) {
	if base == "" {
		return nil, fmt.Errorf("base URL is empty")
	}
	u, err := url.Parse(strings.TrimSuffix(base, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("base URL has no host")
	}
	return u, nil
}
