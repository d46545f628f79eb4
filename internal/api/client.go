package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// RemoteCallError is returned for non-2xx responses and transport failures.
// Status is 0 when no response was received.
type RemoteCallError struct {
	Method string
	URL    string
	Status int
	Body   string
	Err    error
}

func (e *RemoteCallError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
	}
	body := strings.TrimSpace(e.Body)
	if len(body) > 200 {
		body = body[:200] + "…"
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.Status, body)
}

func (e *RemoteCallError) Unwrap() error { return e.Err }

type client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	log        *slog.Logger
}

func newClient(baseURL, token string, log *slog.Logger) client {
	if log == nil {
		log = slog.Default()
	}
	return client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log,
	}
}

// do performs one request and returns the raw response body.
// Query values that are empty strings are dropped.
func (c client) do(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	u := c.baseURL + path
	if q := compactQuery(query); len(q) > 0 {
		u += "?" + q.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	c.log.Info("making request", "method", method, "url", u)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &RemoteCallError{Method: method, URL: u, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RemoteCallError{Method: method, URL: u, Status: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Warn("request failed", "method", method, "url", u, "status", resp.StatusCode)
		return nil, &RemoteCallError{Method: method, URL: u, Status: resp.StatusCode, Body: string(respBody)}
	}
	return respBody, nil
}

func compactQuery(q url.Values) url.Values {
	if q == nil {
		return nil
	}
	out := url.Values{}
	for k, vs := range q {
		for _, v := range vs {
			if strings.TrimSpace(v) != "" {
				out.Add(k, v)
			}
		}
	}
	return out
}
