package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Doer is the slice of *http.Client the client needs. Retry or tracing
// policies can be injected by wrapping it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the remote REST API. It holds no cache and never retries.
type Client struct {
	baseURL    string
	httpClient Doer
}

func New(baseURL string, httpClient Doer) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

type response struct {
	header http.Header
	body   []byte
	url    string
}

func (c *Client) do(ctx context.Context, method, path string, payload interface{}, header http.Header) (*response, error) {
	url := c.baseURL + path

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", method, url, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, url, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, values := range header {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Method: method, URL: url, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Method: method, URL: url, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{
			Method:     method,
			URL:        url,
			StatusCode: resp.StatusCode,
			Body:       string(data),
		}
	}

	return &response{header: resp.Header, body: data, url: url}, nil
}

func (r *response) decode(out interface{}) error {
	if len(bytes.TrimSpace(r.body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.body, out); err != nil {
		return &DecodeError{URL: r.url, Err: err}
	}
	return nil
}

// decodeList accepts a bare array or a paginated {"results": [...]} envelope.
func (r *response) decodeList(out interface{}) error {
	trimmed := bytes.TrimSpace(r.body)
	if len(trimmed) == 0 {
		return nil
	}
	if trimmed[0] == '{' {
		var page struct {
			Results json.RawMessage `json:"results"`
		}
		if err := json.Unmarshal(trimmed, &page); err != nil {
			return &DecodeError{URL: r.url, Err: err}
		}
		if page.Results == nil {
			return &DecodeError{URL: r.url, Err: fmt.Errorf("object without results field")}
		}
		trimmed = page.Results
	}
	if err := json.Unmarshal(trimmed, out); err != nil {
		return &DecodeError{URL: r.url, Err: err}
	}
	return nil
}
