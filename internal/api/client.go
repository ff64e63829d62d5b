package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Client talks to a remote `pocket serve` instance.
type Client struct {
	base string
	http *http.Client
}

func NewClient(base string) *Client {
	return &Client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) Start(ctx context.Context, req StartRequest) (*StartResponse, error) {
	var resp StartResponse
	if err := c.post(ctx, "/api/timing/start", req, &resp); nil != err {
		return nil, err
	}
	if err := ValidateGrid(resp.BeatTimes); nil != err {
		return nil, fmt.Errorf("%w: from %v", err, c.base)
	}
	return &resp, nil
}

func (c *Client) Complete(ctx context.Context, req CompleteRequest) (*CompleteResponse, error) {
	var resp CompleteResponse
	if err := c.post(ctx, "/api/timing/complete", req, &resp); nil != err {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if nil != err {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(payload))
	if nil != err {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if nil != err {
		return fmt.Errorf("api: %v: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %v", ErrSessionNotFound, path)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("api: %v returned %v", path, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); nil != err {
		return fmt.Errorf("api: %v: %w", path, err)
	}
	return nil
}
