// Package client talks to the node and the classification service over HTTP.
// Every call is bounded by the client timeout.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-sod/sensord/internal/httputil"
	"github.com/go-sod/sensord/internal/reading/model"
)

const DefaultTimeout = 5 * time.Second

const maxErrorBody = 4 << 10

type Option func(*Client)

func WithTimeout(t time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = t
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		timeout := c.http.Timeout
		c.http = hc
		if c.http.Timeout == 0 {
			c.http.Timeout = timeout
		}
	}
}

// New returns a client for the service at baseURL, e.g. http://localhost:8000.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", baseURL)
	}
	c := &Client{
		base: u,
		http: &http.Client{Transport: httputil.NewTransport(false), Timeout: DefaultTimeout},
	}
	for _, f := range opts {
		f(c)
	}
	return c, nil
}

type Client struct {
	base *url.URL
	http *http.Client
}

type predictRequest struct {
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	SoundVolume float64 `json:"sound_volume"`
}

type predictResponse struct {
	IsAnomaly bool `json:"is_anomaly"`
}

// NodeData fetches the node's current reading.
func (c *Client) NodeData(ctx context.Context) (model.Reading, error) {
	var r model.Reading
	err := c.do(ctx, "node data", http.MethodGet, "/node/data", nil, nil, &r)
	return r, err
}

func (c *Client) Predict(ctx context.Context, r model.Reading) (bool, error) {
	var resp predictResponse
	body := predictRequest{Temperature: r.Temperature, Humidity: r.Humidity, SoundVolume: r.SoundVolume}
	if err := c.do(ctx, "predict", http.MethodPost, "/predict", nil, body, &resp); err != nil {
		return false, err
	}
	return resp.IsAnomaly, nil
}

func (c *Client) LatestReadings(ctx context.Context, limit int) ([]model.LabeledReading, error) {
	return c.table(ctx, "latest readings", "/latest_readings", limit)
}

func (c *Client) LatestAnomalies(ctx context.Context, limit int) ([]model.LabeledReading, error) {
	return c.table(ctx, "latest anomalies", "/latest_anomalies", limit)
}

type Health struct {
	Status string `json:"status"`
	Rows   int    `json:"rows"`
}

func (c *Client) Health(ctx context.Context) (Health, error) {
	var h Health
	err := c.do(ctx, "health", http.MethodGet, "/health", nil, nil, &h)
	return h, err
}

func (c *Client) table(ctx context.Context, op, path string, limit int) ([]model.LabeledReading, error) {
	var t model.Table
	q := url.Values{"limit": []string{strconv.Itoa(limit)}}
	if err := c.do(ctx, op, http.MethodGet, path, q, nil, &t); err != nil {
		return nil, err
	}
	rows, err := t.Rows()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return rows, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, q url.Values, in, out interface{}) error {
	u := *c.base
	u.Path += path
	u.RawQuery = q.Encode()

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: unable marshal request: %w", op, err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("%s: create new request: %w", op, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return wrapTransport(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &ServiceError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return wrapTransport(op, fmt.Errorf("decode response: %w", err))
	}
	return nil
}
