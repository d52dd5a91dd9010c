package sink

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/go-sod/sensord/internal/alert/model"
	"github.com/go-sod/sensord/internal/httputil"
)

const UserAgent = "sensord/0.1"

type webhook struct {
	name   string
	url    string
	client *http.Client
}

func NewWebhook(name, rawURL string, cfg httputil.HTTPClientConfig) (*webhook, error) {
	link, err := url.Parse(rawURL)
	if err != nil || link.Scheme == "" || link.Host == "" {
		return nil, fmt.Errorf("invalid webhook url %q", rawURL)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("webhook %s: %w", name, err)
	}
	client, err := httputil.NewClientFromConfig(cfg, true)
	if err != nil {
		return nil, fmt.Errorf("unable create client for webhook %s: %w", name, err)
	}
	return &webhook{name: name, url: link.String(), client: client}, nil
}

func (w *webhook) Name() string { return w.name }

func (w *webhook) Send(ctx context.Context, a model.Alert) error {
	body, err := a.Payload()
	if err != nil {
		return fmt.Errorf("unable encode json data: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request error: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Add("User-Agent", UserAgent)
	req.Header.Add("Accept-Encoding", "gzip")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending request error: %w", err)
	}
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return fmt.Errorf("unable create gzip.NewReader: %w", err)
		}
		defer gz.Close()
		reader = gz
	}
	respBody, err := io.ReadAll(io.LimitReader(reader, 1<<16))
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("webhook %s responded %d: %s", w.name, resp.StatusCode, respBody)
	}
	return nil
}

func (w *webhook) Close() error {
	w.client.CloseIdleConnections()
	return nil
}
