package httputil

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestDecodeErr(t *testing.T) {
	type body struct {
		Value float64 `json:"value"`
	}
	tests := []struct {
		name     string
		input    string
		expected int
	}{
		{name: "syntax", input: `{"value": }`, expected: http.StatusBadRequest},
		{name: "truncated", input: `{"value": 1`, expected: http.StatusBadRequest},
		{name: "wrong_type", input: `{"value": "hot"}`, expected: http.StatusBadRequest},
		{name: "unknown_field", input: `{"value": 1, "pressure": 2}`, expected: http.StatusBadRequest},
		{name: "empty", input: ``, expected: http.StatusBadRequest},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			dec := json.NewDecoder(strings.NewReader(test.input))
			dec.DisallowUnknownFields()
			var b body
			err := dec.Decode(&b)
			if err == nil {
				t.Fatalf("decode %q: expected an error", test.input)
			}
			rec := httptest.NewRecorder()
			DecodeErr(context.Background(), rec, err)
			if rec.Code != test.expected {
				t.Errorf("status got: %d, expected: %d", rec.Code, test.expected)
			}
			var resp ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil || resp.Error == "" {
				t.Errorf("error body got: %v (%v), expected a json error", resp, err)
			}
		})
	}
}

func TestRoundTripper_Auth(t *testing.T) {
	tests := []struct {
		name     string
		cfg      HTTPClientConfig
		expected string
	}{
		{name: "none", cfg: HTTPClientConfig{}, expected: ""},
		{name: "bearer", cfg: HTTPClientConfig{BearerToken: "token"}, expected: "Bearer token"},
		{name: "basic", cfg: HTTPClientConfig{BasicAuth: &BasicAuth{Username: "u", Password: "p"}}, expected: "Basic dTpw"},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			var got string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.Header.Get("Authorization")
			}))
			defer srv.Close()
			client, err := NewClientFromConfig(test.cfg, true)
			if err != nil {
				t.Fatalf("new client: %v", err)
			}
			resp, err := client.Get(srv.URL)
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			resp.Body.Close()
			if got != test.expected {
				t.Errorf("authorization got: %q, expected: %q", got, test.expected)
			}
		})
	}
}

func TestHTTPClientConfig_Validate(t *testing.T) {
	cfg := HTTPClientConfig{BearerToken: "t", BasicAuth: &BasicAuth{Username: "u"}}
	if err := cfg.Validate(); err == nil {
		t.Errorf("bearer token together with basic auth must be rejected")
	}
}
