package httputil

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// NewClientFromConfig returns a client whose requests carry the credentials
// from cfg.
func NewClientFromConfig(cfg HTTPClientConfig, disableKeepAlives bool) (*http.Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &http.Client{Transport: NewRoundTripperFromConfig(cfg, NewTransport(disableKeepAlives))}, nil
}

// NewTransport returns the transport shared by sensord clients.
func NewTransport(disableKeepAlives bool) *http.Transport {
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		DisableKeepAlives:     disableKeepAlives,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
	}
}

func NewRoundTripperFromConfig(cfg HTTPClientConfig, rt http.RoundTripper) http.RoundTripper {
	if len(cfg.BearerToken) > 0 {
		rt = &authRoundTripper{rt: rt, auth: func(req *http.Request) {
			req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", cfg.BearerToken))
		}}
	}
	if cfg.BasicAuth != nil {
		user, password := cfg.BasicAuth.Username, strings.TrimSpace(cfg.BasicAuth.Password)
		rt = &authRoundTripper{rt: rt, auth: func(req *http.Request) {
			req.SetBasicAuth(user, password)
		}}
	}
	return rt
}

// authRoundTripper sets credentials unless the request already carries an
// Authorization header.
type authRoundTripper struct {
	rt   http.RoundTripper
	auth func(*http.Request)
}

func (a *authRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if len(req.Header.Get("Authorization")) != 0 {
		return a.rt.RoundTrip(req)
	}
	req = req.Clone(req.Context())
	a.auth(req)
	return a.rt.RoundTrip(req)
}
