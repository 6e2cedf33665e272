package net

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"time"

	"golang.org/x/oauth2"
)

const (
	maxIdleConns       = 10
	timeoutInSeconds   = 60
	defaultTimeoutSecs = 30
)

var (
	reqTransport = &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          maxIdleConns,
		IdleConnTimeout:       timeoutInSeconds * time.Second,
		DisableKeepAlives:     false,
		ResponseHeaderTimeout: time.Duration(timeoutInSeconds) * time.Second,
	}
)

// GetHTTPClient returns a client on the shared transport. A zero timeout
// falls back to the default.
func GetHTTPClient(timeout time.Duration) (*http.Client, error) {
	if timeout <= 0 {
		timeout = defaultTimeoutSecs * time.Second
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: reqTransport,
		Jar:       jar,
	}, nil
}

// GetOAuthClient wraps base so every request carries the token as a bearer
// credential. Base timeout and cookie jar are preserved.
func GetOAuthClient(ctx context.Context, base *http.Client, token string) *http.Client {
	if base == nil {
		base = http.DefaultClient
	}

	ts := oauth2.StaticTokenSource(
		&oauth2.Token{
			TokenType:   "Bearer",
			AccessToken: token,
		},
	)
	tc := oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, base), ts)
	tc.Timeout = base.Timeout
	tc.Jar = base.Jar

	return tc
}
