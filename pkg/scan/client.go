package scan

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/mchmarny/scoreproxy/pkg/logging"
	"github.com/mchmarny/scoreproxy/pkg/metrics"
	"github.com/mchmarny/scoreproxy/pkg/net"
	"github.com/mchmarny/scoreproxy/pkg/query"
	"github.com/tidwall/gjson"
)

const (
	DefaultURL       = "https://api-scanner.defiyield.app/"
	DefaultRetries   = 2
	DefaultBaseDelay = 500 * time.Millisecond
	DefaultJitter    = 800 * time.Millisecond

	scorePath = "data.score"
)

// Options configure the upstream client.
type Options struct {
	URL       string
	Retries   int
	BaseDelay time.Duration
	Jitter    time.Duration
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		URL:       DefaultURL,
		Retries:   DefaultRetries,
		BaseDelay: DefaultBaseDelay,
		Jitter:    DefaultJitter,
	}
}

type sleepFunc func(ctx context.Context, d time.Duration) error

// Client looks up scores on the scanner, retrying while the score is null.
type Client struct {
	opts    Options
	http    *http.Client
	builder *query.Builder
	sleep   sleepFunc
}

// NewClient creates a scanner client. The http client carries timeouts and
// any upstream credentials.
func NewClient(opts Options, hc *http.Client, b *query.Builder) (*Client, error) {
	if opts.URL == "" {
		return nil, errors.New("upstream URL is required")
	}
	if opts.Retries < 0 {
		return nil, fmt.Errorf("retries must be >= 0, got %d", opts.Retries)
	}
	if opts.BaseDelay < 0 || opts.Jitter < 0 {
		return nil, errors.New("retry delays must not be negative")
	}
	if hc == nil {
		return nil, errors.New("http client is required")
	}
	if b == nil {
		return nil, errors.New("query builder is required")
	}

	return &Client{
		opts:    opts,
		http:    hc,
		builder: b,
		sleep:   sleepCtx,
	}, nil
}

// Score returns the upstream JSON for the address on the chain. Validation
// errors from the query builder are returned unwrapped.
func (c *Client) Score(ctx context.Context, address, chainID string) ([]byte, error) {
	req, err := c.builder.Build(address, chainID)
	if err != nil {
		return nil, err
	}
	return c.fetchWithRetry(ctx, req)
}

// fetchWithRetry makes up to Retries+1 attempts. A body without a truthy
// data.score is retried after a jittered wait, the final attempt's body is
// returned either way. Non-JSON bodies are retried at once and surface as
// *ParseError on the final attempt. Transport errors are not retried.
func (c *Client) fetchWithRetry(ctx context.Context, req *query.Request) ([]byte, error) {
	log := logging.FromContext(ctx)

	for attempt := 0; attempt <= c.opts.Retries; attempt++ {
		last := attempt == c.opts.Retries

		body, status, err := net.PostJSON(ctx, c.http, c.opts.URL, req)
		if err != nil {
			metrics.ObserveAttempt(metrics.AttemptTransport)
			return nil, &TransportError{Attempt: attempt + 1, Err: err}
		}

		if !gjson.ValidBytes(body) {
			metrics.ObserveAttempt(metrics.AttemptParseFail)
			if last {
				return nil, &ParseError{Raw: string(body)}
			}
			log.Warn("invalid JSON from upstream, retrying",
				"attempt", attempt+1,
				"status", status,
			)
			continue
		}

		if HasScore(body) {
			metrics.ObserveAttempt(metrics.AttemptScored)
			return body, nil
		}

		metrics.ObserveAttempt(metrics.AttemptNullScore)
		if last {
			log.Warn("score still null, returning last response", "attempts", attempt+1)
			return body, nil
		}

		wait := c.backoff()
		log.Warn("score is null, retrying",
			"attempt", attempt+1,
			"status", status,
			"wait", wait.String(),
		)
		metrics.ObserveRetryWait(wait)

		if err := c.sleep(ctx, wait); err != nil {
			return nil, fmt.Errorf("waiting to retry: %w", err)
		}
	}

	return nil, ErrRetriesExhausted
}

func (c *Client) backoff() time.Duration {
	wait := c.opts.BaseDelay
	if c.opts.Jitter > 0 {
		wait += rand.N(c.opts.Jitter)
	}
	return wait
}

// HasScore reports whether data.score is present and truthy: absent, null,
// false, 0 and "" all count as no score.
func HasScore(body []byte) bool {
	r := gjson.GetBytes(body, scorePath)
	switch r.Type {
	case gjson.True, gjson.JSON:
		return true
	case gjson.Number:
		return r.Num != 0
	case gjson.String:
		return r.Str != ""
	default:
		return false
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
