package scan

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mchmarny/scoreproxy/pkg/net"
	"github.com/mchmarny/scoreproxy/pkg/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAddress = "0x8589427373D6D84E98730D7795D8f6f8731FDA16"
	nullScore   = `{"data":{"score":null}}`
	goodScore   = `{"data":{"score":{"score":77,"whitelisted":false}}}`
)

// scripted serves the bodies in order, repeating the last one.
func scripted(t *testing.T, bodies ...string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(calls.Add(1))
		if n > len(bodies) {
			n = len(bodies)
		}
		_, _ = w.Write([]byte(bodies[n-1]))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func newTestClient(t *testing.T, url string) (*Client, *[]time.Duration) {
	t.Helper()
	hc, err := net.GetHTTPClient(5 * time.Second)
	require.NoError(t, err)
	b, err := query.NewBuilder(query.ModeInline, "")
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.URL = url
	c, err := NewClient(opts, hc, b)
	require.NoError(t, err)

	waits := make([]time.Duration, 0)
	c.sleep = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}
	return c, &waits
}

func TestNewClientValidation(t *testing.T) {
	hc := http.DefaultClient
	b, err := query.NewBuilder("", "")
	require.NoError(t, err)

	_, err = NewClient(Options{}, hc, b)
	assert.Error(t, err)

	_, err = NewClient(Options{URL: "http://x", Retries: -1}, hc, b)
	assert.Error(t, err)

	_, err = NewClient(Options{URL: "http://x", BaseDelay: -time.Second}, hc, b)
	assert.Error(t, err)

	_, err = NewClient(Options{URL: "http://x"}, nil, b)
	assert.Error(t, err)

	_, err = NewClient(Options{URL: "http://x"}, hc, nil)
	assert.Error(t, err)

	c, err := NewClient(DefaultOptions(), hc, b)
	require.NoError(t, err)
	assert.NotNil(t, c)
}

func TestScoreRetriesUntilScored(t *testing.T) {
	srv, calls := scripted(t, nullScore, nullScore, goodScore)
	c, waits := newTestClient(t, srv.URL)

	body, err := c.Score(context.Background(), testAddress, "1")
	require.NoError(t, err)
	assert.Equal(t, goodScore, string(body))
	assert.Equal(t, int32(3), calls.Load())
	require.Len(t, *waits, 2)
	for _, w := range *waits {
		assert.GreaterOrEqual(t, w, DefaultBaseDelay)
		assert.Less(t, w, DefaultBaseDelay+DefaultJitter)
	}
}

func TestScoreReturnsLastNullScore(t *testing.T) {
	srv, calls := scripted(t, nullScore)
	c, waits := newTestClient(t, srv.URL)

	body, err := c.Score(context.Background(), testAddress, "1")
	require.NoError(t, err)
	assert.Equal(t, nullScore, string(body))
	assert.Equal(t, int32(DefaultRetries+1), calls.Load())
	assert.Len(t, *waits, DefaultRetries)
}

func TestScoreFirstAttempt(t *testing.T) {
	srv, calls := scripted(t, goodScore)
	c, waits := newTestClient(t, srv.URL)

	body, err := c.Score(context.Background(), testAddress, "1")
	require.NoError(t, err)
	assert.Equal(t, goodScore, string(body))
	assert.Equal(t, int32(1), calls.Load())
	assert.Empty(t, *waits)
}

func TestScoreGraphQLErrorsPassThrough(t *testing.T) {
	errBody := `{"errors":[{"message":"bad network"}],"data":null}`
	srv, calls := scripted(t, errBody)
	c, _ := newTestClient(t, srv.URL)

	body, err := c.Score(context.Background(), testAddress, "1")
	require.NoError(t, err)
	assert.Equal(t, errBody, string(body))
	assert.Equal(t, int32(DefaultRetries+1), calls.Load())
}

func TestScoreInvalidJSON(t *testing.T) {
	srv, calls := scripted(t, "<html>blocked</html>")
	c, waits := newTestClient(t, srv.URL)

	_, err := c.Score(context.Background(), testAddress, "1")
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "<html>blocked</html>", pe.Raw)
	assert.Equal(t, int32(DefaultRetries+1), calls.Load())
	assert.Empty(t, *waits, "parse failures retry without waiting")
}

func TestScoreInvalidJSONThenScored(t *testing.T) {
	srv, calls := scripted(t, "oops", goodScore)
	c, _ := newTestClient(t, srv.URL)

	body, err := c.Score(context.Background(), testAddress, "1")
	require.NoError(t, err)
	assert.Equal(t, goodScore, string(body))
	assert.Equal(t, int32(2), calls.Load())
}

func TestScoreTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, _ := newTestClient(t, url)
	_, err := c.Score(context.Background(), testAddress, "1")

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 1, te.Attempt)
}

func TestScoreValidation(t *testing.T) {
	srv, calls := scripted(t, goodScore)
	c, _ := newTestClient(t, srv.URL)

	_, err := c.Score(context.Background(), testAddress, "1) { x }")
	assert.ErrorIs(t, err, query.ErrInvalidChainID)

	_, err = c.Score(context.Background(), "", "1")
	assert.ErrorIs(t, err, query.ErrMissingParam)
	assert.Equal(t, int32(0), calls.Load())
}

func TestScoreCancelledDuringWait(t *testing.T) {
	srv, calls := scripted(t, nullScore)
	c, _ := newTestClient(t, srv.URL)
	c.sleep = sleepCtx
	c.opts.BaseDelay = time.Hour
	c.opts.Jitter = 0

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err := c.Score(ctx, testAddress, "1")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(1), calls.Load())
}

func TestScoreSendsQuery(t *testing.T) {
	var got query.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &got)
		_, _ = w.Write([]byte(goodScore))
	}))
	defer srv.Close()

	c, _ := newTestClient(t, srv.URL)
	_, err := c.Score(context.Background(), testAddress, "56")
	require.NoError(t, err)
	assert.Contains(t, got.Query, `score(address: "`+testAddress+`", network: 56)`)
}

func TestHasScore(t *testing.T) {
	tests := map[string]bool{
		`{"data":{"score":{"score":1}}}`: true,
		`{"data":{"score":77}}`:          true,
		`{"data":{"score":"x"}}`:         true,
		`{"data":{"score":true}}`:        true,
		`{"data":{"score":[]}}`:          true,
		`{"data":{"score":null}}`:        false,
		`{"data":{"score":0}}`:           false,
		`{"data":{"score":""}}`:          false,
		`{"data":{"score":false}}`:       false,
		`{"data":{}}`:                    false,
		`{"data":null}`:                  false,
		`{}`:                             false,
	}

	for input, expected := range tests {
		assert.Equal(t, expected, HasScore([]byte(input)), input)
	}
}

func TestSleepCtx(t *testing.T) {
	assert.NoError(t, sleepCtx(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.True(t, errors.Is(sleepCtx(ctx, time.Hour), context.Canceled))
}

func TestBackoffRange(t *testing.T) {
	c := &Client{opts: DefaultOptions()}
	for range 100 {
		w := c.backoff()
		assert.GreaterOrEqual(t, w, 500*time.Millisecond)
		assert.Less(t, w, 1300*time.Millisecond)
	}

	c.opts.Jitter = 0
	assert.Equal(t, DefaultBaseDelay, c.backoff())
}
