package proxy

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/mchmarny/scoreproxy/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestID(t *testing.T) {
	var scoped bool
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scoped = logging.FromContext(r.Context()) != nil
	}))

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/score", nil))
	id := rec.Header().Get(requestIDHeader)
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.True(t, scoped)

	known := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/score", nil)
	req.Header.Set(requestIDHeader, known)
	rec = serve(h, req)
	assert.Equal(t, known, rec.Header().Get(requestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/score", nil)
	req.Header.Set(requestIDHeader, "not-a-uuid\nx")
	rec = serve(h, req)
	assert.NotEqual(t, "not-a-uuid\nx", rec.Header().Get(requestIDHeader))
}

func TestWithCORS(t *testing.T) {
	h := WithCORS(ScoreHandler(&fakeScorer{body: []byte(goodScore)}), []string{"https://app.example.com"})

	req := httptest.NewRequest(http.MethodOptions, "/score", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := serve(h, req)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/score?address=a&chainId=1", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = serve(h, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWithCORS_DefaultAnyOrigin(t *testing.T) {
	h := WithCORS(ScoreHandler(&fakeScorer{body: []byte(goodScore)}), nil)

	req := httptest.NewRequest(http.MethodGet, "/score?address=a&chainId=1", nil)
	req.Header.Set("Origin", "https://anywhere.example.com")
	rec := serve(h, req)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestHealthHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	HealthHandler(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
