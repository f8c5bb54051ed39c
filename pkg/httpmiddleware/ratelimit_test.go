package httpmiddleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okBackend() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func hit(handler http.Handler, remoteAddr string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = remoteAddr
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRateLimitUnderLimit(t *testing.T) {
	handler := RateLimit(RateLimitConfig{Max: 5, Window: time.Minute})(okBackend())

	for i := range 5 {
		rec := hit(handler, "192.168.1.1:12345", nil)
		assert.Equal(t, http.StatusOK, rec.Code, "request %d fits the budget", i+1)
		assert.Equal(t, "5", rec.Header().Get("X-RateLimit-Limit"))
		assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Remaining"))
		assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Reset"))
	}
}

func TestRateLimitOverLimitAnswersEnvelope(t *testing.T) {
	handler := RateLimit(RateLimitConfig{Max: 2, Window: time.Minute})(okBackend())

	for range 2 {
		require.Equal(t, http.StatusOK, hit(handler, "10.0.0.1:9999", nil).Code)
	}

	rec := hit(handler, "10.0.0.1:9999", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	var body struct {
		Status   int      `json:"status"`
		Messages []string `json:"messages"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, http.StatusTooManyRequests, body.Status)
	assert.Equal(t, []string{"rate limit exceeded"}, body.Messages)
}

func TestRateLimitKeysAreIndependent(t *testing.T) {
	handler := RateLimit(RateLimitConfig{Max: 1, Window: time.Minute})(okBackend())

	assert.Equal(t, http.StatusOK, hit(handler, "10.0.0.1:1234", nil).Code)
	assert.Equal(t, http.StatusOK, hit(handler, "10.0.0.2:1234", nil).Code, "other clients keep their own budget")
	assert.Equal(t, http.StatusTooManyRequests, hit(handler, "10.0.0.1:5678", nil).Code,
		"the port does not change the key")
}

func TestRateLimitCustomKeyFunc(t *testing.T) {
	handler := RateLimit(RateLimitConfig{
		Max:    1,
		Window: time.Minute,
		KeyFunc: func(r *http.Request) string {
			return r.Header.Get("X-API-Key")
		},
	})(okBackend())

	keyA := http.Header{"X-Api-Key": []string{"key-a"}}
	keyB := http.Header{"X-Api-Key": []string{"key-b"}}

	assert.Equal(t, http.StatusOK, hit(handler, "10.0.0.1:1", keyA).Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(handler, "10.0.0.2:2", keyA).Code)
	assert.Equal(t, http.StatusOK, hit(handler, "10.0.0.3:3", keyB).Code)
}

func TestRateLimitHonorsForwardedFor(t *testing.T) {
	handler := RateLimit(RateLimitConfig{Max: 1, Window: time.Minute})(okBackend())

	forwarded := http.Header{"X-Forwarded-For": []string{"203.0.113.50, 70.41.3.18"}}

	assert.Equal(t, http.StatusOK, hit(handler, "192.168.1.1:4444", forwarded).Code)
	// Same end client through a different proxy hop shares the budget.
	assert.Equal(t, http.StatusTooManyRequests, hit(handler, "192.168.1.2:5555", forwarded).Code)
}
