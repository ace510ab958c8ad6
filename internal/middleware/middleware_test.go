package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func sign(t *testing.T, secret string, method jwt.SigningMethod, claims jwt.RegisteredClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return tok
}

// echoUser writes the subject found in the context, or "-".
var echoUser = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	id, ok := UserIDFromContext(r.Context())
	if !ok {
		id = "-"
	}
	_, _ = w.Write([]byte(id))
})

func TestJWTAuth(t *testing.T) {
	valid := sign(t, testSecret, jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "user-42",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	expired := sign(t, testSecret, jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "user-42",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	})
	noExpiry := sign(t, testSecret, jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "user-42"})
	noSubject := sign(t, testSecret, jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	wrongKey := sign(t, "other", jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "user-42",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	wrongAlg := sign(t, testSecret, jwt.SigningMethodHS512, jwt.RegisteredClaims{
		Subject:   "user-42",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})

	tests := []struct {
		name     string
		secret   string
		path     string
		header   string
		wantCode int
		wantBody string
	}{
		{"valid token", testSecret, "/policies/1", "Bearer " + valid, http.StatusOK, "user-42"},
		{"missing header", testSecret, "/policies/1", "", http.StatusUnauthorized, ""},
		{"not bearer", testSecret, "/policies/1", "Basic abc", http.StatusUnauthorized, ""},
		{"expired", testSecret, "/policies/1", "Bearer " + expired, http.StatusUnauthorized, ""},
		{"no expiry", testSecret, "/policies/1", "Bearer " + noExpiry, http.StatusUnauthorized, ""},
		{"no subject", testSecret, "/policies/1", "Bearer " + noSubject, http.StatusUnauthorized, ""},
		{"wrong key", testSecret, "/policies/1", "Bearer " + wrongKey, http.StatusUnauthorized, ""},
		{"wrong algorithm", testSecret, "/policies/1", "Bearer " + wrongAlg, http.StatusUnauthorized, ""},
		{"public path", testSecret, "/health", "", http.StatusOK, "-"},
		{"metrics is public", testSecret, "/metrics", "", http.StatusOK, "-"},
		{"swagger doc is public", testSecret, "/swagger/doc.json", "", http.StatusOK, "-"},
		{"lookalike of health", testSecret, "/healthz-admin", "", http.StatusUnauthorized, ""},
		{"lookalike of metrics", testSecret, "/metrics-internal", "", http.StatusUnauthorized, ""},
		{"lookalike of swagger", testSecret, "/swaggerui", "", http.StatusUnauthorized, ""},
		{"auth disabled", "", "/policies/1", "", http.StatusOK, AnonymousUser},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			JWTAuth(tt.secret)(echoUser).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode == http.StatusOK {
				assert.Equal(t, tt.wantBody, rec.Body.String())
				return
			}
			var env map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
			assert.Equal(t, false, env["success"])
			assert.Equal(t, "Unauthorized", env["message"])
		})
	}
}

func TestRateLimiter_RejectsOverLimit(t *testing.T) {
	rl := NewRateLimiter(2)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	send := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/policies/1", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusNoContent, send("10.0.0.1:5000").Code)
	assert.Equal(t, http.StatusNoContent, send("10.0.0.1:5001").Code)

	rec := send("10.0.0.1:5002")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "Too many requests")

	// other clients have their own bucket
	assert.Equal(t, http.StatusNoContent, send("10.0.0.2:5000").Code)

	// tokens refill over time
	now = now.Add(30 * time.Second)
	assert.Equal(t, http.StatusNoContent, send("10.0.0.1:5003").Code)
}

func TestRateLimiter_EvictsIdleVisitors(t *testing.T) {
	rl := NewRateLimiter(10)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.allow("10.0.0.1")
	now = now.Add(2 * time.Minute)
	rl.allow("10.0.0.2")
	now = now.Add(2 * time.Minute)

	rl.evictIdle()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.NotContains(t, rl.visitors, "10.0.0.1")
	assert.Contains(t, rl.visitors, "10.0.0.2")
}

func TestClientIP(t *testing.T) {
	assert.Equal(t, "192.0.2.1", clientIP("192.0.2.1:1234"))
	assert.Equal(t, "::1", clientIP("[::1]:80"))
	assert.Equal(t, "192.0.2.1", clientIP("192.0.2.1"))
}

func TestLimitRequestBody(t *testing.T) {
	h := LimitRequestBody(16)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 64)
		n, _ := r.Body.Read(buf)
		_, _ = w.Write(buf[:n])
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/quotes", strings.NewReader(`{"a":1}`)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `{"a":1}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/quotes", strings.NewReader(strings.Repeat("x", 17))))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Contains(t, rec.Body.String(), "Request body exceeds maximum allowed size")
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeaders(echoUser).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestCORS(t *testing.T) {
	h := CORS([]string{"https://admin.example.com"})(echoUser)

	req := httptest.NewRequest(http.MethodOptions, "/policies/1", nil)
	req.Header.Set("Origin", "https://admin.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "https://admin.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/policies/1", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
