package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/sortinghat/internal/config"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	_, _ = w.Write([]byte("ok"))
})

// ----------------------------------------------------------------------------
// APIKeyAuth Tests
// ----------------------------------------------------------------------------

func TestAPIKeyAuth(t *testing.T) {
	tests := []struct {
		name       string
		cfg        config.SecurityConfig
		headers    map[string]string
		wantStatus int
		wantCode   string
	}{
		{
			name:       "disabled passes everything",
			cfg:        config.SecurityConfig{RequireAPIKey: false},
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing key",
			cfg:        config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"secret"}},
			wantStatus: http.StatusUnauthorized,
			wantCode:   "AUTH001",
		},
		{
			name:       "invalid key",
			cfg:        config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"secret"}},
			headers:    map[string]string{"X-API-Key": "guess"},
			wantStatus: http.StatusForbidden,
			wantCode:   "AUTH002",
		},
		{
			name:       "valid header key",
			cfg:        config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"other", "secret"}},
			headers:    map[string]string{"X-API-Key": "secret"},
			wantStatus: http.StatusOK,
		},
		{
			name:       "valid bearer token",
			cfg:        config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"secret"}},
			headers:    map[string]string{"Authorization": "bearer secret"},
			wantStatus: http.StatusOK,
		},
		{
			name:       "no keys configured rejects",
			cfg:        config.SecurityConfig{RequireAPIKey: true},
			headers:    map[string]string{"X-API-Key": "anything"},
			wantStatus: http.StatusForbidden,
			wantCode:   "AUTH002",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/runs", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()

			APIKeyAuth(&tt.cfg)(okHandler).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantCode != "" {
				var body map[string]string
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, tt.wantCode, body["code"])
			}
		})
	}
}

func TestIsValidAPIKey(t *testing.T) {
	keys := []string{"alpha", "beta"}
	assert.True(t, isValidAPIKey("beta", keys))
	assert.False(t, isValidAPIKey("gamma", keys))
	assert.False(t, isValidAPIKey("alph", keys))
	assert.False(t, isValidAPIKey("beta", nil))
}

// ----------------------------------------------------------------------------
// TrustedRealIP Tests
// ----------------------------------------------------------------------------

func TestTrustedRealIP(t *testing.T) {
	tests := []struct {
		name       string
		trusted    []string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{
			name:       "no trusted proxies ignores headers",
			remoteAddr: "203.0.113.5:1234",
			headers:    map[string]string{"X-Real-IP": "1.2.3.4"},
			want:       "203.0.113.5:1234",
		},
		{
			name:       "untrusted peer ignores headers",
			trusted:    []string{"10.0.0.0/8"},
			remoteAddr: "203.0.113.5:1234",
			headers:    map[string]string{"X-Forwarded-For": "1.2.3.4"},
			want:       "203.0.113.5:1234",
		},
		{
			name:       "trusted peer uses X-Real-IP",
			trusted:    []string{"10.0.0.0/8"},
			remoteAddr: "10.1.2.3:1234",
			headers:    map[string]string{"X-Real-IP": "1.2.3.4", "X-Forwarded-For": "5.6.7.8"},
			want:       "1.2.3.4",
		},
		{
			name:       "trusted peer uses first X-Forwarded-For",
			trusted:    []string{"10.1.2.3"},
			remoteAddr: "10.1.2.3:1234",
			headers:    map[string]string{"X-Forwarded-For": "5.6.7.8, 10.1.2.3"},
			want:       "5.6.7.8",
		},
		{
			name:       "trusted peer with garbage header",
			trusted:    []string{"10.0.0.0/8"},
			remoteAddr: "10.1.2.3:1234",
			headers:    map[string]string{"X-Real-IP": "not-an-ip"},
			want:       "10.1.2.3:1234",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := TrustedRealIP(tt.trusted)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				got = r.RemoteAddr
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)

			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTrustedNets(t *testing.T) {
	nets := parseTrustedNets([]string{"10.0.0.0/8", " 192.168.1.1 ", "::1", "bogus", ""})
	require.Len(t, nets, 3)

	assert.True(t, isTrusted(net.ParseIP("10.200.0.1"), nets))
	assert.True(t, isTrusted(net.ParseIP("192.168.1.1"), nets))
	assert.False(t, isTrusted(net.ParseIP("192.168.1.2"), nets))
	assert.True(t, isTrusted(net.ParseIP("::1"), nets))
	assert.False(t, isTrusted(nil, nets))
}

// ----------------------------------------------------------------------------
// Logger Tests
// ----------------------------------------------------------------------------

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	h := Logger(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream"))
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/infer", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "/api/infer", entry["path"])
	assert.Equal(t, float64(http.StatusBadGateway), entry["status"])
	assert.Equal(t, float64(len("upstream")), entry["bytes"])
}

func TestResponseWriter_DefaultStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	ww := &responseWriter{ResponseWriter: rec, status: http.StatusOK}

	_, _ = ww.Write([]byte("hi"))
	ww.WriteHeader(http.StatusTeapot)

	assert.Equal(t, http.StatusOK, ww.status)
	assert.Equal(t, 2, ww.bytes)
	assert.Same(t, rec, ww.Unwrap())
}
