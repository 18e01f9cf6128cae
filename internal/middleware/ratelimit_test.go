package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/gch/gch-api-go/internal/config"
)

func rateCtx(userID string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.Header.Set("X-Real-IP", "203.0.113.7")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/auth/login")
	if userID != "" {
		c.Set(userIDKey, userID)
	}
	return c
}

func TestBuildRateKey(t *testing.T) {
	cfg := config.RateLimitConfig{Prefix: "rl"}

	cases := map[string]struct {
		strategy string
		userID   string
		want     string
	}{
		"ip":             {"ip", "", "rl:ip:203.0.113.7"},
		"user anon":      {"user", "", "rl:user:anon"},
		"user bound":     {"user", "42", "rl:user:42"},
		"route":          {"route", "", "rl:route:POST /auth/login"},
		"ip and route":   {"ip_route", "", "rl:ip:203.0.113.7:route:POST /auth/login"},
		"ip and user":    {"ip_user", "42", "rl:ip:203.0.113.7:user:42"},
		"user and route": {"user_route", "42", "rl:user:42:route:POST /auth/login"},
		"default: full":  {"something-else", "42", "rl:ip:203.0.113.7:user:42:route:POST /auth/login"},
	}
	for name, tc := range cases {
		cfg.KeyStrategy = tc.strategy
		assert.Equal(t, tc.want, buildRateKey(cfg, rateCtx(tc.userID)), name)
	}
}

func TestBuildRateKeySeparatesClients(t *testing.T) {
	cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip_route"}

	a := buildRateKey(cfg, rateCtx(""))

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.Header.Set("X-Real-IP", "198.51.100.9")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/auth/login")

	assert.NotEqual(t, a, buildRateKey(cfg, c), "different clients must not share a bucket")
}

func TestAsInt64(t *testing.T) {
	assert.Equal(t, int64(7), asInt64(int64(7)))
	assert.Equal(t, int64(7), asInt64(7))
	assert.Equal(t, int64(7), asInt64(7.9))
	assert.Equal(t, int64(7), asInt64("7"))
	assert.Equal(t, int64(0), asInt64("junk"))
	assert.Equal(t, int64(0), asInt64(nil))
}
