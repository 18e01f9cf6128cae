package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gch/gch-api-go/internal/config"
)

func cacheCtx(method, target, path string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(method, target, nil)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath(path)
	return c
}

func TestCacheKeyFrom(t *testing.T) {
	cfg := config.CacheConfig{Prefix: "cache", KeyStrategy: "route_query"}

	a := cacheKeyFrom(cfg, cacheCtx(http.MethodGet, "/forms?page=1", "/forms"))
	b := cacheKeyFrom(cfg, cacheCtx(http.MethodGet, "/forms?page=1", "/forms"))
	assert.Equal(t, a, b, "same request must hash to the same key")
	assert.True(t, strings.HasPrefix(a, "cache:"))

	// The default strategy folds the query string in.
	other := cacheKeyFrom(cfg, cacheCtx(http.MethodGet, "/forms?page=2", "/forms"))
	assert.NotEqual(t, a, other)

	// "route" ignores both method and query.
	cfg.KeyStrategy = "route"
	assert.Equal(t,
		cacheKeyFrom(cfg, cacheCtx(http.MethodGet, "/forms?page=1", "/forms")),
		cacheKeyFrom(cfg, cacheCtx(http.MethodHead, "/forms?page=2", "/forms")))

	// "method_route" splits by method again.
	cfg.KeyStrategy = "method_route"
	assert.NotEqual(t,
		cacheKeyFrom(cfg, cacheCtx(http.MethodGet, "/forms", "/forms")),
		cacheKeyFrom(cfg, cacheCtx(http.MethodHead, "/forms", "/forms")))
}

func TestPayloadRoundTrip(t *testing.T) {
	hdr := http.Header{}
	hdr.Set("Content-Type", echo.MIMEApplicationJSON)
	hdr.Add("X-Thing", "one")
	hdr.Add("X-Thing", "two")
	body := []byte(`[{"id":1}]`)

	payload, err := encodePayload(http.StatusOK, hdr, body)
	require.NoError(t, err)

	status, gotHdr, gotBody, ok := decodePayload(payload)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, body, gotBody)
	assert.Equal(t, echo.MIMEApplicationJSON, gotHdr.Get("Content-Type"))
	assert.Equal(t, []string{"one", "two"}, gotHdr["X-Thing"])
}

func TestPayloadEmptyBody(t *testing.T) {
	payload, err := encodePayload(http.StatusOK, http.Header{}, nil)
	require.NoError(t, err)

	status, _, body, ok := decodePayload(payload)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Empty(t, body)
}

func TestDecodePayloadRejectsShortOrCorruptInput(t *testing.T) {
	for _, bs := range [][]byte{nil, {}, {1, 2, 3}, make([]byte, 7)} {
		_, _, _, ok := decodePayload(bs)
		assert.False(t, ok, "input of %d bytes", len(bs))
	}

	// Declared header length reaching past the payload end.
	bogus := []byte{0, 0, 0, 200, 0, 0, 255, 255, '{', '}'}
	_, _, _, ok := decodePayload(bogus)
	assert.False(t, ok)
}

func TestCaptureWriterSkipsOversizedBody(t *testing.T) {
	rec := httptest.NewRecorder()
	cw := &captureWriter{ResponseWriter: rec, status: http.StatusOK, limit: 10}

	_, err := cw.Write([]byte("123456"))
	require.NoError(t, err)
	assert.True(t, cw.cacheable())

	// The second chunk pushes the body past the limit: the client still
	// receives everything, but nothing may be stored.
	_, err = cw.Write([]byte("789012"))
	require.NoError(t, err)
	assert.Equal(t, "123456789012", rec.Body.String())
	assert.Equal(t, int64(12), cw.size)
	assert.False(t, cw.cacheable())
	assert.Zero(t, cw.buf.Len())
}

func TestCaptureWriterBuffersWithinLimit(t *testing.T) {
	rec := httptest.NewRecorder()
	cw := &captureWriter{ResponseWriter: rec, status: http.StatusOK, limit: 10}

	_, _ = cw.Write([]byte("1234"))
	_, _ = cw.Write([]byte("5678"))
	assert.True(t, cw.cacheable())
	assert.Equal(t, "12345678", cw.buf.String())

	// Non-200 renders are never stored even when they fit.
	cw.WriteHeader(http.StatusServiceUnavailable)
	assert.False(t, cw.cacheable())
}
