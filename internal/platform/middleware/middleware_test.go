package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yapisite/internal/platform/logger"
	"yapisite/pkg/requestcontext"
)

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = requestcontext.RequestID(r.Context())
	}))

	t.Run("generated when absent", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		_, err := uuid.Parse(seen)
		require.NoError(t, err)
		assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))
	})

	t.Run("well-formed incoming id kept", func(t *testing.T) {
		id := uuid.NewString()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", id)
		h.ServeHTTP(httptest.NewRecorder(), req)
		assert.Equal(t, id, seen)
	})

	t.Run("garbage incoming id replaced", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "<script>")
		h.ServeHTTP(httptest.NewRecorder(), req)
		assert.NotEqual(t, "<script>", seen)
	})
}

func TestClientIPFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.2")

	assert.Equal(t, "10.0.0.1", ClientIPFromRequest(req, false))
	assert.Equal(t, "203.0.113.7", ClientIPFromRequest(req, true))

	req.Header.Del("X-Forwarded-For")
	req.Header.Set("X-Real-IP", "198.51.100.4")
	assert.Equal(t, "198.51.100.4", ClientIPFromRequest(req, true))

	req.RemoteAddr = "[::1]:8080"
	assert.Equal(t, "::1", ClientIPFromRequest(req, false))
}

func TestRecovery(t *testing.T) {
	h := Recovery(logger.Discard())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal_error"}`, rec.Body.String())
}

func TestLoggerRecordsRouting(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, "json", "info")

	inner := Annotate(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	// Stand-in for the dispatcher: it enriches the context before the
	// downstream handler runs.
	dispatcher := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithRouteClass(r.Context(), "public")
		ctx = requestcontext.WithLocale(ctx, "en")
		inner.ServeHTTP(w, r.WithContext(ctx))
	})

	h := RequestID(Logger(log)(dispatcher))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/en/products", nil))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "http request", entry["msg"])
	assert.Equal(t, "/en/products", entry["path"])
	assert.InDelta(t, float64(http.StatusTeapot), entry["status"], 0)
	assert.Equal(t, "public", entry["route_class"])
	assert.Equal(t, "en", entry["locale"])
	assert.NotEmpty(t, entry["request_id"])
}
