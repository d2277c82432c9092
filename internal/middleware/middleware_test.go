package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	apperrors "hotparts/internal/errors"
	"hotparts/internal/infrastructure"
	"hotparts/internal/shared/testutil"
)

func ok(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = infrastructure.GetTraceID(r.Context())
		assert.Equal(t, seen, GetRequestID(r.Context()))
	}))

	t.Run("generated", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.NotEmpty(t, seen)
		assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
	})

	t.Run("propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "req-42")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, "req-42", seen)
		assert.Equal(t, "req-42", rec.Header().Get(RequestIDHeader))
	})
}

func TestStructuredLogger(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)

	r := chi.NewRouter()
	r.Use(StructuredLogger(logger))
	r.Get("/boom", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusInternalServerError) })
	r.Get("/fine", ok)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/fine", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))

	testutil.AssertLogContains(t, handler, slog.LevelInfo, "request completed")
	testutil.AssertLogContains(t, handler, slog.LevelError, "request completed")
}

func TestRecoverer(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	eh := apperrors.NewErrorHandler(logger, false)

	h := RequestID(Recoverer(eh)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, rec.Header().Get(RequestIDHeader), body["trace_id"])
	testutil.AssertLogContains(t, handler, slog.LevelError, "panic recovered")
}

func TestRateLimiter(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	rl := NewRateLimiter(0.001, 2, apperrors.NewErrorHandler(logger, false), logger)
	h := rl.Handler(http.HandlerFunc(ok))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestCORS(t *testing.T) {
	h := CORS(CORSConfig{AllowedOrigins: []string{"http://ui.example"}})(http.HandlerFunc(ok))

	tests := []struct {
		name       string
		method     string
		origin     string
		wantAllow  string
		wantStatus int
	}{
		{name: "allowed", method: http.MethodGet, origin: "http://ui.example", wantAllow: "http://ui.example", wantStatus: http.StatusOK},
		{name: "foreign", method: http.MethodGet, origin: "http://evil.example", wantAllow: "", wantStatus: http.StatusOK},
		{name: "preflight", method: http.MethodOptions, origin: "http://ui.example", wantAllow: "http://ui.example", wantStatus: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/stats", nil)
			req.Header.Set("Origin", tt.origin)
			if tt.method == http.MethodOptions {
				req.Header.Set("Access-Control-Request-Method", http.MethodGet)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantAllow, rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestOTelMiddleware_RecordsRoute(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	logger, _ := testutil.NewTestLogger(t)

	m, err := NewOTelMiddleware(nil, provider.Meter("test"), logger)
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(m.Handler)
	r.Get("/api/masters/{kind}", ok)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/masters/excess", nil))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var found bool
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			if md.Name != "http.server.requests" {
				continue
			}
			sum, isSum := md.Data.(metricdata.Sum[int64])
			require.True(t, isSum)
			require.Len(t, sum.DataPoints, 1)
			route, _ := sum.DataPoints[0].Attributes.Value("route")
			assert.Equal(t, "/api/masters/{kind}", route.AsString())
			found = true
		}
	}
	assert.True(t, found)
}

func TestValidator(t *testing.T) {
	type query struct {
		Kind  string `json:"kind" validate:"kind"`
		Count int    `json:"count" validate:"min=1,max=100"`
	}
	v := NewValidator()

	require.NoError(t, v.ValidateStruct(query{Kind: "excess", Count: 10}))

	err := v.ValidateStruct(query{Kind: "bogus", Count: 0})
	var apiErr *apperrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	fields, isList := apiErr.Details.([]apperrors.ValidationError)
	require.True(t, isList)
	require.Len(t, fields, 2)
	assert.Equal(t, "kind", fields[0].Field)
	assert.Equal(t, "count must be at least 1", fields[1].Message)
}

func TestQueryParams(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=25&min_price=1.5&bad=x", nil)

	n, err := QueryInt(req, "limit", 50)
	require.NoError(t, err)
	assert.Equal(t, 25, n)

	n, err = QueryInt(req, "absent", 50)
	require.NoError(t, err)
	assert.Equal(t, 50, n)

	f, err := QueryFloat(req, "min_price", 10)
	require.NoError(t, err)
	assert.Equal(t, 1.5, f)

	_, err = QueryInt(req, "bad", 0)
	assert.Error(t, err)
	_, err = QueryFloat(req, "bad", 0)
	assert.Error(t, err)
}
