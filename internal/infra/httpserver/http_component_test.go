package httpserver

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func TestComponentServesRegisteredRoutes(t *testing.T) {
	c := NewComponent(&Config{Enabled: true, Address: "127.0.0.1:0"})
	require.NoError(t, c.AddRouteRegistrar(func(r chi.Router) error {
		r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("pong")) })
		return nil
	}))
	ctx := context.Background()
	require.NoError(t, c.Start(ctx))
	defer func() { _ = c.Stop(ctx) }()
	require.NoError(t, c.HealthCheck())

	for path, want := range map[string]string{"/healthz": "ok", "/ping": "pong"} {
		resp, err := http.Get("http://" + c.Addr() + path)
		require.NoError(t, err)
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, want, string(body))
	}

	assert.Error(t, c.AddRouteRegistrar(func(chi.Router) error { return nil }))
}

func TestComponentRejectsDisabled(t *testing.T) {
	c := NewComponent(&Config{})
	assert.Error(t, c.Start(context.Background()))
}

func TestRouterTracesRequestsWhenNamed(t *testing.T) {
	exp := tracetest.NewInMemoryExporter()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	for _, name := range []string{"", "dataupdate"} {
		r := NewRouter(name)
		r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("pong")) })
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	spans := exp.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, trace.SpanKindServer, spans[0].SpanKind)
}
