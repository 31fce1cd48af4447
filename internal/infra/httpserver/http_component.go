// Package httpserver serves the chi router of the daemon as a lifecycle component.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/riandyrn/otelchi"
	"go.uber.org/zap"

	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/infra/consts"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/infra/core"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/infra/logging"
)

// RouteRegisterFunc mounts handlers before the server starts.
type RouteRegisterFunc func(r chi.Router) error

type Component struct {
	*core.BaseComponent
	cfg      *Config
	router   chi.Router
	server   *http.Server
	listener net.Listener
	extras   []RouteRegisterFunc
	started  bool
}

// NewComponent depends on logging plus any component the routes need.
func NewComponent(cfg *Config, deps ...string) *Component {
	return &Component{
		BaseComponent: core.NewBaseComponent(consts.COMPONENT_HTTP, append([]string{consts.COMPONENT_LOGGING}, deps...)...),
		cfg:           cfg,
	}
}

func (hc *Component) AddRouteRegistrar(fn RouteRegisterFunc) error {
	if fn == nil {
		return nil
	}
	if hc.started {
		return fmt.Errorf("cannot register route: http_server already started")
	}
	hc.extras = append(hc.extras, fn)
	return nil
}

func (hc *Component) Router() chi.Router { return hc.router }

// Addr is the bound address once started.
func (hc *Component) Addr() string {
	if hc.listener == nil {
		return ""
	}
	return hc.listener.Addr().String()
}

func (hc *Component) Start(ctx context.Context) error {
	if err := hc.BaseComponent.Start(ctx); err != nil {
		return err
	}
	if hc.cfg == nil || !hc.cfg.Enabled {
		return errors.New("http_server component enabled flag mismatch")
	}
	hc.cfg.applyDefaults()

	hc.router = NewRouter(hc.cfg.Tracing)
	hc.router.Get("/healthz", healthHandler)
	for _, fn := range hc.extras {
		if err := fn(hc.router); err != nil {
			return fmt.Errorf("route register failed: %w", err)
		}
	}

	ln, err := net.Listen("tcp", hc.cfg.Address)
	if err != nil {
		return fmt.Errorf("http_server listen %s: %w", hc.cfg.Address, err)
	}
	hc.listener = ln
	hc.server = &http.Server{
		ReadTimeout:  hc.cfg.ReadTimeout,
		WriteTimeout: hc.cfg.WriteTimeout,
		IdleTimeout:  hc.cfg.IdleTimeout,
		Handler:      hc.router,
	}

	go func() {
		logging.Infof(ctx, "http_server listening on %s", ln.Addr())
		if err := hc.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Errorf(ctx, "http_server server error: %v", err)
		}
	}()

	hc.started = true
	return nil
}

func (hc *Component) Stop(ctx context.Context) error {
	defer hc.BaseComponent.Stop(ctx)
	if !hc.started || hc.server == nil {
		return nil
	}
	stopCtx, cancel := context.WithTimeout(ctx, hc.cfg.GracefulTimeout)
	defer cancel()
	if err := hc.server.Shutdown(stopCtx); err != nil {
		return fmt.Errorf("http_server graceful shutdown failed: %w", err)
	}
	hc.started = false
	logging.Infof(ctx, "http_server server stopped")
	return nil
}

func (hc *Component) HealthCheck() error {
	if err := hc.BaseComponent.HealthCheck(); err != nil {
		return err
	}
	if !hc.started {
		return fmt.Errorf("http_server server not started")
	}
	return nil
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// NewRouter returns a chi router with the standard middleware stack. A
// non-empty serviceName adds otelchi server spans.
func NewRouter(serviceName string) chi.Router {
	r := chi.NewRouter()
	if serviceName != "" {
		r.Use(otelchi.Middleware(serviceName, otelchi.WithChiRoutes(r)))
	}
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(accessLog)
	return r
}

func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logging.Info(r.Context(), "http_access",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.String("remote", r.RemoteAddr),
			zap.Duration("dur", time.Since(start)),
		)
	})
}
