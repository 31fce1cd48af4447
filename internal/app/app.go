// Package app registers the infra and domain components in a container and
// drives their lifecycle for the CLI commands and the daemon.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/api"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/config"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/infra/consts"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/infra/core"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/infra/gormdb"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/infra/httpserver"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/infra/logging"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/infra/mysql"
	promcomp "github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/infra/prometheus"
	rediscomp "github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/infra/redis"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/infra/telemetry"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/scheduler"
)

type Options struct {
	// Serve adds the HTTP server and the cron scheduler.
	Serve bool
	// WriteDB enables the table append of the persistence sink.
	WriteDB bool
}

type App struct {
	cfg       *config.AppConfig
	container *core.Container
	lm        *core.LifecycleManager
	svc       *Service
	http      *httpserver.Component
	sched     *scheduler.Component

	shutdownTimeout time.Duration
}

func New(cfg *config.AppConfig, opts Options) (*App, error) {
	a := &App{
		cfg:             cfg,
		container:       core.NewContainer(),
		shutdownTimeout: 30 * time.Second,
	}
	a.lm = core.NewLifecycleManager(a.container)
	if err := a.registerComponents(opts); err != nil {
		return nil, fmt.Errorf("register components failed: %w", err)
	}
	return a, nil
}

func (a *App) registerComponents(opts Options) error {
	cfg := a.cfg
	svc := newService(cfg, opts.WriteDB)
	comps := []core.Component{logging.NewLoggerComponent(cfg.Logging)}

	tracing := cfg.Telemetry != nil && cfg.Telemetry.Enabled
	if tracing {
		comps = append(comps, telemetry.NewComponent(cfg.Telemetry))
		svc.AddDependencies(consts.COMPONENT_TELEMETRY)
	}

	if cfg.MySQL != nil && cfg.MySQL.Enabled {
		svc.mysql = mysql.NewMySQLComponent(cfg.MySQL)
		svc.AddDependencies(consts.COMPONENT_MYSQL)
		comps = append(comps, svc.mysql)
	}
	if cfg.Gorm != nil && cfg.Gorm.Enabled {
		svc.gorm = gormdb.NewGormComponent(cfg.Gorm)
		svc.AddDependencies(consts.COMPONENT_GORM)
		comps = append(comps, svc.gorm)
	}
	if cfg.Prometheus != nil && cfg.Prometheus.Enabled {
		svc.prom = promcomp.NewComponent(cfg.Prometheus)
		svc.AddDependencies(consts.COMPONENT_PROMETHEUS)
		comps = append(comps, svc.prom)
	}
	if cfg.Redis != nil && cfg.Redis.Enabled {
		svc.redis = rediscomp.NewRedisComponent(cfg.Redis)
		svc.AddDependencies(consts.COMPONENT_REDIS)
		comps = append(comps, svc.redis)
	}
	a.svc = svc
	comps = append(comps, svc)

	if opts.Serve {
		if cfg.HTTPServer != nil && cfg.HTTPServer.Enabled {
			if tracing {
				cfg.HTTPServer.Tracing = cfg.Telemetry.ServiceName
			}
			a.http = httpserver.NewComponent(cfg.HTTPServer, COMPONENT_SERVICE)
			if err := a.http.AddRouteRegistrar(a.registerRoutes); err != nil {
				return err
			}
			comps = append(comps, a.http)
		}
		if s := cfg.BizConfig.Schedule; s.Enabled {
			sched, err := scheduler.New(s.Spec, s.TimeZone, s.Timeout, a.dailyJob, COMPONENT_SERVICE)
			if err != nil {
				return err
			}
			a.sched = sched
			comps = append(comps, sched)
		}
	}

	for _, c := range comps {
		if err := a.container.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// registerRoutes runs at http start, after the service component is up.
func (a *App) registerRoutes(r chi.Router) error {
	ctrl := &api.Controller{
		Runner:        a.svc.Runner(),
		Syncer:        a.svc,
		DefaultTables: a.cfg.BizConfig.Mirror.Tables,
	}
	if logs := a.svc.RunLogs(); logs != nil {
		ctrl.RunLogs = logs
	}
	if a.svc.prom != nil {
		ctrl.Metrics = a.svc.prom.Handler()
		ctrl.MetricsPath = a.svc.prom.Path()
	}
	return ctrl.Register(r)
}

func (a *App) dailyJob(ctx context.Context) error {
	runner := a.svc.Runner()
	_, err := runner.RunAll(ctx, a.cfg.BizConfig.Schedule.Families, runner.DefaultWindow())
	return err
}

func (a *App) Service() *Service { return a.svc }

func (a *App) Start(ctx context.Context) error { return a.lm.StartAll(ctx) }

func (a *App) Stop(ctx context.Context) {
	stopCtx, cancel := context.WithTimeout(ctx, a.shutdownTimeout)
	defer cancel()
	a.lm.StopAll(stopCtx)
}

// Run starts everything and blocks until SIGINT/SIGTERM or ctx is done.
func (a *App) Run(ctx context.Context) error {
	if err := a.Start(ctx); err != nil {
		return err
	}
	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-sigCtx.Done()
	logging.Infof(ctx, "shutdown signal received, stopping components")
	a.Stop(context.Background())
	return nil
}
