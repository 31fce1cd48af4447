package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/calendar"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/config"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/dao"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/infra/consts"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/infra/core"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/infra/dbconf"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/infra/gormdb"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/infra/logging"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/infra/mysql"
	promcomp "github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/infra/prometheus"
	rediscomp "github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/infra/redis"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/lock"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/manifest"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/metrics"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/mirror"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/priority"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/provider/jy"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/service"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/sink"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/standardize"
)

const COMPONENT_SERVICE = "dataupdate_service"

var (
	ErrMirrorNotConfigured   = errors.New("mirror source/target databases not configured")
	ErrManifestNotConfigured = errors.New("manifest_path not configured")
)

var newJY = jy.New

// Service assembles the domain objects once the infra components are up.
type Service struct {
	*core.BaseComponent
	cfg     *config.AppConfig
	writeDB bool

	mysql *mysql.MysqlComponent
	gorm  *gormdb.GormComponent
	prom  *promcomp.Component
	redis *rediscomp.RedisComponent

	metrics *metrics.Metrics
	engine  *mirror.Engine
	runLogs dao.RunLogDao
	runner  *service.Runner
}

func newService(cfg *config.AppConfig, writeDB bool) *Service {
	return &Service{
		BaseComponent: core.NewBaseComponent(COMPONENT_SERVICE, consts.COMPONENT_LOGGING),
		cfg:           cfg,
		writeDB:       writeDB,
	}
}

func (s *Service) Start(ctx context.Context) error {
	if err := s.BaseComponent.Start(ctx); err != nil {
		return err
	}
	biz := s.cfg.BizConfig
	s.metrics = metrics.New(s.prom)

	engine, err := s.buildEngine()
	if err != nil {
		return err
	}
	s.engine = engine

	cal, err := s.buildCalendar(ctx)
	if err != nil {
		return err
	}

	var jyDB *sql.DB
	if s.mysql != nil && biz.Providers.JYDataSource != "" {
		if jyDB, err = s.mysql.GetDB(biz.Providers.JYDataSource); err != nil {
			return fmt.Errorf("jy data source: %w", err)
		}
	}

	var snk *sink.Sink
	if s.engine != nil && s.writeDB {
		snk = sink.New(biz.Paths.OutputRoot, s.engine, s.engine.Target())
	} else {
		snk = sink.New(biz.Paths.OutputRoot, nil, nil)
	}

	deps := &service.Deps{
		Registry: buildRegistry(biz, jyDB),
		Units:    standardize.DefaultUnits().Override(biz.Units),
		Sink:     snk,
		Cal:      cal,
		Biz:      biz,
		WriteDB:  s.writeDB,
	}

	opts := []service.Option{service.WithMetrics(s.metrics)}
	if biz.Lock.Enabled && s.redis != nil {
		opts = append(opts, service.WithLocker(lock.NewRedisLocker(s.redis.Client()), biz.Lock.TTL))
	}
	if biz.RunLog.Enabled && s.gorm != nil {
		db, err := s.gorm.GetDB(biz.RunLog.DataSource)
		if err != nil {
			return fmt.Errorf("run log data source: %w", err)
		}
		s.runLogs = dao.NewRunLogDao(db)
		if err := s.runLogs.AutoMigrate(ctx); err != nil {
			return err
		}
		opts = append(opts, service.WithRunLogger(service.NewDaoRunLogger(s.runLogs)))
	}
	s.runner = service.NewRunner(deps, prioritySource(biz), opts...)
	logging.Infof(ctx, "[service] ready: write_db=%v mirror=%v", s.writeDB, s.engine != nil)
	return nil
}

func prioritySource(biz *config.BizConfig) priority.Source {
	if biz.PriorityWorkbook != "" {
		return priority.Workbook{Path: biz.PriorityWorkbook}
	}
	return priority.Static(biz.Priority)
}

func (s *Service) buildEngine() (*mirror.Engine, error) {
	m := s.cfg.BizConfig.Mirror
	src, dst := s.cfg.Databases[m.Source], s.cfg.Databases[m.Target]
	if src == nil || dst == nil {
		return nil, nil
	}
	factory, err := mirror.NewFactory(m.Backend)
	if err != nil {
		return nil, err
	}
	return mirror.NewEngine(src, dst, factory).WithRecorder(s.metrics), nil
}

func (s *Service) buildCalendar(ctx context.Context) (calendar.Calendar, error) {
	c := s.cfg.BizConfig.Calendar
	if c.Source == "db" {
		if s.gorm == nil {
			return nil, fmt.Errorf("calendar source db needs the gorm component")
		}
		db, err := s.gorm.GetDB(c.DataSource)
		if err != nil {
			return nil, fmt.Errorf("calendar data source: %w", err)
		}
		return calendar.LoadSessionCalendar(ctx, db, c.Table)
	}
	holidays := make([]time.Time, 0, len(c.Holidays))
	for _, h := range c.Holidays {
		d, err := calendar.ParseDate(h)
		if err != nil {
			return nil, fmt.Errorf("holiday: %w", err)
		}
		holidays = append(holidays, d)
	}
	return calendar.NewWeekdayCalendar(holidays...), nil
}

func (s *Service) Runner() *service.Runner { return s.runner }

// RunLogs is nil when the run log is disabled.
func (s *Service) RunLogs() dao.RunLogDao { return s.runLogs }

// Sync mirrors tables (the configured default set when empty).
func (s *Service) Sync(ctx context.Context, tables []string, truncate bool) (map[string]mirror.TableResult, error) {
	if s.engine == nil {
		return nil, ErrMirrorNotConfigured
	}
	if len(tables) == 0 {
		tables = s.cfg.BizConfig.Mirror.Tables
	}
	opts := make(map[string]mirror.SyncOptions, len(tables))
	for _, t := range tables {
		opts[t] = mirror.SyncOptions{Truncate: truncate}
	}
	return s.engine.SyncMultipleTables(ctx, opts), nil
}

// SyncMultipleTables lets the HTTP controller drive the engine directly.
func (s *Service) SyncMultipleTables(ctx context.Context, tables map[string]mirror.SyncOptions) map[string]mirror.TableResult {
	if s.engine == nil {
		out := make(map[string]mirror.TableResult, len(tables))
		for t := range tables {
			out[t] = mirror.TableResult{Status: mirror.StatusError, Message: ErrMirrorNotConfigured.Error()}
		}
		return out
	}
	return s.engine.SyncMultipleTables(ctx, tables)
}

// Bootstrap creates the manifest tables through the mirror drivers.
func (s *Service) Bootstrap(ctx context.Context) (manifest.Report, error) {
	path := s.cfg.BizConfig.ManifestPath
	if path == "" {
		return nil, ErrManifestNotConfigured
	}
	m, err := manifest.Load(path)
	if err != nil {
		return nil, err
	}
	exec := s.engine
	if exec == nil {
		factory, err := mirror.NewFactory(s.cfg.BizConfig.Mirror.Backend)
		if err != nil {
			return nil, err
		}
		exec = mirror.NewEngine(&dbconf.Descriptor{}, &dbconf.Descriptor{}, factory)
	}
	return manifest.Bootstrap(ctx, m, exec), nil
}
