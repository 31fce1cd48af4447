package gormdb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	mysqlDriver "gorm.io/driver/mysql"
	gormpg "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/infra/consts"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/infra/core"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/infra/dbconf"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/infra/logging"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/infra/mysql"
)

// Config top-level gorm config; each data source picks its dialect (mysql | postgres).
type Config struct {
	Enabled       bool                          `yaml:"enabled" json:"enabled"`
	DataSources   map[string]*dbconf.Descriptor `yaml:"data_sources" json:"data_sources"`
	LogLevel      string                        `yaml:"log_level" json:"log_level"`           // silent|error|warn|info
	SlowThreshold time.Duration                 `yaml:"slow_threshold" json:"slow_threshold"` // e.g. 200ms
}

// GormComponent manages one *gorm.DB per data source.
type GormComponent struct {
	*core.BaseComponent
	cfg   *Config
	dbs   map[string]*gorm.DB
	mutex sync.RWMutex
	log   logger.Interface
}

func NewGormComponent(cfg *Config) *GormComponent {
	return &GormComponent{
		BaseComponent: core.NewBaseComponent(consts.COMPONENT_GORM, consts.COMPONENT_LOGGING),
		cfg:           cfg,
		dbs:           make(map[string]*gorm.DB),
		log:           NewLogger(cfg.LogLevel, cfg.SlowThreshold),
	}
}

// Open opens a gorm handle for one descriptor. Shared with the mirror gorm backend.
func Open(ds *dbconf.Descriptor, log logger.Interface) (*gorm.DB, error) {
	dsn, err := ds.BuildDSN()
	if err != nil {
		return nil, err
	}
	var dialector gorm.Dialector
	switch ds.DialectOrDefault() {
	case dbconf.DialectMySQL:
		dialector = mysqlDriver.New(mysqlDriver.Config{DSN: dsn})
	case dbconf.DialectPostgres:
		dialector = gormpg.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported gorm dialect %q", ds.Dialect)
	}
	if log == nil {
		log = NewLogger("warn", 0)
	}
	return gorm.Open(dialector, &gorm.Config{
		Logger:                                   log,
		DisableForeignKeyConstraintWhenMigrating: true,
	})
}

func (c *GormComponent) Start(ctx context.Context) error {
	if err := c.BaseComponent.Start(ctx); err != nil {
		return err
	}
	if len(c.cfg.DataSources) == 0 {
		return fmt.Errorf("gorm no data_sources configured")
	}
	for name, ds := range c.cfg.DataSources {
		if ds == nil {
			return fmt.Errorf("datasource %s config is nil", name)
		}
		gormDB, err := Open(ds, c.log)
		if err != nil {
			return fmt.Errorf("open gorm db %s failed: %w", name, err)
		}
		sqlDB, err := gormDB.DB()
		if err != nil {
			return fmt.Errorf("get underlying sql.DB for %s failed: %w", name, err)
		}
		mysql.ApplyPool(sqlDB, ds)
		if ds.PingOnStart {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := sqlDB.PingContext(pingCtx)
			cancel()
			if err != nil {
				_ = sqlDB.Close()
				return fmt.Errorf("ping gorm db %s failed: %w", name, err)
			}
		}
		c.mutex.Lock()
		c.dbs[name] = gormDB
		c.mutex.Unlock()
		logging.Infof(ctx, "[gorm] datasource %s initialized (%s)", name, ds)
	}
	logging.Infof(ctx, "[gorm] started. data sources=%v", c.listNames())
	return nil
}

func (c *GormComponent) Stop(ctx context.Context) error {
	defer func() { _ = c.BaseComponent.Stop(ctx) }()
	c.mutex.Lock()
	defer c.mutex.Unlock()
	for name, gdb := range c.dbs {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
		logging.Infof(ctx, "[gorm] datasource %s closed", name)
	}
	c.dbs = make(map[string]*gorm.DB)
	return nil
}

func (c *GormComponent) HealthCheck() error {
	if err := c.BaseComponent.HealthCheck(); err != nil {
		return err
	}
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	for name, gdb := range c.dbs {
		sqlDB, err := gdb.DB()
		if err != nil {
			return fmt.Errorf("datasource %s get sql.DB failed: %w", name, err)
		}
		if err := sqlDB.Ping(); err != nil {
			return fmt.Errorf("datasource %s ping failed: %w", name, err)
		}
	}
	return nil
}

func (c *GormComponent) GetDB(name string) (*gorm.DB, error) {
	c.mutex.RLock()
	db, ok := c.dbs[name]
	c.mutex.RUnlock()
	if !ok {
		return nil, fmt.Errorf("gorm datasource %s not found", name)
	}
	return db, nil
}

func (c *GormComponent) listNames() []string {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	names := make([]string, 0, len(c.dbs))
	for k := range c.dbs {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

type gormLogger struct {
	logLevel      logger.LogLevel
	slowThreshold time.Duration
}

// NewLogger routes gorm's logger into the zap-backed logging package.
func NewLogger(level string, slow time.Duration) logger.Interface {
	lvl := logger.Warn
	switch strings.ToLower(level) {
	case "silent":
		lvl = logger.Silent
	case "error":
		lvl = logger.Error
	case "info", "debug":
		lvl = logger.Info
	}
	if slow <= 0 {
		slow = 200 * time.Millisecond
	}
	return &gormLogger{logLevel: lvl, slowThreshold: slow}
}

func (l *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	nl := *l
	nl.logLevel = level
	return &nl
}

func (l *gormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.logLevel >= logger.Info {
		logging.Infof(ctx, "[gorm] "+msg, data...)
	}
}

func (l *gormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.logLevel >= logger.Warn {
		logging.Warnf(ctx, "[gorm] "+msg, data...)
	}
}

func (l *gormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.logLevel >= logger.Error {
		logging.Errorf(ctx, "[gorm] "+msg, data...)
	}
}

func (l *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.logLevel <= logger.Silent {
		return
	}
	elapsed := time.Since(begin)
	sqlStr, rows := fc()
	// 批量 insert 的 SQL 可能很长, 日志里截断
	if len(sqlStr) > 512 {
		sqlStr = sqlStr[:512] + "..."
	}
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.logLevel >= logger.Error:
		logging.Errorf(ctx, "[gorm] error elapsed=%s rows=%d sql=%s err=%v", elapsed, rows, sqlStr, err)
	case elapsed > l.slowThreshold && l.logLevel >= logger.Warn:
		logging.Warnf(ctx, "[gorm] slow elapsed=%s threshold=%s rows=%d sql=%s", elapsed, l.slowThreshold, rows, sqlStr)
	case l.logLevel >= logger.Info:
		logging.Debugf(ctx, "[gorm] elapsed=%s rows=%d sql=%s", elapsed, rows, sqlStr)
	}
}
