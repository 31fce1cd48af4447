package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/infra/consts"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/infra/core"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/infra/dbconf"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/infra/logging"
)

// MySQLConfig supports multiple named data sources (e.g. "source" for the vendor database).
type MySQLConfig struct {
	Enabled     bool                          `yaml:"enabled" json:"enabled"`
	DataSources map[string]*dbconf.Descriptor `yaml:"data_sources" json:"data_sources"`
}

// MysqlComponent keeps one pooled *sql.DB per data source for the lifetime of the process.
type MysqlComponent struct {
	*core.BaseComponent
	cfg       *MySQLConfig
	databases map[string]*sql.DB
	mutex     sync.RWMutex
}

func NewMySQLComponent(cfg *MySQLConfig) *MysqlComponent {
	return &MysqlComponent{
		BaseComponent: core.NewBaseComponent(consts.COMPONENT_MYSQL, consts.COMPONENT_LOGGING),
		cfg:           cfg,
		databases:     make(map[string]*sql.DB),
	}
}

func (c *MysqlComponent) Start(ctx context.Context) error {
	if err := c.BaseComponent.Start(ctx); err != nil {
		return err
	}
	if c.cfg == nil || len(c.cfg.DataSources) == 0 {
		return fmt.Errorf("no mysql data_sources configured")
	}

	for name, ds := range c.cfg.DataSources {
		if ds == nil {
			return fmt.Errorf("datasource %s config is nil", name)
		}
		dsn, err := ds.BuildDSN()
		if err != nil {
			return fmt.Errorf("build dsn for %s failed: %w", name, err)
		}
		db, err := sql.Open("mysql", dsn)
		if err != nil {
			return fmt.Errorf("open db %s failed: %w", name, err)
		}
		ApplyPool(db, ds)

		if ds.PingOnStart {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := db.PingContext(pingCtx)
			cancel()
			if err != nil {
				_ = db.Close()
				return fmt.Errorf("ping db %s failed: %w", name, err)
			}
		}

		c.mutex.Lock()
		c.databases[name] = db
		c.mutex.Unlock()
		logging.Infof(ctx, "[mysql] datasource %s initialized (%s)", name, ds)
	}
	logging.Infof(ctx, "[mysql] component started. data sources=%v", c.listNames())
	return nil
}

func (c *MysqlComponent) Stop(ctx context.Context) error {
	defer func() { _ = c.BaseComponent.Stop(ctx) }()
	c.mutex.Lock()
	defer c.mutex.Unlock()
	for name, db := range c.databases {
		_ = db.Close()
		logging.Infof(ctx, "[mysql] datasource %s closed", name)
	}
	c.databases = make(map[string]*sql.DB)
	return nil
}

func (c *MysqlComponent) HealthCheck() error {
	if err := c.BaseComponent.HealthCheck(); err != nil {
		return err
	}
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	for name, db := range c.databases {
		if err := db.Ping(); err != nil {
			return fmt.Errorf("datasource %s ping failed: %w", name, err)
		}
	}
	return nil
}

// GetDB returns *sql.DB by datasource name.
func (c *MysqlComponent) GetDB(name string) (*sql.DB, error) {
	c.mutex.RLock()
	db, ok := c.databases[name]
	c.mutex.RUnlock()
	if !ok {
		return nil, fmt.Errorf("mysql datasource %s not found", name)
	}
	return db, nil
}

// ApplyPool sets pool limits with the same defaults for every data source.
func ApplyPool(db *sql.DB, ds *dbconf.Descriptor) {
	if ds.MaxOpenConns > 0 {
		db.SetMaxOpenConns(ds.MaxOpenConns)
	} else {
		db.SetMaxOpenConns(50)
	}
	if ds.MaxIdleConns > 0 {
		db.SetMaxIdleConns(ds.MaxIdleConns)
	} else {
		db.SetMaxIdleConns(10)
	}
	if ds.ConnMaxLife > 0 {
		db.SetConnMaxLifetime(ds.ConnMaxLife)
	} else {
		db.SetConnMaxLifetime(60 * time.Minute)
	}
	if ds.ConnMaxIdle > 0 {
		db.SetConnMaxIdleTime(ds.ConnMaxIdle)
	}
}

func (c *MysqlComponent) listNames() []string {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	names := make([]string, 0, len(c.databases))
	for k := range c.databases {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
