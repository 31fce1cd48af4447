package config

import (
	"time"

	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/infra/dbconf"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/infra/gormdb"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/infra/httpserver"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/infra/logging"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/infra/mysql"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/infra/prometheus"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/infra/redis"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/infra/telemetry"
)

// AppConfig 应用程序配置结构. Loaded once and passed into every constructor.
type AppConfig struct {
	APPInfo    *APPInfo                      `yaml:"app_info" json:"app_info"`
	Logging    *logging.LoggingConfig        `yaml:"logging" json:"logging"`
	MySQL      *mysql.MySQLConfig            `yaml:"mysql" json:"mysql"`
	Gorm       *gormdb.Config                `yaml:"gorm" json:"gorm"`
	Prometheus *prometheus.Config            `yaml:"prometheus" json:"prometheus"`
	Redis      *redis.Config                 `yaml:"redis" json:"redis"`
	HTTPServer *httpserver.Config            `yaml:"http_server" json:"http_server"`
	Telemetry  *telemetry.Config             `yaml:"telemetry" json:"telemetry"`
	Databases  map[string]*dbconf.Descriptor `yaml:"databases" json:"databases"`
	BizConfig  *BizConfig                    `yaml:"biz_config" json:"biz_config" validate:"required"`
}

type APPInfo struct {
	APPName string `yaml:"app_name" json:"app_name"`
	ENV     string `yaml:"env" json:"env"`
}

// BizConfig 业务配置
type BizConfig struct {
	Paths            PathsConfig                `yaml:"paths" json:"paths"`
	PriorityWorkbook string                     `yaml:"priority_workbook" json:"priority_workbook"`
	Priority         map[string][]string        `yaml:"priority" json:"priority"`
	ManifestPath     string                     `yaml:"manifest_path" json:"manifest_path"`
	Mirror           MirrorConfig               `yaml:"mirror" json:"mirror"`
	Calendar         CalendarConfig             `yaml:"calendar" json:"calendar"`
	Lookback         int                        `yaml:"lookback" json:"lookback" validate:"gte=0"`
	Floors           FloorsConfig               `yaml:"floors" json:"floors"`
	Schedule         ScheduleConfig             `yaml:"schedule" json:"schedule"`
	Families         map[string]*FamilyConfig   `yaml:"families" json:"families" validate:"dive"`
	Providers        ProvidersConfig            `yaml:"providers" json:"providers"`
	RunLog           RunLogConfig               `yaml:"run_log" json:"run_log"`
	Lock             LockConfig                 `yaml:"lock" json:"lock"`
	Units            map[string]map[string]bool `yaml:"units" json:"units"` // family -> provider -> percent as whole number
}

type PathsConfig struct {
	OutputRoot   string `yaml:"output_root" json:"output_root" validate:"required"`
	FileDropRoot string `yaml:"file_drop_root" json:"file_drop_root"`
}

type MirrorConfig struct {
	Backend string   `yaml:"backend" json:"backend" validate:"oneof=sql gorm"`
	Source  string   `yaml:"source" json:"source"`
	Target  string   `yaml:"target" json:"target"`
	Tables  []string `yaml:"tables" json:"tables"`
}

type CalendarConfig struct {
	Source     string   `yaml:"source" json:"source" validate:"oneof=weekday db"`
	DataSource string   `yaml:"data_source" json:"data_source"`
	Table      string   `yaml:"table" json:"table"`
	Holidays   []string `yaml:"holidays" json:"holidays"`
}

type FloorsConfig struct {
	Default       string `yaml:"default" json:"default"`
	IndexExposure string `yaml:"index_exposure" json:"index_exposure"`
}

type ScheduleConfig struct {
	Enabled  bool     `yaml:"enabled" json:"enabled"`
	Spec     string   `yaml:"spec" json:"spec"`
	Families []string `yaml:"families" json:"families"`
	TimeZone string   `yaml:"time_zone" json:"time_zone"`
	// Timeout bounds one scheduled pass; zero means none.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// FamilyConfig 单个数据族的落库配置
type FamilyConfig struct {
	Enabled  bool              `yaml:"enabled" json:"enabled"`
	Table    string            `yaml:"table" json:"table"`
	Tables   map[string]string `yaml:"tables" json:"tables"` // artifact -> table, for families writing more than one
	WriteDB  bool              `yaml:"write_db" json:"write_db"`
	Encoding string            `yaml:"encoding" json:"encoding" validate:"omitempty,oneof=gbk utf-8"`
}

// TableFor returns the destination table of an artifact, falling back to Table.
func (f *FamilyConfig) TableFor(artifact string) string {
	if t, ok := f.Tables[artifact]; ok && t != "" {
		return t
	}
	return f.Table
}

type ProvidersConfig struct {
	JYDataSource string   `yaml:"jy_data_source" json:"jy_data_source"`
	FileDrop     []string `yaml:"file_drop" json:"file_drop"` // provider ids served from file drops
}

type RunLogConfig struct {
	Enabled    bool   `yaml:"enabled" json:"enabled"`
	DataSource string `yaml:"data_source" json:"data_source"`
}

type LockConfig struct {
	Enabled bool          `yaml:"enabled" json:"enabled"`
	TTL     time.Duration `yaml:"ttl" json:"ttl"`
}

// Family returns the family config, never nil.
func (b *BizConfig) Family(name string) *FamilyConfig {
	if fc, ok := b.Families[name]; ok && fc != nil {
		return fc
	}
	return &FamilyConfig{Enabled: true}
}
