package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/consts"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/infra/httpserver"
)

const DefaultConfigPath = "configs/config.yaml"

// Load 读取配置文件, 填充默认值后校验
func Load(path string) (*AppConfig, error) {
	if path == "" {
		path = DefaultConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", ext)
	}

	cfg.setDefaults()
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = validator.New()

func Validate(cfg *AppConfig) error {
	if cfg == nil {
		return fmt.Errorf("config cannot be nil")
	}
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	for name := range cfg.BizConfig.Families {
		if !consts.IsFamily(name) {
			return fmt.Errorf("invalid config: unknown family %q", name)
		}
	}
	return nil
}

func (c *AppConfig) setDefaults() {
	if c.APPInfo == nil {
		c.APPInfo = &APPInfo{APPName: "dataupdate", ENV: "development"}
	}
	if c.HTTPServer == nil {
		c.HTTPServer = &httpserver.Config{}
	}
	if c.HTTPServer.Address == "" {
		c.HTTPServer.Address = ":8080"
	}
	if c.HTTPServer.GracefulTimeout <= 0 {
		c.HTTPServer.GracefulTimeout = 10 * time.Second
	}
	if c.Telemetry != nil && c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = c.APPInfo.APPName
	}
	if c.BizConfig == nil {
		return
	}
	b := c.BizConfig
	if b.Mirror.Backend == "" {
		b.Mirror.Backend = "sql"
	}
	if b.Mirror.Source == "" {
		b.Mirror.Source = "source"
	}
	if b.Mirror.Target == "" {
		b.Mirror.Target = "target"
	}
	if len(b.Mirror.Tables) == 0 {
		b.Mirror.Tables = append([]string(nil), consts.DefaultSyncTables...)
	}
	if b.Calendar.Source == "" {
		b.Calendar.Source = "weekday"
	}
	if b.Calendar.Table == "" {
		b.Calendar.Table = "chinesevaluationdate"
	}
	if b.Lookback == 0 {
		b.Lookback = consts.DefaultLookback
	}
	if b.Floors.Default == "" {
		b.Floors.Default = consts.DefaultFloor
	}
	if b.Floors.IndexExposure == "" {
		b.Floors.IndexExposure = consts.IndexExposureFloor
	}
	if b.Schedule.Spec == "" {
		b.Schedule.Spec = "0 18 * * 1-5"
	}
	if len(b.Schedule.Families) == 0 {
		b.Schedule.Families = append([]string(nil), consts.DefaultFamilyOrder...)
	}
	if b.Providers.JYDataSource == "" {
		b.Providers.JYDataSource = "source"
	}
	if b.Lock.TTL <= 0 {
		b.Lock.TTL = 2 * time.Hour
	}
}
