package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/consts"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadAppliesDefaults(t *testing.T) {
	p := writeConfig(t, "c.yaml", `
biz_config:
  paths:
    output_root: /tmp/out
`)
	cfg, err := Load(p)
	require.NoError(t, err)
	b := cfg.BizConfig
	assert.Equal(t, "sql", b.Mirror.Backend)
	assert.Equal(t, "source", b.Mirror.Source)
	assert.Equal(t, "target", b.Mirror.Target)
	assert.Equal(t, consts.DefaultSyncTables, b.Mirror.Tables)
	assert.Equal(t, consts.DefaultLookback, b.Lookback)
	assert.Equal(t, "2023-06-01", b.Floors.Default)
	assert.Equal(t, "2025-07-29", b.Floors.IndexExposure)
	assert.Equal(t, "weekday", b.Calendar.Source)
	assert.Equal(t, 2*time.Hour, b.Lock.TTL)
	assert.True(t, b.Family(consts.FamilyIndex).Enabled)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"missing biz", "app_info: {app_name: x}\n"},
		{"missing output root", "biz_config: {lookback: 2}\n"},
		{"bad backend", "biz_config: {paths: {output_root: /o}, mirror: {backend: odbc}}\n"},
		{"unknown family", "biz_config: {paths: {output_root: /o}, families: {bonds: {enabled: true}}}\n"},
		{"bad encoding", "biz_config: {paths: {output_root: /o}, families: {index: {encoding: latin1}}}\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, "c.yaml", tc.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadJSON(t *testing.T) {
	p := writeConfig(t, "c.json", `{"biz_config":{"paths":{"output_root":"/o"},"lookback":5}}`)
	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.BizConfig.Lookback)
}

func TestLoadUnsupportedExtension(t *testing.T) {
	_, err := Load(writeConfig(t, "c.toml", "x=1"))
	assert.ErrorContains(t, err, "unsupported")
}

func TestSampleConfigLoads(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "configs", "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, []string{"jy", "wind"}, cfg.BizConfig.Priority[consts.FamilyStock])
	assert.Equal(t, "gbk", cfg.BizConfig.Family(consts.FamilyIndex).Encoding)
	assert.Equal(t, 30*time.Minute, cfg.MySQL.DataSources["source"].ConnMaxLife)
}
