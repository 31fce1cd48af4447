package prometheus

// Config for the metrics registry. When Address is empty the registry is only
// exposed through the service's own HTTP router.
type Config struct {
	Enabled          bool   `yaml:"enabled" json:"enabled"`
	Address          string `yaml:"address" json:"address"`
	Path             string `yaml:"path" json:"path"` // default /metrics
	Namespace        string `yaml:"namespace" json:"namespace"`
	CollectGoMetrics bool   `yaml:"collect_go_metrics" json:"collect_go_metrics"`
	CollectProcess   bool   `yaml:"collect_process" json:"collect_process"`
}

func (c *Config) setDefaults() {
	if c.Path == "" {
		c.Path = "/metrics"
	}
	if c.Namespace == "" {
		c.Namespace = "dataupdate"
	}
}
