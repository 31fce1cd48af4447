package consts

const (
	COMPONENT_LOGGING    = "logging"
	COMPONENT_MYSQL      = "mysql"
	COMPONENT_GORM       = "gorm"
	COMPONENT_PROMETHEUS = "prometheus"
	COMPONENT_REDIS      = "redis"
	COMPONENT_SCHEDULER  = "scheduler"
	COMPONENT_HTTP       = "http_server"
	COMPONENT_TELEMETRY  = "telemetry"

	KEY_RunID   = "run_id"
	KEY_TraceID = "trace_id"
)
