// Package dbconf holds the connection descriptor shared by the pooled components and the
// per-call mirror drivers.
package dbconf

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"
)

const (
	DialectMySQL    = "mysql"
	DialectPostgres = "postgres"
)

// Descriptor resolves one named database: either a full DSN or the pieces to build it.
type Descriptor struct {
	Dialect string `yaml:"dialect" json:"dialect"`
	DSN     string `yaml:"dsn" json:"dsn"`

	Host     string            `yaml:"host" json:"host"`
	Port     int               `yaml:"port" json:"port"`
	User     string            `yaml:"user" json:"user"`
	Password string            `yaml:"password" json:"password"`
	Database string            `yaml:"database" json:"database"`
	Params   map[string]string `yaml:"params" json:"params"`

	MaxOpenConns int           `yaml:"max_open_conns" json:"max_open_conns"`
	MaxIdleConns int           `yaml:"max_idle_conns" json:"max_idle_conns"`
	ConnMaxLife  time.Duration `yaml:"conn_max_life" json:"conn_max_life"`
	ConnMaxIdle  time.Duration `yaml:"conn_max_idle" json:"conn_max_idle"`
	PingOnStart  bool          `yaml:"ping_on_start" json:"ping_on_start"`
}

func (d *Descriptor) DialectOrDefault() string {
	if d == nil || strings.TrimSpace(d.Dialect) == "" {
		return DialectMySQL
	}
	return strings.ToLower(d.Dialect)
}

// String is safe to log: the password is masked.
func (d *Descriptor) String() string {
	if d == nil {
		return "<nil>"
	}
	if d.Host == "" && d.DSN != "" {
		return d.DialectOrDefault() + "://<dsn>"
	}
	return fmt.Sprintf("%s://%s:***@%s:%d/%s", d.DialectOrDefault(), d.User, d.Host, d.portOrDefault(), d.Database)
}

func (d *Descriptor) portOrDefault() int {
	if d.Port != 0 {
		return d.Port
	}
	if d.DialectOrDefault() == DialectPostgres {
		return 5432
	}
	return 3306
}

// BuildDSN returns the driver DSN for the descriptor's dialect.
func (d *Descriptor) BuildDSN() (string, error) {
	if d == nil {
		return "", errors.New("nil database descriptor")
	}
	if strings.TrimSpace(d.DSN) != "" {
		return d.DSN, nil
	}
	if d.Host == "" || d.User == "" || d.Database == "" {
		return "", errors.New("host, user, database required when dsn not provided")
	}
	switch d.DialectOrDefault() {
	case DialectMySQL:
		params := url.Values{}
		params.Set("parseTime", "true")
		params.Set("charset", "utf8mb4")
		params.Set("loc", "Local")
		for k, v := range d.Params {
			params.Set(k, v)
		}
		// user:password@tcp(host:port)/dbname?param=val
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
			d.User, d.Password, d.Host, d.portOrDefault(), d.Database, params.Encode()), nil
	case DialectPostgres:
		base := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d",
			pgValue(d.Host), pgValue(d.User), pgValue(d.Password), pgValue(d.Database), d.portOrDefault())
		keys := make([]string, 0, len(d.Params))
		for k := range d.Params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			base += fmt.Sprintf(" %s=%s", k, pgValue(d.Params[k]))
		}
		return base, nil
	default:
		return "", fmt.Errorf("unsupported dialect %q", d.Dialect)
	}
}

// pgValue quotes a keyword/value DSN value when it is empty or holds a space,
// quote or backslash; inside quotes ' and \ are backslash-escaped.
func pgValue(v string) string {
	if v != "" && !strings.ContainsAny(v, " \t\n'\\") {
		return v
	}
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(v) + "'"
}
