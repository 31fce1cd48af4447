// Package service drives the per-family orchestration: plan dates, fetch
// every provider, reconcile, persist and record the outcome of each date.
package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/calendar"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/config"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/consts"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/frame"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/infra/logging"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/provider"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/sink"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/standardize"
)

// Record is the outcome of one (family, date[, entity]) unit of work.
type Record struct {
	Family  string    `json:"family"`
	Date    time.Time `json:"date"`
	Entity  string    `json:"entity,omitempty"`
	Source  string    `json:"source,omitempty"`
	Rows    int       `json:"rows"`
	Status  string    `json:"status"`
	Message string    `json:"message,omitempty"`
	Err     error     `json:"-"`
}

// Family is one orchestrated data family.
type Family interface {
	Name() string
	// Floor is the earliest date a first backfill reaches.
	Floor() time.Time
	// OutputEmpty reports whether any output of the family is still missing.
	OutputEmpty() bool
	// Prepare checks destination tables before the first write of a pass.
	Prepare(ctx context.Context) error
	Process(ctx context.Context, d time.Time, order []string) []Record
}

// Deps are the collaborators shared by all families.
type Deps struct {
	Registry *provider.Registry
	Units    standardize.UnitTable
	Sink     *sink.Sink
	Cal      calendar.Calendar
	Biz      *config.BizConfig
	// WriteDB enables the table append for families configured with write_db.
	WriteDB bool
}

// fetch asks one provider; a nil table counts as empty.
func (d *Deps) fetch(ctx context.Context, family, p string, req provider.Request) (*frame.Table, error) {
	f, err := d.Registry.Lookup(family, p)
	if err != nil {
		return nil, err
	}
	t, err := f.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return frame.New(), nil
	}
	return t, nil
}

// artifact resolves file encoding and destination table of one output.
func (d *Deps) artifact(family, name, path string, keys ...string) sink.Artifact {
	fc := d.Biz.Family(family)
	a := sink.Artifact{Path: path, GBK: gbkFor(family, fc.Encoding), ReplaceKeys: keys}
	if d.WriteDB && fc.WriteDB {
		a.Table = fc.TableFor(name)
	}
	return a
}

func (d *Deps) checkTables(ctx context.Context, family string, artifacts ...string) error {
	if !d.WriteDB {
		return nil
	}
	fc := d.Biz.Family(family)
	if !fc.WriteDB {
		return nil
	}
	for _, a := range artifacts {
		table := fc.TableFor(a)
		if table == "" {
			return fmt.Errorf("%s: no destination table configured for %s", family, a)
		}
		if err := d.Sink.CheckTable(ctx, table); err != nil {
			return err
		}
	}
	return nil
}

func (d *Deps) floor(value, fallback string) time.Time {
	if t, err := calendar.ParseDate(value); err == nil {
		return t
	}
	return calendar.MustParse(fallback)
}

func gbkFor(family, encoding string) bool {
	switch strings.ToLower(encoding) {
	case "gbk":
		return true
	case "utf-8", "utf8":
		return false
	}
	switch family {
	case consts.FamilyIndex, consts.FamilyFactor, consts.FamilyIndexExposure:
		return true
	}
	return false
}

// keysPresent keeps the replace keys that t actually carries.
func keysPresent(t *frame.Table, keys ...string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if t.Has(k) {
			out = append(out, k)
		}
	}
	return out
}

// hasFileWithPrefix reports whether dir holds a file named prefix*.
func hasFileWithPrefix(dir, prefix string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), prefix) {
			return true
		}
	}
	return false
}

func skipped(family string, d time.Time, entity, msg string) Record {
	return Record{Family: family, Date: d, Entity: entity, Status: consts.StatusSkipped, Message: msg}
}

func failed(family string, d time.Time, entity, source string, err error) Record {
	return Record{Family: family, Date: d, Entity: entity, Source: source, Status: consts.StatusFailed, Message: err.Error(), Err: err}
}

// logFetchError downgrades a provider error to an empty result.
func logFetchError(ctx context.Context, family, p string, d time.Time, err error) {
	logging.Warnf(ctx, "[%s] provider %s failed for %s, treated as empty: %v", family, p, calendar.FormatISO(d), err)
}
