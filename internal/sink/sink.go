// Package sink persists reconciled tables: one dated CSV per artifact and,
// when enabled, an append into the family's destination table.
package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/consts"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/frame"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/infra/dbconf"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/infra/logging"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/mirror"
)

// Appender is the single-table loader of the mirroring engine.
type Appender interface {
	AppendTable(ctx context.Context, desc *dbconf.Descriptor, table string, t *frame.Table, opts mirror.AppendOptions) (int, error)
	TableExists(ctx context.Context, desc *dbconf.Descriptor, table string) (bool, error)
}

// Artifact describes where one reconciled table goes.
type Artifact struct {
	Path string
	GBK  bool
	// Table is the destination table; empty disables the DB append.
	Table string
	// ReplaceKeys select the rows superseded by a re-run of the same date.
	ReplaceKeys []string
}

type Written struct {
	Path   string
	Rows   int
	DBRows int
}

type Sink struct {
	Layout   Layout
	appender Appender
	target   *dbconf.Descriptor
	now      func() time.Time
	checked  map[string]bool
}

// New builds a sink; appender may be nil for file-only runs.
func New(root string, appender Appender, target *dbconf.Descriptor) *Sink {
	return &Sink{
		Layout:   Layout{Root: root},
		appender: appender,
		target:   target,
		now:      time.Now,
		checked:  map[string]bool{},
	}
}

// DBEnabled reports whether table writes are possible at all.
func (s *Sink) DBEnabled() bool { return s.appender != nil && s.target != nil }

// CheckTable verifies once per sink that a destination table exists; a
// missing table is a configuration problem to fix with bootstrap.
func (s *Sink) CheckTable(ctx context.Context, table string) error {
	if !s.DBEnabled() || table == "" || s.checked[table] {
		return nil
	}
	ok, err := s.appender.TableExists(ctx, s.target, table)
	if err != nil {
		return fmt.Errorf("check destination table %s: %w", table, err)
	}
	if !ok {
		return fmt.Errorf("destination table %s: %w (run bootstrap)", table, mirror.ErrTargetTableNotFound)
	}
	s.checked[table] = true
	return nil
}

// Persist writes the file, then appends to the DB with an update_time column.
// Empty tables are never persisted.
func (s *Sink) Persist(ctx context.Context, a Artifact, t *frame.Table) (Written, error) {
	w := Written{Path: a.Path}
	if t.Empty() {
		return w, nil
	}
	if err := WriteCSV(a.Path, t, a.GBK); err != nil {
		return w, err
	}
	w.Rows = t.Len()

	if a.Table == "" || !s.DBEnabled() {
		return w, nil
	}
	if err := s.CheckTable(ctx, a.Table); err != nil {
		return w, err
	}
	stamped := t.Clone()
	stamped.AddColumn(consts.ColUpdateTime, s.now().Truncate(time.Second))
	n, err := s.appender.AppendTable(ctx, s.target, a.Table, stamped, mirror.AppendOptions{ReplaceKeys: a.ReplaceKeys})
	if err != nil {
		return w, fmt.Errorf("append %s: %w", a.Table, err)
	}
	w.DBRows = n
	logging.Debugf(ctx, "[sink] %s rows=%d table=%s", a.Path, n, a.Table)
	return w, nil
}
