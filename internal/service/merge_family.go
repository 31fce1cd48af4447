package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/calendar"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/consts"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/infra/logging"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/provider"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/reconcile"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/standardize"
)

const colPctChg = "pct_chg"

// MergeFamily reconciles every provider column by column (index, stock).
type MergeFamily struct {
	deps   *Deps
	schema standardize.Schema
	path   func(time.Time) string

	remap map[string]string
	// soleWhitelist restricts codes when a provider is the only source.
	soleWhitelist map[string][]string
	// soleNull lists columns blanked when a provider is the only source.
	soleNull map[string][]string
}

func NewIndexFamily(deps *Deps) *MergeFamily {
	return &MergeFamily{
		deps:          deps,
		schema:        standardize.IndexSchema,
		path:          deps.Sink.Layout.IndexData,
		remap:         consts.IndexCodeRemap,
		soleWhitelist: map[string][]string{consts.ProviderJY: consts.JYIndexWhitelist},
		soleNull: map[string][]string{
			consts.ProviderJY:      {"turn_over"},
			consts.ProviderTushare: {"turn_over"},
		},
	}
}

func NewStockFamily(deps *Deps) *MergeFamily {
	return &MergeFamily{
		deps:   deps,
		schema: standardize.StockSchema,
		path:   deps.Sink.Layout.StockData,
	}
}

func (m *MergeFamily) Name() string { return m.schema.Family }

func (m *MergeFamily) Floor() time.Time {
	return m.deps.floor(m.deps.Biz.Floors.Default, consts.DefaultFloor)
}

func (m *MergeFamily) OutputEmpty() bool {
	return !hasFileWithPrefix(m.deps.Sink.Layout.FamilyDir(m.Name()), "")
}

func (m *MergeFamily) Prepare(ctx context.Context) error {
	return m.deps.checkTables(ctx, m.Name(), m.Name())
}

// Process fetches every provider eagerly, merges and persists one date.
func (m *MergeFamily) Process(ctx context.Context, d time.Time, order []string) []Record {
	family := m.Name()
	tables := make([]reconcile.ProviderTable, 0, len(order))
	for _, p := range order {
		raw, err := m.deps.fetch(ctx, family, p, provider.Request{Date: d})
		if err != nil {
			logFetchError(ctx, family, p, d, err)
			continue
		}
		res := standardize.Apply(raw, m.schema)
		switch res.Kind() {
		case standardize.KindMalformed:
			logging.Warnf(ctx, "[%s] provider %s returned malformed data for %s: %v", family, p, calendar.FormatISO(d), res.Err)
			continue
		case standardize.KindEmpty:
			logging.Infof(ctx, "[%s] provider %s has no data for %s", family, p, calendar.FormatISO(d))
			continue
		}
		if m.remap != nil {
			reconcile.RemapCodes(res.Table, m.schema.Key(), m.remap)
		}
		tables = append(tables, reconcile.ProviderTable{Provider: p, Table: res.Table})
	}

	merged := reconcile.ColumnMerge(tables, order, m.schema.Columns)
	if merged.Empty() {
		logging.Warnf(ctx, "[%s] no data available for %s", family, calendar.FormatISO(d))
		return []Record{skipped(family, d, "", "no provider has data")}
	}
	whole := func(p string) bool { return m.deps.Units.Of(family, p).PercentAsWhole }
	if err := merged.ScalePercent(colPctChg, whole); err != nil {
		return []Record{failed(family, d, "", "", err)}
	}
	logging.Debugf(ctx, "[%s] %s provenance %v", family, calendar.FormatISO(d), merged.Provenance())

	out := merged.Table
	if len(merged.Sources) == 1 {
		sole := merged.Sources[0]
		if allowed, ok := m.soleWhitelist[sole]; ok {
			out = reconcile.Restrict(out, m.schema.Key(), allowed)
		}
		for _, col := range m.soleNull[sole] {
			out.AddColumn(col, nil)
		}
	}
	if out.Empty() {
		return []Record{skipped(family, d, "", "no whitelisted codes")}
	}
	out.Prepend(consts.ColValuationDate, calendar.FormatISO(d))

	source := strings.Join(merged.Sources, "+")
	logging.Infof(ctx, "[%s] %s data source: %s", family, calendar.FormatISO(d), source)
	art := m.deps.artifact(family, family, m.path(d), consts.ColValuationDate)
	w, err := m.deps.Sink.Persist(ctx, art, out)
	if err != nil {
		return []Record{failed(family, d, "", source, fmt.Errorf("persist %s: %w", calendar.FormatISO(d), err))}
	}
	return []Record{{Family: family, Date: d, Source: source, Rows: w.Rows, Status: consts.StatusSuccess}}
}
