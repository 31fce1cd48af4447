package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/calendar"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/config"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/consts"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/frame"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/infra/dbconf"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/lock"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/mirror"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/priority"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/provider"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/provider/filedrop"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/sink"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/standardize"
)

type appended struct {
	table string
	rows  *frame.Table
	keys  []string
}

type captureAppender struct {
	calls []appended
}

func (c *captureAppender) AppendTable(_ context.Context, _ *dbconf.Descriptor, table string, t *frame.Table, opts mirror.AppendOptions) (int, error) {
	c.calls = append(c.calls, appended{table: table, rows: t, keys: opts.ReplaceKeys})
	return t.Len(), nil
}

func (c *captureAppender) TableExists(context.Context, *dbconf.Descriptor, string) (bool, error) {
	return true, nil
}

func (c *captureAppender) byTable(table string) []appended {
	var out []appended
	for _, a := range c.calls {
		if a.table == table {
			out = append(out, a)
		}
	}
	return out
}

type fixture struct {
	root     string
	deps     *Deps
	appender *captureAppender
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	app := &captureAppender{}
	biz := &config.BizConfig{
		Families: map[string]*config.FamilyConfig{
			consts.FamilyIndex:          {Enabled: true, Table: "indexdata", WriteDB: true},
			consts.FamilyStock:          {Enabled: true, Table: "stockdata"},
			consts.FamilyIndexComponent: {Enabled: true, Table: "indexcomponent", Tables: map[string]string{ArtifactPortfolio: "portfolio"}, WriteDB: true},
			consts.FamilyFactor:         {Enabled: true},
			consts.FamilyIndexExposure:  {Enabled: true, Table: "indexexposure", WriteDB: true},
		},
	}
	return &fixture{
		root:     root,
		appender: app,
		deps: &Deps{
			Registry: provider.NewRegistry(),
			Units:    standardize.DefaultUnits(),
			Sink:     sink.New(root, app, &dbconf.Descriptor{Dialect: dbconf.DialectMySQL, Database: "target"}),
			Cal:      calendar.NewWeekdayCalendar(),
			Biz:      biz,
			WriteDB:  true,
		},
	}
}

func (f *fixture) register(family, p string, fn func(req provider.Request) (*frame.Table, error)) {
	f.deps.Registry.Register(family, p, provider.FetcherFunc(func(_ context.Context, req provider.Request) (*frame.Table, error) {
		return fn(req)
	}))
}

func static(t *frame.Table) func(provider.Request) (*frame.Table, error) {
	return func(provider.Request) (*frame.Table, error) { return t.Clone(), nil }
}

func empty(provider.Request) (*frame.Table, error) { return frame.New(), nil }

func quoteCols() []string { return []string{"code", "close", "pct_chg", "turn_over"} }

func TestIndexFamilyMergesRemapsAndScales(t *testing.T) {
	f := newFixture(t)
	f.register(consts.FamilyIndex, consts.ProviderWind, static(frame.FromRows(quoteCols(), [][]any{
		{"000300.SH", 3900.0, nil, 0.8},
	})))
	f.register(consts.FamilyIndex, consts.ProviderJY, static(frame.FromRows(quoteCols(), [][]any{
		{"000300.SH", 3899.0, 2.0, 0.7},
		{"932000", 100.0, 1.0, nil},
	})))

	d := calendar.MustParse("2025-01-02")
	recs := NewIndexFamily(f.deps).Process(context.Background(), d, []string{consts.ProviderWind, consts.ProviderJY})
	require.Len(t, recs, 1)
	assert.Equal(t, consts.StatusSuccess, recs[0].Status)
	assert.Equal(t, "wind+jy", recs[0].Source)
	assert.Equal(t, 2, recs[0].Rows)

	calls := f.appender.byTable("indexdata")
	require.Len(t, calls, 1)
	out := calls[0].rows
	assert.Equal(t, []string{consts.ColValuationDate}, calls[0].keys)
	assert.Equal(t, consts.ColValuationDate, out.Columns[0])
	assert.True(t, out.Has(consts.ColUpdateTime))
	require.Equal(t, 2, out.Len())
	assert.Equal(t, "000300.SH", out.String(0, "code").String)
	assert.Equal(t, 3900.0, out.Float(0, "close").Float64)
	assert.InDelta(t, 0.02, out.Float(0, "pct_chg").Float64, 1e-12)
	assert.Equal(t, 0.8, out.Float(0, "turn_over").Float64)
	assert.Equal(t, "932000.CSI", out.String(1, "code").String)
	assert.InDelta(t, 0.01, out.Float(1, "pct_chg").Float64, 1e-12)

	written, err := filedrop.ReadCSV(f.deps.Sink.Layout.IndexData(d), true)
	require.NoError(t, err)
	assert.Equal(t, 2, written.Len())
	assert.Equal(t, "2025-01-02", written.String(0, consts.ColValuationDate).String)
}

func TestIndexFamilySoleJYAppliesWhitelist(t *testing.T) {
	f := newFixture(t)
	f.register(consts.FamilyIndex, consts.ProviderWind, empty)
	f.register(consts.FamilyIndex, consts.ProviderJY, static(frame.FromRows(quoteCols(), [][]any{
		{"000300.SH", 3899.0, 1.0, 0.7},
		{"600000.SH", 10.0, 1.0, 0.2},
	})))

	recs := NewIndexFamily(f.deps).Process(context.Background(), calendar.MustParse("2025-01-02"), []string{consts.ProviderWind, consts.ProviderJY})
	require.Len(t, recs, 1)
	assert.Equal(t, "jy", recs[0].Source)

	out := f.appender.byTable("indexdata")[0].rows
	require.Equal(t, 1, out.Len())
	assert.Equal(t, "000300.SH", out.String(0, "code").String)
	assert.True(t, frame.IsNull(out.Cell(0, "turn_over")))
}

func TestIndexFamilyMalformedProviderIsSkipped(t *testing.T) {
	f := newFixture(t)
	f.register(consts.FamilyIndex, consts.ProviderWind, static(frame.FromRows([]string{"close"}, [][]any{{1.0}})))
	f.register(consts.FamilyIndex, consts.ProviderTushare, func(provider.Request) (*frame.Table, error) {
		return nil, errors.New("timeout")
	})

	d := calendar.MustParse("2025-01-02")
	recs := NewIndexFamily(f.deps).Process(context.Background(), d, []string{consts.ProviderWind, consts.ProviderTushare})
	require.Len(t, recs, 1)
	assert.Equal(t, consts.StatusSkipped, recs[0].Status)
	assert.Empty(t, f.appender.calls)
	_, err := os.Stat(f.deps.Sink.Layout.IndexData(d))
	assert.True(t, os.IsNotExist(err))
}

func TestStockFamilyIsFileOnly(t *testing.T) {
	f := newFixture(t)
	f.register(consts.FamilyStock, consts.ProviderWind, static(frame.FromRows([]string{"code", "close", "pct_chg"}, [][]any{
		{"600000.SH", 10.0, 0.012},
	})))

	d := calendar.MustParse("2025-01-02")
	recs := NewStockFamily(f.deps).Process(context.Background(), d, []string{consts.ProviderWind})
	require.Len(t, recs, 1)
	assert.Equal(t, consts.StatusSuccess, recs[0].Status)
	assert.Empty(t, f.appender.calls)

	written, err := filedrop.ReadCSV(f.deps.Sink.Layout.StockData(d), false)
	require.NoError(t, err)
	require.Equal(t, 1, written.Len())
	// stock vendors already report fractions
	assert.Equal(t, "0.012", written.String(0, "pct_chg").String)
}

func TestComponentFamilyWritesWeightsAndPortfolio(t *testing.T) {
	f := newFixture(t)
	var asked []time.Time
	f.register(consts.FamilyIndexComponent, consts.ProviderWind, empty)
	f.register(consts.FamilyIndexComponent, consts.ProviderJY, func(req provider.Request) (*frame.Table, error) {
		asked = append(asked, req.Date)
		return frame.FromRows([]string{"code", "weight", "name"}, [][]any{
			{"600000.SH", 0.012, "浦发银行"},
			{"600000.SH", 0.5, "dup"},
			{"600036.SH", 0.03, "招商银行"},
		}), nil
	})

	fam := NewComponentFamily(f.deps)
	idx, ok := consts.IndexByShortName("zz2000")
	require.True(t, ok)
	fam.indices = []consts.IndexInfo{idx}

	d := calendar.MustParse("2023-08-04") // Friday, before the zz2000 launch
	recs := fam.Process(context.Background(), d, []string{consts.ProviderWind, consts.ProviderJY})
	require.Len(t, recs, 1)
	assert.Equal(t, consts.StatusSuccess, recs[0].Status)
	assert.Equal(t, "jy", recs[0].Source)
	assert.Equal(t, 2, recs[0].Rows)
	require.Len(t, asked, 1)
	assert.Equal(t, calendar.MustParse("2023-09-01"), asked[0])

	daily := f.appender.byTable("indexcomponent")
	require.Len(t, daily, 1)
	assert.Equal(t, []string{"valuation_date", "code", "weight", "organization", "update_time"}, daily[0].rows.Columns)
	assert.Equal(t, []string{consts.ColValuationDate, consts.ColOrganization}, daily[0].keys)
	assert.Equal(t, "2023-08-04", daily[0].rows.String(0, consts.ColValuationDate).String)
	assert.Equal(t, "zz2000", daily[0].rows.String(1, consts.ColOrganization).String)

	port := f.appender.byTable("portfolio")
	require.Len(t, port, 1)
	assert.Equal(t, []string{"valuation_date", "portfolio_name", "code", "weight", "update_time"}, port[0].rows.Columns)
	assert.Equal(t, "2023-08-07", port[0].rows.String(0, consts.ColValuationDate).String)
	assert.Equal(t, "zz2000_comp", port[0].rows.String(0, consts.ColPortfolioName).String)

	next := calendar.MustParse("2023-08-07")
	_, err := os.Stat(f.deps.Sink.Layout.Portfolio("zz2000", next))
	assert.NoError(t, err)
	_, err = os.Stat(f.deps.Sink.Layout.ComponentWeight("zz2000", d))
	assert.NoError(t, err)
}

func TestFactorFamilyNeedsEveryArtifact(t *testing.T) {
	f := newFixture(t)
	partial := func(req provider.Request) (*frame.Table, error) {
		if req.Artifact == consts.ArtifactCov {
			return frame.New(), nil
		}
		return frame.FromRows([]string{"code", "value"}, [][]any{{"600000.SH", 1.0}}), nil
	}
	complete := func(req provider.Request) (*frame.Table, error) {
		return frame.FromRows([]string{"code", req.Artifact}, [][]any{{"600000.SH", 2.0}}), nil
	}
	f.register(consts.FamilyFactor, "vendor_a", partial)
	f.register(consts.FamilyFactor, "vendor_b", complete)

	d := calendar.MustParse("2025-01-02")
	fam := NewFactorFamily(f.deps)
	assert.True(t, fam.OutputEmpty())
	recs := fam.Process(context.Background(), d, []string{"vendor_a", "vendor_b"})
	require.Len(t, recs, len(consts.FactorArtifacts))
	for _, r := range recs {
		assert.Equal(t, consts.StatusSuccess, r.Status, r.Entity)
		assert.Equal(t, "vendor_b", r.Source)
	}
	for _, a := range consts.FactorArtifacts {
		got, err := filedrop.ReadCSV(f.deps.Sink.Layout.Factor(a, d), true)
		require.NoError(t, err)
		assert.Equal(t, []string{consts.ColValuationDate, "code", a}, got.Columns)
	}
	assert.False(t, fam.OutputEmpty())
	// factor has no table configured
	assert.Empty(t, f.appender.calls)
}

func TestFactorFamilySkipsIncompleteSets(t *testing.T) {
	f := newFixture(t)
	f.register(consts.FamilyFactor, "vendor_a", func(req provider.Request) (*frame.Table, error) {
		if req.Artifact == consts.ArtifactSpecificRisk {
			return frame.New(), nil
		}
		return frame.FromRows([]string{"code"}, [][]any{{"600000.SH"}}), nil
	})
	recs := NewFactorFamily(f.deps).Process(context.Background(), calendar.MustParse("2025-01-02"), []string{"vendor_a"})
	require.Len(t, recs, 1)
	assert.Equal(t, consts.StatusSkipped, recs[0].Status)
	assert.True(t, calendar.DirEmpty(f.deps.Sink.Layout.FamilyDir(consts.FamilyFactor)))
}

func TestExposureFamilyTagsOrganization(t *testing.T) {
	f := newFixture(t)
	f.register(consts.FamilyIndexExposure, "vendor_a", func(req provider.Request) (*frame.Table, error) {
		if req.Index.ShortName != "hs300" {
			return frame.New(), nil
		}
		return frame.FromRows([]string{"size", "beta"}, [][]any{{0.1, 0.9}}), nil
	})

	fam := NewExposureFamily(f.deps)
	assert.Equal(t, calendar.MustParse(consts.IndexExposureFloor), fam.Floor())
	d := calendar.MustParse("2025-08-01")
	recs := fam.Process(context.Background(), d, []string{"vendor_a"})
	require.Len(t, recs, len(consts.Indices))

	var ok int
	for _, r := range recs {
		if r.Status == consts.StatusSuccess {
			ok++
			assert.Equal(t, "hs300", r.Entity)
		}
	}
	assert.Equal(t, 1, ok)
	calls := f.appender.byTable("indexexposure")
	require.Len(t, calls, 1)
	assert.Equal(t, []string{"valuation_date", "size", "beta", "organization", "update_time"}, calls[0].rows.Columns)
	assert.Equal(t, []string{consts.ColValuationDate, consts.ColOrganization}, calls[0].keys)
	assert.True(t, fam.OutputEmpty())
}

// countingFamily records the dates it was asked to process.
type countingFamily struct {
	name     string
	floor    time.Time
	empty    bool
	prepErr  error
	dates    []time.Time
	orders   [][]string
	statuses []string
}

func (c *countingFamily) Name() string                  { return c.name }
func (c *countingFamily) Floor() time.Time              { return c.floor }
func (c *countingFamily) OutputEmpty() bool             { return c.empty }
func (c *countingFamily) Prepare(context.Context) error { return c.prepErr }

func (c *countingFamily) Process(_ context.Context, d time.Time, order []string) []Record {
	c.dates = append(c.dates, d)
	c.orders = append(c.orders, order)
	status := consts.StatusSuccess
	if len(c.statuses) > 0 {
		status, c.statuses = c.statuses[0], c.statuses[1:]
	}
	rec := Record{Family: c.name, Date: d, Status: status, Rows: 1}
	if status == consts.StatusFailed {
		rec.Err = errors.New("boom")
		rec.Message = "boom"
	}
	return []Record{rec}
}

type memRunLog struct {
	runIDs []string
	recs   []Record
}

func (m *memRunLog) Record(_ context.Context, runID string, rec Record) error {
	m.runIDs = append(m.runIDs, runID)
	m.recs = append(m.recs, rec)
	return nil
}

type busyLocker struct{}

func (busyLocker) Acquire(context.Context, string, time.Duration) (lock.Release, error) {
	return nil, lock.ErrLocked
}

func newTestRunner(f *fixture, fam *countingFamily, order map[string][]string, opts ...Option) *Runner {
	f.deps.Registry.Register(fam.name, consts.ProviderWind, provider.FetcherFunc(func(context.Context, provider.Request) (*frame.Table, error) {
		return frame.New(), nil
	}))
	r := NewRunner(f.deps, priority.Static(order), opts...)
	r.Register(fam)
	return r
}

func TestRunnerWidensToFloorWhenOutputEmpty(t *testing.T) {
	f := newFixture(t)
	fam := &countingFamily{name: "demo", floor: calendar.MustParse("2025-01-06"), empty: true}
	logs := &memRunLog{}
	r := newTestRunner(f, fam, map[string][]string{"demo": {"tushare", "wind"}}, WithRunLogger(logs))

	sum, err := r.Run(context.Background(), "demo", Window{Start: calendar.MustParse("2025-01-08"), End: calendar.MustParse("2025-01-09")})
	require.NoError(t, err)
	assert.Len(t, fam.dates, 4)
	assert.Equal(t, calendar.MustParse("2025-01-06"), fam.dates[0])
	// tushare is not registered for the family and drops out
	assert.Equal(t, []string{consts.ProviderWind}, fam.orders[0])
	assert.Equal(t, 4, sum.Dates)
	assert.Equal(t, 4, sum.Success)
	assert.NotEmpty(t, sum.RunID)
	require.Len(t, logs.runIDs, 4)
	assert.Equal(t, sum.RunID, logs.runIDs[3])
}

func TestRunnerKeepsWindowWhenOutputExists(t *testing.T) {
	f := newFixture(t)
	fam := &countingFamily{name: "demo", floor: calendar.MustParse("2025-01-06")}
	r := newTestRunner(f, fam, map[string][]string{"demo": {"wind"}})

	// 2025-01-11 and 12 are a weekend
	_, err := r.Run(context.Background(), "demo", Window{Start: calendar.MustParse("2025-01-10"), End: calendar.MustParse("2025-01-13")})
	require.NoError(t, err)
	assert.Equal(t, []time.Time{calendar.MustParse("2025-01-10"), calendar.MustParse("2025-01-13")}, fam.dates)
}

func TestRunnerContinuesAfterFailedDate(t *testing.T) {
	f := newFixture(t)
	fam := &countingFamily{name: "demo", statuses: []string{consts.StatusFailed, consts.StatusSkipped, consts.StatusSuccess}}
	r := newTestRunner(f, fam, map[string][]string{"demo": {"wind"}})

	sum, err := r.Run(context.Background(), "demo", Window{Start: calendar.MustParse("2025-01-06"), End: calendar.MustParse("2025-01-08")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, 3, sum.Dates)
	assert.Equal(t, 1, sum.Failed)
	assert.Equal(t, 1, sum.Skipped)
	assert.Equal(t, 1, sum.Success)
}

func TestRunnerTracesFamilyAndDates(t *testing.T) {
	exp := tracetest.NewInMemoryExporter()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	f := newFixture(t)
	fam := &countingFamily{name: "demo", statuses: []string{consts.StatusFailed, consts.StatusSuccess}}
	r := newTestRunner(f, fam, map[string][]string{"demo": {"wind"}})

	_, err := r.Run(context.Background(), "demo", Window{Start: calendar.MustParse("2025-01-06"), End: calendar.MustParse("2025-01-07")})
	require.Error(t, err)

	spans := exp.GetSpans()
	require.Len(t, spans, 3)
	first, second, pass := spans[0], spans[1], spans[2]
	assert.Equal(t, "ingest.date", first.Name)
	assert.Equal(t, codes.Error, first.Status.Code)
	assert.Equal(t, codes.Unset, second.Status.Code)
	assert.Equal(t, "ingest.family", pass.Name)
	assert.Equal(t, codes.Error, pass.Status.Code)
	assert.Equal(t, pass.SpanContext.SpanID(), first.Parent.SpanID())
	assert.Equal(t, pass.SpanContext.TraceID(), second.SpanContext.TraceID())
}

func TestRunnerFailsWithoutProviders(t *testing.T) {
	f := newFixture(t)
	fam := &countingFamily{name: "demo"}
	r := newTestRunner(f, fam, map[string][]string{"demo": {"tushare"}})

	_, err := r.Run(context.Background(), "demo", Window{Start: calendar.MustParse("2025-01-06"), End: calendar.MustParse("2025-01-06")})
	require.ErrorIs(t, err, provider.ErrNotRegistered)
	assert.Empty(t, fam.dates)
}

func TestRunnerPrepareErrorStopsPass(t *testing.T) {
	f := newFixture(t)
	fam := &countingFamily{name: "demo", prepErr: mirror.ErrTargetTableNotFound}
	r := newTestRunner(f, fam, map[string][]string{"demo": {"wind"}})

	_, err := r.Run(context.Background(), "demo", Window{Start: calendar.MustParse("2025-01-06"), End: calendar.MustParse("2025-01-06")})
	require.ErrorIs(t, err, mirror.ErrTargetTableNotFound)
	assert.Empty(t, fam.dates)
}

func TestRunnerBusyAndUnknown(t *testing.T) {
	f := newFixture(t)
	fam := &countingFamily{name: "demo"}
	r := newTestRunner(f, fam, map[string][]string{"demo": {"wind"}}, WithLocker(busyLocker{}, time.Minute))

	_, err := r.Run(context.Background(), "demo", Window{Start: calendar.MustParse("2025-01-06"), End: calendar.MustParse("2025-01-06")})
	require.ErrorIs(t, err, ErrFamilyBusy)
	assert.Empty(t, fam.dates)

	_, err = r.Run(context.Background(), "nope", Window{})
	require.ErrorIs(t, err, ErrUnknownFamily)
}

func TestRunnerDefaultWindow(t *testing.T) {
	f := newFixture(t)
	f.deps.Biz.Lookback = 2
	now := time.Date(2025, 1, 11, 9, 0, 0, 0, time.Local) // Saturday
	r := NewRunner(f.deps, priority.Static{}, WithClock(func() time.Time { return now }))

	w := r.DefaultWindow()
	assert.Equal(t, calendar.MustParse("2025-01-10"), w.End)
	assert.Equal(t, calendar.MustParse("2025-01-08"), w.Start)
}

func TestRunAllSkipsDisabledFamilies(t *testing.T) {
	f := newFixture(t)
	fam := &countingFamily{name: "demo"}
	f.deps.Biz.Families["off"] = &config.FamilyConfig{Enabled: false}
	r := newTestRunner(f, fam, map[string][]string{"demo": {"wind"}})
	r.Register(&countingFamily{name: "off"})

	sums, err := r.RunAll(context.Background(), []string{"off", "demo"}, Window{Start: calendar.MustParse("2025-01-06"), End: calendar.MustParse("2025-01-06")})
	require.NoError(t, err)
	require.Len(t, sums, 1)
	assert.Equal(t, "demo", sums[0].Family)
}

func TestEndToEndIndexThroughRunner(t *testing.T) {
	f := newFixture(t)
	f.register(consts.FamilyIndex, consts.ProviderWind, func(req provider.Request) (*frame.Table, error) {
		if req.Date.Weekday() == time.Tuesday {
			return frame.New(), nil
		}
		return frame.FromRows(quoteCols(), [][]any{{"000300.SH", 3900.0, 1.5, 0.8}}), nil
	})
	r := NewRunner(f.deps, priority.Static{consts.FamilyIndex: {consts.ProviderWind}})

	// output exists, so no widening to the floor
	require.NoError(t, os.MkdirAll(f.deps.Sink.Layout.FamilyDir(consts.FamilyIndex), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(f.deps.Sink.Layout.FamilyDir(consts.FamilyIndex), "indexdata_20250103.csv"), []byte("code\n"), 0o644))

	sum, err := r.Run(context.Background(), consts.FamilyIndex, Window{Start: calendar.MustParse("2025-01-06"), End: calendar.MustParse("2025-01-08")})
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Dates)
	assert.Equal(t, 2, sum.Success)
	assert.Equal(t, 1, sum.Skipped)
	assert.Len(t, f.appender.byTable("indexdata"), 2)
}
