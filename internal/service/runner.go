package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/calendar"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/consts"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/infra/logging"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/lock"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/metrics"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/priority"
)

var (
	ErrUnknownFamily = errors.New("unknown family")
	ErrFamilyBusy    = errors.New("family is being processed by another run")
)

const (
	defaultLockTTL = 2 * time.Hour
	tracerName     = "dataupdate/service"
)

func tracer() trace.Tracer { return otel.Tracer(tracerName) }

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// Window is the inclusive date range of one pass before floor widening.
type Window struct {
	Start time.Time
	End   time.Time
}

// Summary tallies one family pass.
type Summary struct {
	Family  string    `json:"family"`
	RunID   string    `json:"run_id"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Dates   int       `json:"dates"`
	Success int       `json:"success"`
	Skipped int       `json:"skipped"`
	Failed  int       `json:"failed"`
	Records []Record  `json:"records"`
}

func (s *Summary) add(r Record) {
	s.Records = append(s.Records, r)
	switch r.Status {
	case consts.StatusSuccess:
		s.Success++
	case consts.StatusSkipped:
		s.Skipped++
	default:
		s.Failed++
	}
}

type Option func(*Runner)

func WithLocker(l lock.Locker, ttl time.Duration) Option {
	return func(r *Runner) {
		r.locker = l
		if ttl > 0 {
			r.lockTTL = ttl
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option { return func(r *Runner) { r.metrics = m } }

func WithRunLogger(l RunLogger) Option { return func(r *Runner) { r.runLog = l } }

func WithClock(now func() time.Time) Option { return func(r *Runner) { r.now = now } }

// Runner plans and executes family passes.
type Runner struct {
	deps     *Deps
	priority priority.Source
	planner  *calendar.Planner
	families map[string]Family

	locker  lock.Locker
	lockTTL time.Duration
	metrics *metrics.Metrics
	runLog  RunLogger
	now     func() time.Time

	mu sync.Mutex // 同一进程内串行执行
}

// NewRunner registers the five built-in families.
func NewRunner(deps *Deps, pri priority.Source, opts ...Option) *Runner {
	r := &Runner{
		deps:     deps,
		priority: pri,
		planner:  calendar.NewPlanner(deps.Cal),
		families: make(map[string]Family),
		locker:   lock.Noop{},
		lockTTL:  defaultLockTTL,
		runLog:   nopRunLogger{},
		now:      time.Now,
	}
	for _, f := range []Family{
		NewStockFamily(deps),
		NewIndexFamily(deps),
		NewComponentFamily(deps),
		NewFactorFamily(deps),
		NewExposureFamily(deps),
	} {
		r.Register(f)
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Register adds or replaces a family.
func (r *Runner) Register(f Family) { r.families[f.Name()] = f }

// DefaultWindow ends at the target date and reaches back the configured lookback.
func (r *Runner) DefaultWindow() Window {
	return r.WindowEnding(r.planner.TargetDate(r.now()))
}

// WindowEnding reaches back the configured lookback from end.
func (r *Runner) WindowEnding(end time.Time) Window {
	lookback := r.deps.Biz.Lookback
	if lookback <= 0 {
		lookback = consts.DefaultLookback
	}
	end = calendar.Day(end)
	return Window{Start: r.planner.Window(end, lookback), End: end}
}

// Run executes one family over w. Per-date failures do not stop the pass;
// they are joined into the returned error next to the summary.
func (r *Runner) Run(ctx context.Context, family string, w Window) (*Summary, error) {
	f, ok := r.families[family]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFamily, family)
	}
	ctx = logging.WithRunID(ctx)

	release, err := r.locker.Acquire(ctx, family, r.lockTTL)
	if err != nil {
		if errors.Is(err, lock.ErrLocked) {
			logging.Warnf(ctx, "[%s] skipped: %v", family, err)
			return nil, fmt.Errorf("%w: %s", ErrFamilyBusy, family)
		}
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			logging.Warnf(ctx, "[%s] release lock: %v", family, err)
		}
	}()

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.run(ctx, f, w)
}

func (r *Runner) run(ctx context.Context, f Family, w Window) (_ *Summary, err error) {
	family := f.Name()
	sum := &Summary{Family: family, RunID: logging.RunID(ctx), Start: w.Start, End: w.End}
	ctx, span := tracer().Start(ctx, "ingest.family", trace.WithAttributes(
		attribute.String("family", family),
		attribute.String("run_id", sum.RunID),
		attribute.String("window.start", calendar.FormatISO(w.Start)),
		attribute.String("window.end", calendar.FormatISO(w.End)),
	))
	defer func() {
		span.SetAttributes(attribute.Int("dates", sum.Dates), attribute.Int("failed", sum.Failed))
		endSpan(span, err)
	}()

	table, err := r.priority.Load()
	if err != nil {
		return sum, fmt.Errorf("load priority: %w", err)
	}
	order, missing, err := r.deps.Registry.Resolve(family, table.Order(family))
	for _, m := range missing {
		logging.Warnf(ctx, "[%s] ranked provider unavailable: %v", family, m)
	}
	if err != nil {
		return sum, err
	}

	dates := r.planner.Plan(w.Start, w.End, f.Floor(), f.OutputEmpty())
	if len(dates) == 0 {
		logging.Infof(ctx, "[%s] nothing to do in %s..%s", family, calendar.FormatISO(w.Start), calendar.FormatISO(w.End))
		return sum, nil
	}
	sum.Start = dates[0]
	if err := f.Prepare(ctx); err != nil {
		return sum, fmt.Errorf("prepare %s: %w", family, err)
	}
	logging.Infof(ctx, "[%s] processing %d dates %s..%s with %v", family, len(dates),
		calendar.FormatISO(dates[0]), calendar.FormatISO(dates[len(dates)-1]), order)

	var errs []error
	for _, d := range dates {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		sum.Dates++
		dctx, dspan := tracer().Start(ctx, "ingest.date", trace.WithAttributes(
			attribute.String("family", family),
			attribute.String("date", calendar.FormatISO(d)),
		))
		var dateErrs []error
		for _, rec := range f.Process(dctx, d, order) {
			sum.add(rec)
			r.metrics.ObserveDate(family, rec.Status)
			r.metrics.AddRows(family, rec.Rows)
			if err := r.runLog.Record(ctx, sum.RunID, rec); err != nil {
				logging.Warnf(ctx, "[%s] run log: %v", family, err)
			}
			if rec.Err != nil {
				logging.Errorf(ctx, "[%s] %s %s failed: %v", family, calendar.FormatISO(d), rec.Entity, rec.Err)
				dateErrs = append(dateErrs, fmt.Errorf("%s %s: %w", calendar.FormatISO(d), rec.Entity, rec.Err))
			}
		}
		endSpan(dspan, errors.Join(dateErrs...))
		errs = append(errs, dateErrs...)
	}
	logging.Infof(ctx, "[%s] done: %d dates, %d success, %d skipped, %d failed",
		family, sum.Dates, sum.Success, sum.Skipped, sum.Failed)
	return sum, errors.Join(errs...)
}

// RunAll runs families in order, or the default daily order when empty.
// Disabled and busy families are left out; one family failing does not stop the next.
func (r *Runner) RunAll(ctx context.Context, families []string, w Window) ([]*Summary, error) {
	if len(families) == 0 {
		families = consts.DefaultFamilyOrder
	}
	var (
		out  []*Summary
		errs []error
	)
	for _, name := range families {
		if !r.deps.Biz.Family(name).Enabled {
			logging.Infof(ctx, "[%s] disabled", name)
			continue
		}
		sum, err := r.Run(ctx, name, w)
		if errors.Is(err, ErrFamilyBusy) {
			continue
		}
		if sum != nil {
			out = append(out, sum)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return out, errors.Join(errs...)
}
