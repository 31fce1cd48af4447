package service

import (
	"context"
	"fmt"
	"time"

	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/calendar"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/consts"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/frame"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/infra/logging"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/provider"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/reconcile"
)

// FactorFamily writes the five risk model artifacts. A provider only wins
// when it supplies every one of them for the date.
type FactorFamily struct {
	deps      *Deps
	artifacts []string
}

func NewFactorFamily(deps *Deps) *FactorFamily {
	return &FactorFamily{deps: deps, artifacts: consts.FactorArtifacts}
}

func (f *FactorFamily) Name() string { return consts.FamilyFactor }

func (f *FactorFamily) Floor() time.Time {
	return f.deps.floor(f.deps.Biz.Floors.Default, consts.DefaultFloor)
}

// OutputEmpty is true while any artifact has never been written.
func (f *FactorFamily) OutputEmpty() bool {
	dir := f.deps.Sink.Layout.FamilyDir(f.Name())
	for _, a := range f.artifacts {
		if !hasFileWithPrefix(dir, a+"_") {
			return true
		}
	}
	return false
}

func (f *FactorFamily) Prepare(ctx context.Context) error {
	return f.deps.checkTables(ctx, f.Name(), f.artifacts...)
}

func (f *FactorFamily) Process(ctx context.Context, d time.Time, order []string) []Record {
	family := f.Name()
	var got map[string]*frame.Table
	winner, err := reconcile.FirstMatch(order, func(p string) (bool, error) {
		set := make(map[string]*frame.Table, len(f.artifacts))
		for _, a := range f.artifacts {
			t, err := f.deps.fetch(ctx, family, p, provider.Request{Date: d, Artifact: a})
			if err != nil {
				return false, err
			}
			if t.Empty() {
				logging.Debugf(ctx, "[%s] provider %s misses %s for %s", family, p, a, calendar.FormatISO(d))
				return false, nil
			}
			set[a] = t
		}
		got = set
		return true, nil
	})
	if err != nil {
		logging.Warnf(ctx, "[%s] %s provider errors: %v", family, calendar.FormatISO(d), err)
	}
	if winner == "" {
		logging.Warnf(ctx, "[%s] no complete factor set for %s", family, calendar.FormatISO(d))
		return []Record{skipped(family, d, "", "no provider has all factor artifacts")}
	}
	logging.Infof(ctx, "[%s] %s factor source: %s", family, calendar.FormatISO(d), winner)

	out := make([]Record, 0, len(f.artifacts))
	for _, a := range f.artifacts {
		t := got[a]
		if !t.Has(consts.ColValuationDate) {
			t.Prepend(consts.ColValuationDate, calendar.FormatISO(d))
		}
		art := f.deps.artifact(family, a, f.deps.Sink.Layout.Factor(a, d), consts.ColValuationDate)
		w, err := f.deps.Sink.Persist(ctx, art, t)
		if err != nil {
			out = append(out, failed(family, d, a, winner, fmt.Errorf("persist %s: %w", a, err)))
			continue
		}
		out = append(out, Record{Family: family, Date: d, Entity: a, Source: winner, Rows: w.Rows, Status: consts.StatusSuccess})
	}
	return out
}
