package service

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/calendar"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/consts"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/frame"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/infra/logging"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/provider"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/reconcile"
)

// ExposureFamily writes the factor exposure of every tracked index.
type ExposureFamily struct {
	deps    *Deps
	indices []consts.IndexInfo
}

func NewExposureFamily(deps *Deps) *ExposureFamily {
	return &ExposureFamily{deps: deps, indices: consts.Indices}
}

func (e *ExposureFamily) Name() string { return consts.FamilyIndexExposure }

func (e *ExposureFamily) Floor() time.Time {
	return e.deps.floor(e.deps.Biz.Floors.IndexExposure, consts.IndexExposureFloor)
}

func (e *ExposureFamily) OutputEmpty() bool {
	root := e.deps.Sink.Layout.FamilyDir(e.Name())
	for _, idx := range e.indices {
		if calendar.DirEmpty(filepath.Join(root, idx.ShortName)) {
			return true
		}
	}
	return false
}

func (e *ExposureFamily) Prepare(ctx context.Context) error {
	return e.deps.checkTables(ctx, e.Name(), e.Name())
}

func (e *ExposureFamily) Process(ctx context.Context, d time.Time, order []string) []Record {
	out := make([]Record, 0, len(e.indices))
	for _, idx := range e.indices {
		out = append(out, e.processIndex(ctx, d, idx, order))
	}
	return out
}

func (e *ExposureFamily) processIndex(ctx context.Context, d time.Time, idx consts.IndexInfo, order []string) Record {
	family := e.Name()
	var t *frame.Table
	winner, err := reconcile.FirstMatch(order, func(p string) (bool, error) {
		raw, err := e.deps.fetch(ctx, family, p, provider.Request{Date: d, Index: idx})
		if err != nil {
			return false, err
		}
		t = raw
		return !raw.Empty(), nil
	})
	if err != nil {
		logging.Warnf(ctx, "[%s] %s %s provider errors: %v", family, idx.ShortName, calendar.FormatISO(d), err)
	}
	if winner == "" {
		logging.Warnf(ctx, "[%s] %s has no exposure for %s", family, idx.DisplayName, calendar.FormatISO(d))
		return skipped(family, d, idx.ShortName, "no provider has data")
	}

	t = t.Clone()
	if !t.Has(consts.ColValuationDate) {
		t.Prepend(consts.ColValuationDate, calendar.FormatISO(d))
	}
	t.AddColumn(consts.ColOrganization, idx.ShortName)

	keys := keysPresent(t, consts.ColValuationDate, consts.ColOrganization)
	art := e.deps.artifact(family, family, e.deps.Sink.Layout.IndexExposure(idx.ShortName, d), keys...)
	w, err := e.deps.Sink.Persist(ctx, art, t)
	if err != nil {
		return failed(family, d, idx.ShortName, winner, fmt.Errorf("persist exposure: %w", err))
	}
	logging.Infof(ctx, "[%s] %s exposure source: %s", family, idx.ShortName, winner)
	return Record{Family: family, Date: d, Entity: idx.ShortName, Source: winner, Rows: w.Rows, Status: consts.StatusSuccess}
}
