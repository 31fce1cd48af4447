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

// ArtifactPortfolio names the portfolio table in the index_component family config.
const ArtifactPortfolio = "portfolio"

// ComponentFamily writes index constituent weights plus the derived
// next-session portfolio for every tracked index. First provider with data wins.
type ComponentFamily struct {
	deps    *Deps
	indices []consts.IndexInfo
	clamps  map[string]time.Time
}

func NewComponentFamily(deps *Deps) *ComponentFamily {
	clamps := make(map[string]time.Time, len(consts.ComponentSourceFloor))
	for short, day := range consts.ComponentSourceFloor {
		clamps[short] = calendar.MustParse(day)
	}
	return &ComponentFamily{deps: deps, indices: consts.Indices, clamps: clamps}
}

func (c *ComponentFamily) Name() string { return consts.FamilyIndexComponent }

func (c *ComponentFamily) Floor() time.Time {
	return c.deps.floor(c.deps.Biz.Floors.Default, consts.DefaultFloor)
}

func (c *ComponentFamily) OutputEmpty() bool {
	layout := c.deps.Sink.Layout
	for _, idx := range c.indices {
		if calendar.DirEmpty(filepath.Join(layout.FamilyDir(c.Name()), idx.ShortName)) {
			return true
		}
	}
	return false
}

func (c *ComponentFamily) Prepare(ctx context.Context) error {
	return c.deps.checkTables(ctx, c.Name(), c.Name(), ArtifactPortfolio)
}

// sourceDate clamps dates before an index's first published composition.
func (c *ComponentFamily) sourceDate(short string, d time.Time) time.Time {
	if floor, ok := c.clamps[short]; ok && d.Before(floor) {
		return floor
	}
	return d
}

func (c *ComponentFamily) Process(ctx context.Context, d time.Time, order []string) []Record {
	next := c.deps.Cal.NextWorkday(d)
	out := make([]Record, 0, len(c.indices))
	for _, idx := range c.indices {
		out = append(out, c.processIndex(ctx, d, next, idx, order))
	}
	return out
}

func (c *ComponentFamily) processIndex(ctx context.Context, d, next time.Time, idx consts.IndexInfo, order []string) Record {
	family := c.Name()
	req := provider.Request{Date: c.sourceDate(idx.ShortName, d), Index: idx}

	var weights *frame.Table
	winner, err := reconcile.FirstMatch(order, func(p string) (bool, error) {
		raw, err := c.deps.fetch(ctx, family, p, req)
		if err != nil {
			return false, err
		}
		if raw.Empty() || !raw.Has(consts.ColCode) || !raw.Has(consts.ColWeight) {
			return false, nil
		}
		weights = raw.Select(consts.ColCode, consts.ColWeight).DedupFirst(consts.ColCode)
		return !weights.Empty(), nil
	})
	if err != nil {
		logging.Warnf(ctx, "[%s] %s %s provider errors: %v", family, idx.ShortName, calendar.FormatISO(d), err)
	}
	if winner == "" {
		logging.Warnf(ctx, "[%s] %s has no component data for %s", family, idx.DisplayName, calendar.FormatISO(d))
		return skipped(family, d, idx.ShortName, "no provider has data")
	}
	logging.Infof(ctx, "[%s] %s component source: %s", family, idx.ShortName, winner)

	daily := weights.Clone()
	daily.Prepend(consts.ColValuationDate, calendar.FormatISO(d))
	daily.AddColumn(consts.ColOrganization, idx.ShortName)

	portfolioName := idx.ShortName + "_comp"
	port := weights.Clone()
	port.Prepend(consts.ColPortfolioName, portfolioName)
	port.Prepend(consts.ColValuationDate, calendar.FormatISO(next))

	layout := c.deps.Sink.Layout
	dailyArt := c.deps.artifact(family, family, layout.ComponentWeight(idx.ShortName, d), consts.ColValuationDate, consts.ColOrganization)
	dailyArt.GBK = false
	if _, err := c.deps.Sink.Persist(ctx, dailyArt, daily); err != nil {
		return failed(family, d, idx.ShortName, winner, fmt.Errorf("persist component: %w", err))
	}
	portArt := c.deps.artifact(family, ArtifactPortfolio, layout.Portfolio(idx.ShortName, next), consts.ColValuationDate, consts.ColPortfolioName)
	portArt.GBK = false
	if _, err := c.deps.Sink.Persist(ctx, portArt, port); err != nil {
		return failed(family, d, idx.ShortName, winner, fmt.Errorf("persist portfolio: %w", err))
	}
	return Record{Family: family, Date: d, Entity: idx.ShortName, Source: winner, Rows: daily.Len(), Status: consts.StatusSuccess}
}
