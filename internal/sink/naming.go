package sink

import (
	"path/filepath"
	"time"

	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/calendar"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/consts"
)

// Layout builds artifact paths under one output root. Each family owns a
// sub-directory so the planner can check it for emptiness.
type Layout struct {
	Root string
}

func datedName(prefix string, d time.Time) string {
	return prefix + "_" + calendar.FormatCompact(d) + ".csv"
}

func (l Layout) FamilyDir(family string) string { return filepath.Join(l.Root, family) }

func (l Layout) IndexData(d time.Time) string {
	return filepath.Join(l.FamilyDir(consts.FamilyIndex), datedName("indexdata", d))
}

func (l Layout) StockData(d time.Time) string {
	return filepath.Join(l.FamilyDir(consts.FamilyStock), datedName("stockdata", d))
}

// Factor is one of the five factor artifacts, named after the artifact id.
func (l Layout) Factor(artifact string, d time.Time) string {
	return filepath.Join(l.FamilyDir(consts.FamilyFactor), datedName(artifact, d))
}

func (l Layout) ComponentWeight(short string, d time.Time) string {
	return filepath.Join(l.FamilyDir(consts.FamilyIndexComponent), short, datedName(short+"ComponentWeight", d))
}

// Portfolio is dated with the next working day: the weights of d are the
// holdings to trade on the following session.
func (l Layout) Portfolio(short string, next time.Time) string {
	name := short + "_comp"
	return filepath.Join(l.FamilyDir(consts.FamilyIndexComponent), name, datedName(name, next))
}

func (l Layout) IndexExposure(short string, d time.Time) string {
	return filepath.Join(l.FamilyDir(consts.FamilyIndexExposure), short, datedName(short+"IndexExposure", d))
}
