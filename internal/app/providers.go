package app

import (
	"database/sql"

	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/config"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/consts"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/provider"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/provider/filedrop"
)

// dropDatasets is the on-disk layout of every family under <root>/<provider>/.
var dropDatasets = map[string]filedrop.Dataset{
	consts.FamilyStock:          {Dir: consts.FamilyStock},
	consts.FamilyIndex:          {Dir: consts.FamilyIndex},
	consts.FamilyIndexComponent: {Dir: consts.FamilyIndexComponent, PerIndex: true, Transform: filedrop.ComponentWeights},
	consts.FamilyFactor:         {Dir: consts.FamilyFactor, Prefix: "{artifact}_", GBK: true},
	consts.FamilyIndexExposure:  {Dir: consts.FamilyIndexExposure, PerIndex: true, GBK: true},
}

// buildRegistry wires the vendor database for quotes and components, and file
// drops for everything else. jyDB may be nil when the source pool is disabled.
func buildRegistry(biz *config.BizConfig, jyDB *sql.DB) *provider.Registry {
	reg := provider.NewRegistry()
	root := biz.Paths.FileDropRoot
	if root != "" {
		for _, p := range biz.Providers.FileDrop {
			src := filedrop.New(root, p)
			for family, ds := range dropDatasets {
				reg.Register(family, p, src.Fetcher(ds))
			}
		}
		// jy publishes the risk model as files only
		jyDrop := filedrop.New(root, consts.ProviderJY)
		reg.Register(consts.FamilyFactor, consts.ProviderJY, jyDrop.Fetcher(dropDatasets[consts.FamilyFactor]))
		reg.Register(consts.FamilyIndexExposure, consts.ProviderJY, jyDrop.Fetcher(dropDatasets[consts.FamilyIndexExposure]))
	}
	if jyDB != nil {
		jy := newJY(jyDB)
		reg.Register(consts.FamilyStock, consts.ProviderJY, jy.StockQuotes())
		reg.Register(consts.FamilyIndex, consts.ProviderJY, jy.IndexQuotes())
		reg.Register(consts.FamilyIndexComponent, consts.ProviderJY, jy.IndexComponents())
	}
	return reg
}
