package consts

// Data families handled by the orchestrators.
const (
	FamilyStock          = "stock"
	FamilyIndex          = "index"
	FamilyIndexComponent = "index_component"
	FamilyFactor         = "factor"
	FamilyIndexExposure  = "index_exposure"
)

// DefaultFamilyOrder is the order of the daily auto update.
var DefaultFamilyOrder = []string{
	FamilyStock,
	FamilyIndexComponent,
	FamilyIndex,
	FamilyFactor,
	FamilyIndexExposure,
}

func IsFamily(name string) bool {
	for _, f := range DefaultFamilyOrder {
		if f == name {
			return true
		}
	}
	return false
}

// Provider ids.
const (
	ProviderJY      = "jy"
	ProviderWind    = "wind"
	ProviderTushare = "tushare"
)

// Reconciliation policies.
const (
	PolicyColumnMerge = "column-merge"
	PolicyFirstMatch  = "first-match"
)

// PolicyFor returns the reconciliation policy of a family.
func PolicyFor(family string) string {
	switch family {
	case FamilyIndex, FamilyStock:
		return PolicyColumnMerge
	default:
		return PolicyFirstMatch
	}
}

// Common column names.
const (
	ColValuationDate = "valuation_date"
	ColUpdateTime    = "update_time"
	ColCode          = "code"
	ColOrganization  = "organization"
	ColPortfolioName = "portfolio_name"
	ColWeight        = "weight"
	ColStatus        = "status"
)

// Run statuses.
const (
	StatusSuccess = "success"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
)

// Factor artifacts; a factor provider only wins when it supplies all of them.
const (
	ArtifactExposure     = "factorExposure"
	ArtifactReturn       = "factorReturn"
	ArtifactStockPool    = "factorStockPool"
	ArtifactCov          = "factorCov"
	ArtifactSpecificRisk = "factorSpecificRisk"
)

var FactorArtifacts = []string{ArtifactExposure, ArtifactReturn, ArtifactStockPool, ArtifactCov, ArtifactSpecificRisk}
