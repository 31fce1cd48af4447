package standardize

import "github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/consts"

// Units declares how a provider reports percentages.
type Units struct {
	PercentAsWhole bool
}

// UnitTable is keyed by family, then provider.
type UnitTable map[string]map[string]Units

// DefaultUnits: index vendors quote pct_chg as whole percent, stock vendors
// already return fractional returns.
func DefaultUnits() UnitTable {
	return UnitTable{
		consts.FamilyIndex: {
			consts.ProviderJY:      {PercentAsWhole: true},
			consts.ProviderWind:    {PercentAsWhole: true},
			consts.ProviderTushare: {PercentAsWhole: true},
		},
		consts.FamilyStock: {
			consts.ProviderJY:   {PercentAsWhole: false},
			consts.ProviderWind: {PercentAsWhole: false},
		},
	}
}

// Override applies config overrides of the form family -> provider -> percent_as_whole.
func (u UnitTable) Override(over map[string]map[string]bool) UnitTable {
	for family, providers := range over {
		if u[family] == nil {
			u[family] = map[string]Units{}
		}
		for p, whole := range providers {
			u[family][p] = Units{PercentAsWhole: whole}
		}
	}
	return u
}

// Of falls back to the family default for undeclared providers.
func (u UnitTable) Of(family, provider string) Units {
	if ps, ok := u[family]; ok {
		if units, ok := ps[provider]; ok {
			return units
		}
	}
	return Units{PercentAsWhole: family == consts.FamilyIndex}
}
