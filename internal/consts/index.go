package consts

// IndexInfo is one tracked index: vendor inner code, short name, qualified code and display name.
type IndexInfo struct {
	InnerCode   int
	ShortName   string
	Code        string
	DisplayName string
}

// Indices tracked for component weights and exposure.
var Indices = []IndexInfo{
	{InnerCode: 46, ShortName: "sz50", Code: "000016.SH", DisplayName: "上证50"},
	{InnerCode: 3145, ShortName: "hs300", Code: "000300.SH", DisplayName: "沪深300"},
	{InnerCode: 4978, ShortName: "zz500", Code: "000905.SH", DisplayName: "中证500"},
	{InnerCode: 39144, ShortName: "zz1000", Code: "000852.SH", DisplayName: "中证1000"},
	{InnerCode: 561230, ShortName: "zz2000", Code: "932000.CSI", DisplayName: "中证2000"},
	{InnerCode: 636661, ShortName: "zzA500", Code: "000510.CSI", DisplayName: "中证A500"},
	{InnerCode: 33792, ShortName: "gz2000", Code: "399303.SZ", DisplayName: "国证2000"},
}

func IndexByShortName(name string) (IndexInfo, bool) {
	for _, idx := range Indices {
		if idx.ShortName == name {
			return idx, true
		}
	}
	return IndexInfo{}, false
}

// IndexCodeRemap rewrites codes that are not self-describing.
var IndexCodeRemap = map[string]string{
	"932000": "932000.CSI",
	"000510": "000510.CSI",
	"999004": "999004.SSI",
}

// JYIndexWhitelist restricts index rows when jy is the only provider.
var JYIndexWhitelist = []string{
	"000016.SH", "000076.SH", "000300.SH", "000510.CSI", "000852.SH",
	"000905.SH", "399303.SZ", "932000.CSI", "999004.SSI",
}

// Component source dates earlier than these are served from the clamp date.
var ComponentSourceFloor = map[string]string{
	"zz2000": "2023-09-01",
	"zzA500": "2024-10-08",
}

// Backfill floors.
const (
	DefaultFloor       = "2023-06-01"
	IndexExposureFloor = "2025-07-29"
	DefaultLookback    = 3
)

// Default table set for the mirror sync command.
var DefaultSyncTables = []string{"chinesevaluationdate", "st_stock", "stockuniverse", "specialday"}
