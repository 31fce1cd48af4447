package filedrop

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/simplifiedchinese"

	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/calendar"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/consts"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/provider"
)

func write(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestFetcherReadsDatedFile(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "wind", "index", "windindex_20250102.csv"), "CODE,CLOSE,PCT_CHG\n000300.SH,3800.5,1.2\n932000,,NaN\n")
	write(t, filepath.Join(root, "wind", "index", "windindex_20250103.csv"), "CODE,CLOSE\nx,1\n")

	f := New(root, "wind").Fetcher(Dataset{Dir: "index"})
	tb, err := f.Fetch(context.Background(), provider.Request{Date: calendar.MustParse("2025-01-02")})
	require.NoError(t, err)
	assert.Equal(t, []string{"CODE", "CLOSE", "PCT_CHG"}, tb.Columns)
	require.Equal(t, 2, tb.Len())
	assert.Equal(t, "3800.5", tb.Cell(0, "CLOSE"))
	assert.Nil(t, tb.Cell(1, "CLOSE"))
	assert.Nil(t, tb.Cell(1, "PCT_CHG"))
}

func TestFetcherMissingFileIsEmpty(t *testing.T) {
	f := New(t.TempDir(), "tushare").Fetcher(Dataset{Dir: "index"})
	tb, err := f.Fetch(context.Background(), provider.Request{Date: calendar.MustParse("2025-01-02")})
	require.NoError(t, err)
	assert.True(t, tb.Empty())
}

func TestFetcherPerIndexArtifactAndTransform(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "jy", "index_component", "hs300", "hs300_20250102.csv"),
		"code,weight,status\n600000.SH,1.5,1\n600001.SH,2.0,0\n")
	hs300, _ := consts.IndexByShortName("hs300")

	f := New(root, "jy").Fetcher(Dataset{Dir: "index_component", PerIndex: true, Transform: ComponentWeights})
	tb, err := f.Fetch(context.Background(), provider.Request{Date: calendar.MustParse("2025-01-02"), Index: hs300})
	require.NoError(t, err)
	require.Equal(t, 1, tb.Len())
	assert.Equal(t, []string{"code", "weight"}, tb.Columns)
	assert.InDelta(t, 0.015, tb.Cell(0, "weight"), 1e-12)

	write(t, filepath.Join(root, "jy", "factor", "factorCov_20250102.csv"), "a,b\n1,2\n")
	write(t, filepath.Join(root, "jy", "factor", "factorReturn_20250102.csv"), "a\n3\n")
	ff := New(root, "jy").Fetcher(Dataset{Dir: "factor", Prefix: "{artifact}_"})
	tb, err = ff.Fetch(context.Background(), provider.Request{Date: calendar.MustParse("2025-01-02"), Artifact: consts.ArtifactReturn})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, tb.Columns)
}

func TestReadCSVGBK(t *testing.T) {
	body, err := simplifiedchinese.GBK.NewEncoder().String("code,name\n000300.SH,沪深300\n")
	require.NoError(t, err)
	p := filepath.Join(t.TempDir(), "x_20250102.csv")
	write(t, p, body)

	tb, err := ReadCSV(p, true)
	require.NoError(t, err)
	assert.Equal(t, "沪深300", tb.Cell(0, "name"))
}

func TestFindDatedIgnoresOtherExtensions(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "a_20250102.xlsx"), "")
	_, ok := FindDated(dir, "", "20250102")
	assert.False(t, ok)
	write(t, filepath.Join(dir, "b_20250102.CSV"), "c\n1\n")
	p, ok := FindDated(dir, "", "20250102")
	assert.True(t, ok)
	assert.Equal(t, "b_20250102.CSV", filepath.Base(p))
}
