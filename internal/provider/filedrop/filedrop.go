// Package filedrop serves provider tables from dated CSV files dropped by
// vendors into <root>/<provider>/<dataset>[/<index>]/.
package filedrop

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"

	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/calendar"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/frame"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/provider"
)

// Dataset describes one kind of drop file.
type Dataset struct {
	Dir       string // directory under <root>/<provider>
	Prefix    string // file name prefix; empty matches any; {artifact} is replaced by the requested artifact
	PerIndex  bool   // files live in a sub directory named after the index short name
	GBK       bool
	Transform func(*frame.Table) (*frame.Table, error)
}

type Source struct {
	Root     string
	Provider string
}

func New(root, providerID string) *Source {
	return &Source{Root: root, Provider: providerID}
}

// Fetcher reads the drop file of the requested date. A missing file is an
// empty result, not an error.
func (s *Source) Fetcher(ds Dataset) provider.Fetcher {
	return provider.FetcherFunc(func(ctx context.Context, req provider.Request) (*frame.Table, error) {
		dir := filepath.Join(s.Root, s.Provider, ds.Dir)
		if ds.PerIndex {
			dir = filepath.Join(dir, req.Index.ShortName)
		}
		prefix := strings.ReplaceAll(ds.Prefix, "{artifact}", req.Artifact)
		path, ok := FindDated(dir, prefix, calendar.FormatCompact(req.Date))
		if !ok {
			return frame.New(), nil
		}
		t, err := ReadCSV(path, ds.GBK)
		if err != nil {
			return nil, err
		}
		if ds.Transform != nil {
			return ds.Transform(t)
		}
		return t, nil
	})
}

// FindDated picks the first file (by name) in dir whose name has prefix and
// contains the compact date.
func FindDated(dir, prefix, compact string) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	var names []string
	for _, e := range entries {
		n := e.Name()
		if e.IsDir() || !strings.HasPrefix(n, prefix) || !strings.Contains(n, compact) {
			continue
		}
		if ext := strings.ToLower(filepath.Ext(n)); ext != ".csv" {
			continue
		}
		names = append(names, n)
	}
	if len(names) == 0 {
		return "", false
	}
	sort.Strings(names)
	return filepath.Join(dir, names[0]), true
}

// ReadCSV loads a CSV file with every column kept as text; empty and NaN cells become NULL.
func ReadCSV(path string, gbk bool) (*frame.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if gbk {
		r = transform.NewReader(f, simplifiedchinese.GBK.NewDecoder())
	}
	df := dataframe.ReadCSV(r, dataframe.DetectTypes(false), dataframe.HasHeader(true))
	if df.Err != nil {
		return nil, fmt.Errorf("read %s: %w", path, df.Err)
	}
	records := df.Records()
	if len(records) == 0 {
		return frame.New(), nil
	}
	out := frame.New(records[0]...)
	for _, rec := range records[1:] {
		row := make([]any, len(rec))
		for i, cell := range rec {
			if strings.TrimSpace(cell) == "" || frame.IsNullText(cell) {
				continue
			}
			row[i] = cell
		}
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}
