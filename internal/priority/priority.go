// Package priority loads the per-family provider ranking.
package priority

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/consts"
)

const (
	colSource = "source_name"
	colRank   = "rank"
)

type Entry struct {
	Source string
	Rank   float64
}

// Table maps a family to its providers sorted by ascending rank.
type Table map[string][]Entry

// Order returns provider ids for family, highest priority first.
func (t Table) Order(family string) []string {
	entries, ok := t[family]
	if !ok && family == consts.FamilyIndexExposure {
		entries = t[consts.FamilyFactor]
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Source)
	}
	return out
}

// SheetFor is the workbook sheet of a family.
func SheetFor(family string) string {
	if family == consts.FamilyIndex {
		return "index_data"
	}
	return family
}

// Source yields a fresh Table; it is called once per orchestration pass.
type Source interface {
	Load() (Table, error)
}

// Workbook reads an xlsx file with one sheet per family and columns source_name, rank.
type Workbook struct {
	Path string
}

func (w Workbook) Load() (Table, error) {
	f, err := excelize.OpenFile(w.Path)
	if err != nil {
		return nil, fmt.Errorf("open priority workbook %s: %w", w.Path, err)
	}
	defer func() { _ = f.Close() }()

	sheets := map[string]bool{}
	for _, s := range f.GetSheetList() {
		sheets[s] = true
	}
	out := Table{}
	for _, family := range consts.DefaultFamilyOrder {
		sheet := SheetFor(family)
		if !sheets[sheet] {
			continue
		}
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
		}
		entries, err := parseRows(rows)
		if err != nil {
			return nil, fmt.Errorf("sheet %s: %w", sheet, err)
		}
		out[family] = entries
	}
	return out, nil
}

func parseRows(rows [][]string) ([]Entry, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	si, ri := -1, -1
	for i, h := range rows[0] {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case colSource:
			si = i
		case colRank:
			ri = i
		}
	}
	if si < 0 || ri < 0 {
		return nil, fmt.Errorf("header must contain %s and %s, got %v", colSource, colRank, rows[0])
	}
	var entries []Entry
	for n, row := range rows[1:] {
		if si >= len(row) || strings.TrimSpace(row[si]) == "" {
			continue
		}
		if ri >= len(row) {
			return nil, fmt.Errorf("row %d: missing rank", n+2)
		}
		rank, err := strconv.ParseFloat(strings.TrimSpace(row[ri]), 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: bad rank %q", n+2, row[ri])
		}
		entries = append(entries, Entry{Source: strings.TrimSpace(row[si]), Rank: rank})
	}
	sort.SliceStable(entries, func(a, b int) bool { return entries[a].Rank < entries[b].Rank })
	return entries, nil
}

// Static is the YAML fallback: family -> providers already in priority order.
type Static map[string][]string

func (s Static) Load() (Table, error) {
	out := Table{}
	for family, providers := range s {
		entries := make([]Entry, len(providers))
		for i, p := range providers {
			entries[i] = Entry{Source: p, Rank: float64(i + 1)}
		}
		out[family] = entries
	}
	return out, nil
}

// WriteWorkbook saves t in the layout Workbook reads.
func WriteWorkbook(path string, t Table) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	for _, family := range consts.DefaultFamilyOrder {
		entries, ok := t[family]
		if !ok {
			continue
		}
		sheet := SheetFor(family)
		if _, err := f.NewSheet(sheet); err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, "A1", &[]any{colSource, colRank}); err != nil {
			return err
		}
		for i, e := range entries {
			cell, _ := excelize.CoordinatesToCellName(1, i+2)
			if err := f.SetSheetRow(sheet, cell, &[]any{e.Source, e.Rank}); err != nil {
				return err
			}
		}
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}
	return f.SaveAs(path)
}
