// Package jy fetches raw tables from the vendor database.
package jy

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/calendar"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/frame"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/infra/logging"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/provider"
)

type Client struct {
	db *sqlx.DB
}

// New wraps a pooled *sql.DB opened with the mysql driver.
func New(db *sql.DB) *Client {
	return &Client{db: sqlx.NewDb(db, "mysql")}
}

func NewWithSqlx(db *sqlx.DB) *Client { return &Client{db: db} }

// StockQuotes unions the main-board and STAR market quotes, ordered by code.
// A failing half is logged and skipped so one market still yields data.
func (c *Client) StockQuotes() provider.Fetcher {
	return provider.FetcherFunc(func(ctx context.Context, req provider.Request) (*frame.Table, error) {
		day := calendar.FormatISO(req.Date)
		var parts []*frame.Table
		var firstErr error
		for _, part := range []struct{ name, sql string }{{"main", sqlStockMain}, {"stib", sqlStockSTIB}} {
			t, err := c.query(ctx, part.sql, day)
			if err != nil {
				logging.Warnf(ctx, "[jy] stock %s query failed for %s: %v", part.name, day, err)
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			parts = append(parts, t)
		}
		if len(parts) == 0 {
			return nil, firstErr
		}
		out := concat(parts...)
		out.SortBy("qtid")
		return out, nil
	})
}

// IndexComponents returns code, weight (fraction) and status for req.Index.
func (c *Client) IndexComponents() provider.Fetcher {
	return provider.FetcherFunc(func(ctx context.Context, req provider.Request) (*frame.Table, error) {
		if req.Index.InnerCode == 0 {
			return nil, fmt.Errorf("jy index components: request has no index")
		}
		day := calendar.FormatISO(req.Date)
		args := []any{req.Index.InnerCode, day, day, day, req.Index.InnerCode}
		var parts []*frame.Table
		for _, q := range []string{sqlComponentMain, sqlComponentSTIB} {
			t, err := c.query(ctx, q, args...)
			if err != nil {
				logging.Warnf(ctx, "[jy] %s component query failed for %s: %v", req.Index.ShortName, day, err)
				continue
			}
			parts = append(parts, t)
		}
		out := concat(parts...)
		out = out.Filter(func(r int) bool { return out.String(r, "code").Valid })
		for r := range out.Rows {
			if w, ok := frame.ToFloat(out.Cell(r, "weight")); ok {
				out.Set(r, "weight", w/100)
			}
		}
		return out, nil
	})
}

func (c *Client) IndexQuotes() provider.Fetcher {
	return provider.FetcherFunc(func(ctx context.Context, req provider.Request) (*frame.Table, error) {
		return c.query(ctx, sqlIndexQuote, calendar.FormatISO(req.Date))
	})
}

func (c *Client) query(ctx context.Context, q string, args ...any) (*frame.Table, error) {
	rows, err := c.db.QueryxContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	out := frame.New(cols...)
	for rows.Next() {
		vals, err := rows.SliceScan()
		if err != nil {
			return nil, err
		}
		for i, v := range vals {
			vals[i] = frame.Normalize(v)
		}
		out.Rows = append(out.Rows, vals)
	}
	return out, rows.Err()
}

func concat(parts ...*frame.Table) *frame.Table {
	if len(parts) == 0 {
		return frame.New()
	}
	out := frame.New(parts[0].Columns...)
	for _, p := range parts {
		out.Rows = append(out.Rows, p.Select(out.Columns...).Rows...)
	}
	return out
}
