package service

import (
	"context"

	"github.com/guregu/null/v6"

	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/calendar"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/dao"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/model"
)

// RunLogger persists per-date outcomes.
type RunLogger interface {
	Record(ctx context.Context, runID string, rec Record) error
}

type nopRunLogger struct{}

func (nopRunLogger) Record(context.Context, string, Record) error { return nil }

type daoRunLogger struct {
	dao dao.RunLogDao
}

func NewDaoRunLogger(d dao.RunLogDao) RunLogger { return &daoRunLogger{dao: d} }

func (l *daoRunLogger) Record(ctx context.Context, runID string, rec Record) error {
	return l.dao.Insert(ctx, &model.RunLog{
		RunID:         runID,
		Family:        rec.Family,
		ValuationDate: calendar.Day(rec.Date),
		Entity:        null.NewString(rec.Entity, rec.Entity != ""),
		Source:        null.NewString(rec.Source, rec.Source != ""),
		Rows:          rec.Rows,
		Status:        rec.Status,
		Message:       null.NewString(rec.Message, rec.Message != ""),
	})
}
