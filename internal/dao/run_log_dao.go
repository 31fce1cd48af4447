package dao

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/model"
)

type RunLogDao interface {
	AutoMigrate(ctx context.Context) error
	Insert(ctx context.Context, rec *model.RunLog) error
	ListByRun(ctx context.Context, runID string) ([]*model.RunLog, error)
	ListRecent(ctx context.Context, family string, limit int) ([]*model.RunLog, error)
}

type runLogDaoImpl struct {
	db *gorm.DB
}

func NewRunLogDao(db *gorm.DB) RunLogDao {
	return &runLogDaoImpl{db: db}
}

func (d *runLogDaoImpl) AutoMigrate(ctx context.Context) error {
	if err := d.db.WithContext(ctx).AutoMigrate(&model.RunLog{}); err != nil {
		return fmt.Errorf("migrate run log: %w", err)
	}
	return nil
}

func (d *runLogDaoImpl) Insert(ctx context.Context, rec *model.RunLog) error {
	return d.db.WithContext(ctx).Create(rec).Error
}

func (d *runLogDaoImpl) ListByRun(ctx context.Context, runID string) ([]*model.RunLog, error) {
	var out []*model.RunLog
	err := d.db.WithContext(ctx).Where("run_id = ?", runID).Order("id").Find(&out).Error
	return out, err
}

func (d *runLogDaoImpl) ListRecent(ctx context.Context, family string, limit int) ([]*model.RunLog, error) {
	if limit <= 0 {
		limit = 50
	}
	q := d.db.WithContext(ctx).Order("id DESC").Limit(limit)
	if family != "" {
		q = q.Where("family = ?", family)
	}
	var out []*model.RunLog
	err := q.Find(&out).Error
	return out, err
}
