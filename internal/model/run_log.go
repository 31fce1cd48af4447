package model

import (
	"time"

	"github.com/guregu/null/v6"
)

// RunLog is one per-date (and per-entity) outcome of an orchestration pass.
type RunLog struct {
	ID            int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	RunID         string      `gorm:"size:36;index" json:"run_id"`
	Family        string      `gorm:"size:32;index:idx_family_date" json:"family"`
	ValuationDate time.Time   `gorm:"type:date;index:idx_family_date" json:"valuation_date"`
	Entity        null.String `gorm:"size:32" json:"entity"`
	Source        null.String `gorm:"size:64" json:"source"`
	Rows          int         `json:"rows"`
	Status        string      `gorm:"size:16" json:"status"`
	Message       null.String `gorm:"type:text" json:"message"`
	CreatedAt     time.Time   `json:"created_at"`
}

func (RunLog) TableName() string { return "ingest_run_log" }
