package manifest

import (
	"context"
	"fmt"

	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/infra/dbconf"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/infra/logging"
)

// Executor is satisfied by *mirror.Engine.
type Executor interface {
	TableExists(ctx context.Context, desc *dbconf.Descriptor, table string) (bool, error)
	Exec(ctx context.Context, desc *dbconf.Descriptor, stmt string) error
}

const (
	StatusCreated = "created"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
)

type Outcome struct {
	Key     string `json:"key"`
	Table   string `json:"table"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type Report []Outcome

func (r Report) Count(status string) int {
	n := 0
	for _, o := range r {
		if o.Status == status {
			n++
		}
	}
	return n
}

// Bootstrap creates every table of m that does not exist yet. Entries are
// independent: a bad url or a failed CREATE is recorded and the rest go on.
func Bootstrap(ctx context.Context, m *Manifest, exec Executor) Report {
	report := make(Report, 0, len(m.Entries))
	for _, e := range m.Entries {
		o := bootstrapEntry(ctx, e, exec)
		switch o.Status {
		case StatusFailed:
			logging.Errorf(ctx, "[bootstrap] %s (%s) failed: %s", o.Key, o.Table, o.Message)
		case StatusSkipped:
			logging.Infof(ctx, "[bootstrap] table %s already exists, skip", o.Table)
		default:
			logging.Infof(ctx, "[bootstrap] created table %s", o.Table)
		}
		report = append(report, o)
	}
	logging.Infof(ctx, "[bootstrap] created=%d skipped=%d failed=%d",
		report.Count(StatusCreated), report.Count(StatusSkipped), report.Count(StatusFailed))
	return report
}

func bootstrapEntry(ctx context.Context, e *Entry, exec Executor) Outcome {
	o := Outcome{Key: e.Key, Table: e.TableName}
	fail := func(err error) Outcome {
		o.Status, o.Message = StatusFailed, err.Error()
		return o
	}
	if err := e.Validate(); err != nil {
		return fail(err)
	}
	desc, err := ParseDBURL(e.DBURL)
	if err != nil {
		return fail(err)
	}
	exists, err := exec.TableExists(ctx, desc, e.TableName)
	if err != nil {
		return fail(fmt.Errorf("check %s: %w", e.TableName, err))
	}
	if exists {
		o.Status = StatusSkipped
		return o
	}
	if err := exec.Exec(ctx, desc, e.DDL()); err != nil {
		return fail(fmt.Errorf("create %s: %w", e.TableName, err))
	}
	o.Status = StatusCreated
	return o
}
