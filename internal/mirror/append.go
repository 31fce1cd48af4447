package mirror

import (
	"context"

	"github.com/pkg/errors"

	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/frame"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/infra/dbconf"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/infra/logging"
)

// AppendOptions: rows of the target whose ReplaceKeys tuple appears in the
// new data are deleted in the same transaction before the insert.
type AppendOptions struct {
	ReplaceKeys []string
}

// AppendTable is the single-table loader: it writes t into an existing table
// of desc. The table must already exist.
func (e *Engine) AppendTable(ctx context.Context, desc *dbconf.Descriptor, table string, t *frame.Table, opts AppendOptions) (int, error) {
	if t.Empty() {
		return 0, nil
	}
	for _, k := range opts.ReplaceKeys {
		if !t.Has(k) {
			return 0, errors.Errorf("append %s: replace key %s not in data", table, k)
		}
	}
	dst, err := e.connect(ctx, desc, "target")
	if err != nil {
		return 0, err
	}
	defer closeQuietly(ctx, dst, "target", table)

	exists, err := dst.TableExists(ctx, table)
	if err != nil {
		return 0, errors.Wrapf(err, "check target table %s", table)
	}
	if !exists {
		return 0, errors.Wrapf(ErrTargetTableNotFound, "%s", table)
	}

	tx, err := dst.Begin(ctx)
	if err != nil {
		return 0, errors.Wrapf(err, "begin transaction for %s", table)
	}
	if err := loadInTx(ctx, tx, dst.Dialect(), table, t, false, opts.ReplaceKeys); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logging.Errorf(ctx, "[mirror] rollback %s failed: %v", table, rbErr)
		}
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		_ = tx.Rollback()
		return 0, errors.Wrapf(err, "commit %s", table)
	}
	return t.Len(), nil
}

// TableExists checks a table on desc; used as the orchestrators' precondition.
func (e *Engine) TableExists(ctx context.Context, desc *dbconf.Descriptor, table string) (bool, error) {
	d, err := e.connect(ctx, desc, "target")
	if err != nil {
		return false, err
	}
	defer closeQuietly(ctx, d, "target", table)
	return d.TableExists(ctx, table)
}

// Exec runs one statement on desc, used by schema bootstrap.
func (e *Engine) Exec(ctx context.Context, desc *dbconf.Descriptor, stmt string) error {
	d, err := e.connect(ctx, desc, "target")
	if err != nil {
		return err
	}
	defer closeQuietly(ctx, d, "target", "")
	_, err = d.Exec(ctx, stmt)
	return err
}
