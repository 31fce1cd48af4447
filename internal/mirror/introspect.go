package mirror

import (
	"database/sql"
	"strconv"
	"strings"

	"github.com/guregu/null/v6"

	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/frame"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/infra/dbconf"
)

const (
	mysqlTableExists = `SELECT COUNT(*) FROM information_schema.tables
WHERE table_schema = DATABASE() AND LOWER(table_name) = LOWER(?)`

	mysqlColumns = `SELECT column_name, column_type, is_nullable, column_default, extra
FROM information_schema.columns
WHERE table_schema = DATABASE() AND LOWER(table_name) = LOWER(?)
ORDER BY ordinal_position`

	pgTableExists = `SELECT COUNT(*) FROM information_schema.tables
WHERE table_schema = current_schema() AND LOWER(table_name) = LOWER($1)`

	pgColumns = `SELECT column_name, data_type, character_maximum_length, numeric_precision, numeric_scale,
is_nullable, column_default
FROM information_schema.columns
WHERE table_schema = current_schema() AND LOWER(table_name) = LOWER($1)
ORDER BY ordinal_position`
)

func existsQuery(dialect string) string {
	if dialect == dbconf.DialectPostgres {
		return pgTableExists
	}
	return mysqlTableExists
}

func columnsQuery(dialect string) string {
	if dialect == dbconf.DialectPostgres {
		return pgColumns
	}
	return mysqlColumns
}

// scanColumns reads the rows of columnsQuery for either dialect.
func scanColumns(dialect string, rows *sql.Rows) ([]Column, error) {
	var out []Column
	for rows.Next() {
		var (
			c        Column
			nullable string
			def      sql.NullString
		)
		if dialect == dbconf.DialectPostgres {
			var (
				dataType         string
				length, prec, sc sql.NullInt64
			)
			if err := rows.Scan(&c.Name, &dataType, &length, &prec, &sc, &nullable, &def); err != nil {
				return nil, err
			}
			c.Type = pgDeclaredType(dataType, length, prec, sc)
		} else {
			var extra sql.NullString
			if err := rows.Scan(&c.Name, &c.Type, &nullable, &def, &extra); err != nil {
				return nil, err
			}
			c.Extra = extra.String
		}
		c.Nullable = strings.EqualFold(nullable, "YES")
		c.Default = null.NewString(def.String, def.Valid)
		if c.Default.Valid && strings.HasPrefix(c.Default.String, "nextval(") {
			c.Extra = "auto_increment"
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// pgDeclaredType rebuilds a declared type from information_schema parts,
// since postgres reports only the bare data_type.
func pgDeclaredType(dataType string, length, prec, scale sql.NullInt64) string {
	switch dataType {
	case "character varying", "character":
		if length.Valid {
			return dataType + "(" + strconv.FormatInt(length.Int64, 10) + ")"
		}
	case "numeric":
		if prec.Valid && scale.Valid {
			return "numeric(" + strconv.FormatInt(prec.Int64, 10) + "," + strconv.FormatInt(scale.Int64, 10) + ")"
		}
	}
	return dataType
}

// rowsToTable drains rows into a frame, normalizing driver values.
func rowsToTable(rows *sql.Rows) (*frame.Table, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	t := frame.New(cols...)
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		for i, v := range vals {
			vals[i] = frame.Normalize(v)
		}
		t.Append(vals...)
	}
	return t, rows.Err()
}
