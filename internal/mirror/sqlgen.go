package mirror

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/infra/dbconf"
)

// MaxPlaceholders is the bind-parameter limit of one statement on MySQL and Postgres.
const MaxPlaceholders = 65535

func QuoteIdent(dialect, name string) string {
	if dialect == dbconf.DialectPostgres {
		return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
	}
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func placeholder(dialect string, n int) string {
	if dialect == dbconf.DialectPostgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

func quoteList(dialect string, names []string) string {
	q := make([]string, len(names))
	for i, n := range names {
		q[i] = QuoteIdent(dialect, n)
	}
	return strings.Join(q, ", ")
}

// SelectSQL reads every column of table, optionally filtered by a raw WHERE clause.
func SelectSQL(dialect, table string, cols []string, where string) string {
	q := fmt.Sprintf("SELECT %s FROM %s", quoteList(dialect, cols), QuoteIdent(dialect, table))
	if w := strings.TrimSpace(where); w != "" {
		q += " WHERE " + w
	}
	return q
}

func DeleteSQL(dialect, table string, keys []string) string {
	q := "DELETE FROM " + QuoteIdent(dialect, table)
	if len(keys) == 0 {
		return q
	}
	conds := make([]string, len(keys))
	for i, k := range keys {
		conds[i] = QuoteIdent(dialect, k) + " = " + placeholder(dialect, i+1)
	}
	return q + " WHERE " + strings.Join(conds, " AND ")
}

// InsertSQL builds one multi-row statement for rows rows of len(cols) values.
func InsertSQL(dialect, table string, cols []string, rows int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES ", QuoteIdent(dialect, table), quoteList(dialect, cols))
	n := 1
	for r := 0; r < rows; r++ {
		if r > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for c := range cols {
			if c > 0 {
				b.WriteString(", ")
			}
			b.WriteString(placeholder(dialect, n))
			n++
		}
		b.WriteByte(')')
	}
	return b.String()
}

// ChunkRows is the largest row count per INSERT that stays under MaxPlaceholders.
func ChunkRows(cols int) int {
	if cols <= 0 {
		return 1
	}
	return MaxPlaceholders / cols
}

var (
	numericDefault = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)
	pgCast         = regexp.MustCompile(`^'(.*)'::[a-z ]+(\(\d+(,\d+)?\))?$`)
)

// CreateTableDDL renders a CREATE TABLE for cols in the target dialect. No
// primary key is declared; auto_increment is dropped because MySQL only
// accepts it on a key column.
func CreateTableDDL(dialect, table string, cols []Column) string {
	defs := make([]string, 0, len(cols))
	for _, c := range cols {
		def := QuoteIdent(dialect, c.Name) + " " + TranslateType(c.Type, dialect)
		if !c.Nullable {
			def += " NOT NULL"
		}
		if d, ok := renderDefault(c, dialect); ok {
			def += " DEFAULT " + d
		}
		if dialect == dbconf.DialectMySQL && strings.Contains(strings.ToLower(c.Extra), "on update current_timestamp") {
			def += " ON UPDATE CURRENT_TIMESTAMP"
		}
		defs = append(defs, def)
	}
	return fmt.Sprintf("CREATE TABLE %s (\n  %s\n)", QuoteIdent(dialect, table), strings.Join(defs, ",\n  "))
}

func renderDefault(c Column, dialect string) (string, bool) {
	if !c.Default.Valid {
		return "", false
	}
	d := strings.TrimSpace(c.Default.String)
	upper := strings.ToUpper(d)
	switch {
	case strings.HasPrefix(strings.ToLower(d), "nextval("):
		return "", false
	case upper == "NULL":
		return "NULL", true
	case strings.Contains(strings.ToUpper(c.Extra), "DEFAULT_GENERATED"),
		strings.HasPrefix(upper, "CURRENT_TIMESTAMP"), upper == "NOW()":
		if dialect == dbconf.DialectPostgres {
			return "CURRENT_TIMESTAMP", true
		}
		return d, true
	case numericDefault.MatchString(d):
		return d, true
	}
	if m := pgCast.FindStringSubmatch(d); m != nil {
		d = strings.ReplaceAll(m[1], "''", "'")
	}
	return "'" + strings.ReplaceAll(d, "'", "''") + "'", true
}

var typeWithArgs = regexp.MustCompile(`^([a-z ]+?)\s*(\(([\d, ]+)\))?\s*(unsigned)?\s*(zerofill)?$`)

// TranslateType maps a declared column type onto the target dialect. Types
// already native to the target are returned unchanged.
func TranslateType(declared, dialect string) string {
	t := strings.ToLower(strings.TrimSpace(declared))
	m := typeWithArgs.FindStringSubmatch(t)
	if m == nil {
		return declared
	}
	base, args := strings.TrimSpace(m[1]), strings.ReplaceAll(m[3], " ", "")
	withArgs := func(name string) string {
		if args == "" {
			return name
		}
		return name + "(" + args + ")"
	}
	if dialect == dbconf.DialectPostgres {
		switch base {
		case "tinyint", "smallint":
			return "smallint"
		case "mediumint", "int", "integer":
			if m[4] != "" {
				return "bigint"
			}
			return "integer"
		case "bigint":
			return "bigint"
		case "double", "double precision":
			return "double precision"
		case "float", "real":
			return "real"
		case "decimal", "numeric":
			return withArgs("numeric")
		case "datetime", "timestamp", "timestamp without time zone":
			return "timestamp"
		case "date":
			return "date"
		case "time":
			return "time"
		case "varchar", "character varying":
			return withArgs("varchar")
		case "char", "character":
			return withArgs("char")
		case "tinytext", "text", "mediumtext", "longtext":
			return "text"
		case "tinyblob", "blob", "mediumblob", "longblob", "binary", "varbinary":
			return "bytea"
		case "json":
			return "json"
		case "boolean":
			return "boolean"
		}
		return declared
	}
	switch base {
	case "character varying":
		return withArgs("varchar")
	case "character":
		return withArgs("char")
	case "integer":
		return "int"
	case "double precision":
		return "double"
	case "numeric":
		return withArgs("decimal")
	case "timestamp without time zone", "timestamp with time zone":
		return "datetime"
	case "boolean":
		return "tinyint(1)"
	case "bytea":
		return "longblob"
	case "jsonb":
		return "json"
	}
	return declared
}
