package manifest

import (
	"fmt"
	"strings"
)

var typeMapping = map[string]string{
	"String":   "VARCHAR",
	"Integer":  "INT",
	"Float":    "DOUBLE",
	"DateTime": "DATETIME",
}

func columnType(c Column) string {
	t, ok := typeMapping[c.Type]
	if !ok {
		t = "VARCHAR"
	}
	if t == "VARCHAR" {
		n := c.Length
		if n <= 0 {
			n = 255
		}
		return fmt.Sprintf("VARCHAR(%d)", n)
	}
	return t
}

func quote(name string) string { return "`" + strings.ReplaceAll(name, "`", "``") + "`" }

// DDL renders the MySQL CREATE TABLE IF NOT EXISTS statement of an entry.
func (e *Entry) DDL() string {
	defs := make([]string, 0, len(e.Columns)+1)
	for _, c := range e.Columns {
		defs = append(defs, quote(c.Name)+" "+columnType(c))
	}
	if len(e.PrivateKeys) > 0 {
		pks := make([]string, len(e.PrivateKeys))
		for i, pk := range e.PrivateKeys {
			pks[i] = quote(pk)
		}
		defs = append(defs, "PRIMARY KEY ("+strings.Join(pks, ", ")+")")
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci",
		quote(e.TableName), strings.Join(defs, ",\n  "))
}
