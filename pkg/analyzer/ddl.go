package analyzer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Dialect selects the SQL flavor of generated DDL.
type Dialect string

const (
	Postgres  Dialect = "postgres"
	SQLite    Dialect = "sqlite"
	MySQL     Dialect = "mysql"
	SQLServer Dialect = "sqlserver"
)

// DefaultTable is the placeholder table name used in analysis results.
const DefaultTable = "imported_table"

// Column is one generated table column.
type Column struct {
	Name    string `json:"name" yaml:"name"`
	Path    string `json:"path" yaml:"path"`
	Type    Type   `json:"type" yaml:"type"`
	SQLType string `json:"sqlType" yaml:"sqlType"`
}

// DDLOptions controls GenerateDDL. The zero value produces the Postgres
// statement for DefaultTable.
type DDLOptions struct {
	Dialect     Dialect
	Table       string
	IfNotExists bool
}

type dialectSpec struct {
	primaryKey string
	integer    string
	float      string
	boolean    string
	json       string
	text       string
	quote      func(string) string
}

var dialects = map[Dialect]dialectSpec{
	Postgres: {
		primaryKey: "serial primary key",
		integer:    "integer",
		float:      "double precision",
		boolean:    "boolean",
		json:       "jsonb",
		text:       "text",
		quote:      doubleQuote,
	},
	SQLite: {
		primaryKey: "integer primary key autoincrement",
		integer:    "integer",
		float:      "real",
		boolean:    "boolean",
		json:       "text",
		text:       "text",
		quote:      doubleQuote,
	},
	MySQL: {
		primaryKey: "bigint auto_increment primary key",
		integer:    "bigint",
		float:      "double",
		boolean:    "boolean",
		json:       "json",
		text:       "text",
		quote: func(s string) string {
			return "`" + strings.ReplaceAll(s, "`", "``") + "`"
		},
	},
	SQLServer: {
		primaryKey: "int identity(1,1) primary key",
		integer:    "bigint",
		float:      "float",
		boolean:    "bit",
		json:       "nvarchar(max)",
		text:       "nvarchar(max)",
		quote: func(s string) string {
			return "[" + strings.ReplaceAll(s, "]", "]]") + "]"
		},
	},
}

func doubleQuote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

var plainIdent = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// ParseDialect maps common backend names onto a Dialect.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "postgres", "postgresql", "pg":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "mysql", "mariadb":
		return MySQL, nil
	case "sqlserver", "mssql":
		return SQLServer, nil
	default:
		return "", fmt.Errorf("unknown SQL dialect %q", s)
	}
}

// QuoteIdent quotes a column name the way dialect d expects.
func QuoteIdent(d Dialect, name string) string {
	return specFor(d).quote(name)
}

// TableName returns table as it appears in statements for dialect d. Plain
// and schema-qualified names are left as is; anything else is quoted. An
// empty name selects DefaultTable.
func TableName(d Dialect, table string) string {
	if table == "" {
		table = DefaultTable
	}
	if plainIdent.MatchString(table) {
		return table
	}
	return specFor(d).quote(table)
}

// ColumnName turns a field path into a column name.
func ColumnName(path string) string {
	return strings.ReplaceAll(path, PathSeparator, "_")
}

// SQLType returns the column type for t in dialect d.
func SQLType(t Type, d Dialect) string {
	spec := specFor(d)
	switch t.Kind {
	case KindInteger:
		return spec.integer
	case KindFloat:
		return spec.float
	case KindBoolean:
		return spec.boolean
	case KindJSON, KindArray:
		return spec.json
	default:
		return spec.text
	}
}

func specFor(d Dialect) dialectSpec {
	if spec, ok := dialects[d]; ok {
		return spec
	}
	return dialects[Postgres]
}

// Columns derives the column list for fields in insertion order. Names that
// collide after replacing separators get a numeric suffix.
func Columns(fields *Fields, d Dialect) []Column {
	cols := make([]Column, 0, fields.Len())
	used := make(map[string]bool, fields.Len())
	for pair := fields.Oldest(); pair != nil; pair = pair.Next() {
		name := uniqueName(ColumnName(pair.Key), used)
		cols = append(cols, Column{
			Name:    name,
			Path:    pair.Key,
			Type:    pair.Value,
			SQLType: SQLType(pair.Value, d),
		})
	}
	return cols
}

// PrimaryKeyName returns the synthetic key column name: "id", prefixed with
// underscores until it no longer clashes with a data column.
func PrimaryKeyName(cols []Column) string {
	used := make(map[string]bool, len(cols))
	for _, c := range cols {
		used[strings.ToLower(c.Name)] = true
	}
	pk := "id"
	for used[pk] {
		pk = "_" + pk
	}
	return pk
}

func uniqueName(name string, used map[string]bool) string {
	candidate := name
	for n := 2; used[strings.ToLower(candidate)]; n++ {
		candidate = name + "_" + strconv.Itoa(n)
	}
	used[strings.ToLower(candidate)] = true
	return candidate
}

// GenerateDDL emits a CREATE TABLE statement for the resolved fields with a
// synthetic auto-incrementing primary key first, followed by one column per
// field path in discovery order. It also returns the column list.
func GenerateDDL(fields *Fields, opts DDLOptions) (string, []Column) {
	dialect := opts.Dialect
	if dialect == "" {
		dialect = Postgres
	}
	spec := specFor(dialect)

	table := TableName(dialect, opts.Table)

	cols := Columns(fields, dialect)
	pk := PrimaryKeyName(cols)

	defs := make([]string, 0, len(cols)+1)
	defs = append(defs, pk+" "+spec.primaryKey)
	for _, c := range cols {
		defs = append(defs, spec.quote(c.Name)+" "+c.SQLType)
	}

	var b strings.Builder
	switch {
	case opts.IfNotExists && dialect == SQLServer:
		fmt.Fprintf(&b, "IF OBJECT_ID(N'%s', N'U') IS NULL\n", strings.ReplaceAll(table, "'", "''"))
		b.WriteString("CREATE TABLE ")
	case opts.IfNotExists:
		b.WriteString("CREATE TABLE IF NOT EXISTS ")
	default:
		b.WriteString("CREATE TABLE ")
	}
	b.WriteString(table)
	b.WriteString(" (\n  ")
	b.WriteString(strings.Join(defs, ",\n  "))
	b.WriteString("\n);")
	return b.String(), cols
}
