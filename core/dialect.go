package core

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

// Dialect identifies the SQL flavour of a data source.
type Dialect string

const (
	DialectSQLite     Dialect = "SQLITE"
	DialectPostgreSQL Dialect = "POSTGRESQL"
	DialectMySQL      Dialect = "MYSQL"
	DialectMSSQL      Dialect = "MSSQL"
)

// RowLimitStyle tells where the row cap goes in a SELECT statement.
type RowLimitStyle int

const (
	// RowLimitSuffix is a trailing "LIMIT n" clause.
	RowLimitSuffix RowLimitStyle = iota
	// RowLimitPrefix is a leading "TOP n" right after SELECT.
	RowLimitPrefix
)

func (s RowLimitStyle) Keyword() string {
	if s == RowLimitPrefix {
		return "TOP"
	}
	return "LIMIT"
}

type dialectTraits struct {
	rowLimit    RowLimitStyle
	placeholder sq.PlaceholderFormat
	openQuote   string
	closeQuote  string
	// identQuotes maps every accepted opening identifier quote to its closing one
	identQuotes      map[rune]rune
	stringQuotes     string
	backslashEscapes bool
}

// traits is the capability table. Everything that differs between dialects in
// generated SQL is looked up here.
var traits = map[Dialect]dialectTraits{
	DialectSQLite: {
		rowLimit: RowLimitSuffix, placeholder: sq.Question, openQuote: `"`, closeQuote: `"`,
		identQuotes: map[rune]rune{'"': '"', '`': '`', '[': ']'}, stringQuotes: "'",
	},
	DialectPostgreSQL: {
		rowLimit: RowLimitSuffix, placeholder: sq.Dollar, openQuote: `"`, closeQuote: `"`,
		identQuotes: map[rune]rune{'"': '"'}, stringQuotes: "'",
	},
	DialectMySQL: {
		rowLimit: RowLimitSuffix, placeholder: sq.Question, openQuote: "`", closeQuote: "`",
		identQuotes: map[rune]rune{'`': '`'}, stringQuotes: `'"`, backslashEscapes: true,
	},
	DialectMSSQL: {
		rowLimit: RowLimitPrefix, placeholder: sq.AtP, openQuote: "[", closeQuote: "]",
		identQuotes: map[rune]rune{'"': '"', '[': ']'}, stringQuotes: "'",
	},
}

var dialectAliases = map[string]Dialect{
	"":           DialectSQLite,
	"sqlite":     DialectSQLite,
	"sqlite3":    DialectSQLite,
	"postgresql": DialectPostgreSQL,
	"postgres":   DialectPostgreSQL,
	"pg":         DialectPostgreSQL,
	"mysql":      DialectMySQL,
	"mssql":      DialectMSSQL,
	"sqlserver":  DialectMSSQL,
}

// ParseDialect resolves a user supplied dialect name. Matching is case insensitive
// and an empty name means SQLite.
func ParseDialect(name string) (Dialect, error) {
	d, ok := dialectAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedDialect, name)
	}
	return d, nil
}

// Dialects returns all supported dialects.
func Dialects() []Dialect {
	return []Dialect{DialectSQLite, DialectPostgreSQL, DialectMySQL, DialectMSSQL}
}

func (d Dialect) String() string { return string(d) }

// Valid reports whether d is one of the supported dialects.
func (d Dialect) Valid() bool {
	_, ok := traits[d]
	return ok
}

func (d Dialect) traits() dialectTraits {
	t, ok := traits[d]
	if !ok {
		// unknown dialects get SQLite conventions; adapters reject them before any query runs
		return traits[DialectSQLite]
	}
	return t
}

// RowLimit returns the row cap syntax of the dialect.
func (d Dialect) RowLimit() RowLimitStyle {
	return d.traits().rowLimit
}

// StatementBuilder returns a squirrel builder with the dialect's placeholder format.
func (d Dialect) StatementBuilder() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(d.traits().placeholder)
}

// LimitRows caps the number of returned rows using exactly one of TOP or LIMIT.
func (d Dialect) LimitRows(b sq.SelectBuilder, n uint64) sq.SelectBuilder {
	if d.RowLimit() == RowLimitPrefix {
		return b.Options(fmt.Sprintf("TOP %d", n))
	}
	return b.Limit(n)
}

// QuoteIdentifier quotes a (possibly schema qualified) identifier.
func (d Dialect) QuoteIdentifier(name string) string {
	t := d.traits()
	parts := strings.Split(name, ".")
	for i, p := range parts {
		escaped := strings.ReplaceAll(p, t.closeQuote, t.closeQuote+t.closeQuote)
		parts[i] = t.openQuote + escaped + t.closeQuote
	}
	return strings.Join(parts, ".")
}

// IdentifierQuote returns the closing quote of an identifier opened with open.
func (d Dialect) IdentifierQuote(open rune) (rune, bool) {
	closing, ok := d.traits().identQuotes[open]
	return closing, ok
}

// IsStringQuote reports whether r opens a string literal.
func (d Dialect) IsStringQuote(r rune) bool {
	return strings.ContainsRune(d.traits().stringQuotes, r)
}

// BackslashEscapes reports whether a backslash escapes the next character in
// string literals.
func (d Dialect) BackslashEscapes() bool {
	return d.traits().backslashEscapes
}
