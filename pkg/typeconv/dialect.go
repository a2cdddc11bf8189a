// Package typeconv classifies destination column types and coerces source
// values into dialect-correct, precision-preserving SQL literals.
package typeconv

import (
	"fmt"
	"strings"

	"github.com/dbferry/dbferry/pkg/dbconn/sqlescape"
)

// Dialect identifies a database engine's SQL syntax: identifier quoting,
// string escaping and literal rules.
type Dialect string

const (
	DialectMySQL    Dialect = "mysql"
	DialectPostgres Dialect = "postgres"
)

// ParseDialect normalizes a user-supplied dialect name.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mysql", "mariadb":
		return DialectMySQL, nil
	case "postgres", "postgresql", "pg":
		return DialectPostgres, nil
	default:
		return "", fmt.Errorf("unsupported dialect: %q", s)
	}
}

// Supported returns true for dialects this engine can generate SQL for.
func (d Dialect) Supported() bool {
	return d == DialectMySQL || d == DialectPostgres
}

// QuoteIdent quotes an identifier, doubling any embedded quote characters.
func (d Dialect) QuoteIdent(ident string) string {
	if d == DialectMySQL {
		return sqlescape.QuoteBacktick(ident)
	}
	return sqlescape.QuoteDouble(ident)
}

// QuoteTable quotes a possibly schema-qualified table name, quoting each
// dotted part separately.
func (d Dialect) QuoteTable(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = d.QuoteIdent(p)
	}
	return strings.Join(parts, ".")
}

// EscapeString escapes a string for inclusion in a single-quoted literal.
func (d Dialect) EscapeString(s string) string {
	if d == DialectMySQL {
		return sqlescape.EscapeMySQL(s)
	}
	return sqlescape.EscapePostgres(s)
}

// BooleanLiteral renders a boolean. MySQL has no true BOOLEAN type
// (it is TINYINT(1) underneath), so it gets 1/0.
func (d Dialect) BooleanLiteral(b bool) string {
	if d == DialectMySQL {
		if b {
			return "1"
		}
		return "0"
	}
	if b {
		return "TRUE"
	}
	return "FALSE"
}
