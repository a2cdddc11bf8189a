// Package sqlescape contains helpers to escape strings and quote
// identifiers for inclusion in SQL text. Values are rendered as literals
// (not bind parameters) because page queries and sink output are built as
// complete statements.
package sqlescape

import "strings"

// EscapeMySQL escapes a string for use inside a single-quoted MySQL
// literal. Backslashes are significant to MySQL even with quote doubling,
// so both are handled.
func EscapeMySQL(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '\'':
			b.WriteString(`''`)
		case 0:
			b.WriteString(`\0`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case 0x1a: // ctrl-z, terminates input on windows clients
			b.WriteString(`\Z`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// EscapePostgres escapes a string for use inside a single-quoted
// PostgreSQL literal. With standard_conforming_strings (the default since
// 9.1) backslash is an ordinary character, so only quotes are doubled.
func EscapePostgres(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// QuoteBacktick quotes a MySQL identifier, doubling embedded backticks.
func QuoteBacktick(ident string) string {
	return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
}

// QuoteDouble quotes a PostgreSQL identifier, doubling embedded quotes.
func QuoteDouble(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}
