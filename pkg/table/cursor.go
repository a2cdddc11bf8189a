package table

import (
	"context"
	"database/sql"
	"slices"
	"strings"

	"github.com/dbferry/dbferry/pkg/typeconv"
)

// CursorCandidate is a scored unique index considered for use as a keyset
// paging key. Candidates are consumed during resolution and never
// persisted.
type CursorCandidate struct {
	IndexName  string
	Columns    []string
	AllNotNull bool // every column is NOT NULL
	FullLength bool // no column participates via a prefix/sub-part
	NonPartial bool // the index has no predicate
}

// rank tiers candidates: a lower rank is a more reliable cursor.
func (c CursorCandidate) rank() int {
	switch {
	case c.NonPartial && c.FullLength && c.AllNotNull:
		return 0
	case c.NonPartial && c.FullLength:
		return 1
	case c.NonPartial:
		return 2
	default:
		return 3
	}
}

// ResolveCursor returns an ordered list of column names usable as a
// monotonic, non-null, unique paging key: the primary key if one exists,
// else the best-ranked unique index. An empty result means no reliable
// cursor exists and the caller must page by offset.
func (t *TableInfo) ResolveCursor(ctx context.Context) ([]string, error) {
	pk, err := t.primaryKeyColumns(ctx)
	if err != nil {
		return nil, err
	}
	if len(pk) > 0 {
		return pk, nil
	}
	candidates, err := t.uniqueIndexCandidates(ctx)
	if err != nil {
		return nil, err
	}
	return bestCandidate(candidates), nil
}

// bestCandidate selects the lowest rank, breaking ties by fewest columns,
// then lexicographically smallest index name.
func bestCandidate(candidates []CursorCandidate) []string {
	if len(candidates) == 0 {
		return nil
	}
	best := slices.MinFunc(candidates, func(a, b CursorCandidate) int {
		if d := a.rank() - b.rank(); d != 0 {
			return d
		}
		if d := len(a.Columns) - len(b.Columns); d != 0 {
			return d
		}
		return strings.Compare(a.IndexName, b.IndexName)
	})
	return best.Columns
}

const mysqlPrimaryKeyQuery = `SELECT column_name
FROM information_schema.key_column_usage
WHERE table_schema = ? AND table_name = ? AND constraint_name = 'PRIMARY'
ORDER BY ordinal_position`

const mysqlUniqueIndexQuery = `SELECT index_name, column_name, nullable, sub_part
FROM information_schema.statistics
WHERE table_schema = ? AND table_name = ? AND non_unique = 0 AND index_name != 'PRIMARY'
ORDER BY index_name, seq_in_index`

const postgresPrimaryKeyQuery = `SELECT a.attname
FROM pg_index i
CROSS JOIN unnest(i.indkey) WITH ORDINALITY AS k(attnum, ord)
JOIN pg_attribute a ON a.attrelid = i.indrelid AND a.attnum = k.attnum
JOIN pg_class c ON c.oid = i.indrelid
JOIN pg_namespace n ON n.oid = c.relnamespace
WHERE n.nspname = $1 AND c.relname = $2 AND i.indisprimary
ORDER BY k.ord`

const postgresUniqueIndexQuery = `SELECT ic.relname, a.attname, a.attnotnull, i.indpred IS NULL
FROM pg_index i
JOIN pg_class ic ON ic.oid = i.indexrelid
JOIN pg_class c ON c.oid = i.indrelid
JOIN pg_namespace n ON n.oid = c.relnamespace
CROSS JOIN unnest(i.indkey) WITH ORDINALITY AS k(attnum, ord)
LEFT JOIN pg_attribute a ON a.attrelid = i.indrelid AND a.attnum = k.attnum
WHERE n.nspname = $1 AND c.relname = $2 AND i.indisunique AND NOT i.indisprimary
ORDER BY ic.relname, k.ord`

func (t *TableInfo) primaryKeyColumns(ctx context.Context) ([]string, error) {
	query := mysqlPrimaryKeyQuery
	if t.dialect == typeconv.DialectPostgres {
		query = postgresPrimaryKeyQuery
	}
	rows, err := t.db.QueryContext(ctx, query, t.SchemaName, t.TableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		cols = append(cols, name)
	}
	return cols, rows.Err()
}

func (t *TableInfo) uniqueIndexCandidates(ctx context.Context) ([]CursorCandidate, error) {
	type indexPart struct {
		index      string
		column     sql.NullString
		notNull    bool
		fullLength bool
		nonPartial bool
	}
	var parts []indexPart

	switch t.dialect {
	case typeconv.DialectMySQL:
		rows, err := t.db.QueryContext(ctx, mysqlUniqueIndexQuery, t.SchemaName, t.TableName)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		for rows.Next() {
			var p indexPart
			var nullable string
			var subPart sql.NullInt64
			if err := rows.Scan(&p.index, &p.column, &nullable, &subPart); err != nil {
				return nil, err
			}
			p.notNull = nullable != "YES"
			p.fullLength = !subPart.Valid
			// MySQL has no predicate indexes; a NULL column name means a
			// functional index part, which disqualifies the index below.
			p.nonPartial = true
			parts = append(parts, p)
		}
		if err := rows.Err(); err != nil {
			return nil, err
		}
	default: // PostgreSQL
		rows, err := t.db.QueryContext(ctx, postgresUniqueIndexQuery, t.SchemaName, t.TableName)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		for rows.Next() {
			var p indexPart
			var notNull sql.NullBool
			if err := rows.Scan(&p.index, &p.column, &notNull, &p.nonPartial); err != nil {
				return nil, err
			}
			p.notNull = notNull.Valid && notNull.Bool
			p.fullLength = true // PostgreSQL has no prefix indexes
			parts = append(parts, p)
		}
		if err := rows.Err(); err != nil {
			return nil, err
		}
	}

	grouped := make(map[string]*CursorCandidate)
	var order []string
	expression := make(map[string]bool)
	for _, p := range parts {
		cand, ok := grouped[p.index]
		if !ok {
			cand = &CursorCandidate{IndexName: p.index, AllNotNull: true, FullLength: true, NonPartial: true}
			grouped[p.index] = cand
			order = append(order, p.index)
		}
		if !p.column.Valid {
			// An expression part cannot be referenced in a seek
			// predicate, so the whole index is unusable as a cursor.
			expression[p.index] = true
			continue
		}
		cand.Columns = append(cand.Columns, p.column.String)
		cand.AllNotNull = cand.AllNotNull && p.notNull
		cand.FullLength = cand.FullLength && p.fullLength
		cand.NonPartial = cand.NonPartial && p.nonPartial
	}

	candidates := make([]CursorCandidate, 0, len(order))
	for _, name := range order {
		if expression[name] {
			continue
		}
		candidates = append(candidates, *grouped[name])
	}
	return candidates, nil
}
