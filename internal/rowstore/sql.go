package rowstore

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
)

type Dialect int

const (
	DialectPostgres Dialect = iota
	DialectSQLite
)

func DialectFor(driverName string) Dialect {
	if strings.HasPrefix(driverName, "sqlite") {
		return DialectSQLite
	}
	return DialectPostgres
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type SQLStore struct {
	db      *sql.DB
	q       querier
	dialect Dialect
	inTx    bool
}

func New(db *sql.DB, driverName string) *SQLStore {
	return &SQLStore{db: db, q: db, dialect: DialectFor(driverName)}
}

func (s *SQLStore) Select(ctx context.Context, table string, q Query) ([]Row, error) {
	op := "select " + table
	b := &builder{dialect: s.dialect}

	query := "SELECT " + columnList(q.Columns) + " FROM " + pq.QuoteIdentifier(table) +
		b.where(q.Filters, q.Any) + orderBy(q.Order)
	if q.Limit > 0 {
		query += " LIMIT " + strconv.Itoa(q.Limit)
	}
	if b.err != nil {
		return nil, &Error{Op: op, Code: CodeInvalidFilter, Message: b.err.Error()}
	}

	rows, err := s.q.QueryContext(ctx, query, b.args...)
	if err != nil {
		return nil, wrap(op, err)
	}
	return scanRows(op, rows)
}

func (s *SQLStore) SelectOne(ctx context.Context, table string, q Query) (Row, error) {
	q.Limit = 1
	rows, err := s.Select(ctx, table, q)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, noRows("select " + table)
	}
	return rows[0], nil
}

func (s *SQLStore) Count(ctx context.Context, table string, filters ...Filter) (int, error) {
	op := "count " + table
	b := &builder{dialect: s.dialect}
	query := "SELECT COUNT(*) FROM " + pq.QuoteIdentifier(table) + b.where(filters, nil)
	if b.err != nil {
		return 0, &Error{Op: op, Code: CodeInvalidFilter, Message: b.err.Error()}
	}

	var n sql.NullInt64
	if err := s.scalar(ctx, query, b.args, &n); err != nil {
		return 0, wrap(op, err)
	}
	return int(n.Int64), nil
}

func (s *SQLStore) Max(ctx context.Context, table, column string, filters ...Filter) (int, bool, error) {
	op := "max " + table
	b := &builder{dialect: s.dialect}
	query := "SELECT MAX(" + pq.QuoteIdentifier(column) + ") FROM " + pq.QuoteIdentifier(table) +
		b.where(filters, nil)
	if b.err != nil {
		return 0, false, &Error{Op: op, Code: CodeInvalidFilter, Message: b.err.Error()}
	}

	var n sql.NullInt64
	if err := s.scalar(ctx, query, b.args, &n); err != nil {
		return 0, false, wrap(op, err)
	}
	return int(n.Int64), n.Valid, nil
}

func (s *SQLStore) Insert(ctx context.Context, table string, row Row) (Row, error) {
	op := "insert " + table
	b := &builder{dialect: s.dialect}

	keys := sortedKeys(row)
	cols := make([]string, len(keys))
	params := make([]string, len(keys))
	for i, k := range keys {
		cols[i] = pq.QuoteIdentifier(k)
		params[i] = b.arg(row[k])
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING *",
		pq.QuoteIdentifier(table), strings.Join(cols, ", "), strings.Join(params, ", "))

	rows, err := s.q.QueryContext(ctx, query, b.args...)
	if err != nil {
		return nil, wrap(op, err)
	}
	out, err := scanRows(op, rows)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, noRows(op)
	}
	return out[0], nil
}

func (s *SQLStore) Update(ctx context.Context, table string, values Row, filters ...Filter) ([]Row, error) {
	op := "update " + table
	if len(values) == 0 {
		return nil, &Error{Op: op, Code: CodeEmptyUpdate, Message: "no columns to update"}
	}
	b := &builder{dialect: s.dialect}

	keys := sortedKeys(values)
	sets := make([]string, len(keys))
	for i, k := range keys {
		sets[i] = pq.QuoteIdentifier(k) + " = " + b.arg(values[k])
	}
	query := "UPDATE " + pq.QuoteIdentifier(table) + " SET " + strings.Join(sets, ", ") +
		b.where(filters, nil) + " RETURNING *"
	if b.err != nil {
		return nil, &Error{Op: op, Code: CodeInvalidFilter, Message: b.err.Error()}
	}

	rows, err := s.q.QueryContext(ctx, query, b.args...)
	if err != nil {
		return nil, wrap(op, err)
	}
	return scanRows(op, rows)
}

func (s *SQLStore) Delete(ctx context.Context, table string, filters ...Filter) (int64, error) {
	op := "delete " + table
	b := &builder{dialect: s.dialect}
	query := "DELETE FROM " + pq.QuoteIdentifier(table) + b.where(filters, nil)
	if b.err != nil {
		return 0, &Error{Op: op, Code: CodeInvalidFilter, Message: b.err.Error()}
	}

	res, err := s.q.ExecContext(ctx, query, b.args...)
	if err != nil {
		return 0, wrap(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, wrap(op, err)
	}
	return n, nil
}

func (s *SQLStore) Lock(ctx context.Context, table string, filters ...Filter) error {
	op := "lock " + table
	b := &builder{dialect: s.dialect}
	query := "SELECT 1 FROM " + pq.QuoteIdentifier(table) + b.where(filters, nil)
	if b.err != nil {
		return &Error{Op: op, Code: CodeInvalidFilter, Message: b.err.Error()}
	}
	// SQLite has a single writer per database, so the existence check is enough.
	if s.dialect == DialectPostgres {
		query += " FOR UPDATE"
	}

	var one sql.NullInt64
	if err := s.scalar(ctx, query, b.args, &one); err != nil {
		return wrap(op, err)
	}
	if !one.Valid {
		return noRows(op)
	}
	return nil
}

func (s *SQLStore) WithTx(ctx context.Context, fn func(tx Store) error) error {
	if s.inTx {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrap("begin", err)
	}
	defer tx.Rollback() // no-op after commit

	if err := fn(&SQLStore{db: s.db, q: tx, dialect: s.dialect, inTx: true}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return wrap("commit", err)
	}
	return nil
}

// scalar reads the first column of the first row into dest. dest is left
// untouched when the query returns no rows.
func (s *SQLStore) scalar(ctx context.Context, query string, args []any, dest any) error {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(dest); err != nil {
			return err
		}
	}
	return rows.Err()
}

type builder struct {
	dialect Dialect
	args    []any
	err     error
}

func (b *builder) arg(v any) string {
	b.args = append(b.args, v)
	return "$" + strconv.Itoa(len(b.args))
}

func (b *builder) where(all, anyOf []Filter) string {
	conds := make([]string, 0, len(all)+1)
	for _, f := range all {
		conds = append(conds, b.condition(f))
	}
	if len(anyOf) > 0 {
		alts := make([]string, 0, len(anyOf))
		for _, f := range anyOf {
			alts = append(alts, b.condition(f))
		}
		conds = append(conds, "("+strings.Join(alts, " OR ")+")")
	}
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

func (b *builder) condition(f Filter) string {
	col := pq.QuoteIdentifier(f.Column)
	switch f.Op {
	case OpEq:
		if f.Value == nil {
			return col + " IS NULL"
		}
		return col + " = " + b.arg(f.Value)
	case OpNeq:
		if f.Value == nil {
			return col + " IS NOT NULL"
		}
		return col + " <> " + b.arg(f.Value)
	case OpIn:
		values, _ := f.Value.([]any)
		if len(values) == 0 {
			return "1 = 0"
		}
		params := make([]string, len(values))
		for i, v := range values {
			params[i] = b.arg(v)
		}
		return col + " IN (" + strings.Join(params, ", ") + ")"
	case OpILike:
		if b.dialect == DialectSQLite {
			// ASCII only; see ILike
			return "LOWER(" + col + ") LIKE LOWER(" + b.arg(f.Value) + `) ESCAPE '\'`
		}
		return col + " ILIKE " + b.arg(f.Value) + ` ESCAPE '\'`
	}
	if b.err == nil {
		b.err = fmt.Errorf("unknown filter operator %q on %s", f.Op, f.Column)
	}
	return "1 = 0"
}

func columnList(cols []string) string {
	if len(cols) == 0 {
		return "*"
	}
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = pq.QuoteIdentifier(c)
	}
	return strings.Join(quoted, ", ")
}

func orderBy(orders []Order) string {
	if len(orders) == 0 {
		return ""
	}
	parts := make([]string, len(orders))
	for i, o := range orders {
		dir := "ASC"
		if o.Desc {
			dir = "DESC"
		}
		parts[i] = pq.QuoteIdentifier(o.Column) + " " + dir
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

func sortedKeys(row Row) []string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func scanRows(op string, rows *sql.Rows) ([]Row, error) {
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, wrap(op, err)
	}

	var out []Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, wrap(op, err)
		}
		row := make(Row, len(cols))
		for i, c := range cols {
			row[c] = normalize(values[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(op, err)
	}
	return out, nil
}

func normalize(v any) any {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	case int:
		return int64(x)
	case int32:
		return int64(x)
	}
	return v
}
