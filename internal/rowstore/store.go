// Package rowstore is a table-addressable row store over database/sql.
//
// Callers address tables by name and work with rows as column maps, the
// same shape a hosted REST backend would return. Values are normalized to
// their wire form: text, int64, float64, bool or RFC 3339 timestamps.
// Both Postgres (lib/pq) and SQLite (mattn/go-sqlite3) are supported.
package rowstore

import "context"

// Row is a single record keyed by persisted column name.
type Row map[string]any

type Op string

const (
	OpEq    Op = "eq"
	OpNeq   Op = "neq"
	OpIn    Op = "in"
	OpILike Op = "ilike"
)

type Filter struct {
	Column string
	Op     Op
	Value  any
}

func Eq(column string, value any) Filter {
	return Filter{Column: column, Op: OpEq, Value: value}
}

func Neq(column string, value any) Filter {
	return Filter{Column: column, Op: OpNeq, Value: value}
}

func In(column string, values ...any) Filter {
	return Filter{Column: column, Op: OpIn, Value: values}
}

// ILike matches pattern case-insensitively. Backslash escapes % and _.
// Postgres folds case per the database locale. SQLite has no ILIKE and
// compares LOWER() of both sides, which folds ASCII letters only, so "É"
// and "é" do not match there.
func ILike(column, pattern string) Filter {
	return Filter{Column: column, Op: OpILike, Value: pattern}
}

// Contains is a case-insensitive substring match on column.
func Contains(column, substr string) Filter {
	return ILike(column, "%"+escapeLike(substr)+"%")
}

type Order struct {
	Column string
	Desc   bool
}

func Asc(column string) Order  { return Order{Column: column} }
func Desc(column string) Order { return Order{Column: column, Desc: true} }

// Query selects rows matching every filter in Filters and, when Any is not
// empty, at least one filter in Any.
type Query struct {
	Columns []string
	Filters []Filter
	Any     []Filter
	Order   []Order
	Limit   int
}

type Store interface {
	Select(ctx context.Context, table string, q Query) ([]Row, error)
	// SelectOne fails with CodeNoRows when nothing matches.
	SelectOne(ctx context.Context, table string, q Query) (Row, error)
	Count(ctx context.Context, table string, filters ...Filter) (int, error)
	// Max returns ok=false when no row matches.
	Max(ctx context.Context, table, column string, filters ...Filter) (value int, ok bool, err error)
	Insert(ctx context.Context, table string, row Row) (Row, error)
	// Update returns the updated rows. No match is not an error.
	Update(ctx context.Context, table string, values Row, filters ...Filter) ([]Row, error)
	Delete(ctx context.Context, table string, filters ...Filter) (int64, error)
	// Lock takes a row lock on the matching rows for the rest of the
	// transaction and fails with CodeNoRows when nothing matches.
	Lock(ctx context.Context, table string, filters ...Filter) error
	// WithTx runs fn against a transactional Store. Nested calls join the
	// outer transaction.
	WithTx(ctx context.Context, fn func(tx Store) error) error
}
