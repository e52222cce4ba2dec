// Package querybuilder renders the small set of Postgres statements the
// competition store issues, numbering placeholders in emission order.
package querybuilder

import (
	"fmt"
	"strconv"
	"strings"
)

// binder collects positional arguments while a statement is rendered.
type binder struct {
	args []any
}

func (b *binder) bind(v any) string {
	b.args = append(b.args, v)
	return "$" + strconv.Itoa(len(b.args))
}

// expand replaces each '?' in expr with the next bound placeholder. Surplus
// '?' characters are left untouched.
func (b *binder) expand(expr string, values []any) string {
	if len(values) == 0 {
		return expr
	}

	var out strings.Builder
	next := 0
	for _, r := range expr {
		if r == '?' && next < len(values) {
			out.WriteString(b.bind(values[next]))
			next++
			continue
		}
		out.WriteRune(r)
	}
	return out.String()
}

type Condition interface {
	render(b *binder) string
}

type eq struct {
	column string
	value  any
}

func Eq(column string, value any) Condition { return eq{column: column, value: value} }

func (c eq) render(b *binder) string { return c.column + " = " + b.bind(c.value) }

type isNull string

func IsNull(column string) Condition { return isNull(column) }

func (c isNull) render(*binder) string { return string(c) + " IS NULL" }

type expr struct {
	sql  string
	args []any
}

// Expr is a raw fragment whose '?' markers bind args in order.
func Expr(sql string, args ...any) Condition { return expr{sql: sql, args: args} }

func (c expr) render(b *binder) string { return b.expand(c.sql, c.args) }

func renderWhere(sb *strings.Builder, b *binder, conds []Condition) {
	for i, c := range conds {
		if i == 0 {
			sb.WriteString(" WHERE ")
		} else {
			sb.WriteString(" AND ")
		}
		sb.WriteString(c.render(b))
	}
}

type SelectBuilder struct {
	columns []string
	table   string
	where   []Condition
	orderBy []string
	limit   int
}

func Select(columns ...string) *SelectBuilder {
	return &SelectBuilder{columns: append([]string(nil), columns...)}
}

func (s *SelectBuilder) From(table string) *SelectBuilder {
	s.table = table
	return s
}

func (s *SelectBuilder) Where(conds ...Condition) *SelectBuilder {
	s.where = append(s.where, conds...)
	return s
}

func (s *SelectBuilder) OrderBy(parts ...string) *SelectBuilder {
	s.orderBy = append(s.orderBy, parts...)
	return s
}

func (s *SelectBuilder) Limit(n int) *SelectBuilder {
	s.limit = n
	return s
}

func (s *SelectBuilder) ToSQL() (string, []any, error) {
	switch {
	case len(s.columns) == 0:
		return "", nil, fmt.Errorf("select: no columns")
	case strings.TrimSpace(s.table) == "":
		return "", nil, fmt.Errorf("select: no table")
	}

	var (
		sb strings.Builder
		b  binder
	)
	fmt.Fprintf(&sb, "SELECT %s FROM %s", strings.Join(s.columns, ", "), s.table)
	renderWhere(&sb, &b, s.where)
	if len(s.orderBy) > 0 {
		sb.WriteString(" ORDER BY " + strings.Join(s.orderBy, ", "))
	}
	if s.limit > 0 {
		sb.WriteString(" LIMIT " + strconv.Itoa(s.limit))
	}
	return sb.String(), b.args, nil
}

// InsertBuilder renders a single-row INSERT.
type InsertBuilder struct {
	table   string
	columns []string
	values  []any
	suffix  string
}

func InsertInto(table string) *InsertBuilder { return &InsertBuilder{table: table} }

func (i *InsertBuilder) Columns(columns ...string) *InsertBuilder {
	i.columns = append([]string(nil), columns...)
	return i
}

func (i *InsertBuilder) Values(values ...any) *InsertBuilder {
	i.values = append([]any(nil), values...)
	return i
}

// Suffix appends raw SQL such as ON CONFLICT or RETURNING.
func (i *InsertBuilder) Suffix(sql string) *InsertBuilder {
	i.suffix = strings.TrimSpace(sql)
	return i
}

func (i *InsertBuilder) ToSQL() (string, []any, error) {
	switch {
	case strings.TrimSpace(i.table) == "":
		return "", nil, fmt.Errorf("insert: no table")
	case len(i.columns) == 0:
		return "", nil, fmt.Errorf("insert: no columns")
	case len(i.values) != len(i.columns):
		return "", nil, fmt.Errorf("insert: %d values for %d columns", len(i.values), len(i.columns))
	}

	var b binder
	marks := make([]string, len(i.values))
	for idx, v := range i.values {
		marks[idx] = b.bind(v)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", i.table, strings.Join(i.columns, ", "), strings.Join(marks, ", "))
	if i.suffix != "" {
		query += " " + i.suffix
	}
	return query, b.args, nil
}

type assignment struct {
	column string
	value  Condition
}

type UpdateBuilder struct {
	table  string
	sets   []assignment
	where  []Condition
	suffix string
}

func Update(table string) *UpdateBuilder { return &UpdateBuilder{table: table} }

func (u *UpdateBuilder) Set(column string, value any) *UpdateBuilder {
	u.sets = append(u.sets, assignment{column: column, value: Expr("?", value)})
	return u
}

// SetExpr assigns a raw expression, e.g. "version + 1".
func (u *UpdateBuilder) SetExpr(column, sql string, args ...any) *UpdateBuilder {
	u.sets = append(u.sets, assignment{column: column, value: Expr(sql, args...)})
	return u
}

func (u *UpdateBuilder) Where(conds ...Condition) *UpdateBuilder {
	u.where = append(u.where, conds...)
	return u
}

func (u *UpdateBuilder) Suffix(sql string) *UpdateBuilder {
	u.suffix = strings.TrimSpace(sql)
	return u
}

func (u *UpdateBuilder) ToSQL() (string, []any, error) {
	switch {
	case strings.TrimSpace(u.table) == "":
		return "", nil, fmt.Errorf("update: no table")
	case len(u.sets) == 0:
		return "", nil, fmt.Errorf("update: no assignments")
	}

	var (
		sb strings.Builder
		b  binder
	)
	sb.WriteString("UPDATE " + u.table + " SET ")
	for i, a := range u.sets {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(a.column + " = " + a.value.render(&b))
	}
	renderWhere(&sb, &b, u.where)
	if u.suffix != "" {
		sb.WriteString(" " + u.suffix)
	}
	return sb.String(), b.args, nil
}
