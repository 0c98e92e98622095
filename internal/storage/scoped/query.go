package scoped

import (
	"fmt"
	"strings"
)

// Join is a relation reached from the query target. Joined tables take part
// in tenant scoping the same way the target does, so rows pulled in through
// a relationship are filtered too.
type Join struct {
	Table string
	Alias string // optional; defaults to Table
	On    string // join condition, written against aliases
}

func (j Join) alias() string {
	if j.Alias != "" {
		return j.Alias
	}
	return j.Table
}

// Query is the read model the scoping layer understands. Where predicates
// use $1..$n placeholders matching Args; tenant predicates are appended
// after them.
type Query struct {
	Columns []string
	From    string
	Alias   string // optional; defaults to From
	Joins   []Join
	Where   []string
	Args    []any
	OrderBy string
	Limit   int
}

func (q Query) fromAlias() string {
	if q.Alias != "" {
		return q.Alias
	}
	return q.From
}

// tables returns every participating entity as (table, alias) pairs, the
// target first.
func (q Query) tables() [][2]string {
	out := [][2]string{{q.From, q.fromAlias()}}
	for _, j := range q.Joins {
		out = append(out, [2]string{j.Table, j.alias()})
	}
	return out
}

// render builds the SQL text. tenantCols holds the qualified tenant columns
// to constrain; one placeholder per column is appended after the caller's
// args.
func (q Query) render(tenantCols []string) string {
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(q.Columns, ", "))
	b.WriteString(" FROM ")
	b.WriteString(q.From)
	if q.Alias != "" {
		b.WriteString(" AS ")
		b.WriteString(q.Alias)
	}
	for _, j := range q.Joins {
		b.WriteString(" JOIN ")
		b.WriteString(j.Table)
		if j.Alias != "" {
			b.WriteString(" AS ")
			b.WriteString(j.Alias)
		}
		b.WriteString(" ON ")
		b.WriteString(j.On)
	}

	preds := make([]string, 0, len(q.Where)+len(tenantCols))
	for _, w := range q.Where {
		preds = append(preds, "("+w+")")
	}
	for i, col := range tenantCols {
		preds = append(preds, fmt.Sprintf("%s = $%d", col, len(q.Args)+i+1))
	}
	if len(preds) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(preds, " AND "))
	}
	if q.OrderBy != "" {
		b.WriteString(" ORDER BY ")
		b.WriteString(q.OrderBy)
	}
	if q.Limit > 0 {
		b.WriteString(fmt.Sprintf(" LIMIT %d", q.Limit))
	}
	return b.String()
}

// Mutation is an UPDATE or DELETE against a single table. Set fragments and
// Where predicates use $1..$n placeholders matching Args; an empty Set
// renders a DELETE.
type Mutation struct {
	Table string
	Set   []string
	Where []string
	Args  []any
}

func (m Mutation) render(tenantCol string) string {
	var b strings.Builder
	if len(m.Set) > 0 {
		b.WriteString("UPDATE ")
		b.WriteString(m.Table)
		b.WriteString(" SET ")
		b.WriteString(strings.Join(m.Set, ", "))
	} else {
		b.WriteString("DELETE FROM ")
		b.WriteString(m.Table)
	}

	preds := make([]string, 0, len(m.Where)+1)
	for _, w := range m.Where {
		preds = append(preds, "("+w+")")
	}
	if tenantCol != "" {
		preds = append(preds, fmt.Sprintf("%s = $%d", tenantCol, len(m.Args)+1))
	}
	if len(preds) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(preds, " AND "))
	}
	return b.String()
}
