/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package query

import (
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/tomoncle/inkwell/types"
	"github.com/uptrace/bun/dialect"
	"github.com/uptrace/bun/schema"
)

// Statement is composed statement text with its positional bound arguments.
type Statement struct {
	Op   string
	Text string
	Args []interface{}
}

func (s Statement) String() string { return s.Text }

// Composer turns criteria, sort and page requests on one Schema into
// parameterized statements for a bun dialect. Values are always bound; only
// whitelisted schema identifiers and keywords reach the statement text.
type Composer struct {
	schema  Schema
	dialect schema.Dialect
	bind    int
}

// NewComposer returns a composer for the table s in dialect d.
func NewComposer(s Schema, d schema.Dialect) *Composer {
	bind := sqlx.QUESTION
	if d.Name() == dialect.PG {
		bind = sqlx.DOLLAR
	}
	return &Composer{schema: s, dialect: d, bind: bind}
}

func (c *Composer) Schema() Schema { return c.schema }

func (c *Composer) Dialect() schema.Dialect { return c.dialect }

// Compose builds a single SELECT over base filtered by filters, ordered by
// sort (identifier ascending when nil, identifier ascending as tie-break
// otherwise) and limited to page (full scan when nil).
func (c *Composer) Compose(base Projection, filters []types.Criteria, sort *types.SortSpec, page *types.PageRequest) (Statement, error) {
	if page != nil {
		if err := page.Validate(); err != nil {
			return Statement{}, err
		}
	}
	order, err := c.orderBy(base.Alias, sort)
	if err != nil {
		return Statement{}, err
	}
	where, args, err := c.where(base.Alias, filters)
	if err != nil {
		return Statement{}, err
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	for i, col := range base.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(c.ref(base.Alias, col))
	}
	b.WriteString(" FROM ")
	b.WriteString(c.from(base))
	if where != "" {
		b.WriteString(" WHERE ")
		b.WriteString(where)
	}
	b.WriteString(" ORDER BY ")
	b.WriteString(order)
	if page != nil {
		b.WriteString(" LIMIT ? OFFSET ?")
		args = append(args, page.GetPageSize(), page.GetOffset())
	}
	return c.statement("SELECT", b.String(), args), nil
}

// Count builds a SELECT COUNT(*) with the same filter Compose would apply.
func (c *Composer) Count(filters []types.Criteria) (Statement, error) {
	base := c.schema.Projection()
	where, args, err := c.where(base.Alias, filters)
	if err != nil {
		return Statement{}, err
	}
	text := "SELECT COUNT(*) FROM " + c.from(base)
	if where != "" {
		text += " WHERE " + where
	}
	return c.statement("SELECT", text, args), nil
}

// SelectByID builds the lookup of a single row by identifier.
func (c *Composer) SelectByID(id interface{}) Statement {
	base := c.schema.Projection()
	var b strings.Builder
	b.WriteString("SELECT ")
	for i, col := range base.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(c.ref(base.Alias, col))
	}
	b.WriteString(" FROM ")
	b.WriteString(c.from(base))
	b.WriteString(" WHERE ")
	b.WriteString(c.ref(base.Alias, c.schema.ID()))
	b.WriteString(" = ?")
	return c.statement("SELECT", b.String(), []interface{}{id})
}

// Insert builds an INSERT of the identifier followed by values, which must
// follow Schema.MutableColumns order.
func (c *Composer) Insert(id interface{}, values []interface{}) (Statement, error) {
	cols := c.schema.MutableColumns()
	if len(values) != len(cols) {
		return Statement{}, fmt.Errorf("insert into %s: expected %d values, got %d", c.schema.Table(), len(cols), len(values))
	}
	names := make([]string, 0, len(cols)+1)
	names = append(names, c.quote(c.schema.ID()))
	for _, col := range cols {
		names = append(names, c.quote(col.Name))
	}
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(names)), ", ")
	text := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", c.quote(c.schema.Table()), strings.Join(names, ", "), marks)
	args := make([]interface{}, 0, len(names))
	args = append(args, id)
	args = append(args, values...)
	return c.statement("INSERT", text, args), nil
}

// Update builds an UPDATE of every mutable column of the row with the given identifier.
func (c *Composer) Update(id interface{}, values []interface{}) (Statement, error) {
	cols := c.schema.MutableColumns()
	if len(values) != len(cols) {
		return Statement{}, fmt.Errorf("update %s: expected %d values, got %d", c.schema.Table(), len(cols), len(values))
	}
	sets := make([]string, len(cols))
	for i, col := range cols {
		sets[i] = c.quote(col.Name) + " = ?"
	}
	text := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?", c.quote(c.schema.Table()), strings.Join(sets, ", "), c.quote(c.schema.ID()))
	args := make([]interface{}, 0, len(values)+1)
	args = append(args, values...)
	args = append(args, id)
	return c.statement("UPDATE", text, args), nil
}

// DeleteByID builds the removal of a single row by identifier.
func (c *Composer) DeleteByID(id interface{}) Statement {
	text := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", c.quote(c.schema.Table()), c.quote(c.schema.ID()))
	return c.statement("DELETE", text, []interface{}{id})
}

func (c *Composer) statement(op, text string, args []interface{}) Statement {
	return Statement{Op: op, Text: sqlx.Rebind(c.bind, text), Args: args}
}

func (c *Composer) orderBy(alias string, sort *types.SortSpec) (string, error) {
	id := c.ref(alias, c.schema.ID())
	if sort == nil {
		return id + " " + types.Asc.String(), nil
	}
	col, ok := c.schema.Column(sort.Field)
	if !ok {
		return "", types.NewValidationError("sort", fmt.Sprintf("unknown sort field %q", sort.Field))
	}
	if !sort.Direction.IsValid() {
		return "", types.NewValidationError("direction", fmt.Sprintf("unsupported sort direction %d", int(sort.Direction)))
	}
	order := c.ref(alias, col.Name) + " " + sort.Direction.String()
	if col.Name != c.schema.ID() {
		order += ", " + id + " " + types.Asc.String()
	}
	return order, nil
}

// where renders the filter as an OR of AND-groups. The first group is the
// implicit base filter; an Or predicate closes the current group and opens a
// new one, an And predicate joins the current group. An empty base group
// contributes no text, so a leading Or predicate is an exact match.
func (c *Composer) where(alias string, filters []types.Criteria) (string, []interface{}, error) {
	groups := [][]string{nil}
	var args []interface{}
	for _, f := range filters {
		col, ok := c.schema.Column(f.Field())
		if !ok {
			continue
		}
		text, arg, err := c.predicate(alias, col, f.Value())
		if err != nil {
			return "", nil, err
		}
		last := len(groups) - 1
		if c.schema.Combinator(col.Kind) == Or && len(groups[last]) > 0 {
			groups = append(groups, nil)
			last++
		}
		groups[last] = append(groups[last], text)
		args = append(args, arg)
	}
	if len(groups[0]) == 0 {
		groups = groups[1:]
	}
	return joinGroups(groups), args, nil
}

func joinGroups(groups [][]string) string {
	if len(groups) == 1 {
		return joinPredicates(groups[0], And)
	}
	parts := make([]string, len(groups))
	for i, g := range groups {
		parts[i] = "(" + joinPredicates(g, And) + ")"
	}
	return strings.Join(parts, " "+Or.String()+" ")
}

func joinPredicates(preds []string, op Combinator) string {
	if len(preds) == 1 {
		return preds[0]
	}
	parts := make([]string, len(preds))
	for i, p := range preds {
		parts[i] = "(" + p + ")"
	}
	return strings.Join(parts, " "+op.String()+" ")
}

func (c *Composer) predicate(alias string, col Column, value interface{}) (string, interface{}, error) {
	if value == nil {
		return "", nil, types.NewValidationError(col.Name, "filter value must not be nil")
	}
	ref := c.ref(alias, col.Name)
	switch c.schema.rules[col.Kind].match {
	case MatchContainsFold:
		arg := "%" + textValue(value) + "%"
		if c.dialect.Name() == dialect.PG {
			return ref + " ILIKE ?", arg, nil
		}
		return "LOWER(" + ref + ") LIKE LOWER(?)", arg, nil
	default:
		if col.Kind == KindDate {
			d, err := dateValue(value)
			if err != nil {
				return "", nil, types.NewValidationError(col.Name, err.Error())
			}
			return ref + " = ?", d, nil
		}
		return ref + " = ?", value, nil
	}
}

func (c *Composer) from(base Projection) string {
	if base.Alias == "" {
		return c.quote(base.Table)
	}
	return c.quote(base.Table) + " AS " + c.quote(base.Alias)
}

func (c *Composer) ref(alias, column string) string {
	if alias == "" {
		return c.quote(column)
	}
	return c.quote(alias) + "." + c.quote(column)
}

func (c *Composer) quote(s string) string {
	if c.dialect.Name() == dialect.MySQL {
		return "`" + strings.ReplaceAll(s, "`", "``") + "`"
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func textValue(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(v)
	}
}

func dateValue(v interface{}) (types.Date, error) {
	switch t := v.(type) {
	case types.Date:
		return t, nil
	case *types.Date:
		if t == nil {
			return types.Date{}, fmt.Errorf("nil date")
		}
		return *t, nil
	case time.Time:
		return types.DateOf(t), nil
	case string:
		return types.ParseDate(t)
	default:
		return types.Date{}, fmt.Errorf("cannot compare %T with a date", v)
	}
}
