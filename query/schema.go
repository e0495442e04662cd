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

import "fmt"

// FieldKind is the semantic type of a column. It decides which predicate a
// Criteria on that column produces and how the predicate joins the filter.
type FieldKind int

const (
	KindIdentifier FieldKind = iota
	KindText
	KindDate
)

func (k FieldKind) String() string {
	switch k {
	case KindIdentifier:
		return "identifier"
	case KindText:
		return "text"
	case KindDate:
		return "date"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Combinator decides whether a predicate joins the current AND-group (And)
// or opens a new OR-group (Or).
type Combinator int

const (
	And Combinator = iota
	Or
)

func (c Combinator) String() string {
	if c == Or {
		return "OR"
	}
	return "AND"
}

// Match is the comparison a predicate performs.
type Match int

const (
	MatchEqual Match = iota
	MatchContainsFold
)

type kindRule struct {
	match      Match
	combinator Combinator
}

// Text fields are case-insensitive substring matches ANDed onto the filter;
// date fields are exact matches ORed onto it ("name contains x OR born on y").
var defaultRules = map[FieldKind]kindRule{
	KindIdentifier: {match: MatchEqual, combinator: And},
	KindText:       {match: MatchContainsFold, combinator: And},
	KindDate:       {match: MatchEqual, combinator: Or},
}

// Column is a filterable, sortable column of an entity table.
type Column struct {
	Name string
	Kind FieldKind
}

// Schema declares the table of one entity: its columns, identifier and the
// predicate rule of every field kind. Schemas are values; the With* methods
// return modified copies.
type Schema struct {
	table   string
	alias   string
	id      string
	columns []Column
	index   map[string]int
	rules   map[FieldKind]kindRule
}

// NewSchema declares a table. id must name one of columns.
func NewSchema(table, alias, id string, columns ...Column) (Schema, error) {
	s := Schema{
		table:   table,
		alias:   alias,
		id:      id,
		columns: append([]Column(nil), columns...),
		index:   make(map[string]int, len(columns)),
		rules:   make(map[FieldKind]kindRule, len(defaultRules)),
	}
	for i, c := range s.columns {
		if _, dup := s.index[c.Name]; dup {
			return Schema{}, fmt.Errorf("duplicate column %q in table %s", c.Name, table)
		}
		s.index[c.Name] = i
	}
	if _, ok := s.index[id]; !ok {
		return Schema{}, fmt.Errorf("identifier column %q is not declared in table %s", id, table)
	}
	for k, r := range defaultRules {
		s.rules[k] = r
	}
	return s, nil
}

// MustSchema is like NewSchema but panics on a malformed declaration.
func MustSchema(table, alias, id string, columns ...Column) Schema {
	s, err := NewSchema(table, alias, id, columns...)
	if err != nil {
		panic(err)
	}
	return s
}

func (s Schema) Table() string { return s.table }

func (s Schema) Alias() string { return s.alias }

func (s Schema) ID() string { return s.id }

func (s Schema) Columns() []Column { return append([]Column(nil), s.columns...) }

// Column looks a field name up. Unknown names report false.
func (s Schema) Column(name string) (Column, bool) {
	i, ok := s.index[name]
	if !ok {
		return Column{}, false
	}
	return s.columns[i], true
}

// MutableColumns returns every column except the identifier, in declaration order.
func (s Schema) MutableColumns() []Column {
	out := make([]Column, 0, len(s.columns)-1)
	for _, c := range s.columns {
		if c.Name != s.id {
			out = append(out, c)
		}
	}
	return out
}

// Combinator returns how predicates on fields of kind k join the filter.
func (s Schema) Combinator(k FieldKind) Combinator { return s.rules[k].combinator }

// WithCombinator returns a copy of s whose predicates of kind k use c.
func (s Schema) WithCombinator(k FieldKind, c Combinator) Schema {
	rules := make(map[FieldKind]kindRule, len(s.rules))
	for kk, r := range s.rules {
		rules[kk] = r
	}
	r := rules[k]
	r.combinator = c
	rules[k] = r
	s.rules = rules
	return s
}

// Projection is the base SELECT list of a composed read.
type Projection struct {
	Table   string
	Alias   string
	Columns []string
}

// Projection selects every declared column.
func (s Schema) Projection() Projection {
	cols := make([]string, len(s.columns))
	for i, c := range s.columns {
		cols[i] = c.Name
	}
	return Projection{Table: s.table, Alias: s.alias, Columns: cols}
}
