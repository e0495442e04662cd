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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/inkwell/types"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

const pgProjection = `SELECT "a"."id", "a"."name", "a"."birth_date" FROM "author" AS "a"`

func authorSchema() Schema {
	return MustSchema("author", "a", "id",
		Column{Name: "id", Kind: KindIdentifier},
		Column{Name: "name", Kind: KindText},
		Column{Name: "birth_date", Kind: KindDate},
	)
}

func pgComposer() *Composer {
	return NewComposer(authorSchema(), pgdialect.New())
}

func TestComposeUnfilteredDefaultsToIdentifierOrder(t *testing.T) {
	c := pgComposer()

	stmt, err := c.Compose(c.Schema().Projection(), nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "SELECT", stmt.Op)
	assert.Equal(t, pgProjection+` ORDER BY "a"."id" ASC`, stmt.Text)
	assert.Empty(t, stmt.Args)
}

func TestComposeNameOrBirthDate(t *testing.T) {
	c := pgComposer()
	filters := []types.Criteria{
		types.NewCriteria("name", "rado"),
		types.NewCriteria("birth_date", types.NewDate(2000, 1, 1)),
	}

	stmt, err := c.Compose(c.Schema().Projection(), filters, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, pgProjection+` WHERE ("a"."name" ILIKE $1) OR ("a"."birth_date" = $2) ORDER BY "a"."id" ASC`, stmt.Text)
	assert.Equal(t, []interface{}{"%rado%", types.NewDate(2000, 1, 1)}, stmt.Args)
}

func TestComposeDatePredicateOpensNewGroup(t *testing.T) {
	c := pgComposer()
	filters := []types.Criteria{
		types.NewCriteria("name", "a"),
		types.NewCriteria("birth_date", "1990-01-01"),
		types.NewCriteria("name", "r"),
	}

	stmt, err := c.Compose(c.Schema().Projection(), filters, nil, nil)
	require.NoError(t, err)
	assert.Contains(t, stmt.Text,
		`WHERE ("a"."name" ILIKE $1) OR (("a"."birth_date" = $2) AND ("a"."name" ILIKE $3)) ORDER BY`)
	assert.Equal(t, []interface{}{"%a%", types.NewDate(1990, 1, 1), "%r%"}, stmt.Args)
}

func TestComposeGroupsTextPredicatesBetweenDates(t *testing.T) {
	c := pgComposer()
	filters := []types.Criteria{
		types.NewCriteria("name", "a"),
		types.NewCriteria("name", "o"),
		types.NewCriteria("birth_date", "1990-01-01"),
		types.NewCriteria("birth_date", "2000-01-01"),
		types.NewCriteria("name", "j"),
	}

	stmt, err := c.Compose(c.Schema().Projection(), filters, nil, nil)
	require.NoError(t, err)
	assert.Contains(t, stmt.Text, `WHERE (("a"."name" ILIKE $1) AND ("a"."name" ILIKE $2))`+
		` OR ("a"."birth_date" = $3)`+
		` OR (("a"."birth_date" = $4) AND ("a"."name" ILIKE $5)) ORDER BY`)
}

func TestComposeLeadingDatePredicateStartsTheFilter(t *testing.T) {
	c := pgComposer()
	filters := []types.Criteria{
		types.NewCriteria("birth_date", "2000-01-01"),
		types.NewCriteria("name", "rado"),
	}

	stmt, err := c.Compose(c.Schema().Projection(), filters, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, pgProjection+` WHERE ("a"."birth_date" = $1) AND ("a"."name" ILIKE $2) ORDER BY "a"."id" ASC`, stmt.Text)
	assert.Equal(t, []interface{}{types.NewDate(2000, 1, 1), "%rado%"}, stmt.Args)
}

func TestComposeSingleDatePredicateIsExactMatch(t *testing.T) {
	c := pgComposer()

	stmt, err := c.Compose(c.Schema().Projection(), []types.Criteria{types.NewCriteria("birth_date", "2000-01-01")}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, pgProjection+` WHERE "a"."birth_date" = $1 ORDER BY "a"."id" ASC`, stmt.Text)
}

func TestComposeCombinatorOverride(t *testing.T) {
	s := authorSchema().WithCombinator(KindDate, And)
	c := NewComposer(s, pgdialect.New())
	filters := []types.Criteria{
		types.NewCriteria("name", "rado"),
		types.NewCriteria("birth_date", "2000-01-01"),
	}

	stmt, err := c.Compose(s.Projection(), filters, nil, nil)
	require.NoError(t, err)
	assert.Contains(t, stmt.Text, `WHERE ("a"."name" ILIKE $1) AND ("a"."birth_date" = $2)`)
	assert.Equal(t, Or, authorSchema().Combinator(KindDate), "override must not leak into the receiver schema")
}

func TestComposeIgnoresUnknownFields(t *testing.T) {
	c := pgComposer()
	filters := []types.Criteria{types.NewCriteria("sex", "M"), types.NewCriteria("name", "jjr")}

	stmt, err := c.Compose(c.Schema().Projection(), filters, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, pgProjection+` WHERE "a"."name" ILIKE $1 ORDER BY "a"."id" ASC`, stmt.Text)
	assert.Equal(t, []interface{}{"%jjr%"}, stmt.Args)
}

func TestComposeFilterSortAndPage(t *testing.T) {
	c := pgComposer()
	sort := &types.SortSpec{Field: "birth_date", Direction: types.Asc}

	stmt, err := c.Compose(c.Schema().Projection(), []types.Criteria{types.NewCriteria("name", "%a%")}, sort, types.NewPageRequest(1, 5))
	require.NoError(t, err)
	assert.Equal(t, pgProjection+
		` WHERE "a"."name" ILIKE $1 ORDER BY "a"."birth_date" ASC, "a"."id" ASC LIMIT $2 OFFSET $3`, stmt.Text)
	assert.Equal(t, []interface{}{"%%a%%", 5, 0}, stmt.Args)
}

func TestComposeSortByIdentifierHasNoTieBreak(t *testing.T) {
	c := pgComposer()

	stmt, err := c.Compose(c.Schema().Projection(), nil, &types.SortSpec{Field: "id", Direction: types.Desc}, nil)
	require.NoError(t, err)
	assert.Equal(t, pgProjection+` ORDER BY "a"."id" DESC`, stmt.Text)
}

func TestComposeOffsetArithmetic(t *testing.T) {
	c := pgComposer()
	for page := 1; page <= 5; page++ {
		for size := 1; size <= 4; size++ {
			stmt, err := c.Compose(c.Schema().Projection(), nil, nil, types.NewPageRequest(page, size))
			require.NoError(t, err)
			assert.Equal(t, []interface{}{size, size * (page - 1)}, stmt.Args, "page=%d size=%d", page, size)
		}
	}
}

func TestComposeRejectsInvalidRequests(t *testing.T) {
	c := pgComposer()
	base := c.Schema().Projection()

	for _, size := range []int{-1, 0, 1, 10} {
		_, err := c.Compose(base, nil, nil, types.NewPageRequest(0, size))
		assert.True(t, types.IsValidationError(err), "size=%d", size)
	}

	_, err := c.Compose(base, nil, nil, types.NewPageRequest(1, 0))
	assert.True(t, types.IsValidationError(err))

	_, err = c.Compose(base, nil, &types.SortSpec{Field: "name; DROP TABLE author"}, nil)
	assert.True(t, types.IsValidationError(err))

	_, err = c.Compose(base, []types.Criteria{types.NewCriteria("birth_date", "yesterday")}, nil, nil)
	assert.True(t, types.IsValidationError(err))

	_, err = c.Compose(base, []types.Criteria{types.NewCriteria("name", nil)}, nil, nil)
	assert.True(t, types.IsValidationError(err))
}

func TestComposeNeverInterpolatesValues(t *testing.T) {
	c := pgComposer()
	hostile := "x'; DROP TABLE author; --"

	stmt, err := c.Compose(c.Schema().Projection(), []types.Criteria{types.NewCriteria("name", hostile)}, nil, nil)
	require.NoError(t, err)
	assert.NotContains(t, stmt.Text, "DROP")
	assert.Equal(t, []interface{}{"%" + hostile + "%"}, stmt.Args)
}

func TestComposeDialects(t *testing.T) {
	filters := []types.Criteria{types.NewCriteria("name", "rado")}
	page := types.NewPageRequest(2, 3)

	sqlite := NewComposer(authorSchema(), sqlitedialect.New())
	stmt, err := sqlite.Compose(sqlite.Schema().Projection(), filters, nil, page)
	require.NoError(t, err)
	assert.Equal(t, `SELECT "a"."id", "a"."name", "a"."birth_date" FROM "author" AS "a"`+
		` WHERE LOWER("a"."name") LIKE LOWER(?) ORDER BY "a"."id" ASC LIMIT ? OFFSET ?`, stmt.Text)
	assert.Equal(t, []interface{}{"%rado%", 3, 3}, stmt.Args)

	mysql := NewComposer(authorSchema(), mysqldialect.New())
	stmt, err = mysql.Compose(mysql.Schema().Projection(), filters, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "SELECT `a`.`id`, `a`.`name`, `a`.`birth_date` FROM `author` AS `a`"+
		" WHERE LOWER(`a`.`name`) LIKE LOWER(?) ORDER BY `a`.`id` ASC", stmt.Text)
}

func TestCount(t *testing.T) {
	c := pgComposer()

	stmt, err := c.Count([]types.Criteria{types.NewCriteria("name", "rado")})
	require.NoError(t, err)
	assert.Equal(t, `SELECT COUNT(*) FROM "author" AS "a" WHERE "a"."name" ILIKE $1`, stmt.Text)
	assert.Equal(t, []interface{}{"%rado%"}, stmt.Args)
}

func TestWriteStatements(t *testing.T) {
	c := pgComposer()
	born := types.NewDate(1972, 1, 1)

	sel := c.SelectByID("author6_id")
	assert.Equal(t, pgProjection+` WHERE "a"."id" = $1`, sel.Text)
	assert.Equal(t, []interface{}{"author6_id"}, sel.Args)

	ins, err := c.Insert("author6_id", []interface{}{"JK Rowling", born})
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "author" ("id", "name", "birth_date") VALUES ($1, $2, $3)`, ins.Text)
	assert.Equal(t, []interface{}{"author6_id", "JK Rowling", born}, ins.Args)

	upd, err := c.Update("author6_id", []interface{}{"JK Rowling", born})
	require.NoError(t, err)
	assert.Equal(t, `UPDATE "author" SET "name" = $1, "birth_date" = $2 WHERE "id" = $3`, upd.Text)
	assert.Equal(t, []interface{}{"JK Rowling", born, "author6_id"}, upd.Args)

	del := c.DeleteByID("author6_id")
	assert.Equal(t, "DELETE", del.Op)
	assert.Equal(t, `DELETE FROM "author" WHERE "id" = $1`, del.Text)

	_, err = c.Insert("x", []interface{}{"only name"})
	assert.Error(t, err)
}
