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

package repository

import (
	"github.com/tomoncle/inkwell/model"
	"github.com/tomoncle/inkwell/query"
	"github.com/tomoncle/inkwell/types"
	"github.com/uptrace/bun/schema"
)

// Author fields accepted by criteria and sort specifications.
const (
	AuthorID        = "id"
	AuthorName      = "name"
	AuthorBirthDate = "birth_date"
)

// AuthorSchema is the author table: name is text, birth_date is a date.
var AuthorSchema = query.MustSchema("author", "a", AuthorID,
	query.Column{Name: AuthorID, Kind: query.KindIdentifier},
	query.Column{Name: AuthorName, Kind: query.KindText},
	query.Column{Name: AuthorBirthDate, Kind: query.KindDate},
)

// AuthorMapper maps a row projected as id, name, birth_date.
var AuthorMapper RowMapper[model.Author] = RowMapperFunc[model.Author](func(row Scanner) (*model.Author, error) {
	var (
		author    model.Author
		birthDate types.Date
	)
	if err := row.Scan(&author.ID, &author.Name, &birthDate); err != nil {
		return nil, err
	}
	author.BirthDate = birthDate
	return &author, nil
})

// AuthorBinding binds model.Author to AuthorSchema.
func AuthorBinding() Binding[model.Author] {
	return Binding[model.Author]{
		Schema: AuthorSchema,
		ID:     func(a *model.Author) string { return a.ID },
		Values: func(a *model.Author) []interface{} {
			return []interface{}{a.Name, a.BirthDate}
		},
		Mapper: AuthorMapper,
	}
}

// NewAuthorRepository returns the author repository over conns.
func NewAuthorRepository(conns ConnSource, dialect schema.Dialect, opts ...Option) Repository[model.Author] {
	return NewRepository[model.Author](conns, dialect, AuthorBinding(), opts...)
}
