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

import "database/sql"

// Scanner is the row surface shared by *sql.Row and *sql.Rows.
type Scanner interface {
	Scan(dest ...interface{}) error
}

// RowMapper turns the current row into an entity.
type RowMapper[T any] interface {
	Map(row Scanner) (*T, error)
}

// RowMapperFunc adapts a function to RowMapper.
type RowMapperFunc[T any] func(row Scanner) (*T, error)

func (f RowMapperFunc[T]) Map(row Scanner) (*T, error) { return f(row) }

// MapAll eagerly maps every remaining row in order. Mapper failures become
// *MappingError; iteration failures are store failures.
func MapAll[T any](rows *sql.Rows, mapper RowMapper[T]) ([]*T, error) {
	result := make([]*T, 0)
	for rows.Next() {
		entity, err := mapper.Map(rows)
		if err != nil {
			if IsMappingError(err) {
				return nil, err
			}
			return nil, &MappingError{Err: err}
		}
		result = append(result, entity)
	}
	if err := rows.Err(); err != nil {
		return nil, newStoreError("iterate", err)
	}
	return result, nil
}
