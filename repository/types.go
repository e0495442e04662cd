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
	"context"
	"database/sql"

	"github.com/tomoncle/inkwell/query"
	"github.com/tomoncle/inkwell/types"
)

// ConnSource hands out a dedicated connection for the duration of one call.
// *sql.DB and the database manager satisfy it.
type ConnSource interface {
	Conn(ctx context.Context) (*sql.Conn, error)
}

// CrudRepository defines the read, upsert, update and delete contract of an entity.
type CrudRepository[T any] interface {
	GetAll(ctx context.Context, page, size int) ([]*T, error)

	FindByCriteria(ctx context.Context, criteria []types.Criteria) ([]*T, error)

	FindAllSortedBy(ctx context.Context, field string, direction types.Direction, page, size int) ([]*T, error)

	FindByCriteriaSortedAndPaginated(ctx context.Context, criteria []types.Criteria, field string, direction types.Direction, page, size int) ([]*T, error)

	// FindByID returns nil without error when no row has id.
	FindByID(ctx context.Context, id string) (*T, error)

	// SaveAll inserts or updates each entity by id and returns the persisted
	// rows in input order.
	SaveAll(ctx context.Context, entities []*T) ([]*T, error)

	// Update returns nil without error when no row has id.
	Update(ctx context.Context, id string, entity *T) (*T, error)

	DeleteByID(ctx context.Context, id string) (bool, error)
}

// PageQueryRepository defines counting and paginated listing.
type PageQueryRepository[T any] interface {
	Count(ctx context.Context, criteria []types.Criteria) (int, error)
	Page(ctx context.Context, criteria []types.Criteria, sort *types.SortSpec, page *types.PageRequest) (*types.Pagination[T], error)
}

// Repository combines the CRUD and pagination contracts and exposes the
// composer that builds its statements.
type Repository[T any] interface {
	CrudRepository[T]
	PageQueryRepository[T]
	Composer() *query.Composer
}

// Binding connects an entity type to its table.
type Binding[T any] struct {
	Schema query.Schema
	// ID returns the identifier of an entity.
	ID func(entity *T) string
	// Values returns the mutable column values in Schema.MutableColumns order.
	Values func(entity *T) []interface{}
	Mapper RowMapper[T]
}
