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
	"fmt"
	"time"

	"github.com/tomoncle/inkwell/database"
	"github.com/tomoncle/inkwell/query"
	"github.com/tomoncle/inkwell/types"
	"github.com/uptrace/bun/schema"
)

// executor is the statement surface shared by *sql.Conn and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type options struct {
	logger   database.Logger
	hooks    []database.StatementHook
	hooksSet bool
}

// Option configures a repository.
type Option func(*options)

// WithLogger replaces the global database logger.
func WithLogger(logger database.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithHooks replaces the globally registered statement hooks.
func WithHooks(hooks ...database.StatementHook) Option {
	return func(o *options) {
		o.hooks = hooks
		o.hooksSet = true
	}
}

type baseRepositoryImpl[T any] struct {
	conns    ConnSource
	composer *query.Composer
	binding  Binding[T]
	opts     options
}

// NewRepository returns a repository of T whose statements are composed for
// dialect and executed over connections taken from conns.
func NewRepository[T any](conns ConnSource, dialect schema.Dialect, binding Binding[T], opts ...Option) Repository[T] {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = database.GetLogger()
	}
	return &baseRepositoryImpl[T]{
		conns:    conns,
		composer: query.NewComposer(binding.Schema, dialect),
		binding:  binding,
		opts:     o,
	}
}

func (r *baseRepositoryImpl[T]) Composer() *query.Composer { return r.composer }

func (r *baseRepositoryImpl[T]) GetAll(ctx context.Context, page, size int) ([]*T, error) {
	return r.find(ctx, "GetAll", nil, nil, types.NewPageRequest(page, size))
}

func (r *baseRepositoryImpl[T]) FindByCriteria(ctx context.Context, criteria []types.Criteria) ([]*T, error) {
	return r.find(ctx, "FindByCriteria", criteria, nil, nil)
}

func (r *baseRepositoryImpl[T]) FindAllSortedBy(ctx context.Context, field string, direction types.Direction, page, size int) ([]*T, error) {
	sort := &types.SortSpec{Field: field, Direction: direction}
	return r.find(ctx, "FindAllSortedBy", nil, sort, types.NewPageRequest(page, size))
}

func (r *baseRepositoryImpl[T]) FindByCriteriaSortedAndPaginated(ctx context.Context, criteria []types.Criteria, field string, direction types.Direction, page, size int) ([]*T, error) {
	sort := &types.SortSpec{Field: field, Direction: direction}
	return r.find(ctx, "FindByCriteriaSortedAndPaginated", criteria, sort, types.NewPageRequest(page, size))
}

func (r *baseRepositoryImpl[T]) FindByID(ctx context.Context, id string) (*T, error) {
	var entity *T
	err := r.withConn(ctx, "FindByID", func(conn *sql.Conn) error {
		var err error
		entity, err = r.findOne(ctx, conn, id)
		return err
	})
	return entity, err
}

// SaveAll runs the whole batch in one transaction on a single connection.
// Each entity is looked up by id and then inserted or updated; a failure rolls
// back every entity of the batch.
func (r *baseRepositoryImpl[T]) SaveAll(ctx context.Context, entities []*T) ([]*T, error) {
	saved := make([]*T, 0, len(entities))
	if len(entities) == 0 {
		return saved, nil
	}
	for i, entity := range entities {
		if entity == nil {
			return nil, types.NewValidationError("entities", fmt.Sprintf("entity at index %d is nil", i))
		}
	}

	err := r.withConn(ctx, "SaveAll", func(conn *sql.Conn) error {
		tx, err := conn.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		for _, entity := range entities {
			persisted, err := r.save(ctx, tx, entity)
			if err != nil {
				if rbErr := tx.Rollback(); rbErr != nil {
					r.opts.logger.Warn("Failed to roll back batch", "error", rbErr)
				}
				return err
			}
			saved = append(saved, persisted)
		}
		return tx.Commit()
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (r *baseRepositoryImpl[T]) save(ctx context.Context, tx *sql.Tx, entity *T) (*T, error) {
	id := r.binding.ID(entity)
	existing, err := r.findOne(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	var stmt query.Statement
	if existing == nil {
		stmt, err = r.composer.Insert(id, r.binding.Values(entity))
	} else {
		stmt, err = r.composer.Update(id, r.binding.Values(entity))
	}
	if err != nil {
		return nil, err
	}
	if _, err := r.exec(ctx, tx, stmt); err != nil {
		return nil, err
	}
	persisted, err := r.findOne(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if persisted == nil {
		return nil, fmt.Errorf("row %q not visible after write", id)
	}
	return persisted, nil
}

func (r *baseRepositoryImpl[T]) Update(ctx context.Context, id string, entity *T) (*T, error) {
	if entity == nil {
		return nil, types.NewValidationError("entity", "entity must not be nil")
	}
	stmt, err := r.composer.Update(id, r.binding.Values(entity))
	if err != nil {
		return nil, err
	}
	var updated *T
	err = r.withConn(ctx, "Update", func(conn *sql.Conn) error {
		n, err := r.exec(ctx, conn, stmt)
		if err != nil {
			return err
		}
		if n == 0 {
			r.opts.logger.Warn("Update matched no row", "table", r.composer.Schema().Table(), "id", id)
			return nil
		}
		updated, err = r.findOne(ctx, conn, id)
		return err
	})
	return updated, err
}

func (r *baseRepositoryImpl[T]) DeleteByID(ctx context.Context, id string) (bool, error) {
	stmt := r.composer.DeleteByID(id)
	var deleted bool
	err := r.withConn(ctx, "DeleteByID", func(conn *sql.Conn) error {
		n, err := r.exec(ctx, conn, stmt)
		deleted = n > 0
		return err
	})
	return deleted, err
}

func (r *baseRepositoryImpl[T]) Count(ctx context.Context, criteria []types.Criteria) (int, error) {
	stmt, err := r.composer.Count(criteria)
	if err != nil {
		return 0, err
	}
	var total int
	err = r.withConn(ctx, "Count", func(conn *sql.Conn) error {
		var err error
		total, err = r.count(ctx, conn, stmt)
		return err
	})
	return total, err
}

// Page counts the matching rows and reads one page of them on the same connection.
func (r *baseRepositoryImpl[T]) Page(ctx context.Context, criteria []types.Criteria, sort *types.SortSpec, page *types.PageRequest) (*types.Pagination[T], error) {
	if page == nil {
		return nil, types.NewValidationError("page", "page request is required")
	}
	countStmt, err := r.composer.Count(criteria)
	if err != nil {
		return nil, err
	}
	findStmt, err := r.composer.Compose(r.composer.Schema().Projection(), criteria, sort, page)
	if err != nil {
		return nil, err
	}

	pagination := types.NewDefaultPagination[T](page.GetPage(), page.GetPageSize())
	err = r.withConn(ctx, "Page", func(conn *sql.Conn) error {
		total, err := r.count(ctx, conn, countStmt)
		if err != nil || total == 0 {
			return err
		}
		items, err := r.query(ctx, conn, findStmt)
		if err != nil {
			return err
		}
		pagination.Total = total
		pagination.Items = items
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pagination, nil
}

func (r *baseRepositoryImpl[T]) find(ctx context.Context, op string, criteria []types.Criteria, sort *types.SortSpec, page *types.PageRequest) ([]*T, error) {
	stmt, err := r.composer.Compose(r.composer.Schema().Projection(), criteria, sort, page)
	if err != nil {
		return nil, err
	}
	var result []*T
	err = r.withConn(ctx, op, func(conn *sql.Conn) error {
		var err error
		result, err = r.query(ctx, conn, stmt)
		return err
	})
	return result, err
}

// withConn acquires a connection for fn and releases it on every exit path.
func (r *baseRepositoryImpl[T]) withConn(ctx context.Context, op string, fn func(conn *sql.Conn) error) error {
	conn, err := r.conns.Conn(ctx)
	if err != nil {
		return newStoreError(op, err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			r.opts.logger.Warn("Failed to release connection", "operation", op, "error", cerr)
		}
	}()
	return wrapError(op, fn(conn))
}

func (r *baseRepositoryImpl[T]) findOne(ctx context.Context, q executor, id string) (*T, error) {
	rows, err := r.query(ctx, q, r.composer.SelectByID(id))
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

func (r *baseRepositoryImpl[T]) query(ctx context.Context, q executor, stmt query.Statement) ([]*T, error) {
	var result []*T
	err := r.observe(ctx, stmt, func(ctx context.Context) error {
		rows, err := q.QueryContext(ctx, stmt.Text, stmt.Args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		result, err = MapAll(rows, r.binding.Mapper)
		return err
	})
	return result, err
}

func (r *baseRepositoryImpl[T]) count(ctx context.Context, q executor, stmt query.Statement) (int, error) {
	var total int
	err := r.observe(ctx, stmt, func(ctx context.Context) error {
		return q.QueryRowContext(ctx, stmt.Text, stmt.Args...).Scan(&total)
	})
	return total, err
}

func (r *baseRepositoryImpl[T]) exec(ctx context.Context, q executor, stmt query.Statement) (int64, error) {
	var affected int64
	err := r.observe(ctx, stmt, func(ctx context.Context) error {
		res, err := q.ExecContext(ctx, stmt.Text, stmt.Args...)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	return affected, err
}

// observe runs fn between the Before and After callbacks of every statement hook.
func (r *baseRepositoryImpl[T]) observe(ctx context.Context, stmt query.Statement, fn func(ctx context.Context) error) error {
	hooks := r.opts.hooks
	if !r.opts.hooksSet {
		hooks = database.StatementHooks()
	}
	event := &database.StatementEvent{
		Operation: stmt.Op,
		Query:     stmt.Text,
		Args:      stmt.Args,
		StartTime: time.Now(),
	}
	for _, h := range hooks {
		ctx = h.BeforeStatement(ctx, event)
	}
	err := fn(ctx)
	event.Duration = time.Since(event.StartTime)
	event.Err = err
	for _, h := range hooks {
		h.AfterStatement(ctx, event)
	}
	return err
}
