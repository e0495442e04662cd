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

package inkwell

import (
	"context"
	"fmt"
	"sync"

	"github.com/tomoncle/inkwell/database"
	"github.com/tomoncle/inkwell/model"
	"github.com/tomoncle/inkwell/repository"
	"github.com/tomoncle/inkwell/types"
)

type Service[T any] interface {
	// Get returns a single entity by its identifier, or nil when absent.
	Get(ctx context.Context, id string) (*T, error)

	// All returns one page of entities in identifier order.
	All(ctx context.Context, page, size int) ([]*T, error)

	// List returns every entity matching criteria.
	List(ctx context.Context, criteria ...types.Criteria) ([]*T, error)

	// Sorted returns one page of entities ordered by field.
	Sorted(ctx context.Context, field string, direction types.Direction, page, size int) ([]*T, error)

	// Search returns one page of entities matching criteria, ordered by field.
	Search(ctx context.Context, criteria []types.Criteria, field string, direction types.Direction, page, size int) ([]*T, error)

	// Count returns how many entities match criteria.
	Count(ctx context.Context, criteria ...types.Criteria) (int, error)

	// Page returns a page of matching entities with the total count.
	Page(ctx context.Context, criteria []types.Criteria, sort *types.SortSpec, page *types.PageRequest) (*types.Pagination[T], error)

	// Save inserts or updates entities by identifier.
	Save(ctx context.Context, entities ...*T) ([]*T, error)

	// Update modifies the entity stored under id.
	Update(ctx context.Context, id string, entity *T) (*T, error)

	// Delete removes an entity by its identifier.
	Delete(ctx context.Context, id string) (bool, error)
}

type baseServiceImpl[T any] struct {
	binding repository.Binding[T]
	opts    []repository.Option
	repo    repository.Repository[T]
	mu      sync.Mutex
}

// NewService returns a Service whose repository is bound to the global
// database on first use.
func NewService[T any](binding repository.Binding[T], opts ...repository.Option) Service[T] {
	return &baseServiceImpl[T]{binding: binding, opts: opts}
}

// NewServiceWithRepository returns a Service over an existing repository.
func NewServiceWithRepository[T any](repo repository.Repository[T]) Service[T] {
	return &baseServiceImpl[T]{repo: repo}
}

// NewAuthorService returns the author Service bound to the global database.
func NewAuthorService(opts ...repository.Option) Service[model.Author] {
	return NewService[model.Author](repository.AuthorBinding(), opts...)
}

func (s *baseServiceImpl[T]) baseRepo() (repository.Repository[T], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.repo != nil {
		return s.repo, nil
	}
	manager := database.GetDatabaseManager()
	if manager == nil || manager.GetDB() == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	s.repo = repository.NewRepository[T](manager, manager.Dialect(), s.binding, s.opts...)
	return s.repo, nil
}

func (s *baseServiceImpl[T]) Get(ctx context.Context, id string) (*T, error) {
	repo, err := s.baseRepo()
	if err != nil {
		return nil, err
	}
	return repo.FindByID(ctx, id)
}

func (s *baseServiceImpl[T]) All(ctx context.Context, page, size int) ([]*T, error) {
	repo, err := s.baseRepo()
	if err != nil {
		return nil, err
	}
	return repo.GetAll(ctx, page, size)
}

func (s *baseServiceImpl[T]) List(ctx context.Context, criteria ...types.Criteria) ([]*T, error) {
	repo, err := s.baseRepo()
	if err != nil {
		return nil, err
	}
	return repo.FindByCriteria(ctx, criteria)
}

func (s *baseServiceImpl[T]) Sorted(ctx context.Context, field string, direction types.Direction, page, size int) ([]*T, error) {
	repo, err := s.baseRepo()
	if err != nil {
		return nil, err
	}
	return repo.FindAllSortedBy(ctx, field, direction, page, size)
}

func (s *baseServiceImpl[T]) Search(ctx context.Context, criteria []types.Criteria, field string, direction types.Direction, page, size int) ([]*T, error) {
	repo, err := s.baseRepo()
	if err != nil {
		return nil, err
	}
	return repo.FindByCriteriaSortedAndPaginated(ctx, criteria, field, direction, page, size)
}

func (s *baseServiceImpl[T]) Count(ctx context.Context, criteria ...types.Criteria) (int, error) {
	repo, err := s.baseRepo()
	if err != nil {
		return 0, err
	}
	return repo.Count(ctx, criteria)
}

func (s *baseServiceImpl[T]) Page(ctx context.Context, criteria []types.Criteria, sort *types.SortSpec, page *types.PageRequest) (*types.Pagination[T], error) {
	repo, err := s.baseRepo()
	if err != nil {
		return nil, err
	}
	return repo.Page(ctx, criteria, sort, page)
}

func (s *baseServiceImpl[T]) Save(ctx context.Context, entities ...*T) ([]*T, error) {
	repo, err := s.baseRepo()
	if err != nil {
		return nil, err
	}
	return repo.SaveAll(ctx, entities)
}

func (s *baseServiceImpl[T]) Update(ctx context.Context, id string, entity *T) (*T, error) {
	repo, err := s.baseRepo()
	if err != nil {
		return nil, err
	}
	return repo.Update(ctx, id, entity)
}

func (s *baseServiceImpl[T]) Delete(ctx context.Context, id string) (bool, error) {
	repo, err := s.baseRepo()
	if err != nil {
		return false, err
	}
	return repo.DeleteByID(ctx, id)
}
