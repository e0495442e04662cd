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

package types

// Criteria is a single (field, value) filter predicate. How the value is
// compared depends on the semantic kind declared for the field.
type Criteria struct {
	field string
	value interface{}
}

// NewCriteria creates a filter predicate on the named field.
func NewCriteria(field string, value interface{}) Criteria {
	return Criteria{field: field, value: value}
}

func (c Criteria) Field() string { return c.field }

func (c Criteria) Value() interface{} { return c.value }

// SortSpec describes an ORDER BY field and direction.
type SortSpec struct {
	Field     string
	Direction Direction
}

// NewSortSpec parses the direction and returns a sort specification.
func NewSortSpec(field string, direction string) (*SortSpec, error) {
	d, err := ParseDirection(direction)
	if err != nil {
		return nil, err
	}
	return &SortSpec{Field: field, Direction: d}, nil
}
