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

package model

import (
	"github.com/tomoncle/inkwell/database"
	"github.com/tomoncle/inkwell/types"
	"github.com/uptrace/bun"
)

// Author is a writer identified by a caller-assigned id.
type Author struct {
	bun.BaseModel `bun:"table:author,alias:a"`

	ID        string     `bun:"id,pk" json:"id"`
	Name      string     `bun:"name,notnull" json:"name"`
	BirthDate types.Date `bun:"birth_date,type:date,notnull" json:"birth_date"`
}

// NewAuthor builds an author value.
func NewAuthor(id, name string, birthDate types.Date) *Author {
	return &Author{ID: id, Name: name, BirthDate: birthDate}
}

func init() {
	database.RegisteredModel(database.NewModelAdapter((*Author)(nil), 10))
}
