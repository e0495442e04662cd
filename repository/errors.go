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
	"errors"
	"fmt"

	"github.com/tomoncle/inkwell/database"
	"github.com/tomoncle/inkwell/types"
)

// StoreError is a failure of the store or of the connection to it.
type StoreError struct {
	Op   string
	Kind database.SQLError
	Err  error
}

func newStoreError(op string, err error) *StoreError {
	_, kind := database.IsSqlError(err)
	return &StoreError{Op: op, Kind: kind, Err: err}
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: store failure (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// MappingError reports a row that does not fit the entity it is mapped to.
type MappingError struct {
	Op  string
	Err error
}

func (e *MappingError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("row mapping failed: %v", e.Err)
	}
	return fmt.Sprintf("%s: row mapping failed: %v", e.Op, e.Err)
}

func (e *MappingError) Unwrap() error { return e.Err }

func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}

func IsMappingError(err error) bool {
	var me *MappingError
	return errors.As(err, &me)
}

// wrapError attributes err to op, leaving validation, mapping and store
// errors in their own category.
func wrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	var me *MappingError
	if errors.As(err, &me) {
		if me.Op == "" {
			me.Op = op
		}
		return err
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	var ve *types.ValidationError
	if errors.As(err, &ve) {
		return err
	}
	return newStoreError(op, err)
}
