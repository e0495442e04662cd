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

package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/inkwell/types"
)

type authorLine struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	BirthDate string `json:"birth_date"`
}

func setupCLI(t *testing.T) func(args ...string) ([]authorLine, error) {
	t.Helper()
	dir := t.TempDir()
	seed := filepath.Join(dir, "sql", "common", "001_authors.sql")
	require.NoError(t, os.MkdirAll(filepath.Dir(seed), 0o755))
	require.NoError(t, os.WriteFile(seed, []byte(
		"INSERT INTO author (id, name, birth_date) VALUES ('author5_id', 'Plato', '0300-03-03');\n"), 0o644))

	config := filepath.Join(dir, "inkwell.yaml")
	require.NoError(t, os.WriteFile(config, []byte(`
connection:
  type: sqlite
  dbname: `+filepath.Join(dir, "cli.db")+`
  max_open_conns: 1
  slow_query_time: 0s
bootstrap:
  create_tables: true
  seed_path: `+filepath.Join(dir, "sql")+`
  seed_environment: test
`), 0o644))

	return func(args ...string) ([]authorLine, error) {
		var out bytes.Buffer
		full := append([]string{"-config", config, "-env-file", filepath.Join(dir, ".env")}, args...)
		if err := run(context.Background(), full, &out); err != nil {
			return nil, err
		}
		var lines []authorLine
		scanner := bufio.NewScanner(&out)
		for scanner.Scan() {
			var line authorLine
			require.NoError(t, json.Unmarshal(scanner.Bytes(), &line))
			lines = append(lines, line)
		}
		return lines, nil
	}
}

func TestCLIRoundTrip(t *testing.T) {
	inkwell := setupCLI(t)

	_, err := inkwell("save", "-id", "author1_id", "-name", "JJR", "-birth", "2000-01-01")
	require.NoError(t, err)
	generated, err := inkwell("save", "-name", "Rado", "-birth", "1990-01-01")
	require.NoError(t, err)
	require.Len(t, generated, 1)
	assert.Len(t, generated[0].ID, 36)

	_, err = inkwell("seed")
	require.NoError(t, err)

	all, err := inkwell("list", "-page", "1", "-size", "10")
	require.NoError(t, err)
	require.Len(t, all, 3)
	ids := []string{all[0].ID, all[1].ID, all[2].ID}
	assert.Contains(t, ids, "author1_id")
	assert.Contains(t, ids, "author5_id")
	assert.Contains(t, ids, generated[0].ID)

	found, err := inkwell("find", "-name", "jj", "-birth", "0300-03-03")
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "Plato", found[1].Name)

	sorted, err := inkwell("sorted", "-sort", "birth_date", "-dir", "desc", "-size", "1")
	require.NoError(t, err)
	require.Len(t, sorted, 1)
	assert.Equal(t, "2000-01-01", sorted[0].BirthDate)

	updated, err := inkwell("update", "-id", "author5_id", "-name", "Plato of Athens", "-birth", "0300-03-03")
	require.NoError(t, err)
	require.Len(t, updated, 1)
	assert.Equal(t, "Plato of Athens", updated[0].Name)

	_, err = inkwell("delete", "-id", "author5_id")
	require.NoError(t, err)
	_, err = inkwell("get", "-id", "author5_id")
	assert.ErrorContains(t, err, "not found")
}

func TestCLIRejectsBadInput(t *testing.T) {
	inkwell := setupCLI(t)

	_, err := inkwell("list", "-page", "0")
	assert.ErrorIs(t, err, types.ErrValidation)

	_, err = inkwell("sorted", "-sort", "nationality")
	assert.ErrorIs(t, err, types.ErrValidation)

	_, err = inkwell("get")
	assert.ErrorIs(t, err, types.ErrValidation)

	_, err = inkwell("shelve")
	assert.ErrorIs(t, err, errUsage)
}
