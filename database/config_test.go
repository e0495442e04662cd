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

package database

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadConfigOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inkwell.yaml")
	writeFile(t, path, `
connection:
  type: postgres
  host: db.internal
  port: 5432
  dbname: authors
  slow_query_time: 250ms
bootstrap:
  seed_on_startup: true
  seed_environment: test
log:
  level: debug
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.ConnectionConfig.Type)
	assert.Equal(t, "db.internal", cfg.ConnectionConfig.Host)
	assert.Equal(t, 5432, cfg.ConnectionConfig.Port)
	assert.Equal(t, 250*time.Millisecond, cfg.ConnectionConfig.SlowQueryTime)
	assert.Equal(t, 100, cfg.ConnectionConfig.MaxOpenConns, "unset keys keep their default")
	assert.True(t, cfg.BootstrapConfig.CreateTables)
	assert.True(t, cfg.BootstrapConfig.SeedOnStartup)
	assert.Equal(t, "configs/sql", cfg.BootstrapConfig.SeedPath)
	assert.Equal(t, "test", cfg.BootstrapConfig.SeedEnvironment)
	assert.Equal(t, "debug", cfg.LogConfig.Level)
	assert.Equal(t, "text", cfg.LogConfig.Format)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "broken.yaml")
	writeFile(t, path, "connection: [")
	_, err = LoadConfig(path)
	assert.ErrorContains(t, err, "failed to parse config file")
}

func TestOverrideFromEnv(t *testing.T) {
	t.Setenv("DB_TYPE", "mysql")
	t.Setenv("DB_HOST", "10.0.0.7")
	t.Setenv("DB_PORT", "3307")
	t.Setenv("DB_NAME", "library")
	t.Setenv("DB_MAX_OPEN_CONNS", "4")
	t.Setenv("DB_SLOW_QUERY_MS", "50")
	t.Setenv("DB_ENABLE_QUERY_LOG", "true")

	cfg := DefaultConnectionConfig()
	NewDatabaseFactory().overrideFromEnv(cfg)
	assert.Equal(t, "mysql", cfg.Type)
	assert.Equal(t, "10.0.0.7", cfg.Host)
	assert.Equal(t, 3307, cfg.Port)
	assert.Equal(t, "library", cfg.DBName)
	assert.Equal(t, 4, cfg.MaxOpenConns)
	assert.Equal(t, 50*time.Millisecond, cfg.SlowQueryTime)
	assert.True(t, cfg.EnableQueryLog)
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	writeFile(t, path, "INKWELL_TEST_DOTENV=loaded\n")
	t.Setenv("INKWELL_TEST_DOTENV", "")
	require.NoError(t, os.Unsetenv("INKWELL_TEST_DOTENV"))

	require.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "absent.env"), path))
	assert.Equal(t, "loaded", os.Getenv("INKWELL_TEST_DOTENV"))
}

func TestCreateFromConfigRejectsUnknownType(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ConnectionConfig.Type = "oracle"
	_, err := NewDatabaseFactory().CreateFromConfig(cfg)
	assert.ErrorContains(t, err, "unsupported database type: oracle")
}

func TestCreateFromConfigChecksTypeAfterEnvOverride(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ConnectionConfig.Type = "oracle"
	t.Setenv("DB_TYPE", "sqlite")
	manager, err := NewDatabaseFactory().CreateFromConfig(cfg)
	require.NoError(t, err)
	assert.NotNil(t, manager)
	assert.Equal(t, "sqlite", cfg.ConnectionConfig.Type)

	cfg = DefaultConfig()
	cfg.ConnectionConfig.Type = "sqlite"
	t.Setenv("DB_TYPE", "db2")
	_, err = NewDatabaseFactory().CreateFromConfig(cfg)
	assert.ErrorContains(t, err, "unsupported database type: db2")
}

func TestCreateFromConfigReplacesConfiguredHooks(t *testing.T) {
	ResetStatementHooks()
	t.Cleanup(ResetStatementHooks)
	t.Setenv("DB_TYPE", "sqlite")

	custom := NewSlowStatementHook(time.Hour, nil)
	AddStatementHook(custom)

	cfg := DefaultConfig()
	cfg.ConnectionConfig.EnableStatementLog = true
	cfg.ConnectionConfig.SlowQueryTime = time.Second
	factory := NewDatabaseFactory()
	for i := 0; i < 3; i++ {
		_, err := factory.CreateFromConfig(cfg)
		require.NoError(t, err)
	}

	hooks := StatementHooks()
	require.Len(t, hooks, 3)
	assert.Same(t, custom, hooks[0])
	assert.IsType(t, &ConsoleHook{}, hooks[1])
	assert.IsType(t, &SlowStatementHook{}, hooks[2])

	cfg.ConnectionConfig.EnableStatementLog = false
	cfg.ConnectionConfig.SlowQueryTime = 0
	t.Setenv("INKWELL_DEBUG", "")
	os.Unsetenv("INKWELL_DEBUG")
	_, err := factory.CreateFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, []StatementHook{custom}, StatementHooks())
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "file::memory:?cache=shared", sqliteDSN(":memory:"))
	assert.Equal(t, "inkwell.db", sqliteDSN("inkwell"))
	assert.Equal(t, "data/inkwell.db", sqliteDSN("data/inkwell.db"))
	assert.Equal(t, "legacy.sqlite", sqliteDSN("legacy.sqlite"))
	assert.Equal(t, "file:test.db?mode=ro", sqliteDSN("file:test.db?mode=ro"))
}
