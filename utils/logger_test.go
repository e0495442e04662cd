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

package utils

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerIsRegisteredByName(t *testing.T) {
	a := NewLogger("TEST_REGISTRY")
	b := NewLogger("TEST_REGISTRY")
	assert.Same(t, a, b)

	assert.True(t, SetLoggerLevel("TEST_REGISTRY", "debug"))
	assert.Equal(t, logrus.DebugLevel, a.GetLevel())
	assert.False(t, SetLoggerLevel("TEST_UNKNOWN", "debug"))
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, logrus.WarnLevel, ParseLogLevel(" WARNING "))
	assert.Equal(t, logrus.TraceLevel, ParseLogLevel("trace"))
	assert.Equal(t, logrus.InfoLevel, ParseLogLevel("verbose"))
}

func TestTextLogFormatter(t *testing.T) {
	l := logrus.New()
	var buf bytes.Buffer
	l.SetOutput(&buf)
	l.SetFormatter(&TextLogFormatter{Name: "DATABASE"})

	l.WithFields(logrus.Fields{"table": "author", "id": "a1"}).Warn("Update matched no row")
	line := buf.String()
	assert.Contains(t, line, "WARNING [DATABASE] Update matched no row id=a1 table=author")
	assert.True(t, strings.HasSuffix(line, "\n"))
}

func TestJSONLogFormatter(t *testing.T) {
	l := logrus.New()
	var buf bytes.Buffer
	l.SetOutput(&buf)
	l.SetFormatter(&JSONLogFormatter{Name: "DATABASE"})

	l.WithField("error", errors.New("database is locked")).Error("SQL file execution failed")
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "DATABASE", entry["logger"])
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "database is locked", entry["error"])
}

func TestEnvDefaults(t *testing.T) {
	t.Setenv("INKWELL_TEST_STRING", "  ")
	assert.Equal(t, "fallback", EnvDefaultString("INKWELL_TEST_STRING", "fallback"))
	t.Setenv("INKWELL_TEST_STRING", "set")
	assert.Equal(t, "set", EnvDefaultString("INKWELL_TEST_STRING", "fallback"))

	t.Setenv("INKWELL_TEST_BOOL", "on")
	assert.True(t, EnvDefaultBool("INKWELL_TEST_BOOL", false))
	t.Setenv("INKWELL_TEST_BOOL", "maybe")
	assert.False(t, EnvDefaultBool("INKWELL_TEST_BOOL", false))
}
