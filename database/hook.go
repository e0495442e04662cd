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
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
)

// StatementEvent describes one statement issued by a repository over an
// acquired connection.
type StatementEvent struct {
	Operation string
	Query     string
	Args      []interface{}
	StartTime time.Time
	Duration  time.Duration
	Err       error
}

// StatementHook observes repository statements. Hooks run in registration order.
type StatementHook interface {
	BeforeStatement(ctx context.Context, event *StatementEvent) context.Context
	AfterStatement(ctx context.Context, event *StatementEvent)
}

var (
	statementHooks   []StatementHook
	configuredHooks  []StatementHook
	statementHooksMu sync.RWMutex
)

// AddStatementHook registers a hook for every repository statement.
func AddStatementHook(h StatementHook) {
	statementHooksMu.Lock()
	defer statementHooksMu.Unlock()
	statementHooks = append(statementHooks, h)
}

// StatementHooks returns a snapshot of the registered hooks.
func StatementHooks() []StatementHook {
	statementHooksMu.RLock()
	defer statementHooksMu.RUnlock()
	return append([]StatementHook(nil), statementHooks...)
}

// ResetStatementHooks removes every registered hook.
func ResetStatementHooks() {
	statementHooksMu.Lock()
	defer statementHooksMu.Unlock()
	statementHooks = nil
	configuredHooks = nil
}

// replaceConfiguredHooks swaps the hooks installed from a previous
// configuration for hooks, leaving hooks added with AddStatementHook in place.
func replaceConfiguredHooks(hooks ...StatementHook) {
	statementHooksMu.Lock()
	defer statementHooksMu.Unlock()
	kept := statementHooks[:0:0]
	for _, h := range statementHooks {
		if !containsHook(configuredHooks, h) {
			kept = append(kept, h)
		}
	}
	statementHooks = append(kept, hooks...)
	configuredHooks = hooks
}

func containsHook(hooks []StatementHook, h StatementHook) bool {
	for _, c := range hooks {
		if c == h {
			return true
		}
	}
	return false
}

// ConsoleHook prints statements to a writer. The env variable overrides the
// configured switches: "0" or empty disables, "1" prints failures only, "2"
// prints every statement with its arguments.
type ConsoleHook struct {
	envName string
	enabled bool
	verbose bool
	writer  io.Writer
}

var _ StatementHook = (*ConsoleHook)(nil)

// NewConsoleHook returns a hook writing to stdout that honours INKWELL_DEBUG.
func NewConsoleHook(enabled, verbose bool) *ConsoleHook {
	return &ConsoleHook{envName: "INKWELL_DEBUG", enabled: enabled, verbose: verbose, writer: os.Stdout}
}

// WithWriter redirects the hook output.
func (h *ConsoleHook) WithWriter(w io.Writer) *ConsoleHook {
	h.writer = w
	return h
}

func (h *ConsoleHook) BeforeStatement(ctx context.Context, event *StatementEvent) context.Context {
	return ctx
}

func (h *ConsoleHook) AfterStatement(ctx context.Context, event *StatementEvent) {
	enabled := h.enabled
	verbose := h.verbose
	if env, ok := os.LookupEnv(h.envName); ok {
		enabled = env != "" && env != "0"
		verbose = env == "2"
	}
	if !enabled {
		return
	}
	if !verbose && (event.Err == nil || errors.Is(event.Err, sql.ErrNoRows) || errors.Is(event.Err, sql.ErrTxDone)) {
		return
	}

	args := []interface{}{
		time.Now().Format("2006-01-02 15:04:05.000"),
		color.CyanString("%10s", "[SQL]"),
		fmt.Sprintf("%12s", event.Duration.Round(time.Microsecond)),
		" ", operationColor(event.Operation).Sprint(event.Query),
	}
	if verbose && len(event.Args) > 0 {
		args = append(args, color.New(color.Faint).Sprintf("%v", event.Args))
	}
	if event.Err != nil {
		args = append(args, "\t", color.New(color.BgRed, color.FgWhite).Sprintf(" %T: %v ", event.Err, event.Err))
	}
	_, _ = fmt.Fprintln(h.writer, args...)
}

func operationColor(op string) *color.Color {
	switch op {
	case "SELECT":
		return color.New(color.FgGreen)
	case "INSERT":
		return color.New(color.FgBlue)
	case "UPDATE":
		return color.New(color.FgYellow)
	case "DELETE":
		return color.New(color.FgMagenta)
	default:
		return color.New(color.FgRed)
	}
}

// SlowStatementHook warns through the logger when a statement runs longer than slowTime.
type SlowStatementHook struct {
	slowTime time.Duration
	logger   Logger
}

func NewSlowStatementHook(slowTime time.Duration, logger Logger) *SlowStatementHook {
	return &SlowStatementHook{slowTime: slowTime, logger: logger}
}

func (h *SlowStatementHook) BeforeStatement(ctx context.Context, event *StatementEvent) context.Context {
	return ctx
}

func (h *SlowStatementHook) AfterStatement(ctx context.Context, event *StatementEvent) {
	if event.Err != nil || h.logger == nil {
		return
	}
	if event.Duration > h.slowTime {
		h.logger.Warn("Slow statement detected",
			"duration", event.Duration,
			"slow_threshold", h.slowTime,
			"query", event.Query,
		)
	}
}
