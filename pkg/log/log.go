// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/walteh/arcpatch/pkg/model"
)

// 🎨 Display configuration
const (
	outcomeIndent = 4  // spaces to indent outcome entries
	opWidth       = 24 // Width for operation id
	targetWidth   = 10 // Width for target unit
	statusWidth   = 22 // Width for status or reason
)

// 📦 RunOperation describes one input being patched
type RunOperation struct {
	PatchSet string // Patch set id
	Input    string // Input path
	Output   string // Output path, empty for dry runs
}

// 🎯 Logger handles structured logging with console output
type Logger struct {
	zlog     zerolog.Logger
	console  io.Writer
	mu       sync.Mutex
	current  *RunOperation
	outcomes []model.Outcome
}

// 🏭 New creates a new logger writing events to zlog
func New(console io.Writer, zlog zerolog.Logger) *Logger {
	return &Logger{
		zlog:    zlog,
		console: console,
		mu:      sync.Mutex{},
	}
}

// 🔑 contextKey is the type for context values
type contextKey struct{}

// 🎯 FromContext gets the logger from context
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(contextKey{}).(*Logger)
	if !ok {
		panic("logger not found in context")
	}
	return logger
}

// 🎯 NewContext adds the logger to context
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// 📝 formatOutcome formats a report entry for display
func (l *Logger) formatOutcome(o model.Outcome) string {
	// Determine symbol and color
	var symbol rune
	var symbolColor color.Attribute
	switch {
	case o.Status == model.StatusFailed:
		symbol = '✗'
		symbolColor = color.FgRed
	case o.Status == model.StatusApplied:
		symbol = '✓'
		symbolColor = color.FgGreen
	case o.Reason.Category() == model.CategoryNoop:
		symbol = '•'
		symbolColor = color.FgCyan
	default:
		symbol = '-'
		symbolColor = color.FgYellow
	}

	label := string(o.Status)
	if o.Reason != "" {
		label = string(o.Reason)
	}

	line := fmt.Sprintf("%s%s %s %s %s",
		fmt.Sprintf("%*s", outcomeIndent, ""),
		color.New(symbolColor).Sprint(string(symbol)),
		fmt.Sprintf("%-*s", opWidth, o.OpID),
		color.New(color.FgCyan).Sprint(fmt.Sprintf("%-*s", targetWidth, o.Target)),
		fmt.Sprintf("%-*s", statusWidth, label))

	if o.Detail != "" {
		line += " " + color.New(color.Faint).Sprint(o.Detail)
	}
	return line
}

// 📝 LogOutcome logs a report entry
func (l *Logger) LogOutcome(ctx context.Context, o model.Outcome) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.outcomes = append(l.outcomes, o)

	fmt.Fprintln(l.console, l.formatOutcome(o))

	level := zerolog.InfoLevel
	if o.Status == model.StatusFailed {
		level = zerolog.WarnLevel
	}
	l.zlog.WithLevel(level).
		Int("ordinal", o.Ordinal).
		Str("op", o.OpID).
		Str("target", o.Target).
		Str("kind", string(o.Kind)).
		Str("status", string(o.Status)).
		Str("reason", string(o.Reason)).
		Str("category", string(o.Reason.Category())).
		Str("detail", o.Detail).
		Msg("operation outcome")
}

// 📝 LogReport logs every entry of a report in ordinal order
func (l *Logger) LogReport(ctx context.Context, r *model.Report) {
	for _, o := range r.Outcomes {
		l.LogOutcome(ctx, o)
	}
}

// 📝 StartRun starts logging the run over one input
func (l *Logger) StartRun(ctx context.Context, op RunOperation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.current = &op
	l.outcomes = nil

	dest := op.Output
	if dest == "" {
		dest = "dry run"
	}

	fmt.Fprintf(l.console, "[patching %s]\n",
		color.New(color.FgCyan).Sprint(op.Input))

	fmt.Fprintf(l.console, "%s %s %s %s\n",
		color.New(color.FgMagenta).Sprint("◆"),
		color.New(color.Bold).Sprint(op.PatchSet),
		color.New(color.Faint).Sprint("→"),
		color.New(color.FgYellow).Sprint(dest))

	l.zlog.Info().
		Str("patch_set", op.PatchSet).
		Str("input", op.Input).
		Str("output", op.Output).
		Msg("starting run")
}

// 📝 EndRun prints the summary of the current run
func (l *Logger) EndRun(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.current == nil {
		return
	}

	summary := (&model.Report{Outcomes: l.outcomes}).Summary()

	fmt.Fprintf(l.console, "%s %s %s %s\n",
		fmt.Sprintf("%*s", outcomeIndent, ""),
		color.New(color.FgGreen).Sprintf("%d applied", summary.Applied),
		color.New(color.FgYellow).Sprintf("%d skipped", summary.Skipped),
		color.New(color.FgRed).Sprintf("%d failed", summary.Failed))

	l.zlog.Info().
		Str("input", l.current.Input).
		Int("applied", summary.Applied).
		Int("skipped", summary.Skipped).
		Int("failed", summary.Failed).
		Msg("run complete")

	l.current = nil
	l.outcomes = nil
}

// 📝 LogNewline logs a newline
func (l *Logger) LogNewline() {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.console)
}

// 📝 Header logs a header
func (l *Logger) Header(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	name := color.New(color.Bold, color.FgCyan).Sprint("arcpatch")
	fmt.Fprintf(l.console, "\n%s %s\n\n", name, color.New(color.Faint).Sprint("• "+msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Success logs a success message
func (l *Logger) Success(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "✅ %s\n", color.New(color.FgGreen).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Warning logs a warning message
func (l *Logger) Warning(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "⚠️  %s\n", color.New(color.FgYellow).Sprint(msg))
	l.zlog.Warn().Msg(msg)
}

// 📝 Error logs an error message
func (l *Logger) Error(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "❌ %s\n", color.New(color.FgRed).Sprint(msg))
	l.zlog.Error().Msg(msg)
}

// 📝 Info logs an info message
func (l *Logger) Info(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "ℹ️  %s\n", color.New(color.FgCyan).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.Info(fmt.Sprintf(format, args...))
}

// 📝 Warningf logs a formatted warning message
func (l *Logger) Warningf(format string, args ...interface{}) {
	l.Warning(fmt.Sprintf(format, args...))
}

// 📝 Errorf logs a formatted error message
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.Error(fmt.Sprintf(format, args...))
}

// 📝 Successf logs a formatted success message
func (l *Logger) Successf(format string, args ...interface{}) {
	l.Success(fmt.Sprintf(format, args...))
}
