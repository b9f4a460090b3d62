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
)

// 🎨 Display configuration
const (
	ruleIndent  = 4  // spaces to indent rule entries
	nameWidth   = 35 // Base width for rule name
	kindWidth   = 15 // Width for rule kind
	statusWidth = 15 // Width for status text
)

// 🎯 RuleOperation represents one applied rule for logging
type RuleOperation struct {
	Name             string // Rule name
	Kind             string // Rule kind (literal/block)
	Status           string // Outcome text
	IsApplied        bool   // Whether the rule changed the document
	IsAlreadyApplied bool   // Whether the rule found its edit already in place
	IsMissed         bool   // Whether the rule left matches without the edit
	Replacements     int    // Number of replacements made
}

// 📄 DocumentOperation represents a rewrite of one document for logging
type DocumentOperation struct {
	Path   string // Document path
	Config string // Config summary
	DryRun bool   // Whether the document will be left untouched
}

// DiffLine is one line of a rendered diff. Op is '+', '-' or ' '.
type DiffLine struct {
	Op   rune
	Text string
}

// 🎯 Logger handles structured logging with console output
type Logger struct {
	zlog       zerolog.Logger
	console    io.Writer
	mu         sync.Mutex
	currentDoc *DocumentOperation
	rules      []RuleOperation
}

// 🏭 New creates a new logger
func New(console io.Writer, level zerolog.Level) *Logger {
	zlog := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger().Level(level)
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

// 📝 formatRuleOperation formats a rule operation for display
func (l *Logger) formatRuleOperation(op RuleOperation) string {
	var symbol rune
	var symbolColor color.Attribute
	switch {
	case op.IsMissed:
		symbol = '✗'
		symbolColor = color.FgRed
	case op.IsApplied:
		symbol = '✓'
		symbolColor = color.FgGreen
	case op.IsAlreadyApplied:
		symbol = '•'
		symbolColor = color.FgCyan
	default:
		symbol = '-'
		symbolColor = color.FgYellow
	}

	var kindColor color.Attribute
	switch op.Kind {
	case "literal":
		kindColor = color.FgCyan
	default:
		kindColor = color.FgBlue
	}

	return fmt.Sprintf("%s%s %s %s %s",
		fmt.Sprintf("%*s", ruleIndent, ""),
		color.New(symbolColor).Sprint(string(symbol)),
		fmt.Sprintf("%-*s", nameWidth, op.Name),
		color.New(kindColor).Sprint(fmt.Sprintf("%-*s", kindWidth, op.Kind)),
		fmt.Sprintf("%-*s", statusWidth, op.Status))
}

// 📝 LogRule logs the outcome of one rule
func (l *Logger) LogRule(ctx context.Context, op RuleOperation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.rules = append(l.rules, op)

	fmt.Fprintln(l.console, l.formatRuleOperation(op))

	l.zlog.Info().
		Str("rule", op.Name).
		Str("kind", op.Kind).
		Str("status", op.Status).
		Bool("is_applied", op.IsApplied).
		Bool("is_already_applied", op.IsAlreadyApplied).
		Bool("is_missed", op.IsMissed).
		Int("replacements", op.Replacements).
		Msg("rule operation")
}

// 📝 StartDocument starts logging the rewrite of one document
func (l *Logger) StartDocument(ctx context.Context, op DocumentOperation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.currentDoc = &op
	l.rules = nil

	verb := "rewriting"
	if op.DryRun {
		verb = "checking"
	}
	fmt.Fprintf(l.console, "[%s %s]\n", verb,
		color.New(color.FgCyan).Sprint(op.Path))

	fmt.Fprintf(l.console, "%s %s %s %s\n",
		color.New(color.FgMagenta).Sprint("◆"),
		color.New(color.Bold).Sprint(op.Config),
		color.New(color.Faint).Sprint("•"),
		color.New(color.FgYellow).Sprint(mode(op.DryRun)))

	l.zlog.Info().
		Str("path", op.Path).
		Str("config", op.Config).
		Bool("dry_run", op.DryRun).
		Msg("starting document operation")
}

func mode(dryRun bool) string {
	if dryRun {
		return "dry run"
	}
	return "write"
}

// 📝 EndDocument ends the current document operation
func (l *Logger) EndDocument(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.currentDoc == nil {
		return
	}

	applied := 0
	for _, r := range l.rules {
		if r.IsApplied {
			applied++
		}
	}

	l.zlog.Info().
		Str("path", l.currentDoc.Path).
		Int("rules", len(l.rules)).
		Int("applied", applied).
		Msg("document operation complete")

	l.currentDoc = nil
	l.rules = nil
}

// 📝 Diff prints the changed lines of a document
func (l *Logger) Diff(path string, lines []DiffLine) {
	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprintf(l.console, "%s\n", color.New(color.Bold).Sprint("--- "+path))
	fmt.Fprintf(l.console, "%s\n", color.New(color.Bold).Sprint("+++ "+path+" (rewritten)"))
	for _, line := range lines {
		text := string(line.Op) + " " + line.Text
		switch line.Op {
		case '+':
			text = color.New(color.FgGreen).Sprint(text)
		case '-':
			text = color.New(color.FgRed).Sprint(text)
		default:
			text = color.New(color.Faint).Sprint(text)
		}
		fmt.Fprintln(l.console, text)
	}
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
	nameText := color.New(color.Bold, color.FgCyan).Sprint("argthread")
	fmt.Fprintf(l.console, "\n%s %s\n\n", nameText, color.New(color.Faint).Sprint("• "+msg))
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
