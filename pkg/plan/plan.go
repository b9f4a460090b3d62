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

// Package plan turns a declarative config.Change into the ordered rules the
// rewriter applies, and into the call-site expectations the audit checks.
package plan

import (
	"fmt"
	"regexp"
	"strings"

	"gitlab.com/tozd/go/errors"

	"github.com/walteh/argthread/pkg/audit"
	"github.com/walteh/argthread/pkg/config"
	"github.com/walteh/argthread/pkg/rewrite"
)

// callArgs matches the argument list of one call up to its terminating ");".
// [^;] also matches newlines, so calls spanning many lines are one block.
const callArgs = `\([^;]+?\);`

// 🏗️ Build returns the ordered rules for change. Each rule consumes the output
// of the one before it.
func Build(change config.Change) ([]rewrite.Rule, error) {
	var rules []rewrite.Rule

	if d := change.Declaration; d != nil {
		rules = append(rules, &rewrite.LiteralRule{
			RuleName: "declaration",
			FromText: d.After + d.Before,
			ToText:   d.After + d.Line + d.Before,
		})
	}

	if t := change.ReturnType; t != nil {
		rules = append(rules, tupleRule("return-type", t))
	}
	if t := change.ReturnValue; t != nil {
		rules = append(rules, tupleRule("return-value", t))
	}

	if b := change.Bindings; b != nil {
		for i, p := range b.Patterns {
			rules = append(rules, &rewrite.LiteralRule{
				RuleName: fmt.Sprintf("bind/%d", i+1),
				FromText: p.Old + " = " + b.Call,
				ToText:   Widen(p, b.Name) + " = " + b.Call,
			})
		}
	}

	for _, call := range change.Calls {
		inject := Injector(call)
		if call.Binding != "" {
			rules = append(rules, &rewrite.BlockRule{
				RuleName: "call/" + call.Name + "/bound",
				Pattern:  regexp.MustCompile(wordStart(call.Binding) + regexp.QuoteMeta(call.Binding) + regexp.QuoteMeta(call.Call) + callArgs),
				Rewrite:  inject,
			})
		}
		rules = append(rules, &rewrite.BlockRule{
			RuleName: "call/" + call.Name + "/unbound",
			Pattern:  regexp.MustCompile(wordStart(call.Call) + regexp.QuoteMeta(call.Call) + callArgs),
			Rewrite:  inject,
		})
	}

	if len(rules) == 0 {
		return nil, errors.New("change produces no rules")
	}

	return rules, nil
}

// wordStart anchors text at a word boundary when it starts with a word
// character, so client.f does not match inside other_client.f.
func wordStart(text string) string {
	if text == "" {
		return ""
	}
	c := text[0]
	if c == '_' || ('0' <= c && c <= '9') || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') {
		return `\b`
	}
	return ""
}

func tupleRule(name string, t *config.TupleField) *rewrite.LiteralRule {
	return &rewrite.LiteralRule{
		RuleName: name,
		FromText: t.Block,
		ToText:   strings.TrimSuffix(t.Block, t.Close) + t.Field + t.Close,
	}
}

// Widen returns the destructuring pattern that binds name in the new last
// position. An explicit New wins; otherwise name is appended inside the
// closing parenthesis of Old.
func Widen(b config.Binding, name string) string {
	if b.New != "" {
		return b.New
	}
	return strings.TrimSuffix(b.Old, ")") + ", " + name + ")"
}

// 🎯 Injector returns the block rewrite for one call injection. A block is
// complete once every configured argument is present in it as a whole
// argument.
func Injector(call config.CallInjection) rewrite.BlockFunc {
	return func(block string) (string, bool) {
		complete := true

		if l := call.Leading; l != nil {
			if !hasArgument(block, l.Argument) {
				block = strings.Replace(block, "("+l.Marker, "("+l.Argument+l.Marker, 1)
			}
			complete = complete && hasArgument(block, l.Argument)
		}

		if t := call.Trailing; t != nil {
			if !hasArgument(block, t.Argument) {
				for _, marker := range t.Markers {
					if strings.Contains(block, marker) {
						block = strings.Replace(block, marker, marker+t.Argument, 1)
						break
					}
				}
			}
			complete = complete && hasArgument(block, t.Argument)
		}

		return block, complete
	}
}

// hasArgument reports whether argument already sits in block as a whole
// argument. The trimmed text keeps its trailing separator, and it must start
// after an opening paren, a comma or whitespace, so &creator does not match
// &creator_fee or &&creator.
func hasArgument(block, argument string) bool {
	want := strings.TrimSpace(argument)
	if want == "" {
		return false
	}
	for from := 0; ; {
		i := strings.Index(block[from:], want)
		if i < 0 {
			return false
		}
		i += from
		end := i + len(want)
		startOK := i == 0 || strings.ContainsRune("(, \t\n", rune(block[i-1]))
		endOK := strings.HasSuffix(want, ",") || end == len(block) || strings.ContainsRune("), \t\n", rune(block[end]))
		if startOK && endOK {
			return true
		}
		from = i + 1
	}
}

// bareArgument is the argument text without surrounding space or separator
func bareArgument(argument string) string {
	return strings.TrimSuffix(strings.TrimSpace(argument), ",")
}

// Expectations derives what the audit should find at every call site after the
// change is applied.
func Expectations(change config.Change) []audit.Expectation {
	var out []audit.Expectation
	for _, call := range change.Calls {
		exp := audit.Expectation{Method: lastSegment(call.Call)}
		if call.Leading != nil {
			exp.First = bareArgument(call.Leading.Argument)
		}
		if call.Trailing != nil {
			exp.Last = bareArgument(call.Trailing.Argument)
		}
		out = append(out, exp)
	}
	return out
}

// lastSegment is the callee name without its receiver or module path, so
// client.create_pool, pool::create_pool and create_pool all name create_pool
func lastSegment(callee string) string {
	if i := strings.LastIndex(callee, "."); i >= 0 {
		callee = callee[i+1:]
	}
	if i := strings.LastIndex(callee, "::"); i >= 0 {
		callee = callee[i+2:]
	}
	return callee
}
