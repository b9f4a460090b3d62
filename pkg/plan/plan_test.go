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

package plan

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/argthread/pkg/audit"
	"github.com/walteh/argthread/pkg/config"
	"github.com/walteh/argthread/pkg/rewrite"
)

func readFixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err, "reading fixture should succeed")
	return string(data)
}

func run(t *testing.T, doc string, rules []rewrite.Rule) *rewrite.Result {
	t.Helper()
	ctx := zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background())
	rw := rewrite.NewRewriter()
	require.NoError(t, rw.ValidateRules(rules), "rules should be valid")
	res, err := rw.Rewrite(ctx, strings.NewReader(doc), rules)
	require.NoError(t, err, "rewrite should succeed")
	return res
}

func ruleNamed(t *testing.T, rules []rewrite.Rule, name string) rewrite.Rule {
	t.Helper()
	for _, r := range rules {
		if r.Name() == name {
			return r
		}
	}
	t.Fatalf("no rule named %q", name)
	return nil
}

func TestBuild(t *testing.T) {
	rules, err := Build(config.Default().Change)
	require.NoError(t, err, "building the default plan should succeed")

	var names []string
	for _, r := range rules {
		names = append(names, r.Name())
	}
	assert.Equal(t, []string{
		"declaration",
		"return-type",
		"return-value",
		"bind/1",
		"bind/2",
		"bind/3",
		"bind/4",
		"bind/5",
		"call/create_pool/bound",
		"call/create_pool/unbound",
	}, names, "rules should follow the pass order")

	assert.Equal(t, rewrite.KindLiteral, rules[0].Kind())
	assert.Equal(t, rewrite.KindBlock, rules[len(rules)-1].Kind())
	assert.NoError(t, rewrite.NewRewriter().ValidateRules(rules), "default rules should validate")
}

func TestBuild_UnboundOnly(t *testing.T) {
	rules, err := Build(config.Change{
		Calls: []config.CallInjection{
			{Name: "f", Call: "f", Trailing: &config.Trailing{Markers: []string{"x"}, Argument: ", y"}},
		},
	})
	require.NoError(t, err)
	require.Len(t, rules, 1, "no binding means only the unbound pass")
	assert.Equal(t, "call/f/unbound", rules[0].Name())
}

func TestBuild_Empty(t *testing.T) {
	_, err := Build(config.Change{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no rules")
}

func TestDeclaration_InsertsOneLine(t *testing.T) {
	before := readFixture(t, "before.rs")
	rules, err := Build(config.Default().Change)
	require.NoError(t, err)

	res := run(t, before, []rewrite.Rule{ruleNamed(t, rules, "declaration")})

	assert.Equal(t, strings.Count(before, "\n")+1, strings.Count(string(res.ModifiedContent), "\n"), "exactly one line should be added")
	assert.Contains(t, string(res.ModifiedContent),
		"    let operator = Address::generate(env);\n    let creator = Address::generate(env);\n\n    ac_client.grant_role",
		"new line should sit between the anchor and the next statement")

	again := run(t, string(res.ModifiedContent), []rewrite.Rule{ruleNamed(t, rules, "declaration")})
	assert.False(t, again.WasModified, "second run should not insert again")
	assert.Equal(t, rewrite.OutcomeAlreadyApplied, again.Reports[0].Outcome)
}

// fieldCount counts the lines between the opening and closing lines of a tuple block.
func fieldCount(block string) int {
	return strings.Count(block, "\n") - 1
}

func TestTupleWidening(t *testing.T) {
	before := readFixture(t, "before.rs")
	change := config.Default().Change
	rules, err := Build(change)
	require.NoError(t, err)

	res := run(t, before, []rewrite.Rule{
		ruleNamed(t, rules, "return-type"),
		ruleNamed(t, rules, "return-value"),
	})

	for _, rep := range res.Reports {
		assert.Equal(t, rewrite.OutcomeApplied, rep.Outcome, "%s should apply", rep.Rule)
		assert.Equal(t, 1, rep.Count, "%s should apply once", rep.Rule)
	}

	widenedType := strings.TrimSuffix(change.ReturnType.Block, change.ReturnType.Close) + change.ReturnType.Field + change.ReturnType.Close
	widenedValue := strings.TrimSuffix(change.ReturnValue.Block, change.ReturnValue.Close) + change.ReturnValue.Field + change.ReturnValue.Close
	require.Contains(t, string(res.ModifiedContent), widenedType)
	require.Contains(t, string(res.ModifiedContent), widenedValue)

	assert.Equal(t, fieldCount(change.ReturnType.Block), fieldCount(change.ReturnValue.Block), "fixture starts with matching arity")
	assert.Equal(t, fieldCount(change.ReturnType.Block)+1, fieldCount(widenedType), "type gains one field")
	assert.Equal(t, fieldCount(widenedType), fieldCount(widenedValue), "type and value arity should match")
	assert.True(t, strings.HasSuffix(widenedValue, "        creator,\n    )"), "new field should be last")
}

func TestBindings(t *testing.T) {
	change := config.Default().Change
	rules, err := Build(config.Change{Bindings: change.Bindings})
	require.NoError(t, err)

	unlisted := "    let (ac_client, client, token_address, token, token_admin_client, treasury, operator) = setup(&env);\n"
	var doc strings.Builder
	for _, p := range change.Bindings.Patterns {
		doc.WriteString("    " + p.Old + " = setup(&env);\n")
	}
	doc.WriteString(unlisted)

	res := run(t, doc.String(), rules)

	lines := strings.SplitAfter(string(res.ModifiedContent), "\n")
	for i, p := range change.Bindings.Patterns {
		want := "    " + strings.TrimSuffix(p.Old, ")") + ", creator) = setup(&env);\n"
		assert.Equal(t, want, lines[i], "shape %d should gain creator", i+1)
		assert.Equal(t, strings.Count(p.Old, "_"), strings.Count(lines[i], "_"), "placeholders should be kept")
	}
	assert.Equal(t, unlisted, lines[len(change.Bindings.Patterns)], "shapes outside the table are untouched")

	for _, rep := range res.Reports {
		assert.Equal(t, rewrite.OutcomeApplied, rep.Outcome, "%s should apply", rep.Rule)
	}
	assert.NoError(t, res.Verify())
}

func TestWiden(t *testing.T) {
	tests := []struct {
		name    string
		binding config.Binding
		want    string
	}{
		{
			name:    "derived",
			binding: config.Binding{Old: "let (_, a)"},
			want:    "let (_, a, c)",
		},
		{
			name:    "explicit",
			binding: config.Binding{Old: "let (_, a)", New: "let (_, a, _c)"},
			want:    "let (_, a, _c)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Widen(tt.binding, "c"))
		})
	}
}

func TestInjector(t *testing.T) {
	call := config.CallInjection{
		Name:     "f",
		Call:     "c.f",
		Leading:  &config.Leading{Marker: "\n    &1,", Argument: "\n    &who,"},
		Trailing: &config.Trailing{Markers: []string{"\"a\",\n    ),", "\"b\",\n    ),"}, Argument: "\n    &0,"},
	}

	tests := []struct {
		name         string
		block        string
		want         string
		wantComplete bool
	}{
		{
			name:         "first_marker",
			block:        "c.f(\n    &1,\n    s(\n    \"a\",\n    ),\n);",
			want:         "c.f(\n    &who,\n    &1,\n    s(\n    \"a\",\n    ),\n    &0,\n);",
			wantComplete: true,
		},
		{
			name:         "second_marker",
			block:        "c.f(\n    &1,\n    s(\n    \"b\",\n    ),\n);",
			want:         "c.f(\n    &who,\n    &1,\n    s(\n    \"b\",\n    ),\n    &0,\n);",
			wantComplete: true,
		},
		{
			name:         "already_injected",
			block:        "c.f(\n    &who,\n    &1,\n    s(\n    \"a\",\n    ),\n    &0,\n);",
			want:         "c.f(\n    &who,\n    &1,\n    s(\n    \"a\",\n    ),\n    &0,\n);",
			wantComplete: true,
		},
		{
			name:         "trailing_only_missing",
			block:        "c.f(\n    &who,\n    &1,\n    s(\n    \"a\",\n    ),\n);",
			want:         "c.f(\n    &who,\n    &1,\n    s(\n    \"a\",\n    ),\n    &0,\n);",
			wantComplete: true,
		},
		{
			name:         "unknown_first_argument",
			block:        "c.f(\n    &2,\n    s(\n    \"a\",\n    ),\n);",
			want:         "c.f(\n    &2,\n    s(\n    \"a\",\n    ),\n    &0,\n);",
			wantComplete: false,
		},
		{
			name:         "unknown_closing",
			block:        "c.f(\n    &1,\n    s(\n    \"z\",\n    ),\n);",
			want:         "c.f(\n    &who,\n    &1,\n    s(\n    \"z\",\n    ),\n);",
			wantComplete: false,
		},
		{
			name:         "leading_prefix_collision",
			block:        "c.f(\n    &1,\n    &who_fee,\n    s(\n    \"a\",\n    ),\n);",
			want:         "c.f(\n    &who,\n    &1,\n    &who_fee,\n    s(\n    \"a\",\n    ),\n    &0,\n);",
			wantComplete: true,
		},
		{
			name:         "trailing_prefix_collision",
			block:        "c.f(\n    &who,\n    &1,\n    s(\n    \"a\",\n    ),\n    &0u32,\n);",
			want:         "c.f(\n    &who,\n    &1,\n    s(\n    \"a\",\n    ),\n    &0,\n    &0u32,\n);",
			wantComplete: true,
		},
		{
			name:         "doubled_reference_is_not_the_argument",
			block:        "c.f(\n    &1,\n    &&who,\n    s(\n    \"b\",\n    ),\n);",
			want:         "c.f(\n    &who,\n    &1,\n    &&who,\n    s(\n    \"b\",\n    ),\n    &0,\n);",
			wantComplete: true,
		},
	}

	inject := Injector(call)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, complete := inject(tt.block)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantComplete, complete)

			again, _ := inject(got)
			assert.Equal(t, got, again, "injection should be idempotent")
		})
	}
}

const threeCalls = `fn a() {
    let pool_id = client.create_pool(
        &100000u64,
        &String::from_str(
            &env,
            "ipfs://metadata",
        ),
    );
}

fn b() {
    let pool_id = client.create_pool(
        &100000u64,
        &String::from_str(
            &env,
            "ipfs://metadata",
        ),
    );
}

fn c() {
    client.create_pool(
        &100000u64,
        &String::from_str(
            &env,
            "ipfs://metadata",
        ),
    );
}
`

func TestCallInjection_Coverage(t *testing.T) {
	change := config.Default().Change
	rules, err := Build(config.Change{Calls: change.Calls})
	require.NoError(t, err)
	require.Len(t, rules, 2)

	res := run(t, threeCalls, rules)

	assert.Equal(t, 3, strings.Count(string(res.ModifiedContent), "(\n        &creator,\n        &100000u64,"), "each call gains the leading argument once")
	assert.Equal(t, 3, strings.Count(string(res.ModifiedContent), "        ),\n        &0i128,\n    );"), "each call gains the trailing argument once")
	assert.Equal(t, 3, strings.Count(string(res.ModifiedContent), "&creator,"))
	assert.Equal(t, 3, strings.Count(string(res.ModifiedContent), "&0i128,"))

	bound, unbound := res.Reports[0], res.Reports[1]
	assert.Equal(t, rewrite.OutcomeApplied, bound.Outcome)
	assert.Equal(t, 2, bound.Count, "bound pass rewrites the two bound calls")
	assert.Equal(t, rewrite.OutcomeApplied, unbound.Outcome)
	assert.Equal(t, 1, unbound.Count, "unbound pass rewrites the side-effect call")
	assert.Equal(t, 2, unbound.Guarded, "unbound pass skips the bound calls")
	assert.Zero(t, unbound.Missed)
	assert.NoError(t, res.Verify())

	again := run(t, string(res.ModifiedContent), rules)
	assert.False(t, again.WasModified, "rerun should leave the text unchanged")
	for _, rep := range again.Reports {
		assert.Equal(t, rewrite.OutcomeAlreadyApplied, rep.Outcome, "%s should be guarded on rerun", rep.Rule)
	}
}

func TestInjector_ArgumentNamePrefix(t *testing.T) {
	inject := Injector(config.Default().Change.Calls[0])

	block := "client.create_pool(\n        &100000u64,\n        &creator_fee,\n        &String::from_str(\n            &env,\n            \"ipfs://metadata\",\n        ),\n    );"
	got, complete := inject(block)

	assert.True(t, complete, "both arguments should be injected")
	assert.Contains(t, got, "(\n        &creator,\n        &100000u64,", "a longer argument sharing the name should not count as the creator")
	assert.Contains(t, got, "\"ipfs://metadata\",\n        ),\n        &0i128,\n    );")
	assert.Equal(t, 1, strings.Count(got, "&creator,"))
}

func TestCallInjection_OtherReceiver(t *testing.T) {
	change := config.Default().Change
	rules, err := Build(config.Change{Calls: change.Calls})
	require.NoError(t, err)

	doc := strings.ReplaceAll(threeCalls, "client.create_pool(", "other_client.create_pool(")
	res := run(t, doc, rules)

	assert.False(t, res.WasModified, "calls on another receiver should be left alone")
	assert.Equal(t, doc, string(res.ModifiedContent))
	for _, rep := range res.Reports {
		assert.Equal(t, rewrite.OutcomeNoMatch, rep.Outcome, "%s", rep.Rule)
	}
}

func TestCallInjection_MissedBlockFailsVerify(t *testing.T) {
	change := config.Default().Change
	rules, err := Build(config.Change{Calls: change.Calls})
	require.NoError(t, err)

	doc := "client.create_pool(\n        &7u64,\n        &x,\n    );\n"
	res := run(t, doc, rules)

	assert.False(t, res.WasModified)
	assert.Equal(t, 1, res.Reports[1].Missed)
	err = res.Verify()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "call/create_pool/unbound")
	assert.Contains(t, err.Error(), "call/create_pool/bound")
}

func TestEndToEnd(t *testing.T) {
	before := readFixture(t, "before.rs")
	after := readFixture(t, "after.rs")

	rules, err := Build(config.Default().Change)
	require.NoError(t, err)

	first := run(t, before, rules)
	if diff := cmp.Diff(after, string(first.ModifiedContent)); diff != "" {
		t.Fatalf("rewritten fixture mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, first.WasModified)
	assert.NoError(t, first.Verify(), "every rule should apply on the original")

	second := run(t, string(first.ModifiedContent), rules)
	if diff := cmp.Diff(string(first.ModifiedContent), string(second.ModifiedContent)); diff != "" {
		t.Fatalf("second run changed the document (-first +second):\n%s", diff)
	}
	assert.False(t, second.WasModified)
	assert.Zero(t, second.ReplacementCount)
	assert.NoError(t, second.Verify(), "every rule should report already-applied on rerun")
	for _, rep := range second.Reports {
		assert.Equal(t, rewrite.OutcomeAlreadyApplied, rep.Outcome, "%s", rep.Rule)
	}
}

func TestExpectations(t *testing.T) {
	got := Expectations(config.Default().Change)
	assert.Equal(t, []audit.Expectation{
		{Method: "create_pool", First: "&creator", Last: "&0i128"},
	}, got)

	bare := Expectations(config.Change{Calls: []config.CallInjection{
		{Name: "f", Call: "f", Trailing: &config.Trailing{Markers: []string{")"}, Argument: " x,"}},
	}})
	assert.Equal(t, []audit.Expectation{{Method: "f", Last: "x"}}, bare)

	scoped := Expectations(config.Change{Calls: []config.CallInjection{
		{Name: "make", Call: "pool::make_pool", Leading: &config.Leading{Marker: "&a,", Argument: "&who, "}},
	}})
	assert.Equal(t, []audit.Expectation{{Method: "make_pool", First: "&who"}}, scoped)
}
