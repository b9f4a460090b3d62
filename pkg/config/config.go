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

package config

import (
	"fmt"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// 📚 Config represents the complete configuration for one run
type Config struct {
	Target    string `json:"target" yaml:"target" hcl:"target"`                                       // Path or doublestar pattern of the single document
	Lenient   bool   `json:"lenient,omitempty" yaml:"lenient,omitempty" hcl:"lenient,optional"`       // Log rules that did not apply instead of failing
	Backup    bool   `json:"backup,omitempty" yaml:"backup,omitempty" hcl:"backup,optional"`          // Keep a .bak copy of the document
	SkipAudit bool   `json:"skip_audit,omitempty" yaml:"skip_audit,omitempty" hcl:"skip_audit,optional"` // Skip the tree-sitter call-site audit
	Change    Change `json:"change" yaml:"change" hcl:"change,block"`
}

// 🔄 Change describes one parameter threaded through the document
type Change struct {
	Declaration *Declaration    `json:"declaration,omitempty" yaml:"declaration,omitempty" hcl:"declaration,block"`
	ReturnType  *TupleField     `json:"return_type,omitempty" yaml:"return_type,omitempty" hcl:"return_type,block"`
	ReturnValue *TupleField     `json:"return_value,omitempty" yaml:"return_value,omitempty" hcl:"return_value,block"`
	Bindings    *Bindings       `json:"bindings,omitempty" yaml:"bindings,omitempty" hcl:"bindings,block"`
	Calls       []CallInjection `json:"calls,omitempty" yaml:"calls,omitempty" hcl:"call,block"`
}

// 📝 Declaration inserts Line between After and Before
type Declaration struct {
	After  string `json:"after" yaml:"after" hcl:"after"`    // Helper-variable line the new line follows
	Before string `json:"before" yaml:"before" hcl:"before"` // Start of the statement that follows
	Line   string `json:"line" yaml:"line" hcl:"line"`       // New declaration line
}

// 📦 TupleField appends Field to a literal tuple block just before Close
type TupleField struct {
	Block string `json:"block" yaml:"block" hcl:"block"`
	Field string `json:"field" yaml:"field" hcl:"field"`
	Close string `json:"close" yaml:"close" hcl:"close"`
}

// 🔗 Bindings is the table of destructuring shapes that gain Name
type Bindings struct {
	Name     string    `json:"name" yaml:"name" hcl:"name"`    // Name bound in the new last position
	Call     string    `json:"call" yaml:"call" hcl:"call"`    // Call text on the right of " = "
	Patterns []Binding `json:"patterns" yaml:"patterns" hcl:"pattern,block"`
}

// Binding is one destructuring shape. New is derived from Old when empty.
type Binding struct {
	Old string `json:"old" yaml:"old" hcl:"old"`
	New string `json:"new,omitempty" yaml:"new,omitempty" hcl:"new,optional"`
}

// 🎯 CallInjection adds arguments to every call of one function
type CallInjection struct {
	Name     string    `json:"name" yaml:"name" hcl:"name,label"`
	Call     string    `json:"call" yaml:"call" hcl:"call"`                                     // Callee text, e.g. client.create_pool
	Binding  string    `json:"binding,omitempty" yaml:"binding,omitempty" hcl:"binding,optional"` // Result-binding prefix of bound calls
	Leading  *Leading  `json:"leading,omitempty" yaml:"leading,omitempty" hcl:"leading,block"`
	Trailing *Trailing `json:"trailing,omitempty" yaml:"trailing,omitempty" hcl:"trailing,block"`
}

// Leading inserts Argument after the opening paren when Marker follows it
type Leading struct {
	Marker   string `json:"marker" yaml:"marker" hcl:"marker"`
	Argument string `json:"argument" yaml:"argument" hcl:"argument"`
}

// Trailing inserts Argument after the first of Markers found in the call
type Trailing struct {
	Markers  []string `json:"markers" yaml:"markers" hcl:"markers"`
	Argument string   `json:"argument" yaml:"argument" hcl:"argument"`
}

// 🔍 Validate checks if the configuration is valid
func (cfg *Config) Validate() error {
	if cfg.Target == "" {
		return errors.Errorf("target is required")
	}
	return cfg.Change.Validate()
}

// Validate checks that every part of the change is usable
func (c *Change) Validate() error {
	if c.Declaration == nil && c.ReturnType == nil && c.ReturnValue == nil && c.Bindings == nil && len(c.Calls) == 0 {
		return errors.Errorf("change is empty")
	}

	if d := c.Declaration; d != nil {
		if d.After == "" || d.Before == "" || d.Line == "" {
			return errors.Errorf("declaration: after, before and line are required")
		}
	}

	tuples := []struct {
		name  string
		field *TupleField
	}{
		{"return_type", c.ReturnType},
		{"return_value", c.ReturnValue},
	}
	for _, tuple := range tuples {
		t := tuple.field
		if t == nil {
			continue
		}
		if t.Block == "" || t.Field == "" || t.Close == "" {
			return errors.Errorf("%s: block, field and close are required", tuple.name)
		}
		if !strings.HasSuffix(t.Block, t.Close) {
			return errors.Errorf("%s: block does not end with close %q", tuple.name, t.Close)
		}
	}

	if b := c.Bindings; b != nil {
		if b.Name == "" || b.Call == "" {
			return errors.Errorf("bindings: name and call are required")
		}
		if len(b.Patterns) == 0 {
			return errors.Errorf("bindings: at least one pattern is required")
		}
		for i, p := range b.Patterns {
			if p.Old == "" {
				return errors.Errorf("bindings: pattern %d: old is required", i)
			}
			if p.New == "" && !strings.HasSuffix(p.Old, ")") {
				return errors.Errorf("bindings: pattern %d: cannot derive new from %q, it must end with )", i, p.Old)
			}
		}
	}

	seen := make(map[string]bool, len(c.Calls))
	for i, call := range c.Calls {
		if call.Name == "" {
			return errors.Errorf("calls: call %d: name is required", i)
		}
		if seen[call.Name] {
			return errors.Errorf("calls: duplicate name %q", call.Name)
		}
		seen[call.Name] = true
		if call.Call == "" {
			return errors.Errorf("calls: %s: call is required", call.Name)
		}
		if call.Leading == nil && call.Trailing == nil {
			return errors.Errorf("calls: %s: leading or trailing is required", call.Name)
		}
		if l := call.Leading; l != nil && (l.Marker == "" || l.Argument == "") {
			return errors.Errorf("calls: %s: leading marker and argument are required", call.Name)
		}
		if tr := call.Trailing; tr != nil && (len(tr.Markers) == 0 || tr.Argument == "") {
			return errors.Errorf("calls: %s: trailing markers and argument are required", call.Name)
		}
	}

	return nil
}

// 📝 String returns a string representation of the config
func (cfg *Config) String() string {
	mode := "strict"
	if cfg.Lenient {
		mode = "lenient"
	}
	return fmt.Sprintf("%s [%s, %d calls]", cfg.Target, mode, len(cfg.Change.Calls))
}
