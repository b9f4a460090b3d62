// Package audit confirms structurally that every call of a target method
// carries the expected first and last arguments. It parses the document with
// tree-sitter and only locates call sites; it does not judge overall syntax.
package audit

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/rust"
	"gitlab.com/tozd/go/errors"
)

// Expectation describes the arguments every call of Method should carry. Method
// is matched against the last segment of the callee, so receivers and module
// paths do not matter.
// An empty First or Last is not checked.
type Expectation struct {
	Method string
	First  string
	Last   string
}

// Site is one located method call
type Site struct {
	Method    string
	Line      int
	Arguments []string
}

// Finding is a site, or a missing method, that does not meet its expectation
type Finding struct {
	Site   Site
	Reason string
}

func (f Finding) String() string {
	if f.Site.Line == 0 {
		return fmt.Sprintf("%s: %s", f.Site.Method, f.Reason)
	}
	return fmt.Sprintf("%s at line %d: %s", f.Site.Method, f.Site.Line, f.Reason)
}

// Report holds every located site and every finding, in document order
type Report struct {
	Sites    []Site
	Findings []Finding
}

// Err returns an error listing the findings, or nil when there are none
func (r *Report) Err() error {
	if len(r.Findings) == 0 {
		return nil
	}
	lines := make([]string, 0, len(r.Findings))
	for _, f := range r.Findings {
		lines = append(lines, f.String())
	}
	return errors.Errorf("%d call sites failed the audit: %s", len(r.Findings), strings.Join(lines, "; "))
}

// Auditor locates call sites in Rust source
type Auditor struct {
	parser *sitter.Parser
}

// NewAuditor creates an Auditor with the Rust grammar loaded
func NewAuditor() *Auditor {
	parser := sitter.NewParser()
	parser.SetLanguage(rust.GetLanguage())
	return &Auditor{parser: parser}
}

// Audit parses content and checks every call of each expected method
func (a *Auditor) Audit(ctx context.Context, content []byte, expectations []Expectation) (*Report, error) {
	tree, err := a.parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, errors.Errorf("parsing document: %w", err)
	}
	defer tree.Close()

	byMethod := make(map[string]Expectation, len(expectations))
	for _, exp := range expectations {
		byMethod[exp.Method] = exp
	}

	report := &Report{}
	seen := make(map[string]int, len(expectations))

	walk(tree.RootNode(), func(n *sitter.Node) {
		if n.Type() != "call_expression" {
			return
		}
		name := calleeName(n.ChildByFieldName("function"), content)
		if name == "" {
			return
		}
		exp, ok := byMethod[name]
		if !ok {
			return
		}

		site := Site{
			Method:    exp.Method,
			Line:      int(n.StartPoint().Row) + 1,
			Arguments: arguments(n.ChildByFieldName("arguments"), content),
		}
		report.Sites = append(report.Sites, site)
		seen[exp.Method]++

		if reason := check(site, exp); reason != "" {
			report.Findings = append(report.Findings, Finding{Site: site, Reason: reason})
		}
	})

	for _, exp := range expectations {
		if seen[exp.Method] == 0 {
			report.Findings = append(report.Findings, Finding{
				Site:   Site{Method: exp.Method},
				Reason: "no calls found",
			})
		}
	}

	zerolog.Ctx(ctx).Debug().
		Int("sites", len(report.Sites)).
		Int("findings", len(report.Findings)).
		Msg("audit finished")

	return report, nil
}

func check(site Site, exp Expectation) string {
	if len(site.Arguments) == 0 {
		return "call has no arguments"
	}
	if first := site.Arguments[0]; exp.First != "" && first != exp.First {
		return fmt.Sprintf("first argument is %q, want %q", first, exp.First)
	}
	if last := site.Arguments[len(site.Arguments)-1]; exp.Last != "" && last != exp.Last {
		return fmt.Sprintf("last argument is %q, want %q", last, exp.Last)
	}
	return ""
}

func arguments(args *sitter.Node, content []byte) []string {
	if args == nil {
		return nil
	}
	var out []string
	for i := 0; i < int(args.NamedChildCount()); i++ {
		child := args.NamedChild(i)
		if child.Type() == "line_comment" || child.Type() == "block_comment" {
			continue
		}
		out = append(out, child.Content(content))
	}
	return out
}

// walk visits n and every named descendant, parents first
// calleeName is the last path segment of a call's callee: the field of
// client.create_pool, the name of pool::create_pool, or a bare create_pool.
func calleeName(fn *sitter.Node, content []byte) string {
	if fn == nil {
		return ""
	}
	var name *sitter.Node
	switch fn.Type() {
	case "identifier":
		name = fn
	case "field_expression":
		name = fn.ChildByFieldName("field")
	case "scoped_identifier":
		name = fn.ChildByFieldName("name")
	case "generic_function":
		return calleeName(fn.ChildByFieldName("function"), content)
	}
	if name == nil {
		return ""
	}
	return name.Content(content)
}

func walk(n *sitter.Node, visit func(*sitter.Node)) {
	visit(n)
	for i := 0; i < int(n.NamedChildCount()); i++ {
		walk(n.NamedChild(i), visit)
	}
}
