package rewrite

import (
	"context"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// KindLiteral marks rules that replace one exact fragment
const KindLiteral = "literal"

// LiteralRule replaces every occurrence of FromText with ToText
type LiteralRule struct {
	// RuleName identifies the rule
	RuleName string

	// FromText is the exact fragment to replace
	FromText string

	// ToText is the replacement fragment
	ToText string
}

func (r *LiteralRule) Name() string { return r.RuleName }

func (r *LiteralRule) Kind() string { return KindLiteral }

// Validate implements Rule.Validate
func (r *LiteralRule) Validate() error {
	if r.RuleName == "" {
		return errors.New("name is required")
	}
	if r.FromText == "" {
		return errors.Errorf("%s: from_text is required", r.RuleName)
	}
	// a replacement that still contains its anchor would fire again on every run
	if strings.Contains(r.ToText, r.FromText) {
		return errors.Errorf("%s: to_text contains from_text", r.RuleName)
	}
	return nil
}

// Apply implements Rule.Apply
func (r *LiteralRule) Apply(ctx context.Context, doc string) (string, Report) {
	rep := Report{Rule: r.RuleName, Kind: KindLiteral}

	if n := strings.Count(doc, r.FromText); n > 0 {
		rep.Outcome = OutcomeApplied
		rep.Count = n
		return strings.ReplaceAll(doc, r.FromText, r.ToText), rep
	}

	if r.ToText != "" && strings.Contains(doc, r.ToText) {
		rep.Outcome = OutcomeAlreadyApplied
	}
	return doc, rep
}
