// Package rewrite applies ordered text rules to a single document.
//
// Rules never parse the document. A LiteralRule swaps one exact fragment for
// another and a BlockRule selects spans with a regular expression and hands
// each span to a BlockFunc. Every rule reports an Outcome so a caller can tell
// an edit that fired from one that was already present or one whose matcher
// found nothing.
package rewrite

import (
	"context"
	"fmt"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// Outcome describes what a single rule did to a document
type Outcome int

const (
	OutcomeNoMatch        Outcome = iota // matcher found nothing and no prior edit was detected
	OutcomeApplied                       // at least one edit was made
	OutcomeAlreadyApplied                // the edit was already present, nothing changed
)

// String returns a string representation of Outcome
func (o Outcome) String() string {
	switch o {
	case OutcomeApplied:
		return "applied"
	case OutcomeAlreadyApplied:
		return "already-applied"
	default:
		return "no-match"
	}
}

// Rule is one matcher and rewrite action pair
type Rule interface {
	// Name identifies the rule in reports and errors
	Name() string

	// Kind is either KindLiteral or KindBlock
	Kind() string

	// Validate checks that the rule can be applied
	Validate() error

	// Apply rewrites doc and reports what happened
	Apply(ctx context.Context, doc string) (string, Report)
}

// Report contains the result of applying one rule
type Report struct {
	Rule    string
	Kind    string
	Outcome Outcome

	// Count is the number of literal replacements or changed blocks
	Count int

	// Guarded is the number of matched blocks that already carried the edit
	Guarded int

	// Missed is the number of matched blocks left without the full edit
	Missed int
}

// Failed reports whether this rule should fail a strict run
func (r Report) Failed() bool {
	return r.Outcome == OutcomeNoMatch || r.Missed > 0
}

func (r Report) String() string {
	switch {
	case r.Missed > 0:
		return fmt.Sprintf("%s (%s, %d missed)", r.Rule, r.Outcome, r.Missed)
	default:
		return fmt.Sprintf("%s (%s)", r.Rule, r.Outcome)
	}
}

// Result contains the results of a rewrite
type Result struct {
	// WasModified indicates if the document changed
	WasModified bool

	// ReplacementCount is the total of every report's Count
	ReplacementCount int

	// OriginalContent is the content before any rule ran
	OriginalContent []byte

	// ModifiedContent is the content after the last rule ran
	ModifiedContent []byte

	// Reports holds one entry per rule, in application order
	Reports []Report
}

// Unmatched returns the reports of rules that did not fully apply
func (r *Result) Unmatched() []Report {
	var out []Report
	for _, rep := range r.Reports {
		if rep.Failed() {
			out = append(out, rep)
		}
	}
	return out
}

// Verify returns an error naming every rule that did not fully apply
func (r *Result) Verify() error {
	unmatched := r.Unmatched()
	if len(unmatched) == 0 {
		return nil
	}
	names := make([]string, 0, len(unmatched))
	for _, rep := range unmatched {
		names = append(names, rep.String())
	}
	return errors.Errorf("%d of %d rules did not apply: %s", len(unmatched), len(r.Reports), strings.Join(names, ", "))
}
