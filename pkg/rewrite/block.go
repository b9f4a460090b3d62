package rewrite

import (
	"context"
	"regexp"

	"gitlab.com/tozd/go/errors"
)

// KindBlock marks rules that rewrite regex-selected spans
const KindBlock = "block"

// BlockFunc rewrites one call-site block. complete reports whether the
// returned block carries every edit the rule is responsible for.
type BlockFunc func(block string) (rewritten string, complete bool)

// BlockRule selects spans with Pattern and rewrites each with Rewrite
type BlockRule struct {
	RuleName string
	Pattern  *regexp.Regexp
	Rewrite  BlockFunc
}

func (r *BlockRule) Name() string { return r.RuleName }

func (r *BlockRule) Kind() string { return KindBlock }

// Validate implements Rule.Validate
func (r *BlockRule) Validate() error {
	if r.RuleName == "" {
		return errors.New("name is required")
	}
	if r.Pattern == nil {
		return errors.Errorf("%s: pattern is required", r.RuleName)
	}
	if r.Rewrite == nil {
		return errors.Errorf("%s: rewrite func is required", r.RuleName)
	}
	return nil
}

// Apply implements Rule.Apply
func (r *BlockRule) Apply(ctx context.Context, doc string) (string, Report) {
	rep := Report{Rule: r.RuleName, Kind: KindBlock}

	out := r.Pattern.ReplaceAllStringFunc(doc, func(block string) string {
		next, complete := r.Rewrite(block)
		switch {
		case next != block:
			rep.Count++
		case complete:
			rep.Guarded++
		}
		if !complete {
			rep.Missed++
		}
		return next
	})

	switch {
	case rep.Count > 0:
		rep.Outcome = OutcomeApplied
	case rep.Guarded > 0:
		rep.Outcome = OutcomeAlreadyApplied
	}
	return out, rep
}
