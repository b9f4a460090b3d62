package rewrite

import (
	"bytes"
	"context"
	"io"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// Rewriter applies rules to a document in order
type Rewriter struct{}

// NewRewriter creates a new Rewriter
func NewRewriter() *Rewriter {
	return &Rewriter{}
}

// Rewrite reads the whole document and feeds it through every rule in order.
// A rule that matches nothing leaves the document unchanged and is not an
// error; use Result.Verify to fail on it.
func (r *Rewriter) Rewrite(ctx context.Context, content io.Reader, rules []Rule) (*Result, error) {
	originalContent, err := io.ReadAll(content)
	if err != nil {
		return nil, errors.Errorf("reading content: %w", err)
	}

	result := &Result{
		OriginalContent: originalContent,
		ModifiedContent: originalContent,
		Reports:         make([]Report, 0, len(rules)),
	}

	logger := zerolog.Ctx(ctx)
	current := string(originalContent)
	for _, rule := range rules {
		next, rep := rule.Apply(ctx, current)

		logger.Debug().
			Str("rule", rep.Rule).
			Str("kind", rep.Kind).
			Str("outcome", rep.Outcome.String()).
			Int("count", rep.Count).
			Int("guarded", rep.Guarded).
			Int("missed", rep.Missed).
			Msg("rule finished")

		result.ReplacementCount += rep.Count
		result.Reports = append(result.Reports, rep)
		current = next
	}

	result.ModifiedContent = []byte(current)
	result.WasModified = !bytes.Equal(originalContent, result.ModifiedContent)
	return result, nil
}

// ValidateRules checks every rule and rejects duplicate names
func (r *Rewriter) ValidateRules(rules []Rule) error {
	seen := make(map[string]int, len(rules))
	for i, rule := range rules {
		if err := rule.Validate(); err != nil {
			return errors.Errorf("rule %d: %w", i, err)
		}
		if prev, ok := seen[rule.Name()]; ok {
			return errors.Errorf("rule %d: name %q already used by rule %d", i, rule.Name(), prev)
		}
		seen[rule.Name()] = i
	}
	return nil
}
