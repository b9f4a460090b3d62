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

package operation

import (
	"bytes"
	"context"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/argthread/pkg/audit"
	"github.com/walteh/argthread/pkg/document"
	"github.com/walteh/argthread/pkg/log"
	"github.com/walteh/argthread/pkg/plan"
	"github.com/walteh/argthread/pkg/rewrite"
)

// ✏️ NewRewriteOperation creates the operation that threads the configured
// change through the target document
func NewRewriteOperation(opts Options) (Operation, error) {
	if err := opts.validate(); err != nil {
		return nil, errors.Errorf("validating options: %w", err)
	}
	return &rewriteOperation{opts: opts}, nil
}

type rewriteOperation struct {
	opts Options
}

func (op *rewriteOperation) Name() string { return "rewrite" }

// 🏃 Execute runs resolve, read, rewrite, verify, audit and write in order.
// The document is written at most once.
func (op *rewriteOperation) Execute(ctx context.Context) error {
	cfg := op.opts.Config
	store := op.opts.Store
	logger := op.opts.Logger

	path, err := store.Resolve(ctx, cfg.Target)
	if err != nil {
		return errors.Errorf("resolving target: %w", err)
	}

	logger.StartDocument(ctx, log.DocumentOperation{Path: path, Config: cfg.String(), DryRun: op.opts.DryRun})
	defer logger.EndDocument(ctx)

	doc, err := store.Read(ctx, path)
	if err != nil {
		return errors.Errorf("reading target: %w", err)
	}

	rules, err := plan.Build(cfg.Change)
	if err != nil {
		return errors.Errorf("building plan: %w", err)
	}

	rw := rewrite.NewRewriter()
	if err := rw.ValidateRules(rules); err != nil {
		return errors.Errorf("validating rules: %w", err)
	}

	result, err := rw.Rewrite(ctx, bytes.NewReader(doc.Content), rules)
	if err != nil {
		return errors.Errorf("rewriting %s: %w", path, err)
	}

	for _, rep := range result.Reports {
		logger.LogRule(ctx, ruleOperation(rep))
	}
	logger.LogNewline()

	if err := result.Verify(); err != nil {
		if !cfg.Lenient {
			return errors.Errorf("verifying rules: %w", err)
		}
		for _, rep := range result.Unmatched() {
			logger.Warningf("rule %s", rep)
		}
	}

	if !cfg.SkipAudit {
		if err := op.audit(ctx, result.ModifiedContent); err != nil {
			return err
		}
	}

	if op.opts.DryRun {
		if result.WasModified {
			logger.Diff(path, lineDiff(string(result.OriginalContent), string(result.ModifiedContent), diffContext))
		}
		logger.Infof("dry run: %d replacements, %s not written", result.ReplacementCount, path)
		return nil
	}

	if !result.WasModified {
		logger.Infof("%s is already up to date", path)
		logger.Success("Done")
		return nil
	}

	if cfg.Backup {
		if err := store.Backup(ctx, path); err != nil {
			return errors.Errorf("backing up target: %w", err)
		}
	}

	out := &document.Document{Path: path, Content: result.ModifiedContent, Mode: doc.Mode}
	if err := store.WriteAtomic(ctx, out); err != nil {
		return errors.Errorf("writing target: %w", err)
	}

	zerolog.Ctx(ctx).Debug().
		Str("path", path).
		Int("replacements", result.ReplacementCount).
		Msg("document rewritten")

	logger.Success("Done")
	return nil
}

// audit checks the rewritten call sites. Findings fail the run unless the
// config is lenient.
func (op *rewriteOperation) audit(ctx context.Context, content []byte) error {
	expectations := plan.Expectations(op.opts.Config.Change)
	if len(expectations) == 0 {
		return nil
	}

	report, err := audit.NewAuditor().Audit(ctx, content, expectations)
	if err != nil {
		return errors.Errorf("auditing call sites: %w", err)
	}

	if err := report.Err(); err != nil {
		if !op.opts.Config.Lenient {
			return errors.Errorf("auditing call sites: %w", err)
		}
		for _, f := range report.Findings {
			op.opts.Logger.Errorf("audit: %s", f)
		}
		return nil
	}

	op.opts.Logger.Infof("audit: %d call sites carry the new arguments", len(report.Sites))
	return nil
}

func ruleOperation(rep rewrite.Report) log.RuleOperation {
	return log.RuleOperation{
		Name:             rep.Rule,
		Kind:             rep.Kind,
		Status:           rep.Outcome.String(),
		IsApplied:        rep.Outcome == rewrite.OutcomeApplied,
		IsAlreadyApplied: rep.Outcome == rewrite.OutcomeAlreadyApplied,
		IsMissed:         rep.Missed > 0,
		Replacements:     rep.Count,
	}
}
