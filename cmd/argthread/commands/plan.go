package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/argthread/cmd/argthread/opts"
	"github.com/walteh/argthread/pkg/plan"
	"github.com/walteh/argthread/pkg/rewrite"
)

// anchorWidth caps the anchor column
const anchorWidth = 60

// NewPlanCmd creates the plan command
func NewPlanCmd(opts *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the ordered rules without touching the target",
		Long: `Plan builds the rules for the configured change and prints them in the
order they are applied. Each rule consumes the output of the one before it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rules, err := plan.Build(opts.Config.Change)
			if err != nil {
				return errors.Errorf("building plan: %w", err)
			}

			data := pterm.TableData{{"#", "Rule", "Kind", "Anchor"}}
			for i, rule := range rules {
				data = append(data, []string{strconv.Itoa(i + 1), rule.Name(), rule.Kind(), anchor(rule)})
			}

			table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
			if err != nil {
				return errors.Errorf("rendering plan: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), table)
			return nil
		},
	}

	return cmd
}

// anchor is a one-line preview of what a rule matches
func anchor(rule rewrite.Rule) string {
	var text string
	switch r := rule.(type) {
	case *rewrite.LiteralRule:
		text = strings.TrimSpace(r.FromText)
		if i := strings.Index(text, "\n"); i >= 0 {
			text = text[:i] + " ..."
		}
	case *rewrite.BlockRule:
		text = r.Pattern.String()
	}
	if len(text) > anchorWidth {
		text = text[:anchorWidth-3] + "..."
	}
	return text
}
