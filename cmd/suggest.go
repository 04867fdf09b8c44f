package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ciclofficina/tracker/internal/advisor"
)

var suggestCmd = &cobra.Command{
	Use:   "suggest <module>",
	Short: "Ask the configured LLM for missing prerequisites",
	Long: "Ask the configured LLM which existing modules should be prerequisites of\n" +
		"<module>. Every answer is checked against the graph: unknown codes, the\n" +
		"module itself, edges already present and edges that would close a cycle\n" +
		"are reported and never applied. With --apply the accepted ones are added.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		adv, err := e.advisor(cmd.Context())
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if e.cfg.LLM.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, e.cfg.LLM.Timeout)
			defer cancel()
		}

		advice, err := adv.Suggest(ctx, args[0])
		if err != nil {
			return err
		}
		apply, _ := cmd.Flags().GetBool("apply")
		var applied *advisor.Applied
		if apply {
			if applied, err = adv.Apply(ctx, advice); err != nil {
				return err
			}
		}

		if jsonOutput(cmd) {
			return printJSON(cmd, map[string]any{"advice": advice, "applied": applied})
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Suggestions for %s (%s)\n\n", advice.Target.Code, advice.Model)
		if len(advice.Suggestions) == 0 {
			fmt.Fprintln(out, "No suggestions.")
		}
		for _, s := range advice.Suggestions {
			mark := "✓"
			if s.Verdict != advisor.Accepted {
				mark = "✗"
			}
			fmt.Fprintf(out, "%s %-14s %-12s %s\n", mark, s.Code, s.Type, s.Reason)
			if s.Verdict != advisor.Accepted {
				detail := string(s.Verdict)
				if len(s.Chain) > 0 {
					detail += ": " + strings.Join(s.Chain, " → ")
				}
				fmt.Fprintf(out, "  %s\n", detail)
			}
		}
		if applied != nil {
			fmt.Fprintf(out, "\nAdded %d prerequisites, skipped %d.\n", len(applied.Added), len(applied.Skipped))
		} else if n := len(advice.Accepted()); n > 0 {
			fmt.Fprintf(out, "\n%d accepted. Run again with --apply to add them.\n", n)
		}
		return nil
	},
}

func init() {
	suggestCmd.Flags().Bool("apply", false, "Add the accepted suggestions")
}
