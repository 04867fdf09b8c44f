package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ciclofficina/tracker/internal/assessment"
)

var assessCmd = &cobra.Command{
	Use:     "assess",
	Aliases: []string{"assessment"},
	Short:   "Record practical evaluations",
}

var assessSetCmd = &cobra.Command{
	Use:   "set <module>",
	Short: "Record the practical evaluation of a module",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		var ev assessment.Evaluation
		ev.Evaluator, _ = f.GetString("evaluator")
		ev.PracticalApplied, _ = f.GetBool("applied")
		ev.ResultQuality, _ = f.GetString("quality")
		ev.SatisfactionLevel, _ = f.GetInt("satisfaction")
		ev.Notes, _ = f.GetString("notes")

		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		saved, err := e.assessments.Record(cmd.Context(), args[0], ev)
		if err != nil {
			return err
		}
		if jsonOutput(cmd) {
			return printJSON(cmd, saved)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Evaluation of %s recorded.\n", args[0])
		return nil
	},
}

var assessShowCmd = &cobra.Command{
	Use:   "show <module>",
	Short: "Show the evaluation of a module",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		ev, err := e.assessments.ForModule(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if jsonOutput(cmd) {
			return printJSON(cmd, ev)
		}
		out := cmd.OutOrStdout()
		if ev == nil {
			fmt.Fprintf(out, "%s has not been evaluated.\n", args[0])
			return nil
		}
		fmt.Fprintf(out, "Evaluator:     %s\n", ev.Evaluator)
		fmt.Fprintf(out, "Date:          %s\n", ev.EvaluatedAt.Local().Format("2006-01-02"))
		fmt.Fprintf(out, "Applied:       %s\n", yesNo(ev.PracticalApplied))
		if ev.ResultQuality != "" {
			fmt.Fprintf(out, "Quality:       %s\n", ev.ResultQuality)
		}
		fmt.Fprintf(out, "Satisfaction:  %d%%\n", ev.SatisfactionLevel)
		if ev.Notes != "" {
			fmt.Fprintf(out, "\n%s\n", ev.Notes)
		}
		return nil
	},
}

var assessReportCmd = &cobra.Command{
	Use:   "report",
	Short: "List every module with its status and evaluation",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		rows, err := e.assessments.Report(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput(cmd) {
			return printJSON(cmd, rows)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%-14s  %-5s  %-12s  %-7s  %-5s  %s\n", "Code", "Level", "Status", "Applied", "Sat.", "Evaluator")
		for _, r := range rows {
			applied, sat, who := "-", "-", ""
			if ev := r.Evaluation; ev != nil {
				applied = yesNo(ev.PracticalApplied)
				sat = fmt.Sprintf("%d%%", ev.SatisfactionLevel)
				who = ev.Evaluator
			}
			fmt.Fprintf(out, "%-14s  %-5d  %-12s  %-7s  %-5s  %s\n", r.Code, r.Level, r.Status.Label(), applied, sat, who)
		}
		return nil
	},
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func init() {
	f := assessSetCmd.Flags()
	f.String("evaluator", "", "Who evaluated the practical work")
	f.Bool("applied", false, "The learner applied the technique on a real bicycle")
	f.String("quality", "", "Quality of the result, free text")
	f.Int("satisfaction", 0, "Satisfaction level, 0 to 100")
	f.String("notes", "", "Evaluation notes")

	assessCmd.AddCommand(assessSetCmd)
	assessCmd.AddCommand(assessShowCmd)
	assessCmd.AddCommand(assessReportCmd)
}
