package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ciclofficina/tracker/internal/progress"
)

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Record and review learner progress",
}

var progressSetCmd = &cobra.Command{
	Use:   "set <module> <status>",
	Short: "Set a module's status: not-started, in-progress, completed or failed",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := progress.ParseStatus(args[1])
		if err != nil {
			return err
		}
		var ch progress.Change
		if cmd.Flags().Changed("score") {
			score, _ := cmd.Flags().GetInt("score")
			ch.Score = &score
		}
		ch.Note, _ = cmd.Flags().GetString("note")

		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		rec, err := e.progress.Update(cmd.Context(), args[0], st, ch)
		if err != nil {
			return err
		}
		if jsonOutput(cmd) {
			return printJSON(cmd, rec)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s → %s\n", rec.Status.Icon(), args[0], rec.Status.Label())
		return nil
	},
}

var progressShowCmd = &cobra.Command{
	Use:   "show <module>",
	Short: "Show the progress record of a module",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		m, rec, err := e.progress.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if jsonOutput(cmd) {
			return printJSON(cmd, map[string]any{"code": m.Code, "status": progress.StatusOf(rec), "record": rec})
		}
		out := cmd.OutOrStdout()
		st := progress.StatusOf(rec)
		fmt.Fprintf(out, "%s  %s\n%s %s\n", m.Code, m.Title, st.Icon(), st.Label())
		if rec == nil {
			return nil
		}
		if rec.StartedAt != nil {
			fmt.Fprintf(out, "Started:    %s\n", rec.StartedAt.Local().Format("2006-01-02 15:04"))
		}
		if rec.CompletedAt != nil {
			fmt.Fprintf(out, "Completed:  %s\n", rec.CompletedAt.Local().Format("2006-01-02 15:04"))
		}
		if rec.Score != nil {
			fmt.Fprintf(out, "Score:      %d\n", *rec.Score)
		}
		fmt.Fprintf(out, "Attempts:   %d\n", rec.Attempts)
		if rec.Notes != "" {
			fmt.Fprintf(out, "\n%s\n", rec.Notes)
		}
		return nil
	},
}

var progressNoteCmd = &cobra.Command{
	Use:   "note <module> <text>",
	Short: "Append a dated note to a started module",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		if _, err := e.progress.AddNote(cmd.Context(), args[0], strings.Join(args[1:], " ")); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Note added.")
		return nil
	},
}

var progressResetCmd = &cobra.Command{
	Use:   "reset <module>",
	Short: "Forget the progress of a module",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		if err := e.progress.Reset(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Progress of %s reset.\n", args[0])
		return nil
	},
}

var progressSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show completion totals by status and teaching area",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		sum, err := e.progress.Summary(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput(cmd) {
			return printJSON(cmd, sum)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%d modules, %.0f%% completed\n", sum.Total, sum.CompletionRate*100)
		for _, st := range progress.AllStatuses() {
			fmt.Fprintf(out, "  %s %-12s %4d\n", st.Icon(), st.Label(), sum.ByStatus[st])
		}
		if sum.Scored > 0 {
			fmt.Fprintf(out, "Average score %.1f over %d modules, %d attempts\n", sum.AverageScore, sum.Scored, sum.TotalAttempts)
		}
		if len(sum.Areas) > 0 {
			fmt.Fprintln(out, "\nBy area")
			fmt.Fprintln(out, strings.Repeat("─", 48))
			for _, a := range sum.Areas {
				fmt.Fprintf(out, "  %-30s %3d/%-3d\n", truncate(a.Area, 30), a.Completed, a.Total)
			}
		}
		if len(sum.Recent) > 0 {
			fmt.Fprintln(out, "\nRecently completed")
			for _, c := range sum.Recent {
				fmt.Fprintf(out, "  %s  %-14s %s\n", c.CompletedAt.Local().Format("2006-01-02"), c.Code, c.Title)
			}
		}
		return nil
	},
}

var progressListCmd = &cobra.Command{
	Use:   "list",
	Short: "List modules, optionally only those with a given status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var filter progress.Status
		if v, _ := cmd.Flags().GetString("status"); v != "" {
			st, err := progress.ParseStatus(v)
			if err != nil {
				return err
			}
			filter = st
		}

		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		entries, err := e.progress.List(cmd.Context(), filter)
		if err != nil {
			return err
		}
		if jsonOutput(cmd) {
			return printJSON(cmd, entries)
		}
		out := cmd.OutOrStdout()
		if len(entries) == 0 {
			fmt.Fprintln(out, "None.")
			return nil
		}
		for _, en := range entries {
			line := fmt.Sprintf("%s %-14s  %-12s  %s", en.Status.Icon(), en.Module.Code, en.Status.Label(), truncate(en.Module.Title, 40))
			if en.Record != nil && en.Record.Score != nil {
				line += fmt.Sprintf("  (%d)", *en.Record.Score)
			}
			fmt.Fprintln(out, line)
		}
		return nil
	},
}

func init() {
	progressSetCmd.Flags().Int("score", 0, "Score from 0 to 100")
	progressSetCmd.Flags().String("note", "", "Note to append")

	progressListCmd.Flags().String("status", "", "Only modules with this status")

	progressCmd.AddCommand(progressSetCmd)
	progressCmd.AddCommand(progressListCmd)
	progressCmd.AddCommand(progressShowCmd)
	progressCmd.AddCommand(progressNoteCmd)
	progressCmd.AddCommand(progressResetCmd)
	progressCmd.AddCommand(progressSummaryCmd)
}
