package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ciclofficina/tracker/internal/store"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect recorded LLM requests",
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent LLM requests",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		purpose, _ := cmd.Flags().GetString("purpose")

		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		events, err := e.store.EventRepo().QueryLLMEvents(cmd.Context(), store.QueryOpts{Limit: limit, Purpose: purpose})
		if err != nil {
			return err
		}
		if jsonOutput(cmd) {
			if events == nil {
				events = []store.LLMEvent{}
			}
			return printJSON(cmd, events)
		}

		out := cmd.OutOrStdout()
		if len(events) == 0 {
			fmt.Fprintln(out, "No LLM requests recorded.")
			return nil
		}
		fmt.Fprintf(out, "%-5s  %-19s  %-14s  %-28s  %-6s  %-6s  %-7s  %s\n",
			"ID", "Timestamp", "Purpose", "Model", "In", "Out", "Ms", "OK")
		fmt.Fprintln(out, strings.Repeat("─", 100))
		for _, ev := range events {
			ok := "✓"
			if !ev.Success {
				ok = "✗"
			}
			fmt.Fprintf(out, "%-5d  %-19s  %-14s  %-28s  %-6d  %-6d  %-7d  %s\n",
				ev.ID,
				ev.Timestamp.Local().Format("2006-01-02 15:04:05"),
				ev.Purpose,
				truncate(ev.Model, 28),
				ev.InputTokens,
				ev.OutputTokens,
				ev.LatencyMs,
				ok,
			)
		}
		return nil
	},
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "Show the full request and response of one LLM call",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid ID %q: %w", args[0], err)
		}

		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		ev, err := e.store.EventRepo().GetLLMEvent(cmd.Context(), id)
		if err != nil {
			return err
		}
		if ev == nil {
			return fmt.Errorf("event %d not found", id)
		}
		if jsonOutput(cmd) {
			return printJSON(cmd, ev)
		}

		out := cmd.OutOrStdout()
		sep := strings.Repeat("─", 60)
		fmt.Fprintf(out, "ID:        %d\n", ev.ID)
		fmt.Fprintf(out, "Time:      %s\n", ev.Timestamp.Local().Format("2006-01-02 15:04:05"))
		fmt.Fprintf(out, "Provider:  %s\n", ev.Provider)
		fmt.Fprintf(out, "Model:     %s\n", ev.Model)
		fmt.Fprintf(out, "Purpose:   %s\n", ev.Purpose)
		fmt.Fprintf(out, "Tokens:    %d in / %d out\n", ev.InputTokens, ev.OutputTokens)
		fmt.Fprintf(out, "Latency:   %dms\n", ev.LatencyMs)
		fmt.Fprintf(out, "Success:   %v\n", ev.Success)
		if ev.ErrorMessage != "" {
			fmt.Fprintf(out, "Error:     %s\n", ev.ErrorMessage)
		}
		for _, part := range []struct{ title, body string }{
			{"REQUEST", ev.RequestBody},
			{"RESPONSE", ev.ResponseBody},
		} {
			fmt.Fprintf(out, "\n%s\n%s\n%s\n", sep, part.title, sep)
			if part.body == "" {
				fmt.Fprintln(out, "(not captured)")
			} else {
				fmt.Fprintln(out, part.body)
			}
		}
		return nil
	},
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show token usage per purpose",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		stats, err := e.store.EventRepo().LLMUsageByPurpose(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput(cmd) {
			return printJSON(cmd, stats)
		}

		out := cmd.OutOrStdout()
		if len(stats) == 0 {
			fmt.Fprintln(out, "No LLM usage recorded yet.")
			return nil
		}
		line := strings.Repeat("─", 72)
		fmt.Fprintln(out, line)
		fmt.Fprintf(out, "%-16s  %6s  %10s  %10s  %10s  %8s\n", "Purpose", "Calls", "Input", "Output", "Total", "Avg Ms")
		fmt.Fprintln(out, line)

		var calls, in, outTok int
		for _, st := range stats {
			fmt.Fprintf(out, "%-16s  %6d  %10d  %10d  %10d  %8d\n",
				st.Purpose, st.Calls, st.InputTokens, st.OutputTokens, st.InputTokens+st.OutputTokens, st.AvgLatencyMs)
			calls += st.Calls
			in += st.InputTokens
			outTok += st.OutputTokens
		}
		fmt.Fprintln(out, line)
		fmt.Fprintf(out, "%-16s  %6d  %10d  %10d  %10d\n", "TOTAL", calls, in, outTok, in+outTok)
		return nil
	},
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of requests to show")
	llmListCmd.Flags().StringP("purpose", "p", "", "Only show one purpose (e.g. prerequisites)")

	llmCmd.AddCommand(llmListCmd)
	llmCmd.AddCommand(llmViewCmd)
	llmCmd.AddCommand(llmStatsCmd)
}
