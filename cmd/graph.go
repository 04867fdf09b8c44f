package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ciclofficina/tracker/internal/curriculum"
	"github.com/ciclofficina/tracker/internal/depgraph"
)

// errCheckFailed makes `check` exit non-zero without printing twice.
var errCheckFailed = errors.New("dependency graph has errors")

var orderCmd = &cobra.Command{
	Use:   "order",
	Short: "Print modules so every prerequisite comes first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		out := cmd.OutOrStdout()
		if levels, _ := cmd.Flags().GetBool("levels"); levels {
			lv, err := e.engine.TopologicalLevels(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput(cmd) {
				return printJSON(cmd, lv)
			}
			for i, wave := range lv.Waves {
				fmt.Fprintf(out, "Wave %d: %s\n", i+1, strings.Join(codesOf(wave), ", "))
			}
			printUnordered(cmd, lv.Unordered)
			return nil
		}

		ord, err := e.engine.TopologicalOrder(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput(cmd) {
			return printJSON(cmd, ord)
		}
		for i, m := range ord.Modules {
			fmt.Fprintf(out, "%3d. %-14s  %s\n", i+1, m.Code, m.Title)
		}
		printUnordered(cmd, ord.Unordered)
		return nil
	},
}

func printUnordered(cmd *cobra.Command, mods []curriculum.Module) {
	if len(mods) == 0 {
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\nOn or behind a cycle (run `tracker check`): %s\n", strings.Join(codesOf(mods), ", "))
}

var canStartCmd = &cobra.Command{
	Use:   "can-start <module>",
	Short: "Tell whether every mandatory prerequisite is completed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		m, err := curriculum.Resolve(cmd.Context(), e.store.Modules(), args[0])
		if err != nil {
			return err
		}
		u, err := e.engine.CanStartModule(cmd.Context(), m.ID)
		if err != nil {
			return err
		}
		if jsonOutput(cmd) {
			return printJSON(cmd, u)
		}
		out := cmd.OutOrStdout()
		if u.CanStart {
			fmt.Fprintf(out, "%s can start (%d mandatory prerequisites completed)\n", m.Code, u.TotalMandatory)
			return nil
		}
		fmt.Fprintf(out, "%s is locked: %d of %d mandatory prerequisites missing\n", m.Code, len(u.Missing), u.TotalMandatory)
		for _, p := range u.Missing {
			fmt.Fprintf(out, "  %-14s  %s\n", p.Code, p.Title)
		}
		return nil
	},
}

var availableCmd = &cobra.Command{
	Use:   "available",
	Short: "List unlocked modules not yet completed",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return listStates(cmd, (*depgraph.Engine).Available)
	},
}

var blockedCmd = &cobra.Command{
	Use:   "blocked",
	Short: "List modules waiting on a mandatory prerequisite",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return listStates(cmd, (*depgraph.Engine).Blocked)
	},
}

func listStates(cmd *cobra.Command, fetch func(*depgraph.Engine, context.Context) ([]depgraph.ModuleState, error)) error {
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	states, err := fetch(e.engine, cmd.Context())
	if err != nil {
		return err
	}
	if jsonOutput(cmd) {
		if states == nil {
			states = []depgraph.ModuleState{}
		}
		return printJSON(cmd, states)
	}
	out := cmd.OutOrStdout()
	if len(states) == 0 {
		fmt.Fprintln(out, "None.")
		return nil
	}
	for _, s := range states {
		line := fmt.Sprintf("%s %-14s  %-40s", s.Status.Icon(), s.Module.Code, truncate(s.Module.Title, 40))
		if len(s.Missing) > 0 {
			line += "  needs " + strings.Join(s.Missing, ", ")
		}
		fmt.Fprintln(out, strings.TrimRight(line, " "))
	}
	return nil
}

var goalCmd = &cobra.Command{
	Use:   "goal <module>",
	Short: "Show every module to take, in order, to reach a target",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		p, err := e.goals.GoalPath(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if jsonOutput(cmd) {
			return printJSON(cmd, p)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Path to %s  %s\n", p.Target.Code, p.Target.Title)
		fmt.Fprintf(out, "%d completed, %d pending, %d total\n\n", p.Completed, p.Pending, p.Total)
		for i, st := range p.Steps {
			fmt.Fprintf(out, "%3d. %s %-14s  %s\n", i+1, st.Status.Icon(), st.Module.Code, st.Module.Title)
		}
		return nil
	},
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Look for cycles, dangling edges and other graph problems",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		rep, err := e.engine.Check(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput(cmd) {
			if err := printJSON(cmd, rep); err != nil {
				return err
			}
		} else {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d modules, %d prerequisites\n", rep.Modules, rep.Edges)
			for _, is := range rep.Issues {
				fmt.Fprintf(out, "  %-7s  %-16s  %s\n", is.Severity, is.Kind, is.Detail)
			}
			fmt.Fprintf(out, "%d errors, %d warnings, %d notes\n",
				rep.Count(depgraph.SeverityError), rep.Count(depgraph.SeverityWarning), rep.Count(depgraph.SeverityInfo))
		}
		if !rep.OK() {
			cmd.SilenceErrors = true
			return errCheckFailed
		}
		return nil
	},
}

func init() {
	orderCmd.Flags().Bool("levels", false, "Group modules into waves that can be taken in parallel")
}
