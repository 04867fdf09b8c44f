package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ciclofficina/tracker/internal/curriculum"
	"github.com/ciclofficina/tracker/internal/progress"
)

var moduleCmd = &cobra.Command{
	Use:     "module",
	Aliases: []string{"modules", "mod"},
	Short:   "Inspect and manage modules",
}

var moduleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List modules (optionally one level)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		level, _ := cmd.Flags().GetInt("level")
		var mods []curriculum.Module
		if level > 0 {
			mods, err = e.store.Modules().ByLevel(cmd.Context(), level)
		} else {
			mods, err = e.store.Modules().All(cmd.Context())
		}
		if err != nil {
			return err
		}
		return printModules(cmd, mods)
	},
}

var moduleSearchCmd = &cobra.Command{
	Use:   "search <text>",
	Short: "Find modules by code, title, area or skill tag",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		mods, err := e.store.Modules().Search(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		return printModules(cmd, mods)
	},
}

var moduleShowCmd = &cobra.Command{
	Use:   "show <code>",
	Short: "Show a module with its prerequisites and progress",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		ctx := cmd.Context()
		m, rec, err := e.progress.Get(ctx, args[0])
		if err != nil {
			return err
		}
		prereqs, err := e.engine.Prerequisites(ctx, m.ID)
		if err != nil {
			return err
		}
		dependents, err := e.engine.Dependents(ctx, m.ID)
		if err != nil {
			return err
		}
		unlock, err := e.engine.CanStartModule(ctx, m.ID)
		if err != nil {
			return err
		}

		if jsonOutput(cmd) {
			return printJSON(cmd, map[string]any{
				"module":        m,
				"progress":      rec,
				"prerequisites": prereqs,
				"dependents":    dependents,
				"unlock":        unlock,
			})
		}

		out := cmd.OutOrStdout()
		st := progress.StatusOf(rec)
		fmt.Fprintf(out, "%s  %s\n", m.Code, m.Title)
		fmt.Fprintf(out, "Level %d · %s · %s · %s\n", m.Level, m.TeachingArea, m.Kind, m.Difficulty)
		if m.Description != "" {
			fmt.Fprintf(out, "\n%s\n", m.Description)
		}
		if len(m.Tools) > 0 {
			fmt.Fprintf(out, "\nTools: %s\n", strings.Join(m.Tools, ", "))
		}
		fmt.Fprintf(out, "\nStatus: %s %s", st.Icon(), st.Label())
		if unlock.CanStart {
			fmt.Fprintln(out, "  (can start)")
		} else {
			fmt.Fprintf(out, "  (missing %s)\n", strings.Join(codesOf(unlock.Missing), ", "))
		}
		if len(prereqs) > 0 {
			fmt.Fprintln(out, "\nPrerequisites:")
			for _, l := range prereqs {
				fmt.Fprintf(out, "  %-14s %-12s %s\n", l.Module.Code, l.Type, l.Module.Title)
			}
		}
		if len(dependents) > 0 {
			fmt.Fprintln(out, "\nRequired by:")
			for _, l := range dependents {
				fmt.Fprintf(out, "  %-14s %-12s %s\n", l.Module.Code, l.Type, l.Module.Title)
			}
		}
		return nil
	},
}

var moduleDeleteCmd = &cobra.Command{
	Use:   "delete <code>",
	Short: "Delete a module no other module depends on",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		ctx := cmd.Context()
		m, err := curriculum.Resolve(ctx, e.store.Modules(), args[0])
		if err != nil {
			return err
		}
		if err := e.store.Modules().Delete(ctx, m.ID); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", m.Code)
		return nil
	},
}

func printModules(cmd *cobra.Command, mods []curriculum.Module) error {
	if jsonOutput(cmd) {
		if mods == nil {
			mods = []curriculum.Module{}
		}
		return printJSON(cmd, mods)
	}
	out := cmd.OutOrStdout()
	if len(mods) == 0 {
		fmt.Fprintln(out, "No modules found.")
		return nil
	}
	writeModuleHeader(out)
	for _, m := range mods {
		fmt.Fprintf(out, "%-14s  %-5d  %-20s  %s\n", m.Code, m.Level, truncate(m.TeachingArea, 20), m.Title)
	}
	return nil
}

func writeModuleHeader(out io.Writer) {
	fmt.Fprintf(out, "%-14s  %-5s  %-20s  %s\n", "Code", "Level", "Area", "Title")
	fmt.Fprintln(out, strings.Repeat("─", 80))
}

func codesOf(mods []curriculum.Module) []string {
	out := make([]string, len(mods))
	for i, m := range mods {
		out[i] = m.Code
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func init() {
	moduleListCmd.Flags().Int("level", 0, "Only list modules of this level")

	moduleCmd.AddCommand(moduleListCmd)
	moduleCmd.AddCommand(moduleSearchCmd)
	moduleCmd.AddCommand(moduleShowCmd)
	moduleCmd.AddCommand(moduleDeleteCmd)
}
