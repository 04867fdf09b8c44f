package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ciclofficina/tracker/internal/curriculum"
	"github.com/ciclofficina/tracker/internal/depgraph"
)

var depCmd = &cobra.Command{
	Use:     "dep",
	Aliases: []string{"deps"},
	Short:   "Manage prerequisites between modules",
}

var depAddCmd = &cobra.Command{
	Use:   "add <module> <prerequisite>",
	Short: "Declare that <module> requires <prerequisite>",
	Long: "Declare a prerequisite. The edge is refused when it would make a module\n" +
		"depend on itself, directly or through other modules. Adding an edge that\n" +
		"already exists is a no-op.",
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		typ, _ := cmd.Flags().GetString("type")
		ctx := cmd.Context()
		m, p, err := resolvePair(cmd, e, args[0], args[1])
		if err != nil {
			return err
		}
		edge, err := e.engine.AddDependency(ctx, m.ID, p.ID, curriculum.DependencyType(typ))
		if err != nil {
			return err
		}
		if jsonOutput(cmd) {
			return printJSON(cmd, edge)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s now requires %s (%s)\n", m.Code, p.Code, edge.Type)
		return nil
	},
}

var depRmCmd = &cobra.Command{
	Use:     "rm <module> <prerequisite>",
	Aliases: []string{"remove"},
	Short:   "Remove a prerequisite",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		m, p, err := resolvePair(cmd, e, args[0], args[1])
		if err != nil {
			return err
		}
		removed, err := e.engine.RemoveBetween(cmd.Context(), m.ID, p.ID)
		if err != nil {
			return err
		}
		if !removed {
			return fmt.Errorf("%s does not require %s", m.Code, p.Code)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s no longer requires %s\n", m.Code, p.Code)
		return nil
	},
}

var depListCmd = &cobra.Command{
	Use:   "list <module>",
	Short: "List the prerequisites of a module",
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
		if all, _ := cmd.Flags().GetBool("transitive"); all {
			mods, err := e.engine.TransitiveDependencies(ctx, m.ID)
			if err != nil {
				return err
			}
			return printModules(cmd, mods)
		}
		links, err := e.engine.Prerequisites(ctx, m.ID)
		if err != nil {
			return err
		}
		return printLinks(cmd, links)
	},
}

var depDependentsCmd = &cobra.Command{
	Use:   "dependents <module>",
	Short: "List the modules that require a module",
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
		links, err := e.engine.Dependents(ctx, m.ID)
		if err != nil {
			return err
		}
		return printLinks(cmd, links)
	},
}

func resolvePair(cmd *cobra.Command, e *env, module, prereq string) (*curriculum.Module, *curriculum.Module, error) {
	m, err := curriculum.Resolve(cmd.Context(), e.store.Modules(), module)
	if err != nil {
		return nil, nil, err
	}
	p, err := curriculum.Resolve(cmd.Context(), e.store.Modules(), prereq)
	if err != nil {
		return nil, nil, err
	}
	return m, p, nil
}

func printLinks(cmd *cobra.Command, links []depgraph.Link) error {
	if jsonOutput(cmd) {
		if links == nil {
			links = []depgraph.Link{}
		}
		return printJSON(cmd, links)
	}
	out := cmd.OutOrStdout()
	if len(links) == 0 {
		fmt.Fprintln(out, "None.")
		return nil
	}
	for _, l := range links {
		fmt.Fprintf(out, "%-14s  %-12s  %s\n", l.Module.Code, l.Type, l.Module.Title)
	}
	return nil
}

func init() {
	depAddCmd.Flags().StringP("type", "t", string(curriculum.Mandatory), "Dependency type: mandatory or recommended")
	depListCmd.Flags().Bool("transitive", false, "Include indirect prerequisites")

	depCmd.AddCommand(depAddCmd)
	depCmd.AddCommand(depRmCmd)
	depCmd.AddCommand(depListCmd)
	depCmd.AddCommand(depDependentsCmd)
}
