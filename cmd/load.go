package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ciclofficina/tracker/internal/curriculum"
	"github.com/ciclofficina/tracker/internal/importer"
)

var loadCmd = &cobra.Command{
	Use:   "load [dir]",
	Short: "Import curriculum level files (ciclofficina_levelN.json or .yaml)",
	Long: "Import every level file of a curriculum directory. Modules are matched\n" +
		"by code, so loading the same directory twice changes nothing. Entries\n" +
		"that cannot be imported are listed and skipped.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		dir := e.cfg.CurriculumDir
		if len(args) == 1 {
			dir = args[0]
		}
		concurrency, _ := cmd.Flags().GetInt("concurrency")

		ctx := cmd.Context()
		cat, err := curriculum.LoadDir(ctx, dir, curriculum.LoaderOptions{Concurrency: concurrency})
		if err != nil {
			return err
		}
		res, err := importer.New(e.store.Modules(), e.engine, e.log).Import(ctx, cat)
		if err != nil {
			return err
		}

		if jsonOutput(cmd) {
			return printJSON(cmd, res)
		}
		out := cmd.OutOrStdout()
		for _, lv := range cat.Levels {
			fmt.Fprintf(out, "Level %d  %-24s %3d modules  (%s)\n", lv.Number, lv.Area, lv.Modules, lv.File)
		}
		fmt.Fprintf(out, "\nModules: %d created, %d updated\n", res.ModulesCreated, res.ModulesUpdated)
		fmt.Fprintf(out, "Prerequisites: %d created, %d already present\n", res.EdgesCreated, res.EdgesExisting)
		if len(res.Errors) > 0 {
			fmt.Fprintf(out, "\n%d skipped:\n", len(res.Errors))
			for _, msg := range res.Errors {
				fmt.Fprintln(out, "  -", msg)
			}
		}
		return nil
	},
}

func init() {
	loadCmd.Flags().Int("concurrency", 4, "Number of level files parsed in parallel")
}
