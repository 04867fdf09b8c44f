package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ciclofficina/tracker/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "tracker",
	Short: "Training tracker for a bicycle repair workshop",
	Long: "tracker keeps the curriculum of a ciclofficina: modules, the prerequisites\n" +
		"between them, each learner's progress and the practical assessments.\n" +
		"Run without a subcommand to open the terminal browser.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBrowse(cmd)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("db", "", "Path to SQLite database file (overrides TRACKER_DB)")
	pf.String("config", "", "Path to YAML config file (overrides TRACKER_CONFIG)")
	pf.String("env-file", "", "Path to .env file (default ./.env when present)")
	pf.String("log-mode", "", "Log format: dev or prod")
	pf.String("log-level", "", "Log level: debug, info, warn or error")
	pf.Bool("json", false, "Print results as JSON")

	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(moduleCmd)
	rootCmd.AddCommand(depCmd)
	rootCmd.AddCommand(orderCmd)
	rootCmd.AddCommand(canStartCmd)
	rootCmd.AddCommand(availableCmd)
	rootCmd.AddCommand(blockedCmd)
	rootCmd.AddCommand(goalCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(progressCmd)
	rootCmd.AddCommand(assessCmd)
	rootCmd.AddCommand(suggestCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(browseCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path: --db flag first, then the
// configured path (config file or TRACKER_DB), then the default XDG path.
func resolveDBPath(cmd *cobra.Command, configured string) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if configured != "" {
		return configured, store.EnsureDir(configured)
	}
	return store.DefaultDBPath()
}
