package cmd

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// version is overridden with -ldflags "-X .../cmd.version=v1.2.3".
var version = ""

type buildInfo struct {
	Version   string `json:"version"`
	GoVersion string `json:"goVersion"`
	Revision  string `json:"revision,omitempty"`
	Modified  bool   `json:"modified,omitempty"`
}

func readBuildInfo() buildInfo {
	bi := buildInfo{Version: version, GoVersion: runtime.Version()}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		if bi.Version == "" {
			bi.Version = "(devel)"
		}
		return bi
	}
	if bi.Version == "" {
		bi.Version = info.Main.Version
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			bi.Revision = s.Value
		case "vcs.modified":
			bi.Modified = s.Value == "true"
		}
	}
	if bi.Version == "" {
		bi.Version = "(devel)"
	}
	return bi
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version and build information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		bi := readBuildInfo()
		if jsonOutput(cmd) {
			return printJSON(cmd, bi)
		}
		line := "tracker " + bi.Version
		if bi.Revision != "" {
			rev := bi.Revision
			if len(rev) > 12 {
				rev = rev[:12]
			}
			line += " (" + rev
			if bi.Modified {
				line += ", dirty"
			}
			line += ")"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", line, bi.GoVersion)
		return nil
	},
}
