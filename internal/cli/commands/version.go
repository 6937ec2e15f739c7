// edusmoke version: print version information.
package commands

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/thesyncim/edusmoke/internal/report"
)

// Build-time variables injected via -ldflags.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "version",
		Short:        "Print edusmoke version information",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := map[string]string{
				"version":    Version,
				"commit":     Commit,
				"build_date": BuildDate,
				"go_version": runtime.Version(),
				"os_arch":    runtime.GOOS + "/" + runtime.GOARCH,
			}

			jsonFlag, _ := cmd.Root().PersistentFlags().GetBool("json")
			if jsonFlag {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(info)
			}

			c := report.NewConsole(cmd.OutOrStdout())
			c.KV("Version", Version)
			c.KV("Commit", Commit)
			c.KV("Built", BuildDate)
			c.KV("Go", runtime.Version())
			c.KV("Platform", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH))
			return nil
		},
	}
}
