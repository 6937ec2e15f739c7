// edusmoke config: scaffold or inspect the configuration.
package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/thesyncim/edusmoke/internal/config"
	"github.com/thesyncim/edusmoke/internal/report"
)

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Scaffold or inspect edusmoke configuration",
	}
	cmd.AddCommand(newConfigInitCmd(), newConfigShowCmd())
	return cmd
}

// newConfigInitCmd runs without a loaded Runtime, so a broken edusmoke.yaml
// up the tree does not block scaffolding a new one.
func newConfigInitCmd() *cobra.Command {
	var targetPath string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a documented edusmoke.yaml into the current (or given) directory",
		Example: `  edusmoke config init
  edusmoke config init --path ./e2e`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			outFile := filepath.Join(targetPath, config.FileName)
			if _, err := os.Stat(outFile); err == nil {
				return fmt.Errorf("%s already exists at %s: delete it first to reinitialise", config.FileName, outFile)
			}
			if err := os.MkdirAll(targetPath, 0o755); err != nil {
				return fmt.Errorf("create dir %q: %w", targetPath, err)
			}
			if err := os.WriteFile(outFile, []byte(config.DefaultConfigTemplate), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", config.FileName, err)
			}

			c := report.NewConsole(cmd.OutOrStdout())
			c.KV("Created", outFile)
			c.Info("Point base_url at your dev server, then run: edusmoke run")
			return nil
		},
	}

	cmd.Flags().StringVar(&targetPath, "path", ".", "Target directory for "+config.FileName)
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "show",
		Short:        "Print the effective configuration with secrets redacted",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt := FromContext(cmd.Context())
			settings := rt.Config.Redacted()

			if rt.Flags.JSONOutput {
				out := make(map[string]any, len(settings))
				for _, s := range settings {
					out[s.Key] = s.Value
				}
				return json.NewEncoder(rt.Out).Encode(out)
			}

			c := report.NewConsole(rt.Out)
			file := rt.Config.ConfigFileUsed()
			if file == "" {
				file = "(defaults and environment only)"
			}
			c.KV("Config file", file)
			rows := make([][]string, len(settings))
			for i, s := range settings {
				rows[i] = []string{s.Key, fmt.Sprint(s.Value)}
			}
			c.Table([]string{"KEY", "VALUE"}, rows)
			return nil
		},
	}
}
