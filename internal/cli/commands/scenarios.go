// edusmoke scenarios: list the built-in scenarios.
package commands

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/thesyncim/edusmoke/internal/report"
	"github.com/thesyncim/edusmoke/pkg/smoke"
)

type scenarioInfo struct {
	Name    smoke.Name `json:"name"`
	Title   string     `json:"title"`
	Default bool       `json:"default"`
}

func NewScenariosCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "scenarios",
		Short:        "List scenario names, marking the default set",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt := FromContext(cmd.Context())

			defaults, err := selectScenarios(rt, nil)
			if err != nil {
				return err
			}
			inDefault := map[smoke.Name]bool{}
			for _, n := range defaults {
				inDefault[n] = true
			}

			infos := make([]scenarioInfo, 0, len(smoke.AllNames()))
			for _, n := range smoke.AllNames() {
				infos = append(infos, scenarioInfo{Name: n, Title: n.Title(), Default: inDefault[n]})
			}

			if rt.Flags.JSONOutput {
				return json.NewEncoder(rt.Out).Encode(infos)
			}

			rows := make([][]string, len(infos))
			for i, s := range infos {
				mark := ""
				if s.Default {
					mark = "✓"
				}
				rows[i] = []string{string(s.Name), s.Title, mark}
			}
			report.NewConsole(rt.Out).Table([]string{"NAME", "TITLE", "DEFAULT"}, rows)
			return nil
		},
	}
}
