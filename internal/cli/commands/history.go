// edusmoke history: list persisted runs or the artifacts they created.
package commands

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/thesyncim/edusmoke/internal/report"
	"github.com/thesyncim/edusmoke/internal/state"
)

func NewHistoryCmd() *cobra.Command {
	var (
		limit     int
		artifacts bool
		kind      string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show previous runs, or the accounts and courses they created",
		Example: `  edusmoke history --limit 5
  edusmoke history --artifacts --kind course`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt := FromContext(cmd.Context())
			db, err := rt.State()
			if err != nil {
				return err
			}

			if artifacts {
				return listArtifacts(rt, db, state.ArtifactKind(kind))
			}

			runs, err := db.ListRuns(limit)
			if err != nil {
				return err
			}
			if rt.Flags.JSONOutput {
				return json.NewEncoder(rt.Out).Encode(runs)
			}
			if len(runs) == 0 {
				rt.Console.Info("no runs recorded yet")
				return nil
			}

			rows := make([][]string, len(runs))
			for i, r := range runs {
				result := "passed"
				if !r.Passed {
					result = "failed"
				}
				rows[i] = []string{
					r.ID,
					r.StartedAt.Local().Format(time.DateTime),
					r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond).String(),
					fmt.Sprint(len(r.Scenarios)),
					result,
					r.Failure,
				}
			}
			report.NewConsole(rt.Out).Table([]string{"ID", "STARTED", "DURATION", "SCENARIOS", "RESULT", "FAILURE"}, rows)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "Maximum number of runs to show (0 for all)")
	cmd.Flags().BoolVar(&artifacts, "artifacts", false, "List created accounts, courses and enrollments instead of runs")
	cmd.Flags().StringVar(&kind, "kind", "", "Artifact kind filter: account, course or enrollment")
	return cmd
}

func listArtifacts(rt *Runtime, db *state.DB, kind state.ArtifactKind) error {
	switch kind {
	case "", state.KindAccount, state.KindCourse, state.KindEnrollment:
	default:
		return fmt.Errorf("unknown artifact kind %q", kind)
	}

	list, err := db.ListArtifacts(kind)
	if err != nil {
		return err
	}
	if rt.Flags.JSONOutput {
		return json.NewEncoder(rt.Out).Encode(list)
	}
	if len(list) == 0 {
		rt.Console.Info("no artifacts recorded yet")
		return nil
	}

	rows := make([][]string, len(list))
	for i, a := range list {
		rows[i] = []string{a.RunID, string(a.Kind), a.Value, a.CreatedAt.Local().Format(time.DateTime)}
	}
	report.NewConsole(rt.Out).Table([]string{"RUN", "KIND", "VALUE", "CREATED"}, rows)
	return nil
}
