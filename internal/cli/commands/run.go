// edusmoke run: execute the smoke scenarios once.
package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thesyncim/edusmoke/internal/health"
	"github.com/thesyncim/edusmoke/internal/report"
	"github.com/thesyncim/edusmoke/pkg/errs"
	"github.com/thesyncim/edusmoke/pkg/smoke"
)

func NewRunCmd() *cobra.Command {
	var scenarios []string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the smoke scenarios once against the configured app",
		Example: `  edusmoke run
  edusmoke run --scenario register --scenario login
  edusmoke run --base-url http://staging.local:5173 --headless --json`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt := FromContext(cmd.Context())

			names, err := selectScenarios(rt, scenarios)
			if err != nil {
				return err
			}

			if !rt.Flags.JSONOutput {
				rt.Console.Banner(rt.Config.BaseURL, names)
			}
			res, runErr := runSuite(cmd.Context(), rt, names)
			if rt.Flags.JSONOutput && res != nil {
				if err := report.JSON(rt.Out, res); err != nil {
					return fmt.Errorf("write json: %w", err)
				}
			}
			rt.Console.Summary(res, runErr)
			if runErr != nil {
				return fmt.Errorf("%w: %w", ErrRunFailed, runErr)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&scenarios, "scenario", "s", nil, "Scenario to run, repeatable (default: configured set)")
	return cmd
}

// selectScenarios resolves flag names, falling back to the configured set.
func selectScenarios(rt *Runtime, flagNames []string) ([]smoke.Name, error) {
	raw := flagNames
	if len(raw) == 0 {
		raw = rt.Config.Scenarios
	}
	return smoke.ParseNames(raw)
}

// runSuite probes the app, launches a browser, runs names and records the
// result. A nil result means nothing ran.
func runSuite(ctx context.Context, rt *Runtime, names []smoke.Name) (*smoke.RunResult, error) {
	cfg := rt.Config
	log := rt.Log.With("base_url", cfg.BaseURL)

	if cfg.Preflight.Enabled {
		if err := health.CheckHTTP(ctx, cfg.BaseURL, cfg.Preflight.Timeout); err != nil {
			log.Error("preflight failed", "err", err)
			return nil, err
		}
		log.Debug("preflight passed")
	}

	sess, err := rt.Launch(cfg.BrowserConfig())
	if err != nil {
		return nil, errs.Wrap(err, errs.ErrBrowserLaunch, "run.launch")
	}
	defer func() {
		if err := sess.Close(); err != nil {
			log.Warn("browser close", "err", err)
		}
	}()

	runner, err := smoke.NewRunner(sess, cfg.SmokeSettings(),
		smoke.WithReporter(rt.Console),
		smoke.WithLogger(rt.Log.Logger),
	)
	if err != nil {
		return nil, err
	}

	res, runErr := runner.Run(ctx, names)

	db, err := rt.State()
	if err == nil {
		err = db.Record(res)
	}
	if err != nil {
		log.Warn("run history not saved", "run", res.ID, "err", err)
	}
	return res, runErr
}
