// edusmoke soak: repeat the smoke run until a deadline or a signal.
package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/thesyncim/edusmoke/pkg/smoke"
)

func NewSoakCmd() *cobra.Command {
	var (
		scenarios []string
		duration  time.Duration
		interval  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "soak",
		Short: "Repeat the smoke run for a duration, stopping at the first failure",
		Example: `  edusmoke soak --duration 1h --interval 5m
  edusmoke soak --duration 8h --interval 30s --headless`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt := FromContext(cmd.Context())
			if duration <= 0 {
				return fmt.Errorf("--duration must be positive, got %v", duration)
			}
			if interval < 0 {
				return fmt.Errorf("--interval must not be negative, got %v", interval)
			}
			names, err := selectScenarios(rt, scenarios)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			rt.Console.Banner(rt.Config.BaseURL, names)
			rt.Console.KV("Duration", duration.String())
			rt.Console.KV("Interval", interval.String())

			sum, err := soak(ctx, rt, names, duration, interval)
			rt.Console.KV("Iterations", fmt.Sprint(sum.iterations))
			rt.Console.KV("Elapsed", sum.elapsed.Round(time.Second).String())
			if sum.interrupted {
				rt.Console.Info("interrupted, stopping")
			}
			rt.Console.Summary(nil, err)
			if err != nil {
				return fmt.Errorf("%w: %w", ErrRunFailed, err)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&scenarios, "scenario", "s", nil, "Scenario to run, repeatable (default: configured set)")
	cmd.Flags().DurationVar(&duration, "duration", time.Hour, "Total soak duration (e.g. 30m, 24h)")
	cmd.Flags().DurationVar(&interval, "interval", 5*time.Minute, "Pause between iterations")
	return cmd
}

type soakSummary struct {
	iterations  int
	elapsed     time.Duration
	interrupted bool
}

// soak runs the suite back to back until duration elapses, ctx is cancelled
// or an iteration fails.
func soak(ctx context.Context, rt *Runtime, names []smoke.Name, duration, interval time.Duration) (soakSummary, error) {
	var sum soakSummary
	start := time.Now()
	deadline := start.Add(duration)

	for {
		sum.iterations++
		res, err := runSuite(ctx, rt, names)
		rt.Console.Iteration(sum.iterations, res, err)
		sum.elapsed = time.Since(start)

		if ctx.Err() != nil {
			sum.interrupted = true
			return sum, nil
		}
		if err != nil {
			return sum, fmt.Errorf("iteration %d: %w", sum.iterations, err)
		}

		// The next iteration must start before the deadline.
		if time.Until(deadline) <= interval {
			return sum, nil
		}

		t := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			t.Stop()
			sum.elapsed = time.Since(start)
			sum.interrupted = true
			return sum, nil
		case <-t.C:
		}
	}
}
