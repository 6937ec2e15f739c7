// Package cli defines the root Cobra command and global flag/context setup.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/thesyncim/edusmoke/internal/cli/commands"
	"github.com/thesyncim/edusmoke/internal/config"
	"github.com/thesyncim/edusmoke/internal/logger"
	"github.com/thesyncim/edusmoke/internal/report"
	"github.com/thesyncim/edusmoke/pkg/errs"
)

// globalFlags holds values bound to persistent global flags.
type globalFlags struct {
	configFile string
	debug      bool
	jsonOutput bool
	baseURL    string
	headless   bool
}

// app is one CLI invocation.
type app struct {
	flags  globalFlags
	stdout io.Writer
	stderr io.Writer
	launch commands.Launcher
	rt     *commands.Runtime
}

// Execute runs the CLI with os.Args and exits. Called by main().
func Execute() {
	os.Exit(Run(os.Args[1:], os.Stdout, os.Stderr, nil))
}

// Run executes args and returns the process exit code. A nil launch starts
// real Chrome.
func Run(args []string, stdout, stderr io.Writer, launch commands.Launcher) int {
	if launch == nil {
		launch = commands.LaunchChrome
	}
	a := &app{stdout: stdout, stderr: stderr, launch: launch}
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	if a.rt != nil {
		if cerr := a.rt.Close(); cerr != nil {
			fmt.Fprintf(stderr, "close runtime: %v\n", cerr)
		}
	}
	switch {
	case err == nil:
		return 0
	case errors.Is(err, commands.ErrRunFailed):
		// Already reported by the run summary.
		return 1
	default:
		report.NewConsole(stderr).Error("%s", report.Describe(err))
		return 1
	}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "edusmoke",
		Short: "edusmoke: browser smoke tests for the EduApp web app",
		Long: `edusmoke drives a real Chrome through the EduApp critical paths
(register, login, create course, browse, enroll) and reports each step.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if skipsRuntime(cmd) {
				return nil
			}
			return a.initRuntime(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.flags.configFile, "config", "c", "", "Path to edusmoke.yaml (defaults to auto-discovery)")
	pf.BoolVar(&a.flags.debug, "debug", false, "Enable debug-level logging")
	pf.BoolVar(&a.flags.jsonOutput, "json", false, "Output in machine-readable JSON")
	pf.StringVar(&a.flags.baseURL, "base-url", "", "App under test (overrides config)")
	pf.BoolVar(&a.flags.headless, "headless", false, "Run Chrome without a window (overrides config)")

	root.AddCommand(
		commands.NewRunCmd(),
		commands.NewSoakCmd(),
		commands.NewScenariosCmd(),
		commands.NewHistoryCmd(),
		commands.NewConfigCmd(),
		commands.NewVersionCmd(),
	)
	return root
}

// skipsRuntime reports whether cmd runs without config, logger and state.
func skipsRuntime(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "version", "completion", "help":
		return true
	case "init":
		return cmd.Parent() != nil && cmd.Parent().Name() == "config"
	}
	return false
}

// initRuntime loads config and logger before each command runs.
func (a *app) initRuntime(cmd *cobra.Command) error {
	cfg, err := config.Load(a.flags.configFile)
	if err != nil {
		return errs.New(errs.ErrConfig, "config.load", err).
			WithAdvice("fix the file or run 'edusmoke config init --path <dir>' for a documented template")
	}

	if a.flags.baseURL != "" {
		cfg.BaseURL = a.flags.baseURL
	}
	if cmd.Flags().Changed("headless") {
		cfg.Browser.Headless = a.flags.headless
	}

	log, err := logger.New(a.stderr, cfg.Log.Level, cfg.Log.Format, cfg.LogFile(), a.flags.debug)
	if err != nil {
		return fmt.Errorf("logger init: %w", err)
	}

	// Progress goes to stderr when stdout carries JSON.
	progress := a.stdout
	if a.flags.jsonOutput {
		progress = a.stderr
	}

	a.rt = &commands.Runtime{
		Config:  cfg,
		Log:     log,
		Out:     a.stdout,
		Console: report.NewConsole(progress),
		Launch:  a.launch,
		Flags: commands.GlobalFlags{
			Debug:      a.flags.debug,
			JSONOutput: a.flags.jsonOutput,
		},
	}
	cmd.SetContext(commands.NewContext(cmd.Context(), a.rt))
	return nil
}
