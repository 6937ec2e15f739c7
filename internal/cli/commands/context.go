// Package commands provides the shared runtime and all CLI subcommands.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/thesyncim/edusmoke/internal/config"
	"github.com/thesyncim/edusmoke/internal/logger"
	"github.com/thesyncim/edusmoke/internal/report"
	"github.com/thesyncim/edusmoke/internal/state"
	"github.com/thesyncim/edusmoke/pkg/browser"
	"github.com/thesyncim/edusmoke/pkg/smoke"
)

// ErrRunFailed marks a run that executed and failed. The console has already
// reported it, so the caller only sets the exit code.
var ErrRunFailed = errors.New("smoke run failed")

// contextKey is the key type for values stored in a command context.
type contextKey string

const runtimeContextKey contextKey = "edusmoke.runtime"

// GlobalFlags holds the parsed global flags for use by subcommands.
type GlobalFlags struct {
	Debug      bool
	JSONOutput bool
}

// Session is a launched browser the runner drives.
type Session interface {
	smoke.Driver
	Close() error
}

// Launcher starts a browser session.
type Launcher func(cfg browser.Config) (Session, error)

// LaunchChrome starts Chrome through Rod.
func LaunchChrome(cfg browser.Config) (Session, error) {
	c, err := browser.New(cfg)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Runtime is the shared dependency bundle injected into each subcommand via context.
type Runtime struct {
	Config  *config.Config
	Log     *logger.Logger
	Flags   GlobalFlags
	Out     io.Writer       // machine-readable output and tables
	Console *report.Console // human progress; stderr under --json
	Launch  Launcher

	stateOnce sync.Once
	state     *state.DB
	stateErr  error
}

// State opens the run history on first use.
func (rt *Runtime) State() (*state.DB, error) {
	rt.stateOnce.Do(func() {
		path := rt.Config.StatePath()
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			rt.stateErr = fmt.Errorf("create state dir: %w", err)
			return
		}
		rt.state, rt.stateErr = state.Open(path)
	})
	return rt.state, rt.stateErr
}

// Close releases the history database and the log file.
func (rt *Runtime) Close() error {
	var errList []error
	if rt.state != nil {
		errList = append(errList, rt.state.Close())
	}
	errList = append(errList, rt.Log.Close())
	return errors.Join(errList...)
}

// NewContext returns a new context carrying the Runtime.
func NewContext(parent context.Context, rt *Runtime) context.Context {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithValue(parent, runtimeContextKey, rt)
}

// FromContext extracts the Runtime from ctx. Panics if not present (programming error).
func FromContext(ctx context.Context) *Runtime {
	rt, ok := ctx.Value(runtimeContextKey).(*Runtime)
	if !ok || rt == nil {
		panic("edusmoke: Runtime not found in context, missing PersistentPreRunE?")
	}
	return rt
}
