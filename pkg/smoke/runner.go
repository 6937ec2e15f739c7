package smoke

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/thesyncim/edusmoke/pkg/errs"
	"github.com/thesyncim/edusmoke/pkg/smoke/internal"
)

// Clock supplies the time used for generated names and pauses.
type Clock = internal.Clock

// Option configures a Runner.
type Option func(*Runner) error

// WithReporter sets the progress reporter. Default: discard.
func WithReporter(rep Reporter) Option {
	return func(r *Runner) error {
		if rep == nil {
			return errors.New("reporter must not be nil")
		}
		r.reporter = rep
		return nil
	}
}

// WithLogger sets the structured logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) error {
		if l == nil {
			return errors.New("logger must not be nil")
		}
		r.log = l
		return nil
	}
}

// WithClock replaces the system clock.
func WithClock(c Clock) Option {
	return func(r *Runner) error {
		if c == nil {
			return errors.New("clock must not be nil")
		}
		r.clock = c
		return nil
	}
}

// WithRunID fixes the run identifier instead of deriving it from the clock.
func WithRunID(id string) Option {
	return func(r *Runner) error {
		if id == "" {
			return errors.New("run ID must not be empty")
		}
		r.runID = id
		return nil
	}
}

// Runner executes scenarios one after another on a single Driver.
// It is not safe for concurrent use; the browser session is shared state.
type Runner struct {
	driver   Driver
	settings Settings
	reporter Reporter
	log      *slog.Logger
	clock    Clock
	runID    string
}

// NewRunner validates settings and applies opts.
func NewRunner(d Driver, settings Settings, opts ...Option) (*Runner, error) {
	if d == nil {
		return nil, errs.Newf(errs.ErrValidation, "runner.new", "driver must not be nil")
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	r := &Runner{
		driver:   d,
		settings: settings,
		reporter: nopReporter{},
		log:      slog.Default(),
		clock:    internal.SystemClock{},
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, errs.New(errs.ErrValidation, "runner.option", err)
		}
	}
	return r, nil
}

// Settings returns the settings the runner was built with.
func (r *Runner) Settings() Settings {
	return r.settings
}

// Run executes names in order and stops at the first failure, returning
// that scenario's error. The returned RunResult is never nil.
func (r *Runner) Run(ctx context.Context, names []Name) (*RunResult, error) {
	start := r.clock.Now()
	id := r.runID
	if id == "" {
		id = "run-" + start.UTC().Format("20060102T150405.000Z")
	}
	res := &RunResult{
		ID:        id,
		BaseURL:   r.settings.BaseURL,
		StartedAt: start,
	}
	log := r.log.With("run", id)
	log.Info("run started", "scenarios", len(names), "base_url", r.settings.BaseURL)

	for _, name := range names {
		r.reporter.Start(name)
		began := r.clock.Now()

		result := Result{Name: name}
		var err error
		if cerr := ctx.Err(); cerr != nil {
			err = errs.New(errs.ErrInternal, string(name)+".cancelled", cerr)
		} else {
			err = r.execute(ctx, &result)
		}
		result.Duration = r.clock.Now().Sub(began)
		if err != nil {
			result.Status = Failed
			result.Err = err
			result.Code = errs.CodeOf(err)
			res.Results = append(res.Results, result)
			res.Finished = r.clock.Now()
			r.reporter.Fail(result)
			log.Error("scenario failed", "scenario", name, "code", result.Code, "err", err)
			return res, fmt.Errorf("%s: %w", name, err)
		}

		result.Status = Passed
		res.Results = append(res.Results, result)
		r.reporter.Pass(result)
		log.Info("scenario passed", "scenario", name, "duration", result.Duration, "artifact", result.Artifact)
	}

	res.Finished = r.clock.Now()
	log.Info("run finished", "duration", res.Duration())
	return res, nil
}

// execute dispatches one scenario and fills in res's report fields.
func (r *Runner) execute(ctx context.Context, res *Result) error {
	switch res.Name {
	case Register:
		email, err := r.Register(ctx)
		if err != nil {
			return err
		}
		res.Artifact, res.Detail = email, "User registration successful!"
	case Login:
		if err := r.Login(ctx, r.settings.Admin); err != nil {
			return err
		}
		res.Artifact, res.Detail = r.settings.Admin.Email, "User login successful!"
	case CreateCourse:
		title, err := r.CreateCourse(ctx)
		if err != nil {
			return err
		}
		res.Artifact, res.Detail = title, fmt.Sprintf("Course '%s' created successfully!", title)
	case Browse:
		n, err := r.Browse(ctx)
		if err != nil {
			return err
		}
		res.Artifact, res.Detail = fmt.Sprint(n), fmt.Sprintf("Found %d courses on the browse page", n)
	case Enroll:
		e, err := r.Enroll(ctx)
		if err != nil {
			return err
		}
		res.Artifact, res.Outcome = e.String(), e.Outcome
		res.Detail = "Successfully enrolled in course!"
		if e.Outcome == AlreadyEnrolled {
			res.Detail = "Already enrolled in course"
		}
	default:
		return errs.Newf(errs.ErrValidation, "runner.execute", "unknown scenario %q", res.Name)
	}
	return nil
}
