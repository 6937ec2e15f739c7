// Package smoke implements the EduApp browser smoke scenarios and the
// sequential runner that drives them through one shared browser session.
package smoke

import (
	"fmt"
	"time"

	"github.com/thesyncim/edusmoke/pkg/errs"
)

// Name identifies one hardcoded scenario.
type Name string

const (
	// Register creates a fresh account with a generated email.
	Register Name = "register"
	// Login signs in and waits for a dashboard heading.
	Login Name = "login"
	// CreateCourse signs in as admin and publishes a generated course.
	CreateCourse Name = "create-course"
	// Browse opens the catalogue and counts course cards.
	Browse Name = "browse"
	// Enroll signs up or in as the student and enrolls in the first course.
	Enroll Name = "enroll"
)

// AllNames returns every scenario in canonical order.
func AllNames() []Name {
	return []Name{Register, Login, CreateCourse, Browse, Enroll}
}

// DefaultNames returns the scenarios a plain `run` executes.
// Registration is opt-in because each run leaves a new account behind.
func DefaultNames() []Name {
	return []Name{Login, CreateCourse, Browse, Enroll}
}

// Title returns the human-readable scenario title used in reports.
func (n Name) Title() string {
	switch n {
	case Register:
		return "User Registration"
	case Login:
		return "User Login"
	case CreateCourse:
		return "Course Creation"
	case Browse:
		return "Course Browsing"
	case Enroll:
		return "Course Enrollment"
	default:
		return string(n)
	}
}

// Valid reports whether n names a known scenario.
func (n Name) Valid() bool {
	for _, known := range AllNames() {
		if n == known {
			return true
		}
	}
	return false
}

// ParseNames converts raw names to scenarios, preserving order.
// An empty input yields DefaultNames.
func ParseNames(raw []string) ([]Name, error) {
	if len(raw) == 0 {
		return DefaultNames(), nil
	}
	seen := make(map[Name]bool, len(raw))
	names := make([]Name, 0, len(raw))
	for _, s := range raw {
		n := Name(s)
		if !n.Valid() {
			return nil, errs.Newf(errs.ErrValidation, "scenario.parse", "unknown scenario %q", s).
				WithAdvice("run `edusmoke scenarios` to list valid names")
		}
		if seen[n] {
			return nil, errs.Newf(errs.ErrValidation, "scenario.parse", "scenario %q listed twice", s)
		}
		seen[n] = true
		names = append(names, n)
	}
	return names, nil
}

// Status is the outcome of one scenario.
type Status string

const (
	Passed Status = "passed"
	Failed Status = "failed"
)

// EnrollOutcome distinguishes a fresh enrollment from an existing one.
type EnrollOutcome string

const (
	Enrolled        EnrollOutcome = "enrolled"
	AlreadyEnrolled EnrollOutcome = "already-enrolled"
)

// Enrollment is what the enroll scenario did and for whom.
type Enrollment struct {
	Student string // Email of the account that enrolled
	Course  string // Title on the course detail page
	Outcome EnrollOutcome
}

// String identifies the enrollment on the server, e.g.
// "student@example.com -> Intro to Go".
func (e Enrollment) String() string {
	return e.Student + " -> " + e.Course
}

// Result is the report for one executed scenario.
type Result struct {
	Name     Name           `json:"name"`
	Status   Status         `json:"status"`
	Detail   string         `json:"detail"`
	Artifact string         `json:"artifact,omitempty"` // email, course title, course count or "<student> -> <course>"
	Outcome  EnrollOutcome  `json:"outcome,omitempty"`  // enroll only
	Duration time.Duration  `json:"duration"`
	Code     errs.ErrorCode `json:"code,omitempty"`
	Err      error          `json:"-"`
}

// ErrText returns the failure message, or "" for a passing result.
func (r Result) ErrText() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// RunResult collects the results of one sequential run.
type RunResult struct {
	ID        string    `json:"id"`
	BaseURL   string    `json:"base_url"`
	StartedAt time.Time `json:"started_at"`
	Finished  time.Time `json:"finished_at"`
	Results   []Result  `json:"results"`
}

// Passed reports whether every executed scenario passed.
func (r *RunResult) Passed() bool {
	return r.Failed() == nil
}

// Failed returns the failing result, or nil.
func (r *RunResult) Failed() *Result {
	for i := range r.Results {
		if r.Results[i].Status == Failed {
			return &r.Results[i]
		}
	}
	return nil
}

// Duration is the wall time of the run.
func (r *RunResult) Duration() time.Duration {
	return r.Finished.Sub(r.StartedAt)
}

// Credentials are the login form inputs.
type Credentials struct {
	Email    string
	Password string
}

// Account is the registration form input.
type Account struct {
	Name     string
	Email    string
	Phone    string
	Password string
}

// Credentials returns the login pair for a.
func (a Account) Credentials() Credentials {
	return Credentials{Email: a.Email, Password: a.Password}
}

func (a Account) String() string {
	return fmt.Sprintf("%s <%s>", a.Name, a.Email)
}
