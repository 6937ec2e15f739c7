package smoke

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thesyncim/edusmoke/pkg/errs"
)

func TestNewRunner_Validation(t *testing.T) {
	_, err := NewRunner(nil, DefaultSettings())
	assert.True(t, errs.IsCode(err, errs.ErrValidation))

	bad := DefaultSettings()
	bad.BaseURL = "localhost:5173"
	_, err = NewRunner(newFakeDriver(), bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "absolute http(s) URL")
}

func TestNewRunner_InvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{"nil reporter", WithReporter(nil)},
		{"nil logger", WithLogger(nil)},
		{"nil clock", WithClock(nil)},
		{"empty run ID", WithRunID("")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRunner(newFakeDriver(), DefaultSettings(), tt.opt)
			assert.True(t, errs.IsCode(err, errs.ErrValidation))
		})
	}
}

func TestRun_DefaultSequence(t *testing.T) {
	d := newFakeDriver()
	d.count = 4
	d.texts[RegistrationOutcome.String()] = "Registration successful"
	d.texts[EnrollButton.String()] = "Enroll Now"
	rep := &recordingReporter{}
	r, _ := newTestRunner(t, d, WithReporter(rep), WithLogger(slog.New(slog.DiscardHandler)))

	res, err := r.Run(context.Background(), DefaultNames())
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.True(t, res.Passed())
	assert.Nil(t, res.Failed())
	assert.Equal(t, "http://app.test", res.BaseURL)
	assert.Equal(t, "run-20231114T221320.000Z", res.ID)
	require.Len(t, res.Results, 4)

	assert.Equal(t, []string{
		"start login", "pass login",
		"start create-course", "pass create-course",
		"start browse", "pass browse",
		"start enroll", "pass enroll",
	}, rep.events)

	byName := map[Name]Result{}
	for _, r := range res.Results {
		assert.Equal(t, Passed, r.Status)
		byName[r.Name] = r
	}
	assert.Equal(t, "User login successful!", byName[Login].Detail)
	assert.Equal(t, "4", byName[Browse].Artifact)
	assert.Equal(t, "Found 4 courses on the browse page", byName[Browse].Detail)
	assert.Equal(t, "student@example.com -> Intro to Go", byName[Enroll].Artifact)
	assert.Equal(t, Enrolled, byName[Enroll].Outcome)
	assert.Equal(t, "Successfully enrolled in course!", byName[Enroll].Detail)
	assert.Contains(t, byName[CreateCourse].Detail, "created successfully!")

	// Enroll paused 1s + 2s on the mock clock.
	assert.Equal(t, 3*time.Second, byName[Enroll].Duration)
	assert.Equal(t, 3*time.Second, res.Duration())
}

func TestRun_StopsAtFirstFailure(t *testing.T) {
	d := newFakeDriver()
	d.failOn("wait", CourseCreated.String())
	rep := &recordingReporter{}
	r, _ := newTestRunner(t, d, WithReporter(rep), WithRunID("fixed"))

	res, err := r.Run(context.Background(), DefaultNames())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create-course:")

	assert.Equal(t, "fixed", res.ID)
	assert.False(t, res.Passed())
	require.Len(t, res.Results, 2)
	assert.Equal(t, Passed, res.Results[0].Status)

	failed := res.Failed()
	require.NotNil(t, failed)
	assert.Equal(t, CreateCourse, failed.Name)
	assert.Same(t, &res.Results[1], failed)
	assert.Equal(t, errs.ErrWaitTimeout, failed.Code)
	assert.NotEmpty(t, failed.ErrText())

	assert.Equal(t, []string{
		"start login", "pass login",
		"start create-course", "fail create-course",
	}, rep.events)
	assert.Equal(t, CreateCourse, rep.last.Name)

	for _, c := range d.calls {
		assert.NotEqual(t, "http://app.test/courses", c.Target, "browse must not run after a failure")
	}
}

func TestRun_Cancelled(t *testing.T) {
	d := newFakeDriver()
	r, _ := newTestRunner(t, d)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := r.Run(ctx, []Name{Browse, Login})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, res.Results, 1)
	assert.Equal(t, Failed, res.Results[0].Status)
	assert.Empty(t, d.calls)
}

func TestRun_UnknownScenario(t *testing.T) {
	r, _ := newTestRunner(t, newFakeDriver())

	res, err := r.Run(context.Background(), []Name{"teleport"})
	require.Error(t, err)
	assert.Equal(t, errs.ErrValidation, res.Results[0].Code)
}

func TestRun_AlreadyEnrolledDetail(t *testing.T) {
	d := newFakeDriver()
	d.texts[EnrollButton.String()] = "Continue Learning"
	r, _ := newTestRunner(t, d)

	res, err := r.Run(context.Background(), []Name{Enroll})
	require.NoError(t, err)
	assert.Equal(t, "Already enrolled in course", res.Results[0].Detail)
	assert.Equal(t, AlreadyEnrolled, res.Results[0].Outcome)
	assert.Equal(t, "student@example.com -> Intro to Go", res.Results[0].Artifact)
}

func TestRun_DriverErrorSurfacesCode(t *testing.T) {
	d := newFakeDriver()
	d.fail[key("navigate", "http://app.test/login")] = errs.New(errs.ErrNavigate, "browser.navigate", errBoom)
	r, _ := newTestRunner(t, d)

	res, err := r.Run(context.Background(), []Name{Login})
	require.Error(t, err)
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, errs.ErrNavigate, res.Results[0].Code)
}
