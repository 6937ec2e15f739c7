package smoke

import (
	"context"
	"fmt"
	"strings"

	"github.com/thesyncim/edusmoke/pkg/browser"
	"github.com/thesyncim/edusmoke/pkg/errs"
)

// Register signs up a new account with a generated, unique email and waits
// for the success banner. It returns the email.
func (r *Runner) Register(ctx context.Context) (string, error) {
	acct := r.settings.Registration
	acct.Email = fmt.Sprintf("test%d@example.com", r.clock.Now().Unix())

	if err := r.submitRegistration(ctx, acct); err != nil {
		return "", errs.Wrap(err, errs.ErrInteract, "register")
	}
	if err := r.waitFor(ctx, RegistrationSuccess); err != nil {
		return "", errs.Wrap(err, errs.ErrWaitTimeout, "register.confirm")
	}
	return acct.Email, nil
}

// Login submits creds on the login page and waits for a dashboard heading.
func (r *Runner) Login(ctx context.Context, creds Credentials) error {
	steps := []step{
		r.navigateStep(PathLogin),
		r.waitStep(FieldEmail),
		r.fillStep(FieldEmail, creds.Email),
		r.fillStep(FieldPassword, creds.Password),
		r.clickStep(SubmitButton),
	}
	if err := r.do(ctx, "login", steps); err != nil {
		return err
	}
	if err := r.waitFor(ctx, DashboardHeading); err != nil {
		return errs.Wrap(err, errs.ErrWaitTimeout, "login.dashboard").
			WithAdvice("check the credentials in edusmoke.yaml")
	}
	return nil
}

// CreateCourse logs in as admin, fills the new-course form with a generated
// title and publishes it. It returns the title.
func (r *Runner) CreateCourse(ctx context.Context) (string, error) {
	if err := r.Login(ctx, r.settings.Admin); err != nil {
		return "", errs.Wrap(err, errs.ErrInteract, "create-course")
	}

	c := r.settings.Course
	title := fmt.Sprintf("%s %d", c.TitlePrefix, r.clock.Now().Unix())

	steps := []step{
		r.navigateStep(PathNewCourse),
		r.waitStep(FieldTitle),
		r.fillStep(FieldTitle, title),
		r.fillStep(FieldDescription, c.Description),
		r.clickStep(FieldCategory),
		r.clickableStep(DropdownOption(c.Category)),
		r.clickStep(FieldLevel),
		r.clickableStep(DropdownOption(c.Level)),
		r.clickStep(FieldPublished),
		r.clickStep(CreateCourseButton),
	}
	if err := r.do(ctx, "create-course", steps); err != nil {
		return "", err
	}
	if err := r.waitFor(ctx, CourseCreated); err != nil {
		return "", errs.Wrap(err, errs.ErrWaitTimeout, "create-course.confirm")
	}
	return title, nil
}

// Browse opens the course catalogue, waits for the grid and counts cards.
// An empty catalogue is not a failure.
func (r *Runner) Browse(ctx context.Context) (int, error) {
	if err := r.do(ctx, "browse", []step{
		r.navigateStep(PathCourses),
		r.waitStep(CourseGrid),
	}); err != nil {
		return 0, err
	}
	n, err := r.driver.Count(ctx, CourseCard)
	if err != nil {
		return 0, errs.Wrap(err, errs.ErrElement, "browse.count")
	}
	return n, nil
}

// Enroll logs out, signs the student up (or in, when signup does not
// succeed) and enrolls in the first listed course. A course the student
// already follows is reported as AlreadyEnrolled.
func (r *Runner) Enroll(ctx context.Context) (Enrollment, error) {
	e := Enrollment{Student: r.settings.Student.Email}

	if err := r.driver.Navigate(ctx, r.settings.url(PathLogout)); err != nil {
		return e, errs.Wrap(err, errs.ErrNavigate, "enroll.logout")
	}
	if err := r.clock.Sleep(ctx, r.settings.LogoutPause); err != nil {
		return e, errs.Wrap(err, errs.ErrInternal, "enroll.logout-pause")
	}

	if !r.registerStudent(ctx) {
		if err := r.Login(ctx, r.settings.Student.Credentials()); err != nil {
			return e, errs.Wrap(err, errs.ErrInteract, "enroll")
		}
	}

	if err := r.do(ctx, "enroll", []step{
		r.navigateStep(PathCourses),
		r.waitStep(CourseGrid),
		r.clickStep(FirstCourseCard),
		r.waitStep(EnrollButton),
	}); err != nil {
		return e, err
	}

	title, err := r.text(ctx, CourseHeading)
	if err != nil {
		return e, errs.Wrap(err, errs.ErrElement, "enroll.course-title")
	}
	e.Course = strings.TrimSpace(title)
	if e.Course == "" {
		return e, errs.Newf(errs.ErrAssertion, "enroll.course-title", "course detail page has an empty heading").
			WithResource(CourseHeading.String())
	}

	label, err := r.text(ctx, EnrollButton)
	if err != nil {
		return e, errs.Wrap(err, errs.ErrElement, "enroll.button")
	}
	if !strings.Contains(label, enrollText) {
		e.Outcome = AlreadyEnrolled
		return e, nil
	}

	if err := r.click(ctx, EnrollButton); err != nil {
		return e, errs.Wrap(err, errs.ErrInteract, "enroll.click")
	}
	if err := r.clock.Sleep(ctx, r.settings.EnrollPause); err != nil {
		return e, errs.Wrap(err, errs.ErrInternal, "enroll.pause")
	}
	e.Outcome = Enrolled
	return e, nil
}

// registerStudent tries to sign the configured student up. It reports
// whether the app confirmed the signup; any failure means "log in instead".
func (r *Runner) registerStudent(ctx context.Context) bool {
	log := r.log.With("scenario", Enroll, "account", r.settings.Student.Email)

	if err := r.submitRegistration(ctx, r.settings.Student); err != nil {
		log.Debug("student signup form failed, falling back to login", "err", err)
		return false
	}
	if err := r.waitFor(ctx, RegistrationOutcome); err != nil {
		log.Debug("no signup outcome shown, falling back to login", "err", err)
		return false
	}
	msg, err := r.text(ctx, RegistrationOutcome)
	if err != nil || !(strings.Contains(msg, registrationSuccessText) || strings.Contains(msg, dashboardText)) {
		log.Debug("student signup rejected, falling back to login", "message", msg, "err", err)
		return false
	}
	return true
}

// submitRegistration fills and submits the registration form for acct.
func (r *Runner) submitRegistration(ctx context.Context, acct Account) error {
	return r.do(ctx, "registration-form", []step{
		r.navigateStep(PathRegister),
		r.waitStep(FieldUsername),
		r.fillStep(FieldUsername, acct.Name),
		r.fillStep(FieldEmail, acct.Email),
		r.fillStep(FieldPhone, acct.Phone),
		r.fillStep(FieldPassword, acct.Password),
		r.fillStep(FieldConfirmPassword, acct.Password),
		r.clickStep(SubmitButton),
	})
}

// step is one browser action inside a scenario.
type step struct {
	desc string
	run  func(ctx context.Context) error
}

// do runs steps in order, stopping at the first error.
func (r *Runner) do(ctx context.Context, op string, steps []step) error {
	for _, s := range steps {
		r.log.Debug("step", "op", op, "action", s.desc)
		if err := s.run(ctx); err != nil {
			return errs.Wrap(err, errs.ErrInteract, op)
		}
	}
	return nil
}

func (r *Runner) navigateStep(path string) step {
	url := r.settings.url(path)
	return step{desc: "navigate " + url, run: func(ctx context.Context) error {
		return r.driver.Navigate(ctx, url)
	}}
}

func (r *Runner) waitStep(loc browser.Locator) step {
	return step{desc: "wait " + loc.String(), run: func(ctx context.Context) error {
		return r.waitFor(ctx, loc)
	}}
}

func (r *Runner) fillStep(loc browser.Locator, text string) step {
	return step{desc: "fill " + loc.String(), run: func(ctx context.Context) error {
		wctx, cancel := r.withWait(ctx)
		defer cancel()
		return r.driver.Fill(wctx, loc, text)
	}}
}

func (r *Runner) clickStep(loc browser.Locator) step {
	return step{desc: "click " + loc.String(), run: func(ctx context.Context) error {
		return r.click(ctx, loc)
	}}
}

func (r *Runner) clickableStep(loc browser.Locator) step {
	return step{desc: "click when clickable " + loc.String(), run: func(ctx context.Context) error {
		wctx, cancel := r.withWait(ctx)
		defer cancel()
		return r.driver.WaitClickable(wctx, loc)
	}}
}

func (r *Runner) waitFor(ctx context.Context, loc browser.Locator) error {
	wctx, cancel := r.withWait(ctx)
	defer cancel()
	return r.driver.WaitFor(wctx, loc)
}

func (r *Runner) click(ctx context.Context, loc browser.Locator) error {
	wctx, cancel := r.withWait(ctx)
	defer cancel()
	return r.driver.Click(wctx, loc)
}

func (r *Runner) text(ctx context.Context, loc browser.Locator) (string, error) {
	wctx, cancel := r.withWait(ctx)
	defer cancel()
	return r.driver.Text(wctx, loc)
}

// withWait bounds ctx by the explicit wait timeout.
func (r *Runner) withWait(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.settings.WaitTimeout)
}
