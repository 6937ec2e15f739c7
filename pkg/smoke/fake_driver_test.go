package smoke

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/thesyncim/edusmoke/pkg/browser"
	"github.com/thesyncim/edusmoke/pkg/errs"
	"github.com/thesyncim/edusmoke/pkg/smoke/internal"
)

// call is one recorded Driver invocation. Target is a URL or locator string.
type call struct {
	Method string
	Target string
	Text   string
}

// fakeDriver records every call and fails or answers on demand.
type fakeDriver struct {
	calls     []call
	deadlines []bool // per call: did ctx carry a deadline
	fail      map[string]error
	texts     map[string]string
	count     int
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		fail: map[string]error{},
		texts: map[string]string{
			CourseHeading.String(): "Intro to Go",
		},
	}
}

func key(method, target string) string { return method + " " + target }

// failOn makes method on target return a wait-timeout error.
func (f *fakeDriver) failOn(method, target string) {
	f.fail[key(method, target)] = errs.New(errs.ErrWaitTimeout, "browser."+method, context.DeadlineExceeded).WithResource(target)
}

func (f *fakeDriver) record(ctx context.Context, method, target, text string) error {
	_, ok := ctx.Deadline()
	f.calls = append(f.calls, call{Method: method, Target: target, Text: text})
	f.deadlines = append(f.deadlines, ok)
	return f.fail[key(method, target)]
}

func (f *fakeDriver) Navigate(ctx context.Context, url string) error {
	return f.record(ctx, "navigate", url, "")
}

func (f *fakeDriver) WaitFor(ctx context.Context, loc browser.Locator) error {
	return f.record(ctx, "wait", loc.String(), "")
}

func (f *fakeDriver) WaitClickable(ctx context.Context, loc browser.Locator) error {
	return f.record(ctx, "clickable", loc.String(), "")
}

func (f *fakeDriver) Fill(ctx context.Context, loc browser.Locator, text string) error {
	return f.record(ctx, "fill", loc.String(), text)
}

func (f *fakeDriver) Click(ctx context.Context, loc browser.Locator) error {
	return f.record(ctx, "click", loc.String(), "")
}

func (f *fakeDriver) Text(ctx context.Context, loc browser.Locator) (string, error) {
	if err := f.record(ctx, "text", loc.String(), ""); err != nil {
		return "", err
	}
	return f.texts[loc.String()], nil
}

func (f *fakeDriver) Count(ctx context.Context, loc browser.Locator) (int, error) {
	if err := f.record(ctx, "count", loc.String(), ""); err != nil {
		return 0, err
	}
	return f.count, nil
}

// methods returns the recorded calls as "method target" strings.
func (f *fakeDriver) methods() []string {
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = key(c.Method, c.Target)
	}
	return out
}

// filled returns the text typed into target, or "" if it was never filled.
func (f *fakeDriver) filled(target string) string {
	for _, c := range f.calls {
		if c.Method == "fill" && c.Target == target {
			return c.Text
		}
	}
	return ""
}

// recordingReporter captures reporter callbacks in order.
type recordingReporter struct {
	events []string
	last   Result
}

func (r *recordingReporter) Start(n Name) { r.events = append(r.events, "start "+string(n)) }
func (r *recordingReporter) Pass(res Result) {
	r.events = append(r.events, "pass "+string(res.Name))
	r.last = res
}
func (r *recordingReporter) Fail(res Result) {
	r.events = append(r.events, "fail "+string(res.Name))
	r.last = res
}

var testStart = time.Unix(1700000000, 0)

func testSettings() Settings {
	s := DefaultSettings()
	s.BaseURL = "http://app.test"
	return s
}

func newTestRunner(t *testing.T, d Driver, opts ...Option) (*Runner, *internal.MockClock) {
	t.Helper()
	clock := internal.NewMockClock(testStart)
	opts = append([]Option{WithClock(clock)}, opts...)
	r, err := NewRunner(d, testSettings(), opts...)
	if err != nil {
		t.Fatalf("NewRunner() failed: %v", err)
	}
	return r, clock
}

var errBoom = errors.New("boom")
