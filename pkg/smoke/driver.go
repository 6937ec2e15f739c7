package smoke

import (
	"context"

	"github.com/thesyncim/edusmoke/pkg/browser"
)

// Driver is the browser surface the scenarios need. *browser.Client
// implements it against Chrome.
type Driver interface {
	Navigate(ctx context.Context, url string) error
	WaitFor(ctx context.Context, loc browser.Locator) error
	WaitClickable(ctx context.Context, loc browser.Locator) error
	Fill(ctx context.Context, loc browser.Locator, text string) error
	Click(ctx context.Context, loc browser.Locator) error
	Text(ctx context.Context, loc browser.Locator) (string, error)
	Count(ctx context.Context, loc browser.Locator) (int, error)
}

var _ Driver = (*browser.Client)(nil)

// Reporter receives scenario progress as the runner advances.
type Reporter interface {
	Start(name Name)
	Pass(res Result)
	Fail(res Result)
}

type nopReporter struct{}

func (nopReporter) Start(Name) {}
func (nopReporter) Pass(Result) {}
func (nopReporter) Fail(Result) {}
