// Package health probes the app under test before a browser is launched.
package health

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/thesyncim/edusmoke/pkg/errs"
)

// DefaultTimeout is used when the configured timeout is zero.
const DefaultTimeout = 5 * time.Second

// CheckHTTP performs an HTTP GET to url and requires a 2xx response after
// redirects. Any failure is an ERR-PREFLIGHT-001.
func CheckHTTP(ctx context.Context, url string, timeout time.Duration) error {
	if url == "" {
		return errs.Newf(errs.ErrPreflight, "preflight.http", "url is required")
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	client := &http.Client{
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) > 5 {
				return fmt.Errorf("too many redirects")
			}
			return nil
		},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errs.New(errs.ErrPreflight, "preflight.http", fmt.Errorf("build request: %w", err)).
			WithResource(url)
	}
	req.Header.Set("User-Agent", "edusmoke-preflight/1.0")

	resp, err := client.Do(req)
	if err != nil {
		return errs.New(errs.ErrPreflight, "preflight.http", err).
			WithResource(url).
			WithAdvice("start the EduApp dev server or point --base-url at a running instance")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errs.Newf(errs.ErrPreflight, "preflight.http", "non-2xx status: %d", resp.StatusCode).
			WithResource(url)
	}
	return nil
}
