package scraper

import (
	"context"
	"time"

	"sjsage522/portalevents/internal/browser"
)

// Locate tries candidates in priority order, giving each one its own timeout to match a
// visible element. It reports false when none matched; deciding whether that is fatal
// is up to the caller.
func Locate(ctx context.Context, page browser.Page, candidates []string, timeout time.Duration) (browser.Element, bool) {
	for _, selector := range candidates {
		if ctx.Err() != nil {
			break
		}

		stepCtx, cancel := context.WithTimeout(ctx, timeout)
		el, err := page.WaitVisible(stepCtx, selector)
		cancel()

		if err == nil {
			return el, true
		}
	}
	return browser.Element{}, false
}

// pause waits for d or until ctx ends
func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
