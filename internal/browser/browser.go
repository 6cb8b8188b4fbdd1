// Package browser is the automation surface the extraction pipeline drives. The
// pipeline only talks to Session, so tests can swap the Chrome implementation for a fake.
package browser

import (
	"context"

	"github.com/chromedp/cdproto/cdp"
)

// Element is a handle to a located DOM node
type Element struct {
	Selector string
	NodeID   cdp.NodeID
}

// Response is a completed network response observed on the session
type Response struct {
	// Seq increases in the order response headers were observed
	Seq         uint64
	URL         string
	Status      int
	ContentType string
	Body        []byte
	// BodyErr is set when the body could not be retrieved
	BodyErr error
}

// ResponseMatcher selects which responses a handler wants to see
type ResponseMatcher func(url string) bool

// ResponseHandler consumes a matched response. Handlers may run concurrently with each
// other and with the code driving the page.
type ResponseHandler func(Response)

// Page is the set of page interactions the pipeline needs. Every ctx passed in must
// derive from Session.Context.
type Page interface {
	Navigate(ctx context.Context, url string) error
	// WaitVisible blocks until selector matches a visible element or ctx is done
	WaitVisible(ctx context.Context, selector string) (Element, error)
	Fill(ctx context.Context, el Element, value string) error
	Click(ctx context.Context, el Element) error
	Location(ctx context.Context) (string, error)
	ScrollHeight(ctx context.Context) (int64, error)
	ScrollToBottom(ctx context.Context) error
	OuterHTML(ctx context.Context) (string, error)
}

// Session is one browser with one page
type Session interface {
	Page

	// Context is the root context for page calls; it ends when the session closes
	Context() context.Context

	// OnResponse registers a passive listener for matching responses
	OnResponse(match ResponseMatcher, handle ResponseHandler)

	// Drain stops delivering new responses and waits for running handlers to return
	Drain(ctx context.Context) error

	// Close releases the browser. It is safe to call more than once.
	Close() error
}

// LaunchOptions configures a new session
type LaunchOptions struct {
	Headless bool
}

// Launcher opens browser sessions
type Launcher interface {
	Launch(ctx context.Context, opts LaunchOptions) (Session, error)
}
