// Package browsertest provides an in-memory browser.Session for pipeline tests.
package browsertest

import (
	"context"
	"fmt"
	"sync"

	"github.com/chromedp/cdproto/cdp"

	"sjsage522/portalevents/internal/browser"
)

// Fill records one Fill call
type Fill struct {
	Selector string
	Value    string
}

// Session is a scripted page. Selectors listed in Visible resolve immediately; any
// other selector blocks until the caller's context ends, like a real wait would.
type Session struct {
	// Visible is the set of selectors that match an element
	Visible map[string]bool
	// URL is the current location
	URL string
	// Heights is the document height after n scrolls; the last entry repeats
	Heights []int64
	// HTML is returned by OuterHTML
	HTML string

	// AfterNavigate runs after a navigation has been recorded
	AfterNavigate func(s *Session, url string)
	// AfterClick runs after a click has been recorded
	AfterClick func(s *Session, selector string)
	// AfterScroll runs after the n-th scroll (starting at 1)
	AfterScroll func(s *Session, n int)

	// ScrollErr fails ScrollToBottom when set
	ScrollErr error
	// NavigateErr fails Navigate when set
	NavigateErr error

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	navigations []string
	fills       []Fill
	clicks      []string
	scrolls     int
	handlers    []handler
	seq         uint64
	draining    bool
	inflight    sync.WaitGroup
	closed      int
}

type handler struct {
	match  browser.ResponseMatcher
	handle browser.ResponseHandler
}

// NewSession creates an empty scripted page
func NewSession() *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		Visible: make(map[string]bool),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Show marks selectors as matching a visible element
func (s *Session) Show(selectors ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sel := range selectors {
		s.Visible[sel] = true
	}
}

// SetURL changes the current location
func (s *Session) SetURL(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.URL = url
}

// Emit delivers a response to every matching handler on its own goroutine, the way the
// browser's network events arrive. It returns false when the session no longer accepts
// responses.
func (s *Session) Emit(resp browser.Response) bool {
	s.mu.Lock()
	if s.draining {
		s.mu.Unlock()
		return false
	}
	s.seq++
	resp.Seq = s.seq
	var matched []handler
	for _, h := range s.handlers {
		if h.match(resp.URL) {
			matched = append(matched, h)
		}
	}
	s.inflight.Add(len(matched))
	s.mu.Unlock()

	for _, h := range matched {
		go func(h handler) {
			defer s.inflight.Done()
			h.handle(resp)
		}(h)
	}
	return true
}

// EmitJSON emits a 200 application/json response with the given body
func (s *Session) EmitJSON(url, body string) bool {
	return s.Emit(browser.Response{
		URL:         url,
		Status:      200,
		ContentType: "application/json; charset=utf-8",
		Body:        []byte(body),
	})
}

// Navigations returns the visited URLs in order
func (s *Session) Navigations() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.navigations...)
}

// Fills returns the recorded Fill calls
func (s *Session) Fills() []Fill {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Fill(nil), s.fills...)
}

// Clicks returns the selectors of the clicked elements
func (s *Session) Clicks() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.clicks...)
}

// Scrolls returns the number of ScrollToBottom calls
func (s *Session) Scrolls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scrolls
}

// Handlers returns the number of registered response handlers
func (s *Session) Handlers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handlers)
}

// Closed returns how many times Close was called
func (s *Session) Closed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Session) Context() context.Context {
	return s.ctx
}

func (s *Session) OnResponse(match browser.ResponseMatcher, handle browser.ResponseHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, handler{match: match, handle: handle})
}

func (s *Session) Drain(ctx context.Context) error {
	s.mu.Lock()
	s.draining = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) Close() error {
	s.mu.Lock()
	s.closed++
	s.draining = true
	s.mu.Unlock()
	s.cancel()
	return nil
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.NavigateErr != nil {
		return s.NavigateErr
	}
	s.mu.Lock()
	s.navigations = append(s.navigations, url)
	s.URL = url
	hook := s.AfterNavigate
	s.mu.Unlock()

	if hook != nil {
		hook(s, url)
	}
	return nil
}

func (s *Session) WaitVisible(ctx context.Context, selector string) (browser.Element, error) {
	s.mu.Lock()
	visible := s.Visible[selector]
	s.mu.Unlock()

	if visible {
		return browser.Element{Selector: selector, NodeID: cdp.NodeID(len(selector))}, nil
	}
	<-ctx.Done()
	return browser.Element{}, ctx.Err()
}

func (s *Session) Fill(ctx context.Context, el browser.Element, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fills = append(s.fills, Fill{Selector: el.Selector, Value: value})
	return nil
}

func (s *Session) Click(ctx context.Context, el browser.Element) error {
	s.mu.Lock()
	s.clicks = append(s.clicks, el.Selector)
	hook := s.AfterClick
	s.mu.Unlock()

	if hook != nil {
		hook(s, el.Selector)
	}
	return nil
}

func (s *Session) Location(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.URL, nil
}

func (s *Session) ScrollHeight(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Heights) == 0 {
		return 0, nil
	}
	i := min(s.scrolls, len(s.Heights)-1)
	return s.Heights[i], nil
}

func (s *Session) ScrollToBottom(ctx context.Context) error {
	if s.ScrollErr != nil {
		return s.ScrollErr
	}
	s.mu.Lock()
	s.scrolls++
	n := s.scrolls
	hook := s.AfterScroll
	s.mu.Unlock()

	if hook != nil {
		hook(s, n)
	}
	return nil
}

func (s *Session) OuterHTML(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.HTML, nil
}

// Launcher hands out one prepared Session
type Launcher struct {
	Session *Session
	Err     error

	mu       sync.Mutex
	launches []browser.LaunchOptions
}

func (l *Launcher) Launch(ctx context.Context, opts browser.LaunchOptions) (browser.Session, error) {
	l.mu.Lock()
	l.launches = append(l.launches, opts)
	l.mu.Unlock()

	if l.Err != nil {
		return nil, l.Err
	}
	if l.Session == nil {
		return nil, fmt.Errorf("browsertest: no session prepared")
	}
	return l.Session, nil
}

// Launches returns the options of every Launch call
func (l *Launcher) Launches() []browser.LaunchOptions {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]browser.LaunchOptions(nil), l.launches...)
}
