package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"sjsage522/portalevents/logger"
	apperrors "sjsage522/portalevents/pkg/errors"
)

// ChromeLauncher starts Chrome sessions through chromedp. With a RemoteURL it attaches
// to an already running browser (for example a headless-shell container) instead of
// spawning one.
type ChromeLauncher struct {
	RemoteURL string
	Log       *logger.Logger
}

// NewChromeLauncher creates a launcher; remoteURL may be empty
func NewChromeLauncher(remoteURL string, log *logger.Logger) *ChromeLauncher {
	if log == nil {
		log = logger.Nop()
	}
	return &ChromeLauncher{RemoteURL: remoteURL, Log: log}
}

// Launch opens a browser with a single tab and enables the network domain on it
func (l *ChromeLauncher) Launch(ctx context.Context, opts LaunchOptions) (Session, error) {
	var (
		allocCtx    context.Context
		allocCancel context.CancelFunc
	)
	if l.RemoteURL != "" {
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(ctx, l.RemoteURL)
	} else {
		allocCtx, allocCancel = chromedp.NewExecAllocator(
			ctx,
			append(
				chromedp.DefaultExecAllocatorOptions[:],
				chromedp.Flag("headless", opts.Headless),
				chromedp.Flag("disable-gpu", true),
				chromedp.Flag("no-sandbox", true),
				chromedp.Flag("disable-dev-shm-usage", true),
			)...,
		)
	}

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	s := &chromeSession{
		ctx:         browserCtx,
		cancel:      browserCancel,
		allocCancel: allocCancel,
		pending:     make(map[network.RequestID]pendingResponse),
		log:         l.Log,
	}
	chromedp.ListenTarget(browserCtx, s.onEvent)

	if err := chromedp.Run(browserCtx, network.Enable()); err != nil {
		s.Close()
		return nil, apperrors.NewSession("launch", "failed to start browser", err)
	}

	l.Log.Debug().
		Bool("headless", opts.Headless).
		Bool("remote", l.RemoteURL != "").
		Msg("Browser session started")

	return s, nil
}

type listener struct {
	match  ResponseMatcher
	handle ResponseHandler
}

// pendingResponse is a matched response whose body has not finished loading yet
type pendingResponse struct {
	seq         uint64
	url         string
	status      int
	contentType string
	listeners   []listener
}

type chromeSession struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	log         *logger.Logger

	mu        sync.Mutex
	listeners []listener
	pending   map[network.RequestID]pendingResponse
	seq       uint64
	draining  bool
	inflight  sync.WaitGroup

	closeOnce sync.Once
	closeErr  error
}

func (s *chromeSession) Context() context.Context {
	return s.ctx
}

func (s *chromeSession) OnResponse(match ResponseMatcher, handle ResponseHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, listener{match: match, handle: handle})
}

// onEvent runs on the chromedp event loop and must not block; body retrieval is a
// CDP round trip, so it happens on its own goroutine.
func (s *chromeSession) onEvent(ev interface{}) {
	switch e := ev.(type) {
	case *network.EventResponseReceived:
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.draining || e.Response == nil {
			return
		}
		var matched []listener
		for _, l := range s.listeners {
			if l.match(e.Response.URL) {
				matched = append(matched, l)
			}
		}
		if len(matched) == 0 {
			return
		}
		s.seq++
		s.pending[e.RequestID] = pendingResponse{
			seq:         s.seq,
			url:         e.Response.URL,
			status:      int(e.Response.Status),
			contentType: contentType(e.Response),
			listeners:   matched,
		}

	case *network.EventLoadingFinished:
		s.mu.Lock()
		p, ok := s.pending[e.RequestID]
		delete(s.pending, e.RequestID)
		if !ok || s.draining {
			s.mu.Unlock()
			return
		}
		s.inflight.Add(1)
		s.mu.Unlock()

		go s.deliver(e.RequestID, p)

	case *network.EventLoadingFailed:
		s.mu.Lock()
		delete(s.pending, e.RequestID)
		s.mu.Unlock()
	}
}

func (s *chromeSession) deliver(id network.RequestID, p pendingResponse) {
	defer s.inflight.Done()

	resp := Response{
		Seq:         p.seq,
		URL:         p.url,
		Status:      p.status,
		ContentType: p.contentType,
	}

	c := chromedp.FromContext(s.ctx)
	if c == nil || c.Target == nil {
		resp.BodyErr = fmt.Errorf("browser target is gone")
	} else {
		body, err := network.GetResponseBody(id).Do(cdp.WithExecutor(s.ctx, c.Target))
		resp.Body, resp.BodyErr = body, err
	}
	if resp.BodyErr != nil {
		s.log.Debug().Err(resp.BodyErr).Str("url", resp.URL).Msg("Failed to read response body")
	}

	for _, l := range p.listeners {
		l.handle(resp)
	}
}

func (s *chromeSession) Drain(ctx context.Context) error {
	s.mu.Lock()
	s.draining = true
	clear(s.pending)
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
		return apperrors.NewSession("drain", "response handlers still running", ctx.Err())
	}
}

func (s *chromeSession) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.draining = true
		s.mu.Unlock()

		if err := chromedp.Cancel(s.ctx); err != nil && s.ctx.Err() == nil {
			s.closeErr = apperrors.NewSession("close", "failed to close browser", err)
		}
		s.cancel()
		s.allocCancel()
	})
	return s.closeErr
}

func (s *chromeSession) Navigate(ctx context.Context, url string) error {
	if err := chromedp.Run(ctx, chromedp.Navigate(url)); err != nil {
		return apperrors.NewSession("navigate", url, err)
	}
	return nil
}

func (s *chromeSession) WaitVisible(ctx context.Context, selector string) (Element, error) {
	var nodes []*cdp.Node
	if err := chromedp.Run(ctx, chromedp.Nodes(selector, &nodes, chromedp.BySearch, chromedp.NodeVisible)); err != nil {
		return Element{}, err
	}
	if len(nodes) == 0 {
		return Element{}, fmt.Errorf("no node matched %q", selector)
	}
	return Element{Selector: selector, NodeID: nodes[0].NodeID}, nil
}

func (s *chromeSession) Fill(ctx context.Context, el Element, value string) error {
	ids := []cdp.NodeID{el.NodeID}
	return chromedp.Run(ctx,
		chromedp.Clear(ids, chromedp.ByNodeID),
		chromedp.SendKeys(ids, value, chromedp.ByNodeID),
	)
}

func (s *chromeSession) Click(ctx context.Context, el Element) error {
	return chromedp.Run(ctx, chromedp.Click([]cdp.NodeID{el.NodeID}, chromedp.ByNodeID))
}

func (s *chromeSession) Location(ctx context.Context) (string, error) {
	var loc string
	err := chromedp.Run(ctx, chromedp.Location(&loc))
	return loc, err
}

func (s *chromeSession) ScrollHeight(ctx context.Context) (int64, error) {
	var height int64
	err := chromedp.Run(ctx, chromedp.Evaluate(`document.documentElement.scrollHeight`, &height))
	return height, err
}

func (s *chromeSession) ScrollToBottom(ctx context.Context) error {
	return chromedp.Run(ctx, chromedp.Evaluate(`window.scrollTo(0, document.documentElement.scrollHeight)`, nil))
}

func (s *chromeSession) OuterHTML(ctx context.Context) (string, error) {
	var html string
	err := chromedp.Run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

// contentType prefers the raw header so a declared charset survives; the MIME type
// reported by Chrome has no parameters.
func contentType(r *network.Response) string {
	for k, v := range r.Headers {
		if strings.EqualFold(k, "Content-Type") {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return r.MimeType
}
