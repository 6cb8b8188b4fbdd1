// Package scraper runs the authenticated extraction of portal events: log in, open the
// listing, scroll until the feed stops growing, and normalize what the feed delivered.
package scraper

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"sjsage522/portalevents/config"
	"sjsage522/portalevents/internal/browser"
	"sjsage522/portalevents/internal/events"
	"sjsage522/portalevents/internal/metrics"
	"sjsage522/portalevents/internal/selectors"
	"sjsage522/portalevents/logger"
	apperrors "sjsage522/portalevents/pkg/errors"
)

// Options configures a Scraper
type Options struct {
	Catalog    *selectors.Catalog
	Auth       AuthConfig
	Pagination PaginationConfig
	Feed       FeedMatcher

	// ReadyTimeout bounds the wait for the listing to render
	ReadyTimeout time.Duration
	// SessionTimeout bounds a whole run; zero means only the caller's context applies
	SessionTimeout time.Duration
	// DrainTimeout bounds the wait for in-flight feed responses
	DrainTimeout time.Duration

	EventPath string
	Location  *time.Location

	// Log is the base logger; runs add their run id. Defaults to logger.ForScraper.
	Log *logger.Logger
}

// OptionsFromConfig builds Options from the process configuration
func OptionsFromConfig(cfg *config.Config, catalog *selectors.Catalog) Options {
	return Options{
		Catalog: catalog,
		Auth: AuthConfig{
			StepTimeout:  cfg.StepTimeout,
			SubmitPause:  time.Second,
			NavTimeout:   cfg.LoginNavTimeout,
			PollInterval: 250 * time.Millisecond,
		},
		Pagination: PaginationConfig{
			MaxIterations:      cfg.ScrollMaxIterations,
			Settle:             cfg.ScrollSettle,
			StabilityThreshold: cfg.ScrollStabilityThreshold,
			FinalSettle:        cfg.ScrollFinalSettle,
		},
		Feed: FeedMatcher{
			PathMarker: cfg.FeedPathMarker,
			GroupParam: cfg.FeedGroupParam,
			GroupValue: cfg.FeedGroupValue,
		},
		ReadyTimeout:   cfg.ReadyTimeout,
		SessionTimeout: cfg.SessionTimeout,
		DrainTimeout:   10 * time.Second,
		EventPath:      cfg.EventPath,
		Location:       cfg.Location(),
	}
}

// Scraper runs extraction requests, one browser session per request
type Scraper struct {
	launcher browser.Launcher
	opts     Options
	metrics  *metrics.Metrics
}

// New creates a Scraper. m may be nil.
func New(launcher browser.Launcher, opts Options, m *metrics.Metrics) *Scraper {
	if opts.Catalog == nil {
		opts.Catalog = selectors.Default()
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &Scraper{launcher: launcher, opts: opts, metrics: m}
}

// Scrape logs in, collects every event the listing's feed delivers and returns them
// normalized, sorted by start and bounded by req.Max. A login failure returns no events;
// after login, unreadable feed responses only shrink the result.
func (s *Scraper) Scrape(ctx context.Context, req Request) ([]events.Event, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	log := s.runLogger(runID)

	if s.opts.SessionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.SessionTimeout)
		defer cancel()
	}

	start := time.Now()
	outcome, count := metrics.OutcomeError, 0
	s.metrics.RecordRunStarted()
	defer func() {
		s.metrics.RecordRun(outcome, time.Since(start), count)
		log.Info().
			Str("outcome", outcome).
			Int("events", count).
			Dur("elapsed", time.Since(start)).
			Msg("Extraction finished")
	}()

	sess, err := s.launcher.Launch(ctx, browser.LaunchOptions{Headless: req.Headless.Enabled()})
	if err != nil {
		return nil, asSessionError("launch", "failed to start browser", err)
	}
	defer func() {
		if err := sess.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close browser")
		}
	}()

	// Page calls need the session's context; tie it to the run's deadline.
	pageCtx, stop := context.WithCancel(sess.Context())
	defer stop()
	unlink := context.AfterFunc(ctx, stop)
	defer unlink()

	acc := NewAccumulator()
	interceptor := NewInterceptor(s.opts.Feed, acc, log, s.metrics)
	interceptor.Attach(sess)

	auth := NewAuthenticator(s.opts.Catalog, s.opts.Auth, log)
	if state, err := auth.Login(pageCtx, sess, req.LoginURL, req.credentials()); err != nil {
		if state == StateFailed && apperrors.IsType(err, apperrors.ErrorTypeElementNotFound) {
			outcome = metrics.OutcomeAuthFailed
		}
		log.Error().Str("reason", apperrors.ReasonOf(err)).Msg("Login failed")
		return nil, err
	}

	if err := sess.Navigate(pageCtx, req.EventsURL); err != nil {
		return nil, asSessionError("events", "failed to open events page", err)
	}
	s.awaitListing(pageCtx, sess, log)

	stats, err := Paginate(pageCtx, sess, s.opts.Pagination, log)
	s.metrics.RecordPagination(stats.Iterations)
	if err != nil {
		return nil, err
	}

	s.logCoverage(pageCtx, sess, acc.Len(), log)

	drainCtx, cancelDrain := context.WithTimeout(ctx, s.drainTimeout())
	if err := sess.Drain(drainCtx); err != nil {
		log.Warn().Err(err).Msg("Feed handlers did not finish, using what was captured")
	}
	cancelDrain()

	istats := interceptor.Stats()
	log.Debug().
		Int64("responses", istats.Responses).
		Int64("ignored", istats.Ignored).
		Int64("parse_failed", istats.ParseFailed).
		Int64("no_identity", istats.NoIdentity).
		Int("unique", istats.Accumulated).
		Msg("Feed capture complete")

	list := s.normalize(acc.Records(), req.BaseURL)
	events.SortByStart(list, s.opts.Location)
	list = events.Truncate(list, req.Max)

	outcome, count = metrics.OutcomeSuccess, len(list)
	return list, nil
}

func (s *Scraper) normalize(records []events.RawRecord, baseURL string) []events.Event {
	opts := events.Options{
		BaseURL:   baseURL,
		EventPath: s.opts.EventPath,
		Location:  s.opts.Location,
	}
	list := make([]events.Event, 0, len(records))
	for _, rec := range records {
		list = append(list, events.Normalize(rec, opts))
	}
	return list
}

// awaitListing waits for the listing to render. Not seeing it is only logged; the feed
// capture decides what the run returns.
func (s *Scraper) awaitListing(ctx context.Context, page browser.Page, log *logger.Logger) {
	readyCtx, cancel := context.WithTimeout(ctx, s.opts.ReadyTimeout)
	defer cancel()

	el, ok := Locate(readyCtx, page, s.opts.Catalog.Candidates(selectors.GridReadyProbe), s.opts.ReadyTimeout)
	if !ok {
		log.Warn().Dur("timeout", s.opts.ReadyTimeout).Msg("Listing not visible yet, scrolling anyway")
		return
	}
	log.Debug().Str("selector", el.Selector).Msg("Listing ready")
}

// logCoverage compares rendered cards against captured records
func (s *Scraper) logCoverage(ctx context.Context, page browser.Page, captured int, log *logger.Logger) {
	html, err := page.OuterHTML(ctx)
	if err != nil {
		log.Debug().Err(err).Msg("Skipping coverage check")
		return
	}
	cards, sel, err := countCards(html, s.opts.Catalog.Candidates(selectors.EventCard))
	if err != nil {
		log.Debug().Err(err).Msg("Skipping coverage check")
		return
	}
	log.Debug().
		Int("rendered_cards", cards).
		Str("selector", sel).
		Int("captured_records", captured).
		Msg("Coverage")
}

func (s *Scraper) drainTimeout() time.Duration {
	if s.opts.DrainTimeout > 0 {
		return s.opts.DrainTimeout
	}
	return 10 * time.Second
}

func (s *Scraper) runLogger(runID string) *logger.Logger {
	if s.opts.Log != nil {
		return s.opts.Log.WithField("run_id", runID)
	}
	return logger.ForScraper(runID)
}

// asSessionError keeps typed errors and wraps anything else as a session failure
func asSessionError(stage, message string, err error) error {
	var se *apperrors.ScrapeError
	if errors.As(err, &se) {
		return err
	}
	return apperrors.NewSession(stage, message, err)
}
