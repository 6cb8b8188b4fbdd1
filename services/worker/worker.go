package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/robfig/cron/v3"

	"sjsage522/portalevents/helpers"
	"sjsage522/portalevents/internal/events"
	"sjsage522/portalevents/internal/scraper"
	"sjsage522/portalevents/logger"
	"sjsage522/portalevents/services/publisher"
)

// MessageKey is the stream field carrying an encoded Batch
const MessageKey = "b64_events"

// Extractor runs one extraction
type Extractor interface {
	Scrape(ctx context.Context, req scraper.Request) ([]events.Event, error)
}

// Batch is the message published after each run
type Batch struct {
	ScrapedAt time.Time      `json:"scrapedAt"`
	Events    []events.Event `json:"events"`
}

// Options configures a Worker. Schedule, a standard cron expression, takes precedence
// over Interval.
type Options struct {
	Request     scraper.Request
	Interval    time.Duration
	Schedule    string
	Location    *time.Location
	Environment string
}

// Worker handles the extraction and publishing process
type Worker struct {
	extractor Extractor
	publisher publisher.Publisher
	logger    helpers.LoggerInterface
	opts      Options
	now       func() time.Time
}

// NewWorker creates a new worker
func NewWorker(
	extractor Extractor,
	pub publisher.Publisher,
	logger helpers.LoggerInterface,
	opts Options,
) *Worker {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &Worker{
		extractor: extractor,
		publisher: pub,
		logger:    logger,
		opts:      opts,
		now:       time.Now,
	}
}

// Start runs extractions until ctx is cancelled
func (w *Worker) Start(ctx context.Context) error {
	if w.opts.Schedule != "" {
		return w.startCron(ctx)
	}

	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}

		w.RunOnce(ctx)
		timer.Reset(w.opts.Interval)
	}
}

func (w *Worker) startCron(ctx context.Context) error {
	cl := cronLogger{log: logger.ForWorker()}
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithLocation(w.opts.Location),
		cron.WithChain(cron.SkipIfStillRunning(cl)),
	)
	if _, err := c.AddFunc(w.opts.Schedule, func() { w.RunOnce(ctx) }); err != nil {
		return err
	}

	c.Start()
	w.logger.LogInfo("Scheduled extraction with %q", w.opts.Schedule)
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

// RunOnce runs one extraction, publishes the result and then trims the streams
func (w *Worker) RunOnce(ctx context.Context) {
	start := w.now()
	w.scrapeAndPublish(ctx)

	if err := w.publisher.TrimStreams(ctx); err != nil {
		w.logger.LogError("StreamTrimming", err)
	}

	if w.opts.Environment != "production" {
		w.logger.LogInfo("Extraction took %s", w.now().Sub(start))
	}
}

func (w *Worker) scrapeAndPublish(ctx context.Context) {
	list, err := w.extractor.Scrape(ctx, w.opts.Request)
	if err != nil {
		w.logger.LogError("Scrape", err)
		return
	}
	if len(list) == 0 {
		w.logger.LogInfo("No events extracted, nothing to publish")
		return
	}

	data, err := json.Marshal(Batch{ScrapedAt: w.now().UTC(), Events: list})
	if err != nil {
		w.logger.LogError("Publish", err)
		return
	}
	if err := w.publisher.Publish(ctx, MessageKey, data); err != nil {
		w.logger.LogError("Publish", err)
		return
	}

	w.logger.LogInfo("Published %d events", len(list))
	if w.opts.Environment != "production" {
		w.logSample(list[0])
	}
}

// logSample logs the first event without its banner URL
func (w *Worker) logSample(ev events.Event) {
	if ev.BannerImage != "" {
		ev.BannerImage = "OK"
	}
	data, err := json.Marshal(ev)
	if err != nil {
		w.logger.LogError("Publish", err)
		return
	}
	w.logger.LogInfo("Extracted event: %s", string(data))
}

// cronLogger routes scheduler logs to the worker logger
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
