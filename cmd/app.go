package cmd

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"sjsage522/portalevents/config"
	"sjsage522/portalevents/internal/browser"
	"sjsage522/portalevents/internal/metrics"
	"sjsage522/portalevents/internal/scraper"
	"sjsage522/portalevents/internal/selectors"
	"sjsage522/portalevents/logger"
)

// app holds what every command shares
type app struct {
	cfg      *config.Config
	registry *prometheus.Registry
	scraper  *scraper.Scraper
}

func newApp() (*app, error) {
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	catalog := selectors.Default()
	if cfg.SelectorsFile != "" {
		var err error
		if catalog, err = selectors.Load(cfg.SelectorsFile); err != nil {
			return nil, err
		}
		logger.Info("Loaded selector overrides from %s", cfg.SelectorsFile)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	launcher := browser.NewChromeLauncher(cfg.ChromeWSURL, logger.ForBrowser())
	s := scraper.New(launcher, scraper.OptionsFromConfig(cfg, catalog), metrics.New(reg))

	return &app{cfg: cfg, registry: reg, scraper: s}, nil
}

// request builds an extraction request against the configured portal
func (a *app) request(email, password string, max int) scraper.Request {
	return scraper.Request{
		BaseURL:   a.cfg.BaseURL,
		LoginURL:  a.cfg.LoginURL,
		EventsURL: a.cfg.EventsURL,
		Email:     email,
		Password:  password,
		Headless:  scraper.HeadlessFrom(a.cfg.Headless),
		Max:       max,
	}
}
