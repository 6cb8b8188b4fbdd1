package cmd

import (
	"github.com/spf13/cobra"

	"sjsage522/portalevents/helpers"
	"sjsage522/portalevents/logger"
	"sjsage522/portalevents/services/publisher"
	"sjsage522/portalevents/services/worker"
)

func init() {
	rootCmd.AddCommand(workerCmd)
}

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Extracts events on a schedule and publishes them to Redis streams.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		if err := a.cfg.ValidateWorker(); err != nil {
			return err
		}
		log := logger.ForWorker()

		pub, err := publisher.NewRedisPublisher(publisher.RedisOptions{
			Addr:            a.cfg.RedisAddr,
			DB:              a.cfg.RedisDB,
			StreamPrefix:    a.cfg.RedisStream,
			StreamCount:     a.cfg.RedisStreamCount,
			StreamMaxLength: a.cfg.RedisStreamMaxLength,
		})
		if err != nil {
			return err
		}
		defer pub.Close()

		if err := pub.Ping(cmd.Context()); err != nil {
			return err
		}
		logger.ForPublisher().Info().
			Str("addr", a.cfg.RedisAddr).
			Int("db", a.cfg.RedisDB).
			Str("stream", a.cfg.RedisStream).
			Msg("Connected to Redis")

		w := worker.NewWorker(a.scraper, pub, helpers.NewLogger(log), worker.Options{
			Request:     a.request(a.cfg.PortalEmail, a.cfg.PortalPassword, a.cfg.DefaultMax),
			Interval:    a.cfg.ScrapeInterval,
			Schedule:    a.cfg.ScrapeSchedule,
			Location:    a.cfg.Location(),
			Environment: a.cfg.Environment,
		})

		log.Info().
			Str("environment", a.cfg.Environment).
			Dur("interval", a.cfg.ScrapeInterval).
			Str("schedule", a.cfg.ScrapeSchedule).
			Msg("Starting events worker")
		return w.Start(cmd.Context())
	},
}
