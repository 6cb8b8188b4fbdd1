package cmd

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"sjsage522/portalevents/internal/api"
	"sjsage522/portalevents/logger"
	"sjsage522/portalevents/services/cache"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the extraction and email API.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		log := logger.ForAPI()

		if a.cfg.Environment == "production" {
			gin.SetMode(gin.ReleaseMode)
		}

		var results *cache.ResultCache
		if a.cfg.MemcacheAddr != "" && a.cfg.ResultCacheTTL > 0 {
			svc := cache.NewMemcacheService(a.cfg.MemcacheAddr)
			if err := svc.Ping(); err != nil {
				log.Warn().Err(err).Str("addr", a.cfg.MemcacheAddr).Msg("Memcache not reachable yet")
			}
			results = cache.NewResultCache(svc, a.cfg.ResultCacheTTL, logger.ForCache())
			log.Info().Str("addr", a.cfg.MemcacheAddr).Dur("ttl", a.cfg.ResultCacheTTL).Msg("Result cache enabled")
		}

		router := api.NewRouter(api.Deps{
			Config:    a.cfg,
			Extractor: a.scraper,
			Cache:     results,
			Gatherer:  a.registry,
			Log:       log,
		})
		srv := api.NewServer(":"+strconv.Itoa(a.cfg.Port), router, a.cfg.SessionTimeout)
		return api.Run(cmd.Context(), srv, log)
	},
}
