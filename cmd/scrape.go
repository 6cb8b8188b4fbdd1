package cmd

import (
	"encoding/json"
	"errors"
	"os"
	"time"

	"github.com/spf13/cobra"

	"sjsage522/portalevents/logger"
)

var (
	scrapeMax   *int
	scrapeEmail *string
)

func init() {
	scrapeMax = scrapeCmd.Flags().Int("max", 0, "Maximum number of events to print, 0 for all.")
	scrapeEmail = scrapeCmd.Flags().String("email", "", "Portal account email, defaults to PORTAL_EMAIL.")
	rootCmd.AddCommand(scrapeCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape [--max <n>] [--email <address>]",
	Short: "Runs one extraction and writes the events as JSON to stdout.",
	Long:  "Runs one extraction and writes the events as JSON to stdout. The password is read from PORTAL_PASSWORD.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		email := *scrapeEmail
		if email == "" {
			email = a.cfg.PortalEmail
		}
		if email == "" || a.cfg.PortalPassword == "" {
			return errors.New("an account email (--email or PORTAL_EMAIL) and PORTAL_PASSWORD are required")
		}

		t1 := time.Now()
		list, err := a.scraper.Scrape(cmd.Context(), a.request(email, a.cfg.PortalPassword, *scrapeMax))
		if err != nil {
			return err
		}
		logger.Info("Extracted %d events in %s", len(list), time.Since(t1))

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(list)
	},
}
