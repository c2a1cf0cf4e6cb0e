package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/romangod6/store-insights/config"
	"github.com/romangod6/store-insights/internal/fetch"
	"github.com/romangod6/store-insights/internal/scraper"
	"github.com/romangod6/store-insights/internal/utils"
)

var configDir string

var rootCmd = &cobra.Command{
	Use:   "storeprobe",
	Short: "storeprobe runs store extractions and competitor searches from the command line.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "Directory holding config.yaml (defaults to . and ./config).")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if configDir != "" {
		return config.LoadConfig(configDir)
	}
	return config.LoadConfig()
}

func newAggregator(cfg *config.Config, verbose bool) *scraper.Aggregator {
	fetcher := fetch.NewFetcher(fetch.Options{
		UserAgent:      cfg.Scraper.UserAgent,
		RequestTimeout: cfg.GetRequestTimeout(),
	})

	return scraper.NewAggregator(fetcher, scraper.DefaultScrapers(fetcher, scraper.Options{
		Currency:        cfg.Scraper.Currency,
		MaxProductPages: cfg.Scraper.MaxProductPages,
		MaxHeroProducts: cfg.Scraper.MaxHeroProducts,
		PolicyMaxChars:  cfg.Scraper.PolicyMaxChars,
	}), scraper.AggregatorConfig{
		FieldTimeout: cfg.GetFieldTimeout(),
		HomeTimeout:  cfg.GetRequestTimeout(),
		Logging: utils.LoggerOptions{
			Dir:   cfg.Logging.Dir,
			Debug: verbose || cfg.Logging.Debug,
		},
	})
}
