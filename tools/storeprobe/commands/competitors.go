package commands

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/romangod6/store-insights/internal/competitor"
)

var (
	competitorsMax     int
	competitorsExclude []string
)

func init() {
	competitorsCmd.Flags().IntVarP(&competitorsMax, "max", "n", 0, "Maximum number of candidates (0 uses the configured default).")
	competitorsCmd.Flags().StringSliceVar(&competitorsExclude, "exclude", nil, "Store URLs to leave out of the results.")
	rootCmd.AddCommand(competitorsCmd)
}

var competitorsCmd = &cobra.Command{
	Use:   "competitors <brand>",
	Short: "Searches for candidate competitor storefronts of a brand without scraping them.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		finder := competitor.NewFinder(competitor.FinderConfig{
			SearchURL:      cfg.Competitor.SearchURL,
			UserAgent:      cfg.Scraper.UserAgent,
			RequestTimeout: cfg.GetSearchTimeout(),
			DefaultResults: cfg.Competitor.DefaultResults,
			ResultLimit:    cfg.Competitor.ResultLimit,
		})

		urls, err := finder.Find(cmd.Context(), args[0], competitorsMax, competitorsExclude...)
		if err != nil {
			return err
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"#", "Store", "Brand"})
		for i, u := range urls {
			t.AppendRow(table.Row{i + 1, u, competitor.BrandFromURL(u)})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
		return nil
	},
}
