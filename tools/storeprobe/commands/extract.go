package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/romangod6/store-insights/internal/models"
	"github.com/romangod6/store-insights/internal/storage"
)

var (
	extractJSON    bool
	extractSave    bool
	extractVerbose bool
)

func init() {
	extractCmd.Flags().BoolVar(&extractJSON, "json", false, "Print the full insights record as JSON instead of a summary.")
	extractCmd.Flags().BoolVar(&extractSave, "save", false, "Write the result to the configured database.")
	extractCmd.Flags().BoolVarP(&extractVerbose, "verbose", "v", false, "Log debug lines for each scraper.")
	rootCmd.AddCommand(extractCmd)
}

var extractCmd = &cobra.Command{
	Use:   "extract <store-url>",
	Short: "Extracts insights for one store and prints the status of every field.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		insights, err := newAggregator(cfg, extractVerbose).Aggregate(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		if extractSave {
			store, err := storage.Open(cmd.Context(), cfg.Database.Driver, cfg.Database.URL)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.SaveStoreInsights(cmd.Context(), insights); err != nil {
				return fmt.Errorf("failed to save insights: %w", err)
			}
		}

		if extractJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(insights)
		}

		renderSummary(os.Stdout, insights)
		return nil
	},
}

func renderSummary(w io.Writer, insights *models.StoreInsights) {
	fmt.Fprintf(w, "%s (%s)\n", insights.StoreURL, insights.BrandName)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Field", "Status", "Count", "Reason"})

	for _, f := range models.AllFields {
		status := insights.Status(f)
		t.AppendRow(table.Row{f, status.State, fieldCount(insights, f), status.Reason})
	}

	t.SetStyle(table.StyleRounded)
	t.Render()
}

func fieldCount(insights *models.StoreInsights, f models.Field) int {
	switch f {
	case models.FieldBrand:
		if insights.BrandName != "" {
			return 1
		}
	case models.FieldProducts:
		return len(insights.Products)
	case models.FieldHeroProducts:
		return len(insights.HeroProducts)
	case models.FieldPrivacyPolicy:
		if insights.Policies.Privacy != nil {
			return 1
		}
	case models.FieldReturnPolicy:
		if insights.Policies.Return != nil {
			return 1
		}
	case models.FieldRefundPolicy:
		if insights.Policies.Refund != nil {
			return 1
		}
	case models.FieldFAQs:
		return len(insights.FAQs)
	case models.FieldSocialHandles:
		return len(insights.SocialHandles)
	case models.FieldContactInfo:
		return len(insights.Contact.Emails) + len(insights.Contact.Phones) + len(insights.Contact.Addresses)
	case models.FieldImportantLinks:
		return len(insights.ImportantLinks)
	}
	return 0
}
