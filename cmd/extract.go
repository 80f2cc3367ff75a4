package cmd

import (
	"os"

	"github.com/LorenzoTomaz/ads-market-scraper/internal/utils"
	"github.com/LorenzoTomaz/ads-market-scraper/pkg/ads"
	"github.com/LorenzoTomaz/ads-market-scraper/pkg/export"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Flatten search_ads results into a table",
	Long: `Flattens the ads found in search_ads responses into one row per creative card.

The input can be a HAR capture or the JSON written by the classify command.
Ads whose collationCount is below the threshold are left out.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, map[string]string{
			"extract.threshold":   "threshold",
			"extract.decode_text": "decode-text",
			"output.format":       "format",
		})
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		input, _ := cmd.Flags().GetString("input")
		output, _ := cmd.Flags().GetString("output")

		format, err := export.ParseFormat(viper.GetString("output.format"))
		if err != nil {
			return err
		}

		entries, err := loadEntries(input)
		if err != nil {
			return err
		}
		executor, err := newExecutor()
		if err != nil {
			return err
		}
		grouped, _ := executor.Run(entries)

		extractor := newExtractor()
		records := extractor.Flatten(grouped.SearchAds)
		utils.Log.Infof("Extracted %d rows from %d search_ads entries (threshold %d)", len(records), len(grouped.SearchAds), extractor.Threshold())

		if output == "" || output == "-" {
			return export.WriteTable(os.Stdout, records, format)
		}
		res, err := export.SaveTable(output, records, format)
		if err != nil {
			return err
		}
		utils.Log.Infof("Saved %d rows to %s", res.Count, res.SavedTo)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringP("input", "i", "", "HAR capture or classified JSON file")
	extractCmd.Flags().StringP("output", "o", "-", "Where to write the table (- for stdout)")
	extractCmd.Flags().StringP("format", "f", "csv", "Table format: csv, md, html, table")
	extractCmd.Flags().IntP("threshold", "t", ads.DefaultThreshold, "Minimum collationCount for an ad to be included")
	extractCmd.Flags().Bool("decode-text", false, "URL- and HTML-decode titles, bodies and captions")
	extractCmd.MarkFlagRequired("input")
}
