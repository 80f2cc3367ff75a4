package cmd

import (
	"os"

	"github.com/LorenzoTomaz/ads-market-scraper/internal/utils"
	"github.com/LorenzoTomaz/ads-market-scraper/pkg/export"
	"github.com/LorenzoTomaz/ads-market-scraper/pkg/strategy"
	"github.com/spf13/cobra"
)

// classifyCmd represents the classify command
var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Group captured entries by response type",
	Long:  "Classifies every entry of a HAR capture and writes the decoded graphql and search_ads entries to a JSON file.",
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, map[string]string{"strategies": "strategies"})
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		input, _ := cmd.Flags().GetString("input")
		output, _ := cmd.Flags().GetString("output")
		quiet, _ := cmd.Flags().GetBool("quiet")

		entries, err := loadEntries(input)
		if err != nil {
			return err
		}
		executor, err := newExecutor()
		if err != nil {
			return err
		}

		grouped, stats := executor.Run(entries)
		res, err := export.SaveGrouped(output, grouped)
		if err != nil {
			return err
		}
		utils.Log.Infof("Saved %d of %d entries to %s", res.Count, stats.Total, res.SavedTo)

		if !quiet {
			printStats(os.Stdout, stats)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(classifyCmd)

	classifyCmd.Flags().StringP("input", "i", "", "HAR capture to classify")
	classifyCmd.Flags().StringP("output", "o", "network_log.json", "Where to write the grouped entries")
	classifyCmd.Flags().StringSlice("strategies", []string{strategy.LabelGraphQL, strategy.LabelSearchAds}, "Strategies to try, in priority order (graphql, search_ads)")
	classifyCmd.Flags().BoolP("quiet", "q", false, "Do not print classification stats")
	classifyCmd.MarkFlagRequired("input")
}
