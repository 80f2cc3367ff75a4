package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/LorenzoTomaz/ads-market-scraper/internal/utils"
	"github.com/LorenzoTomaz/ads-market-scraper/pkg/ads"
	"github.com/LorenzoTomaz/ads-market-scraper/pkg/export"
	"github.com/LorenzoTomaz/ads-market-scraper/pkg/storage"
	"github.com/LorenzoTomaz/ads-market-scraper/pkg/storage/postgres"
	"github.com/LorenzoTomaz/ads-market-scraper/pkg/strategy"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// processCmd represents the process command
var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Classify a capture and extract its ads in one go",
	Long: `Runs classify and extract over a HAR capture.

The grouped entries are written to --output and the flattened ads next to
it, with the extension of the table format (network_log.json becomes
network_log.csv). Rows can also be stored in sqlite (--db) and PostgreSQL
(--pg).`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, map[string]string{
			"strategies":          "strategies",
			"extract.threshold":   "threshold",
			"extract.decode_text": "decode-text",
			"output.format":       "format",
			"db.path":             "db",
			"db.postgres_dsn":     "pg",
		})
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		input, _ := cmd.Flags().GetString("input")
		output, _ := cmd.Flags().GetString("output")
		quiet, _ := cmd.Flags().GetBool("quiet")
		store, _ := cmd.Flags().GetBool("store")

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

		grouped, stats := executor.Run(entries)
		res, err := export.SaveGrouped(output, grouped)
		if err != nil {
			return err
		}
		utils.Log.Infof("Saved %d of %d entries to %s", res.Count, stats.Total, res.SavedTo)

		extractor := newExtractor()
		records := extractor.Flatten(grouped.SearchAds)
		tableRes, err := export.SaveTable(export.TablePath(output, format), records, format)
		if err != nil {
			return err
		}
		utils.Log.Infof("Saved %d rows to %s", tableRes.Count, tableRes.SavedTo)

		if !quiet {
			printStats(os.Stdout, stats)
		}

		run := storage.Run{
			Source:    input,
			Threshold: extractor.Threshold(),
			Entries:   stats.Total,
			GraphQL:   stats.Matched[strategy.LabelGraphQL],
			SearchAds: stats.Matched[strategy.LabelSearchAds],
			Unmatched: stats.Unmatched,
			Failed:    stats.Failed,
		}

		ctx := context.Background()
		var runID int64
		if store || viper.GetString("db.path") != "" {
			runID, err = saveToSQLite(ctx, viper.GetString("db.path"), run, records)
			if err != nil {
				return err
			}
		}

		if dsn := viper.GetString("db.postgres_dsn"); dsn != "" {
			if runID == 0 {
				runID = time.Now().Unix()
			}
			n, err := postgres.CopyRecords(ctx, dsn, runID, records)
			if err != nil {
				return err
			}
			utils.Log.Infof("Copied %d rows to PostgreSQL (run %d)", n, runID)
		}
		return nil
	},
}

func saveToSQLite(ctx context.Context, dbPath string, run storage.Run, records []ads.FlatRecord) (int64, error) {
	absPath, err := utils.GetAbsDBPath(dbPath)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return 0, fmt.Errorf("create db directory: %w", err)
	}

	lock, err := utils.NewDBLock(absPath)
	if err != nil {
		return 0, err
	}
	if err := lock.Lock(); err != nil {
		return 0, err
	}
	defer lock.Unlock()

	db, err := storage.Open(absPath)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", absPath, err)
	}
	defer db.Close()

	runID, err := db.SaveRun(ctx, run, records)
	if err != nil {
		return 0, fmt.Errorf("save run: %w", err)
	}
	utils.Log.Infof("Stored run %d with %d rows in %s", runID, len(records), absPath)
	return runID, nil
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().StringP("input", "i", "", "HAR capture to process")
	processCmd.Flags().StringP("output", "o", "network_log.json", "Where to write the grouped entries")
	processCmd.Flags().StringP("format", "f", "csv", "Table format: csv, md, html, table")
	processCmd.Flags().IntP("threshold", "t", ads.DefaultThreshold, "Minimum collationCount for an ad to be included")
	processCmd.Flags().Bool("decode-text", false, "URL- and HTML-decode titles, bodies and captions")
	processCmd.Flags().StringSlice("strategies", []string{strategy.LabelGraphQL, strategy.LabelSearchAds}, "Strategies to try, in priority order")
	processCmd.Flags().String("db", "", "Store rows in this sqlite file (default ~/.config/adscraper/ads.sqlite with --store)")
	processCmd.Flags().Bool("store", false, "Store rows in the sqlite database")
	processCmd.Flags().String("pg", "", "Also copy rows to this PostgreSQL DSN")
	processCmd.Flags().BoolP("quiet", "q", false, "Do not print classification stats")
	processCmd.MarkFlagRequired("input")
}
