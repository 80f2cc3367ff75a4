package cmd

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/LorenzoTomaz/ads-market-scraper/internal/utils"
	"github.com/LorenzoTomaz/ads-market-scraper/pkg/export"
	"github.com/LorenzoTomaz/ads-market-scraper/pkg/storage"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// dbCmd represents the db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Interact with the adscraper database",
}

// shellCmd represents the shell command
var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive shell to the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, err := existingDBPath(cmd)
		if err != nil {
			return err
		}

		// Check if sqlite3 is in PATH
		sqlitePath, err := exec.LookPath("sqlite3")
		if err != nil {
			return fmt.Errorf("sqlite3 command not found in your PATH. Please install it to use the db shell")
		}

		// Print schema first
		fmt.Println("--> Database schema:")
		schemaCmd := exec.Command(sqlitePath, dbPath, ".schema")
		schemaCmd.Stdout = os.Stdout
		schemaCmd.Stderr = os.Stderr
		if err := schemaCmd.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: couldn't retrieve schema: %v\n", err)
		}
		fmt.Println("\n--> Starting interactive shell... (Ctrl+D to exit)")

		c := exec.Command(sqlitePath, dbPath)
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr

		return c.Run()
	},
}

// dbStatsCmd represents the db stats command
var dbStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Prints statistics about the pages and ads in the database.",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openExistingDB(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats(context.Background())
		if err != nil {
			return err
		}

		if len(stats) == 0 {
			fmt.Println("No data in the database to generate stats.")
			return nil
		}

		t := table.NewWriter()
		t.SetStyle(table.StyleRounded)
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Page ID", "Page", "Creatives", "Rows", "Max collation"})

		var totalCreatives, totalRows int
		for _, s := range stats {
			t.AppendRow(table.Row{s.PageID, utils.Truncate(s.PageName, 40), s.Creatives, s.Rows, s.MaxCollation})
			totalCreatives += s.Creatives
			totalRows += s.Rows
		}
		t.AppendFooter(table.Row{"TOTAL", "", totalCreatives, totalRows, ""})
		t.Render()

		return nil
	},
}

// dbListCmd represents the db list command
var dbListCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists stored ad rows",
	RunE: func(cmd *cobra.Command, args []string) error {
		runID, _ := cmd.Flags().GetInt64("run")
		pageID, _ := cmd.Flags().GetString("page")
		minCollation, _ := cmd.Flags().GetInt64("min-collation")
		limit, _ := cmd.Flags().GetInt("limit")
		formatName, _ := cmd.Flags().GetString("format")

		format, err := export.ParseFormat(formatName)
		if err != nil {
			return err
		}

		db, err := openExistingDB(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		records, err := db.ListRecords(context.Background(), storage.ListOptions{
			RunID:        runID,
			PageID:       pageID,
			MinCollation: minCollation,
			Limit:        limit,
		})
		if err != nil {
			return err
		}
		return export.WriteTable(os.Stdout, records, format)
	},
}

// dbRunsCmd represents the db runs command
var dbRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Lists processed captures, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		db, err := openExistingDB(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		runs, err := db.ListRuns(context.Background(), limit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No runs stored yet.")
			return nil
		}

		t := table.NewWriter()
		t.SetStyle(table.StyleRounded)
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"ID", "Started", "Source", "Threshold", "Entries", "graphql", "search_ads", "Unmatched", "Failed", "Rows"})
		for _, r := range runs {
			t.AppendRow(table.Row{r.ID, r.StartedAt.Format("2006-01-02 15:04:05"), utils.Truncate(r.Source, 40), r.Threshold, r.Entries, r.GraphQL, r.SearchAds, r.Unmatched, r.Failed, r.Records})
		}
		t.Render()
		return nil
	},
}

func existingDBPath(cmd *cobra.Command) (string, error) {
	dbPath, _ := cmd.Flags().GetString("dbpath")
	absPath, err := utils.GetAbsDBPath(dbPath)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return "", fmt.Errorf("database file not found: %s", absPath)
	}
	return absPath, nil
}

func openExistingDB(cmd *cobra.Command) (*storage.DB, error) {
	dbPath, err := existingDBPath(cmd)
	if err != nil {
		return nil, err
	}
	return storage.Open(dbPath)
}

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(shellCmd)
	dbCmd.AddCommand(dbStatsCmd)
	dbCmd.AddCommand(dbListCmd)
	dbCmd.AddCommand(dbRunsCmd)
	dbCmd.PersistentFlags().String("dbpath", "", "Path to SQLite DB file (default ~/.config/adscraper/ads.sqlite)")

	dbListCmd.Flags().Int64("run", 0, "Only rows from this run")
	dbListCmd.Flags().String("page", "", "Only rows from this page ID")
	dbListCmd.Flags().Int64("min-collation", 0, "Only rows with at least this collationCount")
	dbListCmd.Flags().Int("limit", 100, "Maximum number of rows (0 for all)")
	dbListCmd.Flags().StringP("format", "f", "table", "Output format: csv, md, html, table")

	dbRunsCmd.Flags().Int("limit", 20, "Maximum number of runs")
}
