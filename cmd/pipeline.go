package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/LorenzoTomaz/ads-market-scraper/internal/utils"
	"github.com/LorenzoTomaz/ads-market-scraper/pkg/ads"
	"github.com/LorenzoTomaz/ads-market-scraper/pkg/har"
	"github.com/LorenzoTomaz/ads-market-scraper/pkg/strategy"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/viper"
	"github.com/tidwall/gjson"
)

func newExecutor() (*strategy.Executor, error) {
	strategies, err := strategy.FromNames(viper.GetStringSlice("strategies"))
	if err != nil {
		return nil, err
	}
	return strategy.NewExecutor(strategies...), nil
}

func newExtractor() *ads.Extractor {
	return ads.NewExtractor(ads.Config{
		Threshold:  viper.GetInt("extract.threshold"),
		DecodeText: viper.GetBool("extract.decode_text"),
	})
}

// loadEntries reads either a HAR capture or a file previously written by
// the classify command.
func loadEntries(path string) ([]har.Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if gjson.GetBytes(data, "search_ads").IsArray() && !gjson.GetBytes(data, "log").Exists() {
		var g strategy.Grouped
		if err := json.Unmarshal(data, &g); err != nil {
			return nil, fmt.Errorf("parse grouped file %s: %w", path, err)
		}
		utils.Log.Debugf("Loaded grouped file %s (%d graphql, %d search_ads)", path, len(g.GraphQL), len(g.SearchAds))
		return append(g.GraphQL, g.SearchAds...), nil
	}

	entries, err := har.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	utils.Log.Debugf("Loaded %d entries from %s", len(entries), path)
	return entries, nil
}

func printStats(w io.Writer, stats strategy.Stats) {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Outcome", "Entries"})
	t.AppendRow(table.Row{strategy.LabelGraphQL, stats.Matched[strategy.LabelGraphQL]})
	t.AppendRow(table.Row{strategy.LabelSearchAds, stats.Matched[strategy.LabelSearchAds]})
	t.AppendRow(table.Row{"unmatched", stats.Unmatched})
	t.AppendRow(table.Row{"failed", stats.Failed})
	t.AppendFooter(table.Row{"total", stats.Total})
	t.Render()

	top := stats.TopDomains(10)
	if len(top) == 0 {
		return
	}
	d := table.NewWriter()
	d.SetStyle(table.StyleRounded)
	d.SetOutputMirror(w)
	d.AppendHeader(table.Row{"Unmatched domain", "Entries"})
	for _, dc := range top {
		d.AppendRow(table.Row{dc.Domain, strconv.Itoa(dc.Count)})
	}
	d.Render()
}
