package ads

import (
	"encoding/json"
	"testing"

	"github.com/LorenzoTomaz/ads-market-scraper/pkg/har"
)

// decodedEntry wraps payload as an already classified search-ads entry.
func decodedEntry(t *testing.T, payload string) har.Entry {
	t.Helper()
	if !json.Valid([]byte(payload)) {
		t.Fatalf("test payload is not valid JSON: %s", payload)
	}
	var e har.Entry
	e.Request.URL = "https://www.facebook.com/ads/library/async/search_ads/x"
	e.Response.Content.MimeType = "application/x-javascript"
	e.Response.Content.Text = har.DecodedJSON([]byte(payload))
	return e
}

// results builds a payload whose results hold the given groups of ads.
func results(groups ...string) string {
	out := `{"payload":{"results":[`
	for i, g := range groups {
		if i > 0 {
			out += ","
		}
		out += "[" + g + "]"
	}
	return out + `]}}`
}

func mustFlatten(t *testing.T, x *Extractor, e har.Entry) []FlatRecord {
	t.Helper()
	recs, err := x.FlattenEntry(e)
	if err != nil {
		t.Fatalf("FlattenEntry: %v", err)
	}
	return recs
}
