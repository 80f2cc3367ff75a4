package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/LorenzoTomaz/ads-market-scraper/pkg/ads"
	"github.com/LorenzoTomaz/ads-market-scraper/pkg/har"
	"github.com/LorenzoTomaz/ads-market-scraper/pkg/strategy"
)

func sampleRecords() []ads.FlatRecord {
	active := false
	return []ads.FlatRecord{
		{Title: "Frete grátis", Body: "b", Link: "https://l", AdCreativeID: "c1", CollationCount: 50, PageID: "1", IsActive: &active, AdURL: "https://www.facebook.com/ads/library/?id=9&view_all_page_id=1"},
		{Title: "second", CollationCount: 31, PageID: "2"},
	}
}

func TestWriteTable_CSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTable(&buf, sampleRecords(), CSV); err != nil {
		t.Fatalf("WriteTable: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines:\n%s", len(lines), buf.String())
	}
	if lines[0] != strings.Join(ads.Columns, ",") {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "Frete grátis,b,https://l,c1,,,50,false,1,") {
		t.Fatalf("unexpected first row %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "second,,,,,,31,,2,") {
		t.Fatalf("absent values should render empty, got %q", lines[2])
	}
}

func TestWriteTable_CSVQuotingRoundTrip(t *testing.T) {
	rec := ads.FlatRecord{
		Title:          `Say "hi"`,
		Body:           "line1\nline2, \"quoted\"",
		Caption:        `back\slash, comma`,
		AdCreativeID:   "c1",
		CollationCount: 40,
	}
	var buf bytes.Buffer
	if err := WriteTable(&buf, []ads.FlatRecord{rec}, CSV); err != nil {
		t.Fatalf("WriteTable: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v\n%s", err, buf.String())
	}
	if len(rows) != 2 {
		t.Fatalf("expected header + 1 row, got %d", len(rows))
	}
	if strings.Join(rows[0], ",") != strings.Join(ads.Columns, ",") {
		t.Fatalf("unexpected header %v", rows[0])
	}
	want := rec.Values()
	for i := range want {
		if rows[1][i] != want[i] {
			t.Fatalf("column %s: got %q, want %q", ads.Columns[i], rows[1][i], want[i])
		}
	}
}

func TestWriteTable_OtherFormats(t *testing.T) {
	for _, f := range []Format{Markdown, HTML, Text} {
		var buf bytes.Buffer
		if err := WriteTable(&buf, sampleRecords(), f); err != nil {
			t.Fatalf("%s: %v", f, err)
		}
		if !strings.Contains(buf.String(), "second") {
			t.Fatalf("%s output is missing rows:\n%s", f, buf.String())
		}
	}
	if err := WriteTable(&bytes.Buffer{}, nil, Format("xlsx")); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"CSV": CSV, "markdown": Markdown, " md ": Markdown, "html": HTML, "table": Text} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseFormat("xlsx"); err == nil {
		t.Fatalf("expected error for xlsx")
	}
}

func TestTablePath(t *testing.T) {
	if got := TablePath("out/network_log.json", CSV); got != "out/network_log.csv" {
		t.Fatalf("unexpected path %q", got)
	}
	if got := TablePath("network_log", Text); got != "network_log.txt" {
		t.Fatalf("unexpected path %q", got)
	}
}

func TestSaveGrouped(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "network_log.json")
	if err := os.WriteFile(path, []byte("stale content that is longer than the new one"), 0644); err != nil {
		t.Fatal(err)
	}

	var e har.Entry
	e.Request.URL = "https://www.facebook.com/api/graphql/"
	e.Response.Content.Text = har.DecodedJSON([]byte(`{"data":{"a":"<b>"}}`))
	g := strategy.NewGrouped()
	g.GraphQL = append(g.GraphQL, e)

	res, err := SaveGrouped(path, g)
	if err != nil {
		t.Fatalf("SaveGrouped: %v", err)
	}
	if res.Count != 1 || res.SavedTo != path {
		t.Fatalf("unexpected result %+v", res)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if int64(len(data)) != res.FileSizeBytes {
		t.Fatalf("reported size %d, file has %d bytes", res.FileSizeBytes, len(data))
	}
	var back strategy.Grouped
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(back.GraphQL) != 1 || back.SearchAds == nil {
		t.Fatalf("unexpected reloaded groups %+v", back)
	}
	if !strings.Contains(string(data), `"a":"<b>"`) {
		t.Fatalf("HTML in payloads should not be escaped:\n%s", data)
	}
}

func TestSaveTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rows.csv")
	res, err := SaveTable(path, sampleRecords(), CSV)
	if err != nil {
		t.Fatalf("SaveTable: %v", err)
	}
	if res.Count != 2 {
		t.Fatalf("expected 2 rows, got %d", res.Count)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("file not written: %v", err)
	}
}
