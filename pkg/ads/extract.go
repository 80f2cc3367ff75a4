// Package ads flattens decoded Ads Library search payloads into table rows.
package ads

import (
	"errors"
	"fmt"
	"strings"

	"github.com/LorenzoTomaz/ads-market-scraper/internal/utils"
	"github.com/LorenzoTomaz/ads-market-scraper/pkg/har"
	"github.com/tidwall/gjson"
)

const (
	DefaultThreshold = 30

	adURLTemplate = "https://www.facebook.com/ads/library/?id=%s&view_all_page_id=%s"
)

// ErrNotDecoded is returned for entries whose payload was never decoded by
// a strategy.
var ErrNotDecoded = errors.New("ads: entry payload is not decoded")

// Config controls which ads make it into the output.
type Config struct {
	// Threshold is the minimum collationCount (inclusive) an ad needs.
	Threshold int
	// DecodeText runs DecodeText over title, body and caption.
	DecodeText bool
}

func DefaultConfig() Config {
	return Config{Threshold: DefaultThreshold}
}

type Extractor struct {
	cfg Config
}

func NewExtractor(cfg Config) *Extractor {
	return &Extractor{cfg: cfg}
}

func (x *Extractor) Threshold() int {
	return x.cfg.Threshold
}

// Flatten turns search-ads entries into records, preserving entry, result
// group, ad and card order. Entries that cannot be flattened are logged and
// contribute nothing.
func (x *Extractor) Flatten(entries []har.Entry) []FlatRecord {
	var out []FlatRecord
	for i, e := range entries {
		recs, err := x.FlattenEntry(e)
		if err != nil {
			utils.Log.Warnf("Skipping entry #%d (%s): %v", i, e.Request.URL, err)
			continue
		}
		out = append(out, recs...)
	}
	utils.Log.Debugf("[ads] flattened %d entries into %d records (threshold %d)", len(entries), len(out), x.cfg.Threshold)
	return out
}

// FlattenEntry flattens the payload.results of one decoded entry.
func (x *Extractor) FlattenEntry(e har.Entry) ([]FlatRecord, error) {
	text := e.Response.Content.Text
	if !text.IsDecoded() {
		return nil, ErrNotDecoded
	}

	results := gjson.GetBytes(text.JSON(), "payload.results")
	if !results.IsArray() {
		return nil, nil
	}

	var out []FlatRecord
	results.ForEach(func(_, group gjson.Result) bool {
		if !group.IsArray() {
			return true
		}
		group.ForEach(func(_, ad gjson.Result) bool {
			out = append(out, x.flattenAd(ad)...)
			return true
		})
		return true
	})
	return out, nil
}

func (x *Extractor) flattenAd(ad gjson.Result) []FlatRecord {
	if !ad.IsObject() {
		return nil
	}

	count := ad.Get("collationCount")
	if !count.Exists() || count.Type == gjson.Null {
		return nil
	}
	// Int() yields 0 for values that are not numbers or numeric strings.
	if count.Int() < int64(x.cfg.Threshold) {
		return nil
	}

	snapshot := ad.Get("snapshot")
	if !snapshot.IsObject() || !snapshot.Get("ad_creative_id").Exists() {
		return nil
	}
	cards := snapshot.Get("cards")
	if !cards.IsArray() {
		return nil
	}

	pageID := ad.Get("pageID").String()
	base := FlatRecord{
		AdCreativeID:   snapshot.Get("ad_creative_id").String(),
		PageCategories: joinValues(snapshot.Get("page_categories")),
		Caption:        x.text(snapshot.Get("caption")),
		CollationCount: count.Int(),
		IsActive:       optBool(ad.Get("isActive")),
		PageID:         pageID,
		PageName:       ad.Get("pageName").String(),
		PageIsDeleted:  optBool(ad.Get("pageIsDeleted")),
	}
	if archiveID := ad.Get("adArchiveID").String(); archiveID != "" {
		base.AdURL = fmt.Sprintf(adURLTemplate, archiveID, pageID)
	}

	var out []FlatRecord
	cards.ForEach(func(_, card gjson.Result) bool {
		if !card.IsObject() || !card.Get("title").Exists() {
			return true
		}
		rec := base
		rec.Title = x.text(card.Get("title"))
		rec.Body = x.text(card.Get("body"))
		rec.Link = card.Get("link_url").String()
		out = append(out, rec)
		return true
	})
	return out
}

// text resolves a string field that may also arrive as {"markup":{"__html":...}}.
func (x *Extractor) text(v gjson.Result) string {
	var s string
	if v.IsObject() {
		s = HTMLText(v.Get("markup.__html").String())
	} else {
		s = v.String()
	}
	if x.cfg.DecodeText {
		s = DecodeText(s)
	}
	return s
}

// joinValues concatenates the values of an object, or the items of an
// array, in document order.
func joinValues(v gjson.Result) string {
	if !v.IsObject() && !v.IsArray() {
		return ""
	}
	var sb strings.Builder
	v.ForEach(func(_, val gjson.Result) bool {
		sb.WriteString(val.String())
		return true
	})
	return sb.String()
}

func optBool(v gjson.Result) *bool {
	switch v.Type {
	case gjson.True, gjson.False:
		b := v.Bool()
		return &b
	}
	return nil
}
