package ads

import "strconv"

// Columns is the fixed export column set, in order.
var Columns = []string{
	"title", "body", "link", "ad_creative_id", "page_categories", "caption",
	"collationCount", "isActive", "pageID", "pageName", "pageIsDeleted", "ad_url",
}

// FlatRecord is one denormalized ad card row. Optional booleans are nil
// when the source record did not carry them.
type FlatRecord struct {
	Title          string `json:"title"`
	Body           string `json:"body"`
	Link           string `json:"link"`
	AdCreativeID   string `json:"ad_creative_id"`
	PageCategories string `json:"page_categories"`
	Caption        string `json:"caption"`
	CollationCount int64  `json:"collationCount"`
	IsActive       *bool  `json:"isActive"`
	PageID         string `json:"pageID"`
	PageName       string `json:"pageName"`
	PageIsDeleted  *bool  `json:"pageIsDeleted"`
	AdURL          string `json:"ad_url"`
}

// Values renders r as cells aligned with Columns. Absent values are "".
func (r FlatRecord) Values() []string {
	return []string{
		r.Title,
		r.Body,
		r.Link,
		r.AdCreativeID,
		r.PageCategories,
		r.Caption,
		strconv.FormatInt(r.CollationCount, 10),
		formatOptBool(r.IsActive),
		r.PageID,
		r.PageName,
		formatOptBool(r.PageIsDeleted),
		r.AdURL,
	}
}

func formatOptBool(b *bool) string {
	if b == nil {
		return ""
	}
	return strconv.FormatBool(*b)
}
