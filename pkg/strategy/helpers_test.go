package strategy

import "github.com/LorenzoTomaz/ads-market-scraper/pkg/har"

const (
	graphqlURL   = "https://www.facebook.com/api/graphql/"
	searchAdsURL = "https://www.facebook.com/ads/library/async/search_ads/x"
	searchAdsRaw = `for (;;);{"payload":{"results":[[{"collationCount":50,"pageID":"1"}]]}}`
)

func mkEntry(url, mime, text string) har.Entry {
	var e har.Entry
	e.Request.Method = "POST"
	e.Request.URL = url
	e.Response.Status = 200
	e.Response.Content.MimeType = mime
	e.Response.Content.Text = har.Raw(text)
	return e
}

func graphqlEntry(text string) har.Entry {
	return mkEntry(graphqlURL, "text/html; charset=utf-8", text)
}

func searchAdsEntry(text string) har.Entry {
	return mkEntry(searchAdsURL, "application/x-javascript; charset=utf-8", text)
}
