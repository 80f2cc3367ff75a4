package storage

import "time"

// Run is one processed capture and its classification counts.
type Run struct {
	ID        int64
	StartedAt time.Time
	Source    string
	Threshold int
	Entries   int
	GraphQL   int
	SearchAds int
	Unmatched int
	Failed    int
	Records   int
}

// PageStats aggregates stored rows per advertiser page.
type PageStats struct {
	PageID       string
	PageName     string
	Creatives    int
	Rows         int
	MaxCollation int64
}

// ListOptions controls selection when listing records.
type ListOptions struct {
	RunID        int64
	PageID       string
	MinCollation int64
	Limit        int
}
