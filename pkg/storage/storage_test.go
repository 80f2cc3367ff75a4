package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/LorenzoTomaz/ads-market-scraper/pkg/ads"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "ads.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func boolPtr(b bool) *bool { return &b }

func TestSaveRunAndListRecords(t *testing.T) {
	db := openTestDB(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	records := []ads.FlatRecord{
		{Title: "T", Body: "B", Link: "L", AdCreativeID: "c1", CollationCount: 50, PageID: "1", PageName: "P", PageIsDeleted: boolPtr(false), AdURL: "u1"},
		{Title: "T2", AdCreativeID: "c2", CollationCount: 31, PageID: "1", IsActive: boolPtr(true)},
		{Title: "T3", AdCreativeID: "c3", CollationCount: 90, PageID: "2"},
	}
	runID, err := db.SaveRun(ctx, Run{Source: "capture.har", Threshold: 30, Entries: 10, SearchAds: 2}, records)
	require.NoError(t, err)
	require.NotZero(t, runID)

	got, err := db.ListRecords(ctx, ListOptions{RunID: runID})
	require.NoError(t, err)
	require.Equal(t, records, got)

	filtered, err := db.ListRecords(ctx, ListOptions{MinCollation: 40})
	require.NoError(t, err)
	require.Len(t, filtered, 2)
	require.Equal(t, "c1", filtered[0].AdCreativeID)

	byPage, err := db.ListRecords(ctx, ListOptions{PageID: "2", Limit: 10})
	require.NoError(t, err)
	require.Len(t, byPage, 1)
	require.Nil(t, byPage[0].IsActive)
}

func TestListRunsAndStats(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.SaveRun(ctx, Run{Source: "a.har", Threshold: 30}, []ads.FlatRecord{
		{AdCreativeID: "c1", CollationCount: 40, PageID: "1", PageName: "One"},
		{AdCreativeID: "c1", CollationCount: 40, PageID: "1", PageName: "One"},
	})
	require.NoError(t, err)
	_, err = db.SaveRun(ctx, Run{Source: "b.har", Threshold: 10}, []ads.FlatRecord{
		{AdCreativeID: "c9", CollationCount: 12, PageID: "2", PageName: "Two"},
	})
	require.NoError(t, err)

	runs, err := db.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	require.Equal(t, "b.har", runs[0].Source)
	require.Equal(t, 1, runs[0].Records)
	require.False(t, runs[0].StartedAt.IsZero())

	stats, err := db.GetStats(ctx)
	require.NoError(t, err)
	require.Equal(t, []PageStats{
		{PageID: "1", PageName: "One", Creatives: 1, Rows: 2, MaxCollation: 40},
		{PageID: "2", PageName: "Two", Creatives: 1, Rows: 1, MaxCollation: 12},
	}, stats)
}

func TestSaveRunWithoutRecords(t *testing.T) {
	db := openTestDB(t)
	runID, err := db.SaveRun(context.Background(), Run{Threshold: 30}, nil)
	require.NoError(t, err)

	got, err := db.ListRecords(context.Background(), ListOptions{RunID: runID})
	require.NoError(t, err)
	require.Empty(t, got)
}
