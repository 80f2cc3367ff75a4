package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/LorenzoTomaz/ads-market-scraper/pkg/ads"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
  id          INTEGER PRIMARY KEY,
  started_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  source      TEXT,
  threshold   INTEGER NOT NULL,
  entries     INTEGER NOT NULL,
  graphql     INTEGER NOT NULL,
  search_ads  INTEGER NOT NULL,
  unmatched   INTEGER NOT NULL,
  failed      INTEGER NOT NULL,
  records     INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS ad_records (
  id               INTEGER PRIMARY KEY,
  run_id           INTEGER NOT NULL REFERENCES runs(id),
  position         INTEGER NOT NULL,
  title            TEXT,
  body             TEXT,
  link             TEXT,
  ad_creative_id   TEXT NOT NULL,
  page_categories  TEXT,
  caption          TEXT,
  collation_count  INTEGER NOT NULL,
  is_active        INTEGER CHECK (is_active IN (0,1)),
  page_id          TEXT,
  page_name        TEXT,
  page_is_deleted  INTEGER CHECK (page_is_deleted IN (0,1)),
  ad_url           TEXT
);
CREATE INDEX IF NOT EXISTS idx_records_run ON ad_records(run_id, position);
CREATE INDEX IF NOT EXISTS idx_records_page ON ad_records(page_id);
`

type DB struct {
	sql *sql.DB
}

func Open(path string) (*DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	// Ensure schema exists for convenience.
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return &DB{sql: db}, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// SaveRun stores run and its records in one transaction and returns the new
// run id. Record order is kept through the position column.
func (d *DB) SaveRun(ctx context.Context, run Run, records []ads.FlatRecord) (runID int64, err error) {
	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `INSERT INTO runs(started_at, source, threshold, entries, graphql, search_ads, unmatched, failed, records) VALUES(?,?,?,?,?,?,?,?,?)`,
		time.Now().UTC(), nullIfEmpty(run.Source), run.Threshold, run.Entries, run.GraphQL, run.SearchAds, run.Unmatched, run.Failed, len(records))
	if err != nil {
		return 0, err
	}
	runID, err = res.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO ad_records(run_id, position, title, body, link, ad_creative_id, page_categories, caption, collation_count, is_active, page_id, page_name, page_is_deleted, ad_url) VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for i, r := range records {
		_, err = stmt.ExecContext(ctx, runID, i, nullIfEmpty(r.Title), nullIfEmpty(r.Body), nullIfEmpty(r.Link), r.AdCreativeID, nullIfEmpty(r.PageCategories), nullIfEmpty(r.Caption), r.CollationCount, optBoolToInt(r.IsActive), nullIfEmpty(r.PageID), nullIfEmpty(r.PageName), optBoolToInt(r.PageIsDeleted), nullIfEmpty(r.AdURL))
		if err != nil {
			return 0, err
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return runID, nil
}

// ListRecords returns stored records matching opts, oldest run first, in
// the order they were extracted.
func (d *DB) ListRecords(ctx context.Context, opts ListOptions) ([]ads.FlatRecord, error) {
	where := "WHERE collation_count >= ?"
	args := []interface{}{opts.MinCollation}
	if opts.RunID > 0 {
		where += " AND run_id = ?"
		args = append(args, opts.RunID)
	}
	if opts.PageID != "" {
		where += " AND page_id = ?"
		args = append(args, opts.PageID)
	}

	q := "SELECT title, body, link, ad_creative_id, page_categories, caption, collation_count, is_active, page_id, page_name, page_is_deleted, ad_url FROM ad_records " + where + " ORDER BY run_id, position"
	if opts.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := d.sql.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ads.FlatRecord
	for rows.Next() {
		var (
			r                                                             ads.FlatRecord
			title, body, link, categories, caption, pageID, pageName, url sql.NullString
			isActive, isDeleted                                           sql.NullBool
		)
		if err := rows.Scan(&title, &body, &link, &r.AdCreativeID, &categories, &caption, &r.CollationCount, &isActive, &pageID, &pageName, &isDeleted, &url); err != nil {
			return nil, err
		}
		r.Title = title.String
		r.Body = body.String
		r.Link = link.String
		r.PageCategories = categories.String
		r.Caption = caption.String
		r.PageID = pageID.String
		r.PageName = pageName.String
		r.AdURL = url.String
		r.IsActive = optBool(isActive)
		r.PageIsDeleted = optBool(isDeleted)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListRuns returns the most recent runs, newest first.
func (d *DB) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.sql.QueryContext(ctx, "SELECT id, started_at, source, threshold, entries, graphql, search_ads, unmatched, failed, records FROM runs ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var r Run
		var source sql.NullString
		var startedAt string
		if err := rows.Scan(&r.ID, &startedAt, &source, &r.Threshold, &r.Entries, &r.GraphQL, &r.SearchAds, &r.Unmatched, &r.Failed, &r.Records); err != nil {
			return nil, err
		}
		r.Source = source.String
		r.StartedAt = parseTimestamp(startedAt)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

// GetStats aggregates stored rows per page, busiest pages first.
func (d *DB) GetStats(ctx context.Context) ([]PageStats, error) {
	query := `
		SELECT
			COALESCE(page_id, ''),
			COALESCE(MAX(page_name), ''),
			COUNT(DISTINCT ad_creative_id),
			COUNT(*),
			MAX(collation_count)
		FROM
			ad_records
		GROUP BY
			page_id
		ORDER BY
			COUNT(*) DESC, page_id;
	`
	rows, err := d.sql.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []PageStats
	for rows.Next() {
		var s PageStats
		if err := rows.Scan(&s.PageID, &s.PageName, &s.Creatives, &s.Rows, &s.MaxCollation); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}

// parseTimestamp accepts the layouts the sqlite driver and CURRENT_TIMESTAMP
// produce. Unknown layouts yield the zero time.
func parseTimestamp(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999999-07:00", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func optBoolToInt(b *bool) interface{} {
	if b == nil {
		return nil
	}
	if *b {
		return 1
	}
	return 0
}

func optBool(b sql.NullBool) *bool {
	if !b.Valid {
		return nil
	}
	v := b.Bool
	return &v
}
