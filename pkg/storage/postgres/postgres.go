// Package postgres bulk-loads flattened ad records into PostgreSQL.
package postgres

import (
	"context"
	"fmt"

	"github.com/LorenzoTomaz/ads-market-scraper/pkg/ads"
	"github.com/jackc/pgx/v5"
)

const createTable = `
CREATE TABLE IF NOT EXISTS ad_records (
  id               BIGSERIAL PRIMARY KEY,
  run_id           BIGINT NOT NULL,
  position         INTEGER NOT NULL,
  title            TEXT,
  body             TEXT,
  link             TEXT,
  ad_creative_id   TEXT NOT NULL,
  page_categories  TEXT,
  caption          TEXT,
  collation_count  BIGINT NOT NULL,
  is_active        BOOLEAN,
  page_id          TEXT,
  page_name        TEXT,
  page_is_deleted  BOOLEAN,
  ad_url           TEXT,
  loaded_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_ad_records_run ON ad_records(run_id, position);
`

var copyColumns = []string{
	"run_id", "position", "title", "body", "link", "ad_creative_id", "page_categories",
	"caption", "collation_count", "is_active", "page_id", "page_name", "page_is_deleted", "ad_url",
}

// Rows converts records into COPY rows aligned with the ad_records columns.
func Rows(runID int64, records []ads.FlatRecord) [][]any {
	rows := make([][]any, 0, len(records))
	for i, r := range records {
		rows = append(rows, []any{
			runID, int32(i), r.Title, r.Body, r.Link, r.AdCreativeID, r.PageCategories,
			r.Caption, r.CollationCount, r.IsActive, r.PageID, r.PageName, r.PageIsDeleted, r.AdURL,
		})
	}
	return rows
}

// CopyRecords ensures the ad_records table exists and loads records with
// COPY. It returns the number of rows copied.
func CopyRecords(ctx context.Context, dsn string, runID int64, records []ads.FlatRecord) (int64, error) {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return 0, fmt.Errorf("postgres: connect: %w", err)
	}
	defer conn.Close(ctx)

	if _, err := conn.Exec(ctx, createTable); err != nil {
		return 0, fmt.Errorf("postgres: ensure schema: %w", err)
	}
	if len(records) == 0 {
		return 0, nil
	}

	n, err := conn.CopyFrom(ctx, pgx.Identifier{"ad_records"}, copyColumns, pgx.CopyFromRows(Rows(runID, records)))
	if err != nil {
		return 0, fmt.Errorf("postgres: copy ad_records: %w", err)
	}
	return n, nil
}
