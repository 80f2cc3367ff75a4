// Package export writes classification results to disk: the grouped
// entries as JSON and the flattened ad records as a table.
package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/LorenzoTomaz/ads-market-scraper/pkg/strategy"
)

// Result describes a file written by one of the Save functions.
type Result struct {
	SavedTo       string
	Count         int
	FileSizeBytes int64
}

// WriteGrouped encodes g as a single JSON document.
func WriteGrouped(w io.Writer, g strategy.Grouped) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(g); err != nil {
		return fmt.Errorf("failed to encode grouped entries: %w", err)
	}
	return nil
}

// SaveGrouped replaces the file at path with the JSON form of g.
func SaveGrouped(path string, g strategy.Grouped) (Result, error) {
	var buf bytes.Buffer
	if err := WriteGrouped(&buf, g); err != nil {
		return Result{}, err
	}
	if err := replaceFile(path, buf.Bytes()); err != nil {
		return Result{}, err
	}
	return Result{SavedTo: path, Count: g.Len(), FileSizeBytes: int64(buf.Len())}, nil
}

func replaceFile(path string, data []byte) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
