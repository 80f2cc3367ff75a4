package har

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/LorenzoTomaz/ads-market-scraper/internal/utils"
	"github.com/tidwall/gjson"
)

// ErrUnknownDocument is returned when the input is neither a HAR log nor a
// bare array of entries.
var ErrUnknownDocument = errors.New("har: document has no log.entries and is not an array of entries")

// ParseEntry builds one Entry from its JSON serialization.
func ParseEntry(data []byte) (Entry, error) {
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return Entry{}, fmt.Errorf("har: parse entry: %w", err)
	}
	return e, nil
}

// Load reads a HAR document ({"log":{"entries":[...]}}) or a bare JSON array
// of entries. Elements that do not unmarshal into an Entry are logged and
// skipped, so one odd record does not cost the whole capture.
func Load(r io.Reader) ([]Entry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("har: read: %w", err)
	}
	if !gjson.ValidBytes(data) {
		return nil, errors.New("har: input is not valid JSON")
	}

	root := gjson.ParseBytes(data)
	list := root.Get("log.entries")
	if !list.IsArray() {
		if !root.IsArray() {
			return nil, ErrUnknownDocument
		}
		list = root
	}

	entries := make([]Entry, 0, int(list.Get("#").Int()))
	idx := 0
	list.ForEach(func(_, value gjson.Result) bool {
		e, err := ParseEntry([]byte(value.Raw))
		if err != nil {
			utils.Log.Warnf("Skipping entry #%d: %v", idx, err)
		} else {
			entries = append(entries, e)
		}
		idx++
		return true
	})
	return entries, nil
}

// LoadFile is Load on the file at path.
func LoadFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}
