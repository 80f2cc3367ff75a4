// Package strategy recognizes which known response shape a captured entry
// carries and decodes its payload.
package strategy

import (
	"errors"
	"fmt"
	"strings"

	"github.com/LorenzoTomaz/ads-market-scraper/internal/utils"
	"github.com/LorenzoTomaz/ads-market-scraper/pkg/har"
	"github.com/tidwall/gjson"
)

const (
	LabelGraphQL   = "graphql"
	LabelSearchAds = "search_ads"
)

// ErrNotDecodable is returned by Parse when the payload is not valid JSON
// after the guard has been removed.
var ErrNotDecodable = errors.New("strategy: payload is not decodable JSON")

// Strategy is one of the fixed response shapes. The zero value is GraphQL.
type Strategy int

const (
	GraphQL Strategy = iota
	SearchAds
)

type rules struct {
	label      string
	urlPrefix  string
	mimePrefix string
	// guard must lead the raw text and is stripped before decoding.
	guard string
}

var known = [...]rules{
	GraphQL: {
		label:      LabelGraphQL,
		urlPrefix:  "https://www.facebook.com/api/graphql",
		mimePrefix: "text/html",
	},
	SearchAds: {
		label:      LabelSearchAds,
		urlPrefix:  "https://www.facebook.com/ads/library/async/search_ads/",
		mimePrefix: "application/x-javascript",
		guard:      "for (;;);",
	},
}

// Default is the priority order used when none is configured.
func Default() []Strategy {
	return []Strategy{GraphQL, SearchAds}
}

func (s Strategy) rules() (rules, bool) {
	if s < 0 || int(s) >= len(known) {
		return rules{}, false
	}
	return known[s], true
}

// Label is the name the strategy's matches are grouped under.
func (s Strategy) Label() string {
	r, _ := s.rules()
	return r.label
}

func (s Strategy) String() string {
	if l := s.Label(); l != "" {
		return l
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// ByName resolves a label (case-insensitive) to its strategy.
func ByName(name string) (Strategy, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, r := range known {
		if r.label == name {
			return Strategy(i), nil
		}
	}
	return 0, fmt.Errorf("unknown strategy %q (available: %s, %s)", name, LabelGraphQL, LabelSearchAds)
}

// FromNames builds an ordered strategy list from labels. An empty list
// yields Default(). Duplicates are rejected.
func FromNames(names []string) ([]Strategy, error) {
	if len(names) == 0 {
		return Default(), nil
	}
	seen := make(map[Strategy]bool, len(names))
	out := make([]Strategy, 0, len(names))
	for _, n := range names {
		s, err := ByName(n)
		if err != nil {
			return nil, err
		}
		if seen[s] {
			return nil, fmt.Errorf("strategy %q listed twice", s.Label())
		}
		seen[s] = true
		out = append(out, s)
	}
	return out, nil
}

// Validate reports whether e belongs to this strategy: the request URL and
// the response MIME type must carry the strategy's prefixes and the payload
// must decode. It never fails loudly; anything unexpected is a false.
func (s Strategy) Validate(e har.Entry) bool {
	r, ok := s.rules()
	if !ok {
		return false
	}
	return r.urlValid(e) && r.mimeValid(e) && r.payloadValid(e)
}

// Parse returns a copy of e whose response text is decoded. Already decoded
// entries come back unchanged. Parse is only meaningful after Validate.
func (s Strategy) Parse(e har.Entry) (har.Entry, error) {
	r, ok := s.rules()
	if !ok {
		return har.Entry{}, fmt.Errorf("parse with %s: unknown strategy", s)
	}
	text := e.Response.Content.Text
	if text.IsDecoded() {
		return e, nil
	}
	body, ok := r.unguard(text.Text())
	if !ok {
		return har.Entry{}, fmt.Errorf("%s: missing %q guard: %w", r.label, r.guard, ErrNotDecodable)
	}
	if !decodable(body) {
		return har.Entry{}, fmt.Errorf("%s: %w", r.label, ErrNotDecodable)
	}
	return e.WithText(har.DecodedJSON([]byte(strings.TrimSpace(body)))), nil
}

func (r rules) urlValid(e har.Entry) bool {
	return strings.HasPrefix(e.Request.URL, r.urlPrefix)
}

func (r rules) mimeValid(e har.Entry) bool {
	return strings.HasPrefix(e.Response.Content.MimeType, r.mimePrefix)
}

func (r rules) payloadValid(e har.Entry) bool {
	text := e.Response.Content.Text
	if text.IsDecoded() {
		return true
	}
	body, ok := r.unguard(text.Text())
	if !ok {
		return false
	}
	if !decodable(body) {
		utils.Log.Debugf("[%s] payload of %s is not a JSON object or array: %s", r.label, e.Request.URL, utils.Truncate(body, 200))
		return false
	}
	return true
}

// decodable reports whether body is a JSON object or array. Bare scalars are
// rejected: once grouped they would read back as raw text.
func decodable(body string) bool {
	if !gjson.Valid(body) {
		return false
	}
	res := gjson.Parse(body)
	return res.IsObject() || res.IsArray()
}

// unguard strips the leading guard. It reports false when a guard is
// required and absent.
func (r rules) unguard(text string) (string, bool) {
	if r.guard == "" {
		return text, true
	}
	if !strings.HasPrefix(text, r.guard) {
		return "", false
	}
	return strings.TrimPrefix(text, r.guard), true
}
