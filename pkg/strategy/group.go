package strategy

import (
	"iter"

	"github.com/LorenzoTomaz/ads-market-scraper/internal/utils"
	"github.com/LorenzoTomaz/ads-market-scraper/pkg/har"
)

// Grouped maps each recognized label to its decoded entries, in capture
// order. Both lists are always present, so the JSON form has exactly the
// keys "graphql" and "search_ads".
type Grouped struct {
	GraphQL   []har.Entry `json:"graphql"`
	SearchAds []har.Entry `json:"search_ads"`
}

func NewGrouped() Grouped {
	return Grouped{
		GraphQL:   []har.Entry{},
		SearchAds: []har.Entry{},
	}
}

// Group collects matched outcomes. Anything else is dropped.
func Group(outcomes iter.Seq[Outcome]) Grouped {
	g := NewGrouped()
	for out := range outcomes {
		if out.Status == Matched {
			g.add(out.Label, out.Entry)
		}
	}
	return g
}

// Entries returns the list for label, or nil for an unknown label.
func (g Grouped) Entries(label string) []har.Entry {
	switch label {
	case LabelGraphQL:
		return g.GraphQL
	case LabelSearchAds:
		return g.SearchAds
	}
	return nil
}

func (g Grouped) Len() int {
	return len(g.GraphQL) + len(g.SearchAds)
}

func (g *Grouped) add(label string, e har.Entry) {
	switch label {
	case LabelGraphQL:
		g.GraphQL = append(g.GraphQL, e)
	case LabelSearchAds:
		g.SearchAds = append(g.SearchAds, e)
	default:
		utils.Log.Warnf("Dropping entry with unrecognized label %q", label)
	}
}
