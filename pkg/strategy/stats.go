package strategy

import (
	"sort"

	"github.com/LorenzoTomaz/ads-market-scraper/pkg/har"
	"github.com/weppos/publicsuffix-go/publicsuffix"
)

const invalidHost = "(invalid url)"

// Stats summarizes one classification pass.
type Stats struct {
	Total     int
	Matched   map[string]int
	Unmatched int
	Failed    int
	// UnmatchedDomains counts unmatched and failed entries by registrable
	// domain of the request URL.
	UnmatchedDomains map[string]int
}

// DomainCount is one row of Stats.TopDomains.
type DomainCount struct {
	Domain string
	Count  int
}

func newStats() Stats {
	return Stats{
		Matched:          map[string]int{LabelGraphQL: 0, LabelSearchAds: 0},
		UnmatchedDomains: make(map[string]int),
	}
}

func (s *Stats) observe(out Outcome, src har.Entry) {
	s.Total++
	switch out.Status {
	case Matched:
		s.Matched[out.Label]++
		return
	case Failed:
		s.Failed++
	default:
		s.Unmatched++
	}
	s.UnmatchedDomains[registrableDomain(src.Host())]++
}

// MatchedTotal is the number of entries claimed by any strategy.
func (s Stats) MatchedTotal() int {
	n := 0
	for _, c := range s.Matched {
		n += c
	}
	return n
}

// TopDomains returns up to limit domains ordered by count, then name.
// limit <= 0 returns all of them.
func (s Stats) TopDomains(limit int) []DomainCount {
	out := make([]DomainCount, 0, len(s.UnmatchedDomains))
	for d, c := range s.UnmatchedDomains {
		out = append(out, DomainCount{Domain: d, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Domain < out[j].Domain
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func registrableDomain(host string) string {
	if host == "" {
		return invalidHost
	}
	d, err := publicsuffix.Domain(host)
	if err != nil || d == "" {
		return host
	}
	return d
}
