package strategy

import (
	"fmt"
	"iter"

	"github.com/LorenzoTomaz/ads-market-scraper/internal/utils"
	"github.com/LorenzoTomaz/ads-market-scraper/pkg/har"
)

// Status tells how a single entry fared during classification.
type Status int

const (
	Unmatched Status = iota
	Matched
	Failed
)

func (s Status) String() string {
	switch s {
	case Matched:
		return "matched"
	case Failed:
		return "failed"
	default:
		return "unmatched"
	}
}

// Outcome is the classification result for the entry at Index. Entry and
// Label are set only when Status is Matched; Err only when it is Failed.
type Outcome struct {
	Index  int
	Status Status
	Entry  har.Entry
	Label  string
	Err    error
}

// Executor applies an ordered list of strategies to captured entries.
type Executor struct {
	strategies []Strategy
}

// NewExecutor builds an executor trying strategies in the given order.
// With no strategies it uses Default().
func NewExecutor(strategies ...Strategy) *Executor {
	if len(strategies) == 0 {
		strategies = Default()
	}
	return &Executor{strategies: append([]Strategy(nil), strategies...)}
}

// Strategies returns the priority order in use.
func (x *Executor) Strategies() []Strategy {
	return append([]Strategy(nil), x.strategies...)
}

// Classify lazily yields exactly one Outcome per entry, in input order. The
// first strategy that validates an entry claims it. Problems with one entry
// never stop the sequence.
func (x *Executor) Classify(entries []har.Entry) iter.Seq[Outcome] {
	return func(yield func(Outcome) bool) {
		for i, e := range entries {
			out := x.classify(i, e)
			if out.Status == Failed {
				utils.Log.Errorf("Entry #%d (%s) could not be decoded: %v", i, e.Request.URL, out.Err)
			}
			if !yield(out) {
				return
			}
		}
	}
}

func (x *Executor) classify(i int, e har.Entry) (out Outcome) {
	out = Outcome{Index: i}
	defer func() {
		if r := recover(); r != nil {
			out = Outcome{Index: i, Status: Failed, Err: fmt.Errorf("panic while classifying: %v", r)}
		}
	}()

	for _, s := range x.strategies {
		if !s.Validate(e) {
			continue
		}
		parsed, err := s.Parse(e)
		if err != nil {
			return Outcome{Index: i, Status: Failed, Err: err}
		}
		return Outcome{Index: i, Status: Matched, Entry: parsed, Label: s.Label()}
	}
	return out
}

// Run classifies entries and returns the grouped matches together with the
// batch statistics.
func (x *Executor) Run(entries []har.Entry) (Grouped, Stats) {
	grouped := NewGrouped()
	stats := newStats()
	for out := range x.Classify(entries) {
		stats.observe(out, entries[out.Index])
		if out.Status == Matched {
			grouped.add(out.Label, out.Entry)
		}
	}
	return grouped, stats
}
