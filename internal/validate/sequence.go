package validate

import "github.com/josh-kwaku/audit-validator/internal/domain"

// chain tracks the documents of one (type, series) pair in number order.
type chain struct {
	key       string
	last      int
	prevHash  string
	prevDate  domain.Date
	prevEntry domain.DateTime
}

// maxListedGap is the largest gap reported one missing document at a time.
// Longer gaps are reported as a single range.
const maxListedGap = 100

type step struct {
	first     bool
	duplicate bool
	// gapFrom..gapTo are the numbers skipped before this document; zero when
	// there is no gap.
	gapFrom int
	gapTo   int
}

func (s step) gapLen() int {
	if s.gapFrom == 0 {
		return 0
	}
	return s.gapTo - s.gapFrom + 1
}

// advance moves the chain to document n of the series identified by key.
// Switching series resets every piece of chain state.
func (c *chain) advance(key string, n int) step {
	if key != c.key {
		*c = chain{key: key, last: n}
		return step{first: true}
	}

	var s step
	switch {
	case n == c.last:
		s.duplicate = true
	case n > c.last+1:
		s.gapFrom, s.gapTo = c.last+1, n-1
	}
	if n > c.last {
		c.last = n
	}
	return s
}

func seriesKey(typ string, n domain.DocumentNumber) string {
	return typ + "|" + n.SeriesKey()
}
