package adaptive

import (
	"fmt"
	"math"
)

// Symbol is one of the four accepted reaction emojis.
type Symbol string

const (
	SymbolThumbsUp Symbol = "thumbs_up"
	SymbolSmile    Symbol = "smile"
	SymbolNeutral  Symbol = "neutral"
	SymbolCross    Symbol = "cross"
)

// ParseSymbol validates an incoming symbol string.
func ParseSymbol(s string) (Symbol, bool) {
	switch Symbol(s) {
	case SymbolThumbsUp, SymbolSmile, SymbolNeutral, SymbolCross:
		return Symbol(s), true
	}
	return "", false
}

// Positive reports the polarity of a symbol. ThumbsUp and Smile count as
// positive, Neutral and Cross as negative.
func (s Symbol) Positive() bool {
	return s == SymbolThumbsUp || s == SymbolSmile
}

// Band is the discrete explanation-difficulty level.
type Band string

const (
	BandVeryStruggling Band = "very_struggling"
	BandStruggling     Band = "struggling"
	BandNormal         Band = "normal"
	BandGood           Band = "good"
	BandExcellent      Band = "excellent"
)

// bandOrder lists bands from lowest to highest comprehension.
var bandOrder = []Band{
	BandVeryStruggling,
	BandStruggling,
	BandNormal,
	BandGood,
	BandExcellent,
}

var bandLabels = map[Band]string{
	BandVeryStruggling: "Very Struggling - step-by-step basics",
	BandStruggling:     "Struggling - simplified explanations",
	BandNormal:         "Normal - standard explanations",
	BandGood:           "Good - concise explanations",
	BandExcellent:      "Excellent - advanced explanations",
}

// Label returns the human-readable description for a band. Unknown bands
// fall back to the Normal label.
func (b Band) Label() string {
	if label, ok := bandLabels[b]; ok {
		return label
	}
	return bandLabels[BandNormal]
}

// Valid reports whether b is one of the five known bands.
func (b Band) Valid() bool {
	_, ok := bandLabels[b]
	return ok
}

// BandThresholds holds the hysteresis thresholds for one band. ExitUp is
// the score required to ascend one band; ExitDown is the guard below which
// the state descends one band. The gap between a band's ascent threshold
// and its descent guard is kept wider than the largest single-event delta
// (6.5) so one reaction can never flip a freshly entered band back.
type BandThresholds struct {
	EntryLow  float64 `json:"entry_low"`
	EntryHigh float64 `json:"entry_high"`
	ExitUp    float64 `json:"exit_up"`
	ExitDown  float64 `json:"exit_down"`
}

// AdaptiveConfig holds the tunables for delta calculation and band
// classification.
type AdaptiveConfig struct {
	BaseDeltas        map[Symbol]float64      `json:"base_deltas"`
	HighDampFactor    float64                 `json:"high_damp_factor"`
	HighDampAbove     float64                 `json:"high_damp_above"`
	LowBoostFactor    float64                 `json:"low_boost_factor"`
	LowBoostAtOrBelow float64                 `json:"low_boost_at_or_below"`
	Thresholds        map[Band]BandThresholds `json:"thresholds"`
}

// maxAbsDelta returns the largest score change a single reaction can
// produce under this config.
func (c *AdaptiveConfig) maxAbsDelta() float64 {
	base := 0.0
	for _, d := range c.BaseDeltas {
		if a := math.Abs(d); a > base {
			base = a
		}
	}
	factor := math.Max(c.HighDampFactor, c.LowBoostFactor)
	if factor < 1 {
		factor = 1
	}
	return base * factor
}

// Check verifies the threshold table is internally consistent: entry
// ranges tile [0,100] in band order, every ascent threshold lies beyond
// its band's entry range, every descent guard lies below it, and each
// ascent/descent guard gap exceeds the largest single-event delta so one
// reaction can never flip a freshly entered band back.
func (c *AdaptiveConfig) Check() error {
	maxDelta := c.maxAbsDelta()

	for i, band := range bandOrder {
		th, ok := c.Thresholds[band]
		if !ok {
			return fmt.Errorf("missing thresholds for band %s", band)
		}
		if th.EntryLow >= th.EntryHigh {
			return fmt.Errorf("band %s: empty entry range [%.1f, %.1f]", band, th.EntryLow, th.EntryHigh)
		}
		if i == 0 && th.EntryLow != 0 {
			return fmt.Errorf("lowest band %s must start at 0, starts at %.1f", band, th.EntryLow)
		}
		if i == len(bandOrder)-1 && th.EntryHigh != 100 {
			return fmt.Errorf("highest band %s must end at 100, ends at %.1f", band, th.EntryHigh)
		}
		if i > 0 {
			prev := c.Thresholds[bandOrder[i-1]]
			if th.EntryLow <= prev.EntryHigh {
				return fmt.Errorf("bands %s and %s overlap at %.1f", bandOrder[i-1], band, th.EntryLow)
			}
			if th.ExitDown >= th.EntryLow {
				return fmt.Errorf("band %s: descent guard %.1f must sit below its entry range", band, th.ExitDown)
			}
		}
		if i < len(bandOrder)-1 {
			if th.ExitUp <= th.EntryHigh {
				return fmt.Errorf("band %s: ascent threshold %.1f must sit beyond its entry range", band, th.ExitUp)
			}
			next := c.Thresholds[bandOrder[i+1]]
			if gap := th.ExitUp - next.ExitDown; gap <= maxDelta {
				return fmt.Errorf("guard gap %s->%s is %.1f, must exceed the max single delta %.1f",
					band, bandOrder[i+1], gap, maxDelta)
			}
		}
	}
	return nil
}

// DefaultAdaptiveConfig returns the production tuning. Damping starts
// strictly above 70 because 70 is still inside the Normal entry range; the
// recovery boost covers the whole VeryStruggling range up to and
// including 30.
func DefaultAdaptiveConfig() *AdaptiveConfig {
	return &AdaptiveConfig{
		BaseDeltas: map[Symbol]float64{
			SymbolThumbsUp: 5,
			SymbolSmile:    2,
			SymbolNeutral:  -3,
			SymbolCross:    -5,
		},
		HighDampFactor:    0.7,
		HighDampAbove:     70,
		LowBoostFactor:    1.3,
		LowBoostAtOrBelow: 30,
		Thresholds: map[Band]BandThresholds{
			BandVeryStruggling: {EntryLow: 0, EntryHigh: 30, ExitUp: 31},
			BandStruggling:     {EntryLow: 31, EntryHigh: 45, ExitUp: 46, ExitDown: 24},
			BandNormal:         {EntryLow: 46, EntryHigh: 70, ExitUp: 75, ExitDown: 39},
			BandGood:           {EntryLow: 71, EntryHigh: 80, ExitUp: 85, ExitDown: 68},
			BandExcellent:      {EntryLow: 81, EntryHigh: 100, ExitDown: 78},
		},
	}
}
