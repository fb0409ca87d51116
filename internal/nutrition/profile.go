package nutrition

import (
	"strconv"
	"strings"
)

// Default macro split applied when the profile carries no usable split.
const (
	defaultProteinPct = 35
	defaultCarbsPct   = 35
	defaultFatPct     = 30
)

// Profile is the immutable user input for one generation run.
type Profile struct {
	UserID       string
	Goal         string
	Restrictions []string
	Preferences  []string
	Portions     int

	WeekdayCalories float64
	WeekendCalories float64

	// MacroSplit is a "protein/carbs/fat" percentage string such as
	// "35/35/30". The explicit percentage fields take precedence when they
	// sum to roughly 100; either representation is accepted.
	MacroSplit string
	ProteinPct float64
	CarbsPct   float64
	FatPct     float64

	Snacks    []string
	Favorites []string
}

// macroPercents resolves the profile's macro split, falling back to the
// 35/35/30 default on absent or unparseable input.
func (p Profile) macroPercents() (protein, carbs, fat float64) {
	if sum := p.ProteinPct + p.CarbsPct + p.FatPct; sum >= 95 && sum <= 105 {
		return p.ProteinPct, p.CarbsPct, p.FatPct
	}
	return parseMacroSplit(p.MacroSplit)
}

func parseMacroSplit(s string) (protein, carbs, fat float64) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 3 {
		return defaultProteinPct, defaultCarbsPct, defaultFatPct
	}

	vals := make([]float64, 3)
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil || v < 0 {
			return defaultProteinPct, defaultCarbsPct, defaultFatPct
		}
		vals[i] = v
	}

	if sum := vals[0] + vals[1] + vals[2]; sum < 95 || sum > 105 {
		return defaultProteinPct, defaultCarbsPct, defaultFatPct
	}
	return vals[0], vals[1], vals[2]
}
