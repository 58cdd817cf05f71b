package scores

import "github.com/verte-zerg/drumrate/internal/model"

// RainbowCrownExclusions lists charts whose perfect-clear records keep their
// original judgment split.
var RainbowCrownExclusions = map[model.ChartKey]struct{}{
	{ID: 775, Tier: model.TierOni}:  {},
	{ID: 775, Tier: model.TierUra}:  {},
	{ID: 1032, Tier: model.TierUra}: {},
	{ID: 1037, Tier: model.TierOni}: {},
}

// IsRainbowCrownExcluded reports whether key keeps its judgments on perfect clears.
func IsRainbowCrownExcluded(key model.ChartKey) bool {
	_, ok := RainbowCrownExclusions[key]
	return ok
}

// ApplyRainbowCrown collapses all judgments into great for perfect clears.
func ApplyRainbowCrown(s model.UserScore) model.UserScore {
	if s.PerfectCount <= 0 || IsRainbowCrownExcluded(s.Key()) {
		return s
	}
	s.Great = s.Great + s.Good + s.Bad
	s.Good = 0
	s.Bad = 0
	return s
}
