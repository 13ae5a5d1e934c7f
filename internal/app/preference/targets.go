package preference

import (
	"github.com/osa030/mellowmind/internal/domain/emotion"
	"github.com/osa030/mellowmind/internal/domain/profile"
)

// TargetWindow is the feature range a recommendation query is biased toward.
type TargetWindow struct {
	Lower float64
	Upper float64
}

// Mid returns the midpoint of the window, used as the query target value.
func (w TargetWindow) Mid() float64 {
	return (w.Lower + w.Upper) / 2
}

// DynamicTargets merges learned preferences with the default feature ranges.
//
// For every feature the learner has an estimate for, the default range is
// replaced with a window extending a quarter of the default range's width to
// either side of the estimate, clamped to [0,1] for normalized features
// (tempo stays in BPM and is never clamped). Features without an estimate
// pass the default range through unchanged. The output covers exactly the
// feature keys of defaultRanges.
func (l *Learner) DynamicTargets(p *profile.UserProfile, e emotion.Emotion, defaultRanges map[string]emotion.Range) map[string]TargetWindow {
	preferred := l.PreferredFeatures(p, e)

	targets := make(map[string]TargetWindow, len(defaultRanges))
	for feature, r := range defaultRanges {
		v, ok := preferred[feature]
		if !ok {
			targets[feature] = TargetWindow{Lower: r.Min, Upper: r.Max}
			continue
		}

		quarter := r.Width() / 4
		lower := v - quarter
		upper := v + quarter
		if emotion.IsNormalized(feature) {
			if lower < 0 {
				lower = 0
			}
			if upper > 1 {
				upper = 1
			}
		}
		targets[feature] = TargetWindow{Lower: lower, Upper: upper}
	}

	return targets
}
