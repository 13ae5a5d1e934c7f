// Package preference provides the per-emotion preference learner and target
// window synthesis.
package preference

import (
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/mellowmind/internal/domain/emotion"
	"github.com/osa030/mellowmind/internal/domain/profile"
)

// recentPlayWindow is the number of most recent plays per emotion scanned
// for favorite-track detection.
const recentPlayWindow = 20

// refinedFeatures is the feature subset that favorite-track evidence is
// allowed to overwrite.
var refinedFeatures = []string{
	emotion.FeatureValence,
	emotion.FeatureEnergy,
	emotion.FeatureTempo,
	emotion.FeatureAcousticness,
	emotion.FeatureDanceability,
}

// Learner maintains and queries the per-emotion feature preference model.
type Learner struct{}

// NewLearner creates a new preference learner.
func NewLearner() *Learner {
	return &Learner{}
}

// UpdateFeaturePreferences folds a feedback observation into the running
// stats for every feature in the snapshot. Liked feedback carries full
// weight, disliked feedback half weight. Unrecognized emotions skip the
// update; the skip is logged but not treated as an error.
func (l *Learner) UpdateFeaturePreferences(p *profile.UserProfile, e emotion.Emotion, features map[string]float64, liked bool) {
	ep := p.Preference(e)
	if ep == nil {
		zlog.Debug().Msgf("preference: skipping feature update for unrecognized emotion %q", e)
		return
	}

	weight := profile.WeightLiked
	if !liked {
		weight = profile.WeightDisliked
	}

	for feature, value := range features {
		stat, ok := ep.Features[feature]
		if !ok {
			stat = &profile.RunningStat{}
			ep.Features[feature] = stat
		}
		stat.Observe(value, weight)
	}
}

// PreferredFeatures derives the preferred feature values for an emotion.
//
// The cumulative like/dislike averages seed the result; favorite tracks
// (replayed more than once in the recent window and liked) provide a
// stronger, more recent signal and overwrite the seeded value for the
// refined feature subset wherever they have support.
func (l *Learner) PreferredFeatures(p *profile.UserProfile, e emotion.Emotion) map[string]float64 {
	targets := make(map[string]float64)

	ep := p.Preference(e)
	if ep != nil {
		for feature, stat := range ep.Features {
			if stat != nil && stat.Count > 0 {
				targets[feature] = stat.Avg
			}
		}
	}

	recent := p.RecentPlays(e, recentPlayWindow)
	favorites := favoriteTracks(p, recent)
	if len(favorites) == 0 {
		return targets
	}

	var favoritePlays []profile.PlayRecord
	for _, rec := range recent {
		if favorites[rec.TrackID] && rec.Features != nil {
			favoritePlays = append(favoritePlays, rec)
		}
	}
	if len(favoritePlays) == 0 {
		return targets
	}

	for _, feature := range refinedFeatures {
		var sum float64
		var n int
		for _, rec := range favoritePlays {
			if v, ok := rec.Features[feature]; ok {
				sum += v
				n++
			}
		}
		if n > 0 {
			targets[feature] = sum / float64(n)
		}
	}

	return targets
}

// favoriteTracks returns the set of track IDs that appear more than once in
// the recent plays and are in the liked set.
func favoriteTracks(p *profile.UserProfile, recent []profile.PlayRecord) map[string]bool {
	counts := make(map[string]int)
	for _, rec := range recent {
		counts[rec.TrackID]++
	}

	favorites := make(map[string]bool)
	for trackID, count := range counts {
		if count > 1 && p.IsLiked(trackID) {
			favorites[trackID] = true
		}
	}
	return favorites
}
