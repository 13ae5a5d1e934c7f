// Package insight derives listening-taste summaries from a listener's play
// history. Liked plays carry audio feature snapshots; clustering those
// snapshots surfaces the distinct "sounds" a listener gravitates toward.
package insight

import (
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"

	"github.com/osa030/mellowmind/internal/domain/emotion"
	"github.com/osa030/mellowmind/internal/domain/profile"
)

// DefaultClusters is the number of taste clusters computed when the caller
// does not specify one.
const DefaultClusters = 3

// featureAxes are the snapshot dimensions used for clustering. All of them
// fall in [0, 1], so no per-axis scaling is needed.
var featureAxes = []string{
	emotion.FeatureValence,
	emotion.FeatureEnergy,
	emotion.FeatureDanceability,
	emotion.FeatureAcousticness,
}

// TasteCluster is one group of liked plays with similar audio features.
type TasteCluster struct {
	Size        int
	Center      map[string]float64
	TopEmotion  emotion.Emotion
	TopEmotions map[emotion.Emotion]int
}

// observation pairs a feature coordinate with the emotion the play happened
// under, so clusters can report which moods they are associated with.
type observation struct {
	coords clusters.Coordinates
	mood   emotion.Emotion
}

func (o observation) Coordinates() clusters.Coordinates {
	return o.coords
}

func (o observation) Distance(p clusters.Coordinates) float64 {
	return o.coords.Distance(p)
}

// TasteClusters partitions the liked plays in the profile into k clusters.
// Plays without a full feature snapshot are skipped. Returns nil when there
// are fewer usable plays than clusters.
func TasteClusters(p *profile.UserProfile, k int) ([]TasteCluster, error) {
	if k <= 0 {
		k = DefaultClusters
	}

	var obs clusters.Observations
	for _, rec := range p.PlayHistory {
		if !p.IsLiked(rec.TrackID) || rec.Features == nil {
			continue
		}
		coords := make(clusters.Coordinates, 0, len(featureAxes))
		complete := true
		for _, axis := range featureAxes {
			v, ok := rec.Features[axis]
			if !ok {
				complete = false
				break
			}
			coords = append(coords, v)
		}
		if !complete {
			continue
		}
		obs = append(obs, observation{coords: coords, mood: rec.Emotion})
	}

	if len(obs) < k {
		return nil, nil
	}

	km := kmeans.New()
	partitioned, err := km.Partition(obs, k)
	if err != nil {
		return nil, errors.Wrap(err, "failed to cluster play history")
	}

	out := make([]TasteCluster, 0, len(partitioned))
	for _, c := range partitioned {
		tc := TasteCluster{
			Size:        len(c.Observations),
			Center:      make(map[string]float64, len(featureAxes)),
			TopEmotions: make(map[emotion.Emotion]int),
		}
		for i, axis := range featureAxes {
			if i < len(c.Center) {
				tc.Center[axis] = c.Center[i]
			}
		}
		for _, o := range c.Observations {
			if wrapped, ok := o.(observation); ok {
				tc.TopEmotions[wrapped.mood]++
			}
		}
		tc.TopEmotion = dominantEmotion(tc.TopEmotions)
		out = append(out, tc)
	}

	// Largest clusters first keeps the summary stable for display.
	sort.Slice(out, func(i, j int) bool { return out[i].Size > out[j].Size })
	return out, nil
}

func dominantEmotion(counts map[emotion.Emotion]int) emotion.Emotion {
	var best emotion.Emotion
	bestCount := 0
	for _, e := range emotion.All() {
		if counts[e] > bestCount {
			best = e
			bestCount = counts[e]
		}
	}
	return best
}
