package insight

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/mellowmind/internal/domain/emotion"
	"github.com/osa030/mellowmind/internal/domain/profile"
)

func likedPlay(p *profile.UserProfile, id string, e emotion.Emotion, valence, energy float64) {
	p.AppendPlay(profile.PlayRecord{
		TrackID: id,
		Emotion: e,
		Features: map[string]float64{
			emotion.FeatureValence:      valence,
			emotion.FeatureEnergy:       energy,
			emotion.FeatureDanceability: 0.5,
			emotion.FeatureAcousticness: 0.5,
		},
	})
	p.SetFeedback(id, true)
}

func TestTasteClusters_TooFewObservations(t *testing.T) {
	p := profile.New()
	likedPlay(p, "t1", emotion.Happy, 0.9, 0.8)

	cs, err := TasteClusters(p, 3)
	require.NoError(t, err)
	assert.Nil(t, cs)
}

func TestTasteClusters_SkipsUnlikedAndSnapshotlessPlays(t *testing.T) {
	p := profile.New()
	// Played but never liked.
	p.AppendPlay(profile.PlayRecord{TrackID: "t1", Emotion: emotion.Happy, Features: map[string]float64{
		emotion.FeatureValence: 0.9, emotion.FeatureEnergy: 0.9,
		emotion.FeatureDanceability: 0.5, emotion.FeatureAcousticness: 0.5,
	}})
	// Liked but no snapshot.
	p.AppendPlay(profile.PlayRecord{TrackID: "t2", Emotion: emotion.Happy})
	p.SetFeedback("t2", true)

	cs, err := TasteClusters(p, 1)
	require.NoError(t, err)
	assert.Nil(t, cs)
}

func TestTasteClusters_SeparatesDistinctTastes(t *testing.T) {
	p := profile.New()
	// A bright, energetic group and a subdued one.
	for i := 0; i < 5; i++ {
		likedPlay(p, fmt.Sprintf("up%d", i), emotion.Happy, 0.9, 0.85)
		likedPlay(p, fmt.Sprintf("down%d", i), emotion.Sad, 0.1, 0.15)
	}

	cs, err := TasteClusters(p, 2)
	require.NoError(t, err)
	require.Len(t, cs, 2)

	for _, c := range cs {
		assert.Equal(t, 5, c.Size)
		v := c.Center[emotion.FeatureValence]
		switch c.TopEmotion {
		case emotion.Happy:
			assert.Greater(t, v, 0.5)
		case emotion.Sad:
			assert.Less(t, v, 0.5)
		default:
			t.Fatalf("unexpected dominant emotion %q", c.TopEmotion)
		}
	}
}

func TestTasteClusters_DefaultK(t *testing.T) {
	p := profile.New()
	for i := 0; i < 9; i++ {
		likedPlay(p, fmt.Sprintf("t%d", i), emotion.Happy, float64(i)/10, float64(i)/10)
	}

	cs, err := TasteClusters(p, 0)
	require.NoError(t, err)
	assert.Len(t, cs, DefaultClusters)

	total := 0
	for _, c := range cs {
		total += c.Size
	}
	assert.Equal(t, 9, total)
}
