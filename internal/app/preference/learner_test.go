package preference

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/mellowmind/internal/domain/emotion"
	"github.com/osa030/mellowmind/internal/domain/profile"
)

func play(trackID string, e emotion.Emotion, features map[string]float64) profile.PlayRecord {
	return profile.PlayRecord{
		TrackID:   trackID,
		Emotion:   e,
		Timestamp: time.Now(),
		Features:  features,
	}
}

func TestUpdateFeaturePreferences_Weights(t *testing.T) {
	l := NewLearner()
	p := profile.New()

	l.UpdateFeaturePreferences(p, emotion.Happy, map[string]float64{"valence": 0.9}, true)
	l.UpdateFeaturePreferences(p, emotion.Happy, map[string]float64{"valence": 0.3}, false)

	stat := p.Preference(emotion.Happy).Features["valence"]
	require.NotNil(t, stat)
	assert.InDelta(t, 1.5, stat.Count, 1e-9)
	// (0.9*1.0 + 0.3*0.5) / 1.5
	assert.InDelta(t, 0.7, stat.Avg, 1e-9)
}

func TestUpdateFeaturePreferences_UnrecognizedEmotionSkipped(t *testing.T) {
	l := NewLearner()
	p := profile.New()

	l.UpdateFeaturePreferences(p, emotion.Emotion("melancholy"), map[string]float64{"valence": 0.2}, true)

	for _, e := range emotion.All() {
		assert.Empty(t, p.Preference(e).Features)
	}
}

func TestPreferredFeatures_NoHistoryReturnsEmpty(t *testing.T) {
	l := NewLearner()
	p := profile.New()

	assert.Empty(t, l.PreferredFeatures(p, emotion.Happy))
}

func TestPreferredFeatures_SeededFromRunningStats(t *testing.T) {
	l := NewLearner()
	p := profile.New()

	l.UpdateFeaturePreferences(p, emotion.Sad, map[string]float64{"valence": 0.2, "energy": 0.4}, true)

	got := l.PreferredFeatures(p, emotion.Sad)
	assert.InDelta(t, 0.2, got["valence"], 1e-9)
	assert.InDelta(t, 0.4, got["energy"], 1e-9)
}

func TestPreferredFeatures_FavoriteTracksOverrideAverage(t *testing.T) {
	l := NewLearner()
	p := profile.New()

	// Cumulative average says valence 0.5 for sad.
	l.UpdateFeaturePreferences(p, emotion.Sad, map[string]float64{"valence": 0.5}, true)

	// T1 is played repeatedly under sad with a much lower valence snapshot
	// and is liked, so it qualifies as a favorite.
	snapshot := map[string]float64{"valence": 0.1}
	p.AppendPlay(play("T1", emotion.Sad, snapshot))
	p.AppendPlay(play("T1", emotion.Sad, snapshot))
	p.AppendPlay(play("T1", emotion.Sad, snapshot))
	p.SetFeedback("T1", true)

	got := l.PreferredFeatures(p, emotion.Sad)
	assert.InDelta(t, 0.1, got["valence"], 1e-9, "favorite-track mean must override the running average")
}

func TestPreferredFeatures_SinglePlayIsNotFavorite(t *testing.T) {
	l := NewLearner()
	p := profile.New()

	l.UpdateFeaturePreferences(p, emotion.Sad, map[string]float64{"valence": 0.5}, true)
	p.AppendPlay(play("T1", emotion.Sad, map[string]float64{"valence": 0.1}))
	p.SetFeedback("T1", true)

	got := l.PreferredFeatures(p, emotion.Sad)
	assert.InDelta(t, 0.5, got["valence"], 1e-9, "a single play must not override the running average")
}

func TestPreferredFeatures_RepeatedButNotLikedIsNotFavorite(t *testing.T) {
	l := NewLearner()
	p := profile.New()

	l.UpdateFeaturePreferences(p, emotion.Sad, map[string]float64{"valence": 0.5}, true)
	p.AppendPlay(play("T1", emotion.Sad, map[string]float64{"valence": 0.1}))
	p.AppendPlay(play("T1", emotion.Sad, map[string]float64{"valence": 0.1}))

	got := l.PreferredFeatures(p, emotion.Sad)
	assert.InDelta(t, 0.5, got["valence"], 1e-9)
}

func TestPreferredFeatures_FavoriteDetectionSurvivesDislikePlay(t *testing.T) {
	l := NewLearner()
	p := profile.New()

	snapshot := map[string]float64{"valence": 0.1}
	p.AppendPlay(play("T1", emotion.Sad, snapshot))
	p.AppendPlay(play("T1", emotion.Sad, snapshot))
	p.SetFeedback("T1", true)
	p.AppendPlay(play("T1", emotion.Sad, snapshot))
	p.AppendPlay(play("T1", emotion.Sad, snapshot))
	p.SetFeedback("T1", false)
	p.SetFeedback("T1", true)

	got := l.PreferredFeatures(p, emotion.Sad)
	assert.InDelta(t, 0.1, got["valence"], 1e-9)
}

func TestPreferredFeatures_OnlyRefinedSubsetOverwritten(t *testing.T) {
	l := NewLearner()
	p := profile.New()

	l.UpdateFeaturePreferences(p, emotion.Happy, map[string]float64{
		"valence":          0.5,
		"speechiness":      0.9, // outside the refined subset
		"instrumentalness": 0.8,
	}, true)

	snapshot := map[string]float64{"valence": 0.95, "speechiness": 0.1}
	p.AppendPlay(play("T1", emotion.Happy, snapshot))
	p.AppendPlay(play("T1", emotion.Happy, snapshot))
	p.SetFeedback("T1", true)

	got := l.PreferredFeatures(p, emotion.Happy)
	assert.InDelta(t, 0.95, got["valence"], 1e-9)
	assert.InDelta(t, 0.9, got["speechiness"], 1e-9, "features outside the refined subset keep the cumulative average")
	assert.InDelta(t, 0.8, got["instrumentalness"], 1e-9)
}

func TestPreferredFeatures_RecentWindowIsTwentyPlays(t *testing.T) {
	l := NewLearner()
	p := profile.New()

	// Two old plays of T1, then 20 plays of other tracks push them out of
	// the recent window.
	snapshot := map[string]float64{"valence": 0.1}
	p.AppendPlay(play("T1", emotion.Sad, snapshot))
	p.AppendPlay(play("T1", emotion.Sad, snapshot))
	p.SetFeedback("T1", true)
	for i := 0; i < 20; i++ {
		p.AppendPlay(play("other", emotion.Sad, nil))
	}

	got := l.PreferredFeatures(p, emotion.Sad)
	_, ok := got["valence"]
	assert.False(t, ok, "plays outside the recent window must not produce favorites")
}
