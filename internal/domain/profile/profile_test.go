package profile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/mellowmind/internal/domain/emotion"
)

func TestRunningStat_Observe(t *testing.T) {
	var s RunningStat

	s.Observe(0.8, WeightLiked)
	assert.Equal(t, 1.0, s.Count)
	assert.InDelta(t, 0.8, s.Avg, 1e-9)

	s.Observe(0.2, WeightDisliked)
	assert.Equal(t, 1.5, s.Count)
	assert.InDelta(t, (0.8+0.2*0.5)/1.5, s.Avg, 1e-9)
}

func TestRunningStat_InvariantHoldsAfterEveryUpdate(t *testing.T) {
	var s RunningStat
	updates := []struct {
		value  float64
		weight float64
	}{
		{0.1, WeightLiked},
		{0.9, WeightDisliked},
		{0.5, WeightLiked},
		{0.0, WeightDisliked},
		{1.0, WeightLiked},
	}

	prevCount := 0.0
	for _, u := range updates {
		s.Observe(u.value, u.weight)
		assert.InDelta(t, s.Sum/s.Count, s.Avg, 1e-12, "avg must equal sum/count")
		assert.Greater(t, s.Count, prevCount, "count must be monotonically increasing")
		prevCount = s.Count
	}
}

func TestNew_EmptySkeleton(t *testing.T) {
	p := New()

	assert.Empty(t, p.LikedTracks)
	assert.Empty(t, p.DislikedTracks)
	assert.Empty(t, p.PlayHistory)
	require.Len(t, p.EmotionPreferences, 5)
	for _, e := range emotion.All() {
		ep := p.Preference(e)
		require.NotNil(t, ep, "emotion %s", e)
		assert.Empty(t, ep.Features)
		assert.Empty(t, ep.Artists)
		assert.Empty(t, ep.Genres)
	}
}

func TestSetFeedback_MutualExclusivity(t *testing.T) {
	p := New()

	// Any sequence of feedback leaves the track in exactly one set.
	sequence := []bool{true, true, false, true, false, false}
	for _, liked := range sequence {
		p.SetFeedback("track1", liked)

		inLiked := p.IsLiked("track1")
		inDisliked := p.IsDisliked("track1")
		assert.NotEqual(t, inLiked, inDisliked, "track must be in exactly one set")
		assert.Equal(t, liked, inLiked)
	}
}

func TestSetFeedback_NoDuplicates(t *testing.T) {
	p := New()
	p.SetFeedback("track1", true)
	p.SetFeedback("track1", true)
	assert.Equal(t, []string{"track1"}, p.LikedTracks)
}

func TestSetArtistPreference(t *testing.T) {
	p := New()

	p.SetArtistPreference(emotion.Happy, "artist1", true)
	p.SetArtistPreference(emotion.Happy, "artist2", true)
	p.SetArtistPreference(emotion.Happy, "artist1", true) // no duplicate
	assert.Equal(t, []string{"artist1", "artist2"}, p.Preference(emotion.Happy).Artists)

	p.SetArtistPreference(emotion.Happy, "artist1", false)
	assert.Equal(t, []string{"artist2"}, p.Preference(emotion.Happy).Artists)

	// Unrecognized emotion is a no-op
	p.SetArtistPreference(emotion.Emotion("bogus"), "artist3", true)
}

func TestRecentPlays_FiltersAndLimits(t *testing.T) {
	p := New()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 25; i++ {
		p.AppendPlay(PlayRecord{
			TrackID:   "sad-track",
			Emotion:   emotion.Sad,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		})
	}
	p.AppendPlay(PlayRecord{TrackID: "happy-track", Emotion: emotion.Happy, Timestamp: base})

	recent := p.RecentPlays(emotion.Sad, 20)
	assert.Len(t, recent, 20)
	for _, rec := range recent {
		assert.Equal(t, emotion.Sad, rec.Emotion)
	}
	// Oldest of the kept window is play #5 (0-indexed).
	assert.Equal(t, base.Add(5*time.Minute), recent[0].Timestamp)

	assert.Len(t, p.RecentPlays(emotion.Happy, 20), 1)
	assert.Empty(t, p.RecentPlays(emotion.Angry, 20))
}

func TestLikedTracksPlayedUnder(t *testing.T) {
	p := New()
	p.AppendPlay(PlayRecord{TrackID: "t1", Emotion: emotion.Happy})
	p.AppendPlay(PlayRecord{TrackID: "t2", Emotion: emotion.Sad})
	p.SetFeedback("t1", true)
	p.SetFeedback("t2", true)
	p.SetFeedback("t3", true) // liked but never played

	assert.Equal(t, []string{"t1"}, p.LikedTracksPlayedUnder(emotion.Happy))
	assert.Equal(t, []string{"t2"}, p.LikedTracksPlayedUnder(emotion.Sad))
	assert.Empty(t, p.LikedTracksPlayedUnder(emotion.Angry))
}

func TestNormalize_RepairsPartialProfile(t *testing.T) {
	p := &UserProfile{
		EmotionPreferences: map[emotion.Emotion]*EmotionPreference{
			emotion.Happy: {Features: map[string]*RunningStat{"valence": {Count: 1, Sum: 0.5, Avg: 0.5}}},
		},
	}
	p.Normalize()

	assert.NotNil(t, p.LikedTracks)
	assert.NotNil(t, p.PlayHistory)
	for _, e := range emotion.All() {
		require.NotNil(t, p.Preference(e), "emotion %s", e)
		assert.NotNil(t, p.Preference(e).Features)
		assert.NotNil(t, p.Preference(e).Artists)
	}
	// Existing data survives the repair.
	assert.InDelta(t, 0.5, p.Preference(emotion.Happy).Features["valence"].Avg, 1e-9)
}
