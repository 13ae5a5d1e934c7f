// Package profile provides the UserProfile domain entity and its feedback
// bookkeeping: liked/disliked track sets, play history and per-emotion
// preference state.
package profile

import (
	"time"

	"github.com/osa030/mellowmind/internal/domain/emotion"
)

// Feedback weights. Both are positive: a dislike still pulls the running
// average toward the observed value, just more weakly than a like.
const (
	WeightLiked    = 1.0
	WeightDisliked = 0.5
)

// RunningStat is a weighted cumulative mean of observed feature values.
// Invariant: Avg == Sum/Count whenever Count > 0.
type RunningStat struct {
	Count float64 `json:"count"`
	Sum   float64 `json:"sum"`
	Avg   float64 `json:"avg"`
}

// Observe folds a new value into the stat with the given weight.
func (s *RunningStat) Observe(value, weight float64) {
	s.Count += weight
	s.Sum += value * weight
	s.Avg = s.Sum / s.Count
}

// PlayRecord represents a single play event. Immutable once appended.
type PlayRecord struct {
	TrackID   string             `json:"track_id"`
	TrackName string             `json:"track_name"`
	Artist    string             `json:"artist"`
	Emotion   emotion.Emotion    `json:"emotion"`
	Timestamp time.Time          `json:"timestamp"`
	Features  map[string]float64 `json:"features,omitempty"` // nil when unavailable
}

// EmotionPreference holds per-emotion preference state for one user.
type EmotionPreference struct {
	Features map[string]*RunningStat `json:"features"`
	Artists  []string                `json:"artists"`
	// Genres is read-only in the current feedback model: it is only ever
	// seeded externally, never written by a feedback path.
	Genres []string `json:"genres"`
}

func newEmotionPreference() *EmotionPreference {
	return &EmotionPreference{
		Features: make(map[string]*RunningStat),
		Artists:  []string{},
		Genres:   []string{},
	}
}

// UserProfile is the accumulated feedback state for one user identity.
type UserProfile struct {
	LikedTracks        []string                               `json:"liked_tracks"`
	DislikedTracks     []string                               `json:"disliked_tracks"`
	PlayHistory        []PlayRecord                           `json:"play_history"`
	EmotionPreferences map[emotion.Emotion]*EmotionPreference `json:"emotion_preferences"`
}

// New creates an empty profile skeleton with all emotions initialized.
func New() *UserProfile {
	prefs := make(map[emotion.Emotion]*EmotionPreference, len(emotion.All()))
	for _, e := range emotion.All() {
		prefs[e] = newEmotionPreference()
	}
	return &UserProfile{
		LikedTracks:        []string{},
		DislikedTracks:     []string{},
		PlayHistory:        []PlayRecord{},
		EmotionPreferences: prefs,
	}
}

// Normalize repairs a profile loaded from storage so that every recognized
// emotion has preference state and no slice is nil. Entries for unrecognized
// emotions are kept as-is; they are simply never consulted.
func (p *UserProfile) Normalize() {
	if p.LikedTracks == nil {
		p.LikedTracks = []string{}
	}
	if p.DislikedTracks == nil {
		p.DislikedTracks = []string{}
	}
	if p.PlayHistory == nil {
		p.PlayHistory = []PlayRecord{}
	}
	if p.EmotionPreferences == nil {
		p.EmotionPreferences = make(map[emotion.Emotion]*EmotionPreference)
	}
	for _, e := range emotion.All() {
		ep, ok := p.EmotionPreferences[e]
		if !ok || ep == nil {
			p.EmotionPreferences[e] = newEmotionPreference()
			continue
		}
		if ep.Features == nil {
			ep.Features = make(map[string]*RunningStat)
		}
		if ep.Artists == nil {
			ep.Artists = []string{}
		}
		if ep.Genres == nil {
			ep.Genres = []string{}
		}
	}
}

// Preference returns the preference state for an emotion, or nil if the
// emotion is not recognized.
func (p *UserProfile) Preference(e emotion.Emotion) *EmotionPreference {
	return p.EmotionPreferences[e]
}

// IsLiked reports whether the track is in the liked set.
func (p *UserProfile) IsLiked(trackID string) bool {
	return contains(p.LikedTracks, trackID)
}

// IsDisliked reports whether the track is in the disliked set.
func (p *UserProfile) IsDisliked(trackID string) bool {
	return contains(p.DislikedTracks, trackID)
}

// SetFeedback moves the track into the liked or disliked set. Membership is
// mutually exclusive: adding to one set removes the track from the other.
func (p *UserProfile) SetFeedback(trackID string, liked bool) {
	if liked {
		if !contains(p.LikedTracks, trackID) {
			p.LikedTracks = append(p.LikedTracks, trackID)
		}
		p.DislikedTracks = remove(p.DislikedTracks, trackID)
	} else {
		if !contains(p.DislikedTracks, trackID) {
			p.DislikedTracks = append(p.DislikedTracks, trackID)
		}
		p.LikedTracks = remove(p.LikedTracks, trackID)
	}
}

// AppendPlay appends a play record. Insertion order is chronological order.
func (p *UserProfile) AppendPlay(rec PlayRecord) {
	p.PlayHistory = append(p.PlayHistory, rec)
}

// SetArtistPreference adds the artist to (liked) or removes it from
// (disliked) the emotion's ordered artist list. The most recently added
// artist is last. Unrecognized emotions are ignored.
func (p *UserProfile) SetArtistPreference(e emotion.Emotion, artistID string, liked bool) {
	ep := p.EmotionPreferences[e]
	if ep == nil {
		return
	}
	if liked {
		if !contains(ep.Artists, artistID) {
			ep.Artists = append(ep.Artists, artistID)
		}
	} else {
		ep.Artists = remove(ep.Artists, artistID)
	}
}

// RecentPlays returns up to limit most recent plays recorded under the given
// emotion, oldest first.
func (p *UserProfile) RecentPlays(e emotion.Emotion, limit int) []PlayRecord {
	var relevant []PlayRecord
	for _, rec := range p.PlayHistory {
		if rec.Emotion == e {
			relevant = append(relevant, rec)
		}
	}
	if limit > 0 && len(relevant) > limit {
		relevant = relevant[len(relevant)-limit:]
	}
	return relevant
}

// PlayedUnder reports whether the track was ever played under the emotion.
func (p *UserProfile) PlayedUnder(trackID string, e emotion.Emotion) bool {
	for _, rec := range p.PlayHistory {
		if rec.TrackID == trackID && rec.Emotion == e {
			return true
		}
	}
	return false
}

// LikedTracksPlayedUnder returns liked tracks that have at least one play
// recorded under the emotion, in liked-set order.
func (p *UserProfile) LikedTracksPlayedUnder(e emotion.Emotion) []string {
	var out []string
	for _, id := range p.LikedTracks {
		if p.PlayedUnder(id, e) {
			out = append(out, id)
		}
	}
	return out
}

func contains(s []string, v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

func remove(s []string, v string) []string {
	out := s[:0]
	for _, x := range s {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}
