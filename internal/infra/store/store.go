// Package store provides the file-backed Feedback Store: a durable mapping
// from user identity to accumulated feedback history.
package store

import (
	"encoding/json"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/mellowmind/internal/app/preference"
	"github.com/osa030/mellowmind/internal/domain/emotion"
	"github.com/osa030/mellowmind/internal/domain/profile"
)

// Store persists all user profiles in a single JSON file. Every mutation
// rewrites the complete store; concurrent external writers are unsupported.
type Store struct {
	path     string
	learner  *preference.Learner
	profiles map[string]*profile.UserProfile
	loaded   bool
}

// New creates a store backed by the given file path.
func New(path string, learner *preference.Learner) *Store {
	return &Store{
		path:     path,
		learner:  learner,
		profiles: make(map[string]*profile.UserProfile),
	}
}

// Load returns the profile for a user identity, reading the store file on
// first access. A missing or unreadable file degrades to an empty store and
// a missing or corrupt entry degrades to a fresh profile: losing data is
// preferred over blocking the user.
func (s *Store) Load(userID string) *profile.UserProfile {
	if !s.loaded {
		s.loadAll()
		s.loaded = true
	}

	p, ok := s.profiles[userID]
	if !ok {
		p = profile.New()
		s.profiles[userID] = p
	}
	return p
}

func (s *Store) loadAll() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			zlog.Warn().Msgf("store: unreadable store file %s, starting empty: %v", s.path, err)
		}
		return
	}

	var all map[string]*profile.UserProfile
	if err := json.Unmarshal(data, &all); err != nil {
		zlog.Warn().Msgf("store: malformed store file %s, starting empty: %v", s.path, err)
		return
	}

	for id, p := range all {
		if p == nil {
			continue
		}
		p.Normalize()
		s.profiles[id] = p
	}
}

// Save serializes the complete multi-user store, overwriting prior content.
// Not atomic.
func (s *Store) Save() error {
	data, err := json.MarshalIndent(s.profiles, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to serialize store")
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return errors.Wrap(err, "failed to write store file")
	}
	return nil
}

// RecordPlay appends a play record and persists the store.
func (s *Store) RecordPlay(p *profile.UserProfile, trackID, trackName, artist string, e emotion.Emotion, features map[string]float64) error {
	p.AppendPlay(profile.PlayRecord{
		TrackID:   trackID,
		TrackName: trackName,
		Artist:    artist,
		Emotion:   e,
		Timestamp: time.Now(),
		Features:  features,
	})
	return s.Save()
}

// RecordFeedback records a like/dislike for a track, applies the preference
// learner update when a feature snapshot is available and the emotion is
// recognized, and persists the store.
func (s *Store) RecordFeedback(p *profile.UserProfile, trackID string, liked bool, e emotion.Emotion, features map[string]float64) error {
	p.SetFeedback(trackID, liked)

	if features != nil && e.IsValid() {
		s.learner.UpdateFeaturePreferences(p, e, features, liked)
	} else if features != nil {
		zlog.Debug().Msgf("store: feedback for %s under unrecognized emotion %q, preference update skipped", trackID, e)
	}

	return s.Save()
}

// UpdateArtistPreference adds or removes an artist from the emotion's
// preferred-artist list and persists the store.
func (s *Store) UpdateArtistPreference(p *profile.UserProfile, e emotion.Emotion, artistID string, liked bool) error {
	p.SetArtistPreference(e, artistID, liked)
	return s.Save()
}
