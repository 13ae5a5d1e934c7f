package session

import (
	"context"

	"github.com/osa030/mellowmind/internal/app/preference"
	"github.com/osa030/mellowmind/internal/app/seed"
	"github.com/osa030/mellowmind/internal/domain/emotion"
	"github.com/osa030/mellowmind/internal/domain/profile"
	"github.com/osa030/mellowmind/internal/domain/track"
)

// Classifier maps free text to an emotion label and a text-feature dict.
type Classifier interface {
	Classify(text string) (emotion.Emotion, map[string]float64)
}

// Catalog is the recommendation/catalog service contract.
type Catalog interface {
	Recommend(ctx context.Context, seeds seed.Seeds, targets map[string]preference.TargetWindow, limit int) ([]track.Track, error)
	AudioFeatures(ctx context.Context, trackID string) (map[string]float64, error)
	ValidGenreSeeds(ctx context.Context) (map[string]bool, error)
	TopArtistIDs(ctx context.Context, limit int) ([]string, error)
	RecentlyPlayedIDs(ctx context.Context, limit int) ([]string, error)
}

// Transport is the playback transport contract.
type Transport interface {
	Start(ctx context.Context, deviceID, uri string) error
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
	Next(ctx context.Context) error
	Previous(ctx context.Context) error
	CurrentStatus(ctx context.Context) (*track.NowPlaying, error)
	ListDevices(ctx context.Context) ([]track.Device, error)
	Transfer(ctx context.Context, deviceID string) error
}

// PlaylistExporter is the playlist export contract.
type PlaylistExporter interface {
	CreatePlaylist(ctx context.Context, name, description string) (string, error)
	AddTracks(ctx context.Context, playlistID string, uris []string) error
	PlaylistURL(playlistID string) string
}

// FeedbackStore is the durable feedback store contract.
type FeedbackStore interface {
	Load(userID string) *profile.UserProfile
	RecordPlay(p *profile.UserProfile, trackID, trackName, artist string, e emotion.Emotion, features map[string]float64) error
	RecordFeedback(p *profile.UserProfile, trackID string, liked bool, e emotion.Emotion, features map[string]float64) error
	UpdateArtistPreference(p *profile.UserProfile, e emotion.Emotion, artistID string, liked bool) error
}
