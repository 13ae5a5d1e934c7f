// Package track provides the track and playback-device domain entities.
package track

// Track represents a playable recommendation candidate.
// Contains only information retrieved from the catalog API.
type Track struct {
	ID       string // Spotify track ID
	Name     string // Track name
	Artist   string // Main artist name
	ArtistID string // Main artist ID (empty when unknown)
	URI      string // Playback URI
}

// NowPlaying represents the externally-reported playback status.
type NowPlaying struct {
	Track     Track
	IsPlaying bool
}

// Device represents an available playback device.
type Device struct {
	ID     string
	Name   string
	Type   string
	Active bool
}
