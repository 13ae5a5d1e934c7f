// Package spotify provides a client for the Spotify API covering the
// catalog, playback transport and playlist export surfaces.
package spotify

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"

	"github.com/osa030/mellowmind/internal/app/preference"
	"github.com/osa030/mellowmind/internal/app/seed"
	"github.com/osa030/mellowmind/internal/domain/emotion"
	"github.com/osa030/mellowmind/internal/domain/track"
)

// Client is a Spotify API client.
type Client struct {
	client     *spotify.Client
	maxRetries int
	retryDelay time.Duration
}

// Config represents Spotify client configuration.
type Config struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
}

// New creates a new Spotify client.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RefreshToken == "" {
		return nil, errors.New("spotify credentials are required")
	}

	// Create authenticator with required scopes
	auth := spotifyauth.New(
		spotifyauth.WithClientID(cfg.ClientID),
		spotifyauth.WithClientSecret(cfg.ClientSecret),
		spotifyauth.WithScopes(
			spotifyauth.ScopeUserLibraryRead,
			spotifyauth.ScopeUserModifyPlaybackState,
			spotifyauth.ScopeUserReadPlaybackState,
			spotifyauth.ScopeStreaming,
			spotifyauth.ScopeUserTopRead,
			spotifyauth.ScopeUserReadRecentlyPlayed,
			spotifyauth.ScopePlaylistModifyPrivate,
		),
	)

	// Create token from refresh token
	token := &oauth2.Token{
		RefreshToken: cfg.RefreshToken,
	}

	// Get HTTP client with auto-refresh capability
	httpClient := auth.Client(ctx, token)
	client := spotify.New(httpClient)

	return &Client{
		client:     client,
		maxRetries: 3,
		retryDelay: time.Second,
	}, nil
}

// Recommend queries the recommendation API with the given seeds and target
// feature windows. Windows are collapsed to their midpoints, matching the
// target_* parameter model of the API.
func (c *Client) Recommend(ctx context.Context, seeds seed.Seeds, targets map[string]preference.TargetWindow, limit int) ([]track.Track, error) {
	if seeds.IsEmpty() {
		return nil, errors.New("at least one seed is required")
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	apiSeeds := spotify.Seeds{
		Tracks:  toIDs(seeds.Tracks),
		Artists: toIDs(seeds.Artists),
		Genres:  seeds.Genres,
	}

	attrs := buildTrackAttributes(targets)

	var recs *spotify.Recommendations
	err := c.retry(func() error {
		r, err := c.client.GetRecommendations(ctx, apiSeeds, attrs, spotify.Limit(limit))
		if err != nil {
			return err
		}
		recs = r
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get recommendations")
	}

	tracks := make([]track.Track, 0, len(recs.Tracks))
	for _, t := range recs.Tracks {
		tracks = append(tracks, convertSimpleTrack(&t))
	}
	return tracks, nil
}

// AudioFeatures retrieves the audio-feature snapshot for a track. A missing
// snapshot yields (nil, nil): absence is an expected condition, not an error.
func (c *Client) AudioFeatures(ctx context.Context, trackID string) (map[string]float64, error) {
	var features []*spotify.AudioFeatures
	err := c.retry(func() error {
		f, err := c.client.GetAudioFeatures(ctx, spotify.ID(extractTrackID(trackID)))
		if err != nil {
			return err
		}
		features = f
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get audio features")
	}
	if len(features) == 0 || features[0] == nil {
		return nil, nil
	}

	f := features[0]
	return map[string]float64{
		emotion.FeatureValence:      float64(f.Valence),
		emotion.FeatureEnergy:       float64(f.Energy),
		emotion.FeatureTempo:        float64(f.Tempo),
		emotion.FeatureDanceability: float64(f.Danceability),
		emotion.FeatureAcousticness: float64(f.Acousticness),
		"instrumentalness":          float64(f.Instrumentalness),
		"speechiness":               float64(f.Speechiness),
		"liveness":                  float64(f.Liveness),
	}, nil
}

// ValidGenreSeeds returns the set of genre identifiers accepted by the
// recommendation API.
func (c *Client) ValidGenreSeeds(ctx context.Context) (map[string]bool, error) {
	var genres []string
	err := c.retry(func() error {
		g, err := c.client.GetAvailableGenreSeeds(ctx)
		if err != nil {
			return err
		}
		genres = g
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get genre seeds")
	}

	valid := make(map[string]bool, len(genres))
	for _, g := range genres {
		valid[g] = true
	}
	return valid, nil
}

// TopArtistIDs returns the user's medium-term top artist IDs.
func (c *Client) TopArtistIDs(ctx context.Context, limit int) ([]string, error) {
	var page *spotify.FullArtistPage
	err := c.retry(func() error {
		p, err := c.client.CurrentUsersTopArtists(ctx, spotify.Limit(limit), spotify.Timerange(spotify.MediumTermRange))
		if err != nil {
			return err
		}
		page = p
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get top artists")
	}

	ids := make([]string, 0, len(page.Artists))
	for _, a := range page.Artists {
		ids = append(ids, string(a.ID))
	}
	return ids, nil
}

// RecentlyPlayedIDs returns the user's recently played track IDs, most
// recent first.
func (c *Client) RecentlyPlayedIDs(ctx context.Context, limit int) ([]string, error) {
	var items []spotify.RecentlyPlayedItem
	err := c.retry(func() error {
		i, err := c.client.PlayerRecentlyPlayedOpt(ctx, &spotify.RecentlyPlayedOptions{Limit: spotify.Numeric(limit)})
		if err != nil {
			return err
		}
		items = i
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get recently played")
	}

	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, string(item.Track.ID))
	}
	return ids, nil
}

// Start begins playback of the given URI on a device.
func (c *Client) Start(ctx context.Context, deviceID, uri string) error {
	opts := &spotify.PlayOptions{URIs: []spotify.URI{spotify.URI(uri)}}
	if deviceID != "" {
		id := spotify.ID(deviceID)
		opts.DeviceID = &id
	}

	err := c.retry(func() error {
		return c.client.PlayOpt(ctx, opts)
	})
	return errors.Wrap(err, "failed to start playback")
}

// Pause pauses playback.
func (c *Client) Pause(ctx context.Context) error {
	return errors.Wrap(c.client.Pause(ctx), "failed to pause playback")
}

// Resume resumes playback.
func (c *Client) Resume(ctx context.Context) error {
	return errors.Wrap(c.client.Play(ctx), "failed to resume playback")
}

// Next skips to the next track on the active device.
func (c *Client) Next(ctx context.Context) error {
	return errors.Wrap(c.client.Next(ctx), "failed to skip to next track")
}

// Previous skips to the previous track on the active device.
func (c *Client) Previous(ctx context.Context) error {
	return errors.Wrap(c.client.Previous(ctx), "failed to skip to previous track")
}

// CurrentStatus returns the current playback status, or nil when nothing is
// playing.
func (c *Client) CurrentStatus(ctx context.Context) (*track.NowPlaying, error) {
	var playing *spotify.CurrentlyPlaying
	err := c.retry(func() error {
		p, err := c.client.PlayerCurrentlyPlaying(ctx)
		if err != nil {
			return err
		}
		playing = p
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get playback status")
	}
	if playing == nil || playing.Item == nil {
		return nil, nil
	}

	return &track.NowPlaying{
		Track:     convertFullTrack(playing.Item),
		IsPlaying: playing.Playing,
	}, nil
}

// ListDevices returns the available playback devices.
func (c *Client) ListDevices(ctx context.Context) ([]track.Device, error) {
	var devices []spotify.PlayerDevice
	err := c.retry(func() error {
		d, err := c.client.PlayerDevices(ctx)
		if err != nil {
			return err
		}
		devices = d
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list devices")
	}

	out := make([]track.Device, 0, len(devices))
	for _, d := range devices {
		out = append(out, track.Device{
			ID:     string(d.ID),
			Name:   d.Name,
			Type:   d.Type,
			Active: d.Active,
		})
	}
	return out, nil
}

// Transfer transfers playback to the given device.
func (c *Client) Transfer(ctx context.Context, deviceID string) error {
	err := c.retry(func() error {
		return c.client.TransferPlayback(ctx, spotify.ID(deviceID), true)
	})
	return errors.Wrap(err, "failed to transfer playback")
}

// CreatePlaylist creates a new private playlist for the current user.
func (c *Client) CreatePlaylist(ctx context.Context, name, description string) (string, error) {
	user, err := c.client.CurrentUser(ctx)
	if err != nil {
		return "", errors.Wrap(err, "failed to get current user")
	}

	var playlist *spotify.FullPlaylist
	err = c.retry(func() error {
		p, err := c.client.CreatePlaylistForUser(ctx, user.ID, name, description, false, false)
		if err != nil {
			return err
		}
		playlist = p
		return nil
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to create playlist")
	}

	return string(playlist.ID), nil
}

// AddTracks adds tracks to a playlist. URIs and bare IDs are both accepted.
func (c *Client) AddTracks(ctx context.Context, playlistID string, uris []string) error {
	ids := make([]spotify.ID, len(uris))
	for i, uri := range uris {
		ids[i] = spotify.ID(extractTrackID(uri))
	}

	// Spotify allows max 100 tracks per request
	for i := 0; i < len(ids); i += 100 {
		end := i + 100
		if end > len(ids) {
			end = len(ids)
		}
		batch := ids[i:end]

		err := c.retry(func() error {
			_, err := c.client.AddTracksToPlaylist(ctx, spotify.ID(playlistID), batch...)
			return err
		})
		if err != nil {
			return errors.Wrap(err, "failed to add tracks to playlist")
		}
	}

	return nil
}

// PlaylistURL returns the public URL for a playlist.
func (c *Client) PlaylistURL(playlistID string) string {
	return "https://open.spotify.com/playlist/" + playlistID
}

// buildTrackAttributes maps target windows onto the recommendation API's
// typed target attributes. Unknown feature names are skipped.
func buildTrackAttributes(targets map[string]preference.TargetWindow) *spotify.TrackAttributes {
	attrs := spotify.NewTrackAttributes()
	for feature, w := range targets {
		mid := w.Mid()
		switch feature {
		case emotion.FeatureValence:
			attrs = attrs.TargetValence(mid)
		case emotion.FeatureEnergy:
			attrs = attrs.TargetEnergy(mid)
		case emotion.FeatureTempo:
			attrs = attrs.TargetTempo(mid)
		case emotion.FeatureDanceability:
			attrs = attrs.TargetDanceability(mid)
		case emotion.FeatureAcousticness:
			attrs = attrs.TargetAcousticness(mid)
		}
	}
	return attrs
}

func convertSimpleTrack(t *spotify.SimpleTrack) track.Track {
	var artist, artistID string
	if len(t.Artists) > 0 {
		artist = t.Artists[0].Name
		artistID = string(t.Artists[0].ID)
	}
	return track.Track{
		ID:       string(t.ID),
		Name:     t.Name,
		Artist:   artist,
		ArtistID: artistID,
		URI:      string(t.URI),
	}
}

func convertFullTrack(t *spotify.FullTrack) track.Track {
	var artist, artistID string
	if len(t.Artists) > 0 {
		artist = t.Artists[0].Name
		artistID = string(t.Artists[0].ID)
	}
	return track.Track{
		ID:       string(t.ID),
		Name:     t.Name,
		Artist:   artist,
		ArtistID: artistID,
		URI:      string(t.URI),
	}
}

func toIDs(ids []string) []spotify.ID {
	if len(ids) == 0 {
		return nil
	}
	out := make([]spotify.ID, len(ids))
	for i, id := range ids {
		out[i] = spotify.ID(id)
	}
	return out
}

// retry retries an operation with linear backoff.
func (c *Client) retry(fn func() error) error {
	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !isRetryable(err) {
			return err
		}

		if i < c.maxRetries-1 {
			time.Sleep(c.retryDelay * time.Duration(i+1))
		}
	}
	return errors.Wrap(lastErr, "max retries exceeded")
}

// isRetryable checks if an error is retryable.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	// Rate limit errors and server errors are retryable
	errStr := err.Error()
	return strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "500") ||
		strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "504")
}

// extractTrackID extracts the track ID from a Spotify track URL or URI.
func extractTrackID(input string) string {
	input = strings.TrimSpace(input)
	// Handle Spotify URI format: spotify:track:TRACK_ID
	if strings.HasPrefix(input, "spotify:track:") {
		return strings.TrimPrefix(input, "spotify:track:")
	}

	// Handle URL format: https://open.spotify.com/track/TRACK_ID
	if strings.Contains(input, "open.spotify.com") && strings.Contains(input, "/track/") {
		parts := strings.Split(input, "/track/")
		if len(parts) >= 2 {
			// Remove query parameters and trailing slashes
			id := strings.Split(parts[len(parts)-1], "?")[0]
			id = strings.TrimRight(id, "/")
			return id
		}
	}

	// Assume it's already a track ID
	return input
}
