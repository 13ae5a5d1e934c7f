package session

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/mellowmind/internal/app/preference"
	"github.com/osa030/mellowmind/internal/app/seed"
	"github.com/osa030/mellowmind/internal/domain/emotion"
	"github.com/osa030/mellowmind/internal/domain/profile"
	"github.com/osa030/mellowmind/internal/domain/track"
)

// Errors
var (
	ErrNoEmotion = errors.New("no emotion set; describe your mood first")
	ErrNoQueue   = errors.New("queue is empty")
	ErrBadIndex  = errors.New("track index out of range")
)

// Config holds controller configuration.
type Config struct {
	RecommendLimit int           // Candidates fetched per mood query
	RefillLimit    int           // Candidates fetched when the queue runs dry
	PollInterval   time.Duration // Playback status poll interval
	ErrorBackoff   time.Duration // Extra wait after a failed status poll
	StopTimeout    time.Duration // How long to wait for the loop to stop
	DeviceID       string        // Preferred playback device ("" = auto)
}

func (c *Config) applyDefaults() {
	if c.RecommendLimit <= 0 {
		c.RecommendLimit = 20
	}
	if c.RefillLimit <= 0 {
		c.RefillLimit = 10
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 3 * time.Second
	}
	if c.ErrorBackoff <= 0 {
		c.ErrorBackoff = 5 * time.Second
	}
	if c.StopTimeout <= 0 {
		c.StopTimeout = 2 * time.Second
	}
}

// Controller orchestrates one user's listening session.
type Controller struct {
	id         string
	userID     string
	config     Config
	classifier Classifier
	catalog    Catalog
	transport  Transport
	exporter   PlaylistExporter
	store      FeedbackStore
	learner    *preference.Learner
	selector   *seed.Selector
	profile    *profile.UserProfile

	loop loopHandle // guards its own fields; see loop.go
}

// NewController creates a controller for the given user identity, loading
// (or initializing) the user's profile from the store.
func NewController(userID string, cfg Config, classifier Classifier, catalog Catalog, transport Transport, exporter PlaylistExporter, store FeedbackStore) *Controller {
	cfg.applyDefaults()
	c := &Controller{
		id:         uuid.NewString(),
		userID:     userID,
		config:     cfg,
		classifier: classifier,
		catalog:    catalog,
		transport:  transport,
		exporter:   exporter,
		store:      store,
		learner:    preference.NewLearner(),
		selector:   seed.NewSelector(),
		profile:    store.Load(userID),
	}
	c.loop.init()
	zlog.Debug().Msgf("session: created controller %s for user %s", c.id, userID)
	return c
}

// SetMood classifies the text, synthesizes targets and seeds, fetches
// candidates and loads the queue. Returns the detected emotion and the
// candidates; an empty candidate list is not an error.
func (c *Controller) SetMood(ctx context.Context, text string) (emotion.Emotion, []track.Track, error) {
	detected, textFeatures := c.classifier.Classify(text)
	zlog.Info().Msgf("session: detected emotion %s (polarity=%.2f)", detected, textFeatures["polarity"])

	candidates, err := c.fetchCandidates(ctx, detected, c.config.RecommendLimit, nil)
	if err != nil {
		return detected, nil, err
	}

	c.loop.mu.Lock()
	c.loop.st.emotion = detected
	c.loop.st.queue = candidates
	c.loop.st.index = 0
	c.loop.mu.Unlock()

	return detected, candidates, nil
}

// fetchCandidates runs the target synthesis → seed selection → catalog fetch
// pipeline. Seed-source lookups are best-effort: a failed external call
// degrades to an empty pool rather than aborting the query.
func (c *Controller) fetchCandidates(ctx context.Context, e emotion.Emotion, limit int, excludeIDs map[string]bool) ([]track.Track, error) {
	targets := c.learner.DynamicTargets(c.profile, e, emotion.DefaultRanges(e))

	recent, err := c.catalog.RecentlyPlayedIDs(ctx, 10)
	if err != nil {
		zlog.Warn().Msgf("session: recently played lookup failed: %v", err)
		recent = nil
	}

	topArtists, err := c.catalog.TopArtistIDs(ctx, 5)
	if err != nil {
		zlog.Warn().Msgf("session: top artists lookup failed: %v", err)
		topArtists = nil
	}

	seeds := c.selector.Select(c.profile, e, recent, topArtists, nil)
	if seeds.IsEmpty() {
		// Genre fallback needs the valid genre set; only fetch it when the
		// personal seed pools came up empty.
		validGenres, err := c.catalog.ValidGenreSeeds(ctx)
		if err != nil {
			zlog.Warn().Msgf("session: genre seeds lookup failed: %v", err)
		}
		seeds = c.selector.Select(c.profile, e, recent, topArtists, validGenres)
	}
	if seeds.IsEmpty() {
		zlog.Warn().Msgf("session: no usable seeds for emotion %s", e)
		return nil, nil
	}

	candidates, err := c.catalog.Recommend(ctx, seeds, targets, limit)
	if err != nil {
		return nil, errors.Wrap(err, "recommendation query failed")
	}

	// Drop the most recently played tracks for freshness, but not below a
	// minimum queue worth of candidates.
	candidates = filterFresh(candidates, recent, 5)

	if len(excludeIDs) > 0 {
		kept := candidates[:0]
		for _, t := range candidates {
			if !excludeIDs[t.ID] {
				kept = append(kept, t)
			}
		}
		candidates = kept
	}

	return candidates, nil
}

// filterFresh removes candidates among the first n recently played IDs,
// unless that would leave fewer than n candidates.
func filterFresh(candidates []track.Track, recent []string, n int) []track.Track {
	if len(recent) > n {
		recent = recent[:n]
	}
	recentSet := make(map[string]bool, len(recent))
	for _, id := range recent {
		recentSet[id] = true
	}

	fresh := make([]track.Track, 0, len(candidates))
	for _, t := range candidates {
		if !recentSet[t.ID] {
			fresh = append(fresh, t)
		}
	}
	if len(fresh) < n {
		return candidates
	}
	return fresh
}

// Play starts playback of the queued track at the given index and records
// the play.
func (c *Controller) Play(ctx context.Context, index int) error {
	c.loop.mu.Lock()
	if len(c.loop.st.queue) == 0 {
		c.loop.mu.Unlock()
		return ErrNoQueue
	}
	if index < 0 || index >= len(c.loop.st.queue) {
		c.loop.mu.Unlock()
		return ErrBadIndex
	}
	t := c.loop.st.queue[index]
	c.loop.mu.Unlock()

	return c.playTrack(ctx, t, index)
}

// playTrack starts transport playback and records the play with its feature
// snapshot. The snapshot lookup is best-effort.
func (c *Controller) playTrack(ctx context.Context, t track.Track, index int) error {
	if err := c.transport.Start(ctx, c.config.DeviceID, t.URI); err != nil {
		return errors.Wrap(err, "failed to start playback")
	}

	features, err := c.catalog.AudioFeatures(ctx, t.ID)
	if err != nil {
		zlog.Warn().Msgf("session: audio features unavailable for %s: %v", t.ID, err)
		features = nil
	}

	c.loop.mu.Lock()
	e := c.loop.st.emotion
	c.loop.st.current = &CurrentTrack{Track: t, Features: features}
	c.loop.st.index = index
	c.loop.st.state = StatePlaying
	c.loop.mu.Unlock()

	if err := c.store.RecordPlay(c.profile, t.ID, t.Name, t.Artist, e, features); err != nil {
		zlog.Warn().Msgf("session: failed to persist play record: %v", err)
	}

	zlog.Info().Msgf("session: now playing %s by %s", t.Name, t.Artist)
	return nil
}

// Pause pauses playback.
func (c *Controller) Pause(ctx context.Context) error {
	if err := c.transport.Pause(ctx); err != nil {
		return err
	}
	c.loop.mu.Lock()
	if c.loop.st.state == StatePlaying {
		c.loop.st.state = StatePaused
	}
	c.loop.mu.Unlock()
	return nil
}

// Resume resumes paused playback.
func (c *Controller) Resume(ctx context.Context) error {
	if err := c.transport.Resume(ctx); err != nil {
		return err
	}
	c.loop.mu.Lock()
	if c.loop.st.state == StatePaused {
		c.loop.st.state = StatePlaying
	}
	c.loop.mu.Unlock()
	return nil
}

// Next skips to the next track and refreshes the current-track state from
// the transport.
func (c *Controller) Next(ctx context.Context) error {
	if err := c.transport.Next(ctx); err != nil {
		return err
	}
	c.refreshCurrent(ctx)
	return nil
}

// Previous skips back and refreshes the current-track state.
func (c *Controller) Previous(ctx context.Context) error {
	if err := c.transport.Previous(ctx); err != nil {
		return err
	}
	c.refreshCurrent(ctx)
	return nil
}

// refreshCurrent re-reads the transport status after a skip. The transport
// needs a moment to settle before the status reflects the new track.
func (c *Controller) refreshCurrent(ctx context.Context) {
	time.Sleep(time.Second)

	status, err := c.transport.CurrentStatus(ctx)
	if err != nil || status == nil {
		if err != nil {
			zlog.Warn().Msgf("session: status refresh failed: %v", err)
		}
		return
	}

	features, err := c.catalog.AudioFeatures(ctx, status.Track.ID)
	if err != nil {
		features = nil
	}

	c.loop.mu.Lock()
	c.loop.st.current = &CurrentTrack{Track: status.Track, Features: features}
	if status.IsPlaying {
		c.loop.st.state = StatePlaying
	}
	c.loop.mu.Unlock()
}

// RateCurrentTrack records a like/dislike for the track currently recorded
// as playing. Returns false, without mutating the store, when no track is
// playing: that is an expected condition, not an error.
func (c *Controller) RateCurrentTrack(ctx context.Context, liked bool) bool {
	c.loop.mu.Lock()
	current := c.loop.st.current
	e := c.loop.st.emotion
	c.loop.mu.Unlock()

	if current == nil || e == "" {
		return false
	}

	if err := c.store.RecordFeedback(c.profile, current.Track.ID, liked, e, current.Features); err != nil {
		zlog.Warn().Msgf("session: failed to persist feedback: %v", err)
	}
	if current.Track.ArtistID != "" {
		if err := c.store.UpdateArtistPreference(c.profile, e, current.Track.ArtistID, liked); err != nil {
			zlog.Warn().Msgf("session: failed to persist artist preference: %v", err)
		}
	}

	return true
}

// SavePlaylist exports the current queue as a playlist and returns its URL.
func (c *Controller) SavePlaylist(ctx context.Context) (string, error) {
	c.loop.mu.Lock()
	e := c.loop.st.emotion
	queue := make([]track.Track, len(c.loop.st.queue))
	copy(queue, c.loop.st.queue)
	c.loop.mu.Unlock()

	if len(queue) == 0 {
		return "", ErrNoQueue
	}
	if e == "" {
		return "", ErrNoEmotion
	}

	name := "MellowMind " + capitalize(e.String()) + " - " + time.Now().Format("2006-01-02")
	description := "Mood-based playlist for " + e.String() + " created by MellowMind"

	playlistID, err := c.exporter.CreatePlaylist(ctx, name, description)
	if err != nil {
		return "", errors.Wrap(err, "failed to create playlist")
	}

	uris := make([]string, len(queue))
	for i, t := range queue {
		uris[i] = t.URI
	}
	if err := c.exporter.AddTracks(ctx, playlistID, uris); err != nil {
		return "", errors.Wrap(err, "failed to add tracks to playlist")
	}

	return c.exporter.PlaylistURL(playlistID), nil
}

// Devices lists the available playback devices.
func (c *Controller) Devices(ctx context.Context) ([]track.Device, error) {
	return c.transport.ListDevices(ctx)
}

// SelectDevice transfers playback to the given device, or to the first
// available device when deviceID is empty.
func (c *Controller) SelectDevice(ctx context.Context, deviceID string) (string, error) {
	if deviceID == "" {
		devices, err := c.transport.ListDevices(ctx)
		if err != nil {
			return "", errors.Wrap(err, "failed to list devices")
		}
		if len(devices) == 0 {
			return "", errors.New("no available playback devices found")
		}
		deviceID = devices[0].ID
	}
	if err := c.transport.Transfer(ctx, deviceID); err != nil {
		return "", err
	}
	return deviceID, nil
}

// Snapshot returns a copy of the session state for display.
func (c *Controller) Snapshot() Snapshot {
	c.loop.mu.Lock()
	defer c.loop.mu.Unlock()

	queue := make([]track.Track, len(c.loop.st.queue))
	copy(queue, c.loop.st.queue)

	var current *CurrentTrack
	if c.loop.st.current != nil {
		cp := *c.loop.st.current
		current = &cp
	}

	return Snapshot{
		Emotion:    c.loop.st.emotion,
		State:      c.loop.st.state,
		Current:    current,
		Queue:      queue,
		QueueIndex: c.loop.st.index,
		Continuous: c.loop.running,
	}
}

// Close stops the background loop and releases resources.
func (c *Controller) Close() {
	c.StopContinuous()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
