// Package seed provides recommendation-query seed selection.
package seed

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/mellowmind/internal/domain/emotion"
	"github.com/osa030/mellowmind/internal/domain/profile"
)

// Seed count limits imposed by the recommendation API: at most maxTotalSeeds
// identifiers across all categories per query.
const (
	maxTotalSeeds  = 5
	maxTrackSeeds  = 2
	maxArtistSeeds = 3
)

// Seeds holds the selected recommendation-query seeds. Exactly one category
// combination is populated per selection: tracks and/or artists when either
// source has data, genres only when both are empty.
type Seeds struct {
	Tracks  []string
	Artists []string
	Genres  []string
}

// IsEmpty reports whether no seeds were selected at all.
func (s Seeds) IsEmpty() bool {
	return len(s.Tracks) == 0 && len(s.Artists) == 0 && len(s.Genres) == 0
}

// Total returns the total number of seed identifiers.
func (s Seeds) Total() int {
	return len(s.Tracks) + len(s.Artists) + len(s.Genres)
}

// Selector picks recommendation-query seeds from preference and
// recent-history signals.
type Selector struct {
	rng *rand.Rand
}

// NewSelector creates a selector with a crypto-seeded RNG.
func NewSelector() *Selector {
	var seed int64
	var buf [8]byte
	if _, err := cryptoRand.Read(buf[:]); err == nil {
		seed = int64(binary.LittleEndian.Uint64(buf[:]))
	} else {
		seed = time.Now().UnixNano()
	}
	return NewSelectorWithRand(rand.New(rand.NewSource(seed)))
}

// NewSelectorWithRand creates a selector with the given RNG. Tests inject a
// fixed-seed source here.
func NewSelectorWithRand(rng *rand.Rand) *Selector {
	return &Selector{rng: rng}
}

// Select picks seeds for a recommendation query.
//
// Precedence is deliberate: explicit personal history (liked tracks played
// under the emotion) beats general preference (per-emotion artists, then
// externally-reported top artists), which beats the generic emotion→genre
// mapping. Track slots are reserved first; artist count is capped by the
// remaining slots.
func (s *Selector) Select(p *profile.UserProfile, e emotion.Emotion, recentTracks, topArtists []string, validGenres map[string]bool) Seeds {
	var out Seeds

	trackPool := p.LikedTracksPlayedUnder(e)
	if len(trackPool) == 0 {
		trackPool = recentTracks
	}
	out.Tracks = s.sample(trackPool, maxTrackSeeds)

	var artistPool []string
	if ep := p.Preference(e); ep != nil {
		artistPool = ep.Artists
	}
	if len(artistPool) == 0 {
		artistPool = topArtists
	}
	artistLimit := maxArtistSeeds
	if remaining := maxTotalSeeds - len(out.Tracks); remaining < artistLimit {
		artistLimit = remaining
	}
	out.Artists = s.sample(artistPool, artistLimit)

	if len(out.Tracks) == 0 && len(out.Artists) == 0 {
		for _, g := range emotion.GenreSeeds(e) {
			if validGenres[g] {
				out.Genres = append(out.Genres, g)
			}
			if len(out.Genres) == maxTotalSeeds {
				break
			}
		}
		if len(out.Genres) == 0 {
			zlog.Debug().Msgf("seed: no usable seeds for emotion %s", e)
		}
	}

	return out
}

// sample returns up to n random elements from pool without replacement,
// leaving pool itself untouched.
func (s *Selector) sample(pool []string, n int) []string {
	if n <= 0 || len(pool) == 0 {
		return nil
	}
	if len(pool) <= n {
		out := make([]string, len(pool))
		copy(out, pool)
		s.rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
		return out
	}

	idx := s.rng.Perm(len(pool))[:n]
	out := make([]string, 0, n)
	for _, i := range idx {
		out = append(out, pool[i])
	}
	return out
}
