// Package emotion provides the Emotion domain type and its music-feature mappings.
package emotion

// Emotion represents a detected emotional state.
type Emotion string

const (
	Happy   Emotion = "happy"
	Sad     Emotion = "sad"
	Angry   Emotion = "angry"
	Neutral Emotion = "neutral"
	Anxious Emotion = "anxious"
)

// All returns every recognized emotion in a stable order.
func All() []Emotion {
	return []Emotion{Happy, Sad, Angry, Neutral, Anxious}
}

// IsValid reports whether e is one of the recognized emotions.
func (e Emotion) IsValid() bool {
	switch e {
	case Happy, Sad, Angry, Neutral, Anxious:
		return true
	}
	return false
}

// String returns the string representation of the emotion.
func (e Emotion) String() string {
	return string(e)
}

// Range represents an inclusive audio-feature value range.
type Range struct {
	Min float64
	Max float64
}

// Width returns the width of the range.
func (r Range) Width() float64 {
	return r.Max - r.Min
}

// Audio feature names used across the system. All features are normalized
// to [0,1] except tempo, which is expressed in BPM.
const (
	FeatureValence      = "valence"
	FeatureEnergy       = "energy"
	FeatureTempo        = "tempo"
	FeatureDanceability = "danceability"
	FeatureAcousticness = "acousticness"
)

// IsNormalized reports whether the named feature is bounded to [0,1].
func IsNormalized(feature string) bool {
	return feature != FeatureTempo
}

// DefaultRanges returns the default target feature ranges for an emotion.
// Unknown emotions fall back to the neutral mapping.
func DefaultRanges(e Emotion) map[string]Range {
	if r, ok := defaultFeatureRanges[e]; ok {
		return r
	}
	return defaultFeatureRanges[Neutral]
}

// GenreSeeds returns the fallback genre seeds for an emotion, used when no
// track or artist seeds are available.
func GenreSeeds(e Emotion) []string {
	if g, ok := genreSeeds[e]; ok {
		return g
	}
	return []string{"pop"}
}

var defaultFeatureRanges = map[Emotion]map[string]Range{
	Happy: {
		FeatureValence:      {0.7, 1.0},
		FeatureEnergy:       {0.7, 1.0},
		FeatureTempo:        {120, 180},
		FeatureDanceability: {0.6, 1.0},
		FeatureAcousticness: {0, 0.4},
	},
	Sad: {
		FeatureValence:      {0.0, 0.3},
		FeatureEnergy:       {0.2, 0.5},
		FeatureTempo:        {60, 90},
		FeatureDanceability: {0.2, 0.5},
		FeatureAcousticness: {0.5, 1.0},
	},
	Angry: {
		FeatureValence:      {0.2, 0.5},
		FeatureEnergy:       {0.8, 1.0},
		FeatureTempo:        {140, 180},
		FeatureDanceability: {0.4, 0.8},
		FeatureAcousticness: {0, 0.3},
	},
	Neutral: {
		FeatureValence:      {0.4, 0.6},
		FeatureEnergy:       {0.4, 0.6},
		FeatureTempo:        {90, 120},
		FeatureDanceability: {0.4, 0.6},
		FeatureAcousticness: {0.3, 0.7},
	},
	Anxious: {
		FeatureValence:      {0.3, 0.5},
		FeatureEnergy:       {0.3, 0.5},
		FeatureTempo:        {70, 100},
		FeatureDanceability: {0.3, 0.5},
		FeatureAcousticness: {0.6, 0.9},
	},
}

var genreSeeds = map[Emotion][]string{
	Happy:   {"pop", "dance", "party", "happy"},
	Sad:     {"sad", "indie", "ambient", "piano"},
	Angry:   {"rock", "metal", "punk", "hardcore"},
	Neutral: {"indie", "chill", "alternative", "folk"},
	Anxious: {"ambient", "classical", "piano", "meditation"},
}
