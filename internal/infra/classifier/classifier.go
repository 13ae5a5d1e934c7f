// Package classifier provides a heuristic text-to-emotion classifier.
//
// The classifier scores polarity and subjectivity from small word lexicons
// and maps them onto the fixed emotion set. It is deterministic, which the
// session tests rely on.
package classifier

import (
	"strings"
	"unicode"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"

	"github.com/osa030/mellowmind/internal/domain/emotion"
)

// Config represents classifier tuning settings.
type Config struct {
	HappyThreshold      float64  `yaml:"happy_threshold" mapstructure:"happy_threshold" default:"0.5" validate:"gt=0,lte=1"`
	SadThreshold        float64  `yaml:"sad_threshold" mapstructure:"sad_threshold" default:"-0.5" validate:"lt=0,gte=-1"`
	AngrySubjectivity   float64  `yaml:"angry_subjectivity" mapstructure:"angry_subjectivity" default:"0.8" validate:"gt=0,lte=1"`
	NeutralSubjectivity float64  `yaml:"neutral_subjectivity" mapstructure:"neutral_subjectivity" default:"0.3" validate:"gt=0,lte=1"`
	ExtraPositiveWords  []string `yaml:"extra_positive_words" mapstructure:"extra_positive_words"`
	ExtraNegativeWords  []string `yaml:"extra_negative_words" mapstructure:"extra_negative_words"`
}

// Classifier maps free text to an emotion label and a text-feature dict.
type Classifier struct {
	config   *Config
	positive map[string]bool
	negative map[string]bool
}

// New creates a classifier from free-form settings.
func New(settings map[string]any) (*Classifier, error) {
	var config Config
	if settings != nil {
		if err := mapstructure.Decode(settings, &config); err != nil {
			return nil, errors.Wrap(err, "failed to decode settings")
		}
	}
	if err := defaults.Set(&config); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(config); err != nil {
		return nil, errors.Wrap(err, "validation failed")
	}

	c := &Classifier{
		config:   &config,
		positive: wordSet(positiveWords),
		negative: wordSet(negativeWords),
	}
	for _, w := range config.ExtraPositiveWords {
		c.positive[strings.ToLower(w)] = true
	}
	for _, w := range config.ExtraNegativeWords {
		c.negative[strings.ToLower(w)] = true
	}
	return c, nil
}

// Classify analyzes the text and returns the detected emotion together with
// the text features the decision was based on.
func (c *Classifier) Classify(text string) (emotion.Emotion, map[string]float64) {
	words := tokenize(text)

	var positives, negatives, subjective int
	hasNegation := false
	for _, w := range words {
		if c.positive[w] {
			positives++
			subjective++
		}
		if c.negative[w] {
			negatives++
			subjective++
		}
		if negationWords[w] {
			hasNegation = true
		}
		if intensifierWords[w] {
			subjective++
		}
	}

	polarity := 0.0
	if positives+negatives > 0 {
		polarity = float64(positives-negatives) / float64(positives+negatives)
	}
	subjectivity := 0.0
	if len(words) > 0 {
		subjectivity = float64(subjective) / float64(len(words))
		if subjectivity > 1 {
			subjectivity = 1
		}
	}
	// Negation flips the expressed sentiment.
	if hasNegation {
		polarity = -polarity
	}

	features := map[string]float64{
		"polarity":          polarity,
		"subjectivity":      subjectivity,
		"word_count":        float64(len(words)),
		"exclamation_count": float64(strings.Count(text, "!")),
		"question_count":    float64(strings.Count(text, "?")),
		"has_negation":      boolToFloat(hasNegation),
	}

	return c.mapToEmotion(polarity, subjectivity, hasNegation), features
}

func (c *Classifier) mapToEmotion(polarity, subjectivity float64, hasNegation bool) emotion.Emotion {
	switch {
	case polarity > c.config.HappyThreshold:
		return emotion.Happy
	case polarity < c.config.SadThreshold:
		return emotion.Sad
	case subjectivity > c.config.AngrySubjectivity && hasNegation:
		return emotion.Angry
	case subjectivity < c.config.NeutralSubjectivity:
		return emotion.Neutral
	default:
		return emotion.Anxious
	}
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
}

func wordSet(words []string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
