package analysis

import (
	"errors"
	"regexp"
	"strconv"
	"unicode"
	"unicode/utf8"

	"github.com/mikey/llm-spam-scorer/internal/core"
)

var numeralPattern = regexp.MustCompile(`[-+]?\d+(?:\.\d+)?`)

// ScoreExtractor reads a spam percentage out of free-form model text
type ScoreExtractor struct{}

// NewScoreExtractor creates a new ScoreExtractor
func NewScoreExtractor() *ScoreExtractor {
	return &ScoreExtractor{}
}

// Extract returns the first numeral in text clamped to [0, 100], and whether one was found.
// A sign counts only when it is not glued to a preceding word ("COVID-19" yields 19).
func (e *ScoreExtractor) Extract(text string) (float64, bool) {
	loc := numeralPattern.FindStringIndex(text)
	if loc == nil {
		return 0, false
	}

	start := loc[0]
	if c := text[start]; (c == '-' || c == '+') && start > 0 {
		prev, _ := utf8.DecodeLastRuneInString(text[:start])
		if unicode.IsLetter(prev) || unicode.IsDigit(prev) {
			start++
		}
	}

	v, err := strconv.ParseFloat(text[start:loc[1]], 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	// Out of range numerals parse as ±Inf and clamp to the bounds
	return core.ClampScore(v), true
}

// Parse is Extract without the found flag; text without a numeral scores 0
func (e *ScoreExtractor) Parse(text string) float64 {
	v, _ := e.Extract(text)
	return v
}
