package core

import (
	"time"
)

// Email represents an inbox message handed to the analyzer
type Email struct {
	ID         string
	From       string
	To         []string
	Subject    string
	Body       string
	Headers    map[string][]string
	ReceivedAt time.Time
}

// ScoreStatus describes how a Score value was obtained
type ScoreStatus string

const (
	// ScoreStatusScored means a numeral was found in the backend reply
	ScoreStatusScored ScoreStatus = "scored"
	// ScoreStatusNoNumber means the reply contained no numeral and the default was used
	ScoreStatusNoNumber ScoreStatus = "no_number"
	// ScoreStatusFailed means the backend call failed and the default was used
	ScoreStatusFailed ScoreStatus = "failed"
	// ScoreStatusWhitelisted means the sender domain bypassed analysis
	ScoreStatusWhitelisted ScoreStatus = "whitelisted"
)

// MinScore and MaxScore bound every Score value
const (
	MinScore = 0.0
	MaxScore = 100.0
)

// Score is one result row of a batch analysis
type Score struct {
	Identifier string
	Value      float64
	Status     ScoreStatus
	Err        error
	AnalyzedAt time.Time
}

// Known reports whether the value reflects an actual model judgment
func (s Score) Known() bool {
	return s.Status == ScoreStatusScored || s.Status == ScoreStatusWhitelisted
}

// ClampScore bounds v to [MinScore, MaxScore]
func ClampScore(v float64) float64 {
	if v < MinScore {
		return MinScore
	}
	if v > MaxScore {
		return MaxScore
	}
	return v
}
