package ports

import (
	"context"

	"github.com/mikey/llm-spam-scorer/internal/core"
)

// ScoreSink defines the interface for batch result outputs
type ScoreSink interface {
	// Write stores one row per score, in order
	Write(ctx context.Context, scores []core.Score) error
}
