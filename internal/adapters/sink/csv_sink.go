package sink

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/mikey/llm-spam-scorer/internal/core"
)

// Header is the first row of every results file
var Header = []string{"mail_id", "Pct_spam"}

// CSVSink writes score rows to a CSV file
type CSVSink struct {
	path          string
	unknownMarker string
	appendMode    bool
	logger        *zap.Logger

	mu sync.Mutex
}

// NewCSVSink creates a new CSV sink. A non-empty unknownMarker replaces the 0.0 of rows
// whose value was not read from the model; appendMode keeps existing rows.
func NewCSVSink(path, unknownMarker string, appendMode bool, logger *zap.Logger) *CSVSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CSVSink{
		path:          path,
		unknownMarker: unknownMarker,
		appendMode:    appendMode,
		logger:        logger,
	}
}

// Path returns the output file
func (s *CSVSink) Path() string {
	return s.path
}

// Write stores one row per score. The header is written when the file is new or truncated.
func (s *CSVSink) Write(ctx context.Context, scores []core.Score) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	writeHeader := true
	if s.appendMode {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
		if info, err := os.Stat(s.path); err == nil && info.Size() > 0 {
			writeHeader = false
		}
	}

	f, err := os.OpenFile(s.path, flags, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", s.path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if writeHeader {
		if err := w.Write(Header); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}
	for _, score := range scores {
		if err := w.Write([]string{score.Identifier, s.formatValue(score)}); err != nil {
			return fmt.Errorf("failed to write row for %s: %w", score.Identifier, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", s.path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", s.path, err)
	}

	s.logger.Info("Results written",
		zap.String("path", s.path),
		zap.Int("rows", len(scores)),
		zap.Bool("append", s.appendMode))
	return nil
}

func (s *CSVSink) formatValue(score core.Score) string {
	if s.unknownMarker != "" && !score.Known() {
		return s.unknownMarker
	}
	return FormatPercent(score.Value)
}

// FormatPercent renders a score as a decimal that always carries a fractional part
func FormatPercent(v float64) string {
	out := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(out, ".") {
		out += ".0"
	}
	return out
}
