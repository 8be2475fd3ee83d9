package analysis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/mikey/llm-spam-scorer/internal/core"
	"github.com/mikey/llm-spam-scorer/internal/ports"
	"github.com/mikey/llm-spam-scorer/internal/utils"
	"github.com/mikey/llm-spam-scorer/internal/whitelist"
)

// Mode selects how scoring conversations are allocated
type Mode string

const (
	// ModeShared routes every item through one scoring conversation, one at a time
	ModeShared Mode = "shared"
	// ModeIsolated gives every item its own short-lived conversation
	ModeIsolated Mode = "isolated"
)

// Options configures a BatchAnalyzer
type Options struct {
	Mode              Mode
	Concurrency       int
	Timeout           time.Duration
	MaxBodySize       int
	RequestsPerSecond float64
	SystemPrompt      string
}

// BatchAnalyzer scores emails through the conversation manager.
// A failing item yields a 0.0 row instead of aborting the batch.
type BatchAnalyzer struct {
	manager   *core.ConversationManager
	extractor *ScoreExtractor
	processor *utils.TextProcessor
	whitelist *whitelist.Checker
	limiter   *rate.Limiter
	logger    *zap.Logger
	opts      Options

	sharedMu sync.Mutex
	sharedID string
}

// NewBatchAnalyzer creates a new batch analyzer
func NewBatchAnalyzer(
	manager *core.ConversationManager,
	extractor *ScoreExtractor,
	processor *utils.TextProcessor,
	checker *whitelist.Checker,
	logger *zap.Logger,
	opts Options,
) *BatchAnalyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if extractor == nil {
		extractor = NewScoreExtractor()
	}
	if processor == nil {
		processor = utils.NewTextProcessor(logger)
	}
	if opts.Mode == "" {
		opts.Mode = ModeIsolated
	}
	if opts.SystemPrompt == "" {
		opts.SystemPrompt = DefaultSystemPrompt
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.Mode == ModeShared && opts.Concurrency > 1 {
		logger.Warn("Shared scoring conversation is sequential, ignoring concurrency",
			zap.Int("concurrency", opts.Concurrency))
		opts.Concurrency = 1
	}

	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}

	return &BatchAnalyzer{
		manager:   manager,
		extractor: extractor,
		processor: processor,
		whitelist: checker,
		limiter:   limiter,
		logger:    logger,
		opts:      opts,
	}
}

// Options returns the effective options
func (a *BatchAnalyzer) Options() Options {
	return a.opts
}

// Analyze scores the first limit items (all when limit <= 0) and returns one row per item in source order
func (a *BatchAnalyzer) Analyze(ctx context.Context, items []core.Email, limit int) []core.Score {
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	scores := make([]core.Score, len(items))

	startTime := time.Now()
	a.logger.Info("Starting batch analysis",
		zap.Int("items", len(items)),
		zap.String("mode", string(a.opts.Mode)),
		zap.Int("concurrency", a.opts.Concurrency))

	if a.opts.Concurrency == 1 {
		for i, item := range items {
			scores[i] = a.AnalyzeOne(ctx, item)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(a.opts.Concurrency)
		for i, item := range items {
			i, item := i, item
			g.Go(func() error {
				scores[i] = a.AnalyzeOne(ctx, item)
				return nil
			})
		}
		_ = g.Wait()
	}

	counts := make(map[core.ScoreStatus]int)
	for _, s := range scores {
		counts[s.Status]++
	}
	a.logger.Info("Batch analysis complete",
		zap.Int("items", len(scores)),
		zap.Int("scored", counts[core.ScoreStatusScored]),
		zap.Int("no_number", counts[core.ScoreStatusNoNumber]),
		zap.Int("failed", counts[core.ScoreStatusFailed]),
		zap.Int("whitelisted", counts[core.ScoreStatusWhitelisted]),
		zap.Duration("duration", time.Since(startTime)))

	return scores
}

// AnalyzeOne scores a single email. It never fails; failures become a 0.0 row with StatusFailed.
func (a *BatchAnalyzer) AnalyzeOne(ctx context.Context, email core.Email) (score core.Score) {
	score = core.Score{Identifier: email.ID}

	defer func() {
		if r := recover(); r != nil {
			score = a.failed(email, fmt.Errorf("panic during analysis: %v", r))
		}
		score.AnalyzedAt = time.Now()
	}()

	if a.whitelist.IsWhitelisted(email.From) {
		a.logger.Info("Skipping spam check for whitelisted domain",
			zap.String("mail_id", email.ID),
			zap.String("sender", email.From),
			zap.String("action", "whitelist_bypass"))
		score.Status = core.ScoreStatusWhitelisted
		return score
	}

	reply, err := a.ask(ctx, email)
	if err != nil {
		return a.failed(email, err)
	}

	value, found := a.extractor.Extract(reply.Content())
	if !found {
		a.logger.Warn("No score found in model reply, defaulting to 0",
			zap.String("mail_id", email.ID),
			zap.String("reply", reply.Content()))
		score.Status = core.ScoreStatusNoNumber
		return score
	}

	score.Value = value
	score.Status = core.ScoreStatusScored
	a.logger.Debug("Scored email",
		zap.String("mail_id", email.ID),
		zap.Float64("pct_spam", value))
	return score
}

// AnalyzeSource fetches messages from src and analyzes them
func (a *BatchAnalyzer) AnalyzeSource(ctx context.Context, src ports.InboxSource, folder string, limit int) ([]core.Score, error) {
	emails, err := src.Messages(ctx, folder, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages from %s: %w", folder, err)
	}
	return a.Analyze(ctx, emails, limit), nil
}

// AnalyzeAndSave analyzes messages from src and writes the rows to sink
func (a *BatchAnalyzer) AnalyzeAndSave(ctx context.Context, src ports.InboxSource, folder string, limit int, sink ports.ScoreSink) ([]core.Score, error) {
	scores, err := a.AnalyzeSource(ctx, src, folder, limit)
	if err != nil {
		return nil, err
	}
	if err := sink.Write(ctx, scores); err != nil {
		return scores, fmt.Errorf("failed to write results: %w", err)
	}
	return scores, nil
}

func (a *BatchAnalyzer) ask(ctx context.Context, email core.Email) (core.Message, error) {
	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return core.Message{}, fmt.Errorf("rate limiter: %w", err)
		}
	}

	conversationID, release, err := a.conversationFor(email)
	if err != nil {
		return core.Message{}, err
	}
	defer release()

	callCtx := ctx
	if a.opts.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, a.opts.Timeout)
		defer cancel()
	}

	body := a.processor.ProcessText(email.Body, a.opts.MaxBodySize)
	return a.manager.SendMessage(callCtx, conversationID, buildPrompt(email, body))
}

// conversationFor returns the conversation to score email in and a release func
func (a *BatchAnalyzer) conversationFor(email core.Email) (string, func(), error) {
	if a.opts.Mode == ModeShared {
		id, err := a.sharedConversation()
		return id, func() {}, err
	}

	conv, err := a.manager.CreateConversation("Spam Detection: "+email.ID, a.opts.SystemPrompt)
	if err != nil {
		return "", nil, err
	}
	return conv.ID(), func() { a.manager.DeleteConversation(conv.ID()) }, nil
}

func (a *BatchAnalyzer) sharedConversation() (string, error) {
	a.sharedMu.Lock()
	defer a.sharedMu.Unlock()

	if a.sharedID != "" {
		return a.sharedID, nil
	}
	conv, err := a.manager.CreateConversation("Spam Detection", a.opts.SystemPrompt)
	if err != nil {
		return "", err
	}
	a.sharedID = conv.ID()
	return a.sharedID, nil
}

func (a *BatchAnalyzer) failed(email core.Email, err error) core.Score {
	a.logger.Error("Failed to analyze email, defaulting to 0",
		zap.String("mail_id", email.ID),
		zap.Error(err))
	return core.Score{
		Identifier: email.ID,
		Value:      0.0,
		Status:     core.ScoreStatusFailed,
		Err:        err,
	}
}
