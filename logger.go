package voteensemble

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with ensemble-specific helpers so that all
// components log with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a Logger with the given handler.
// If handler is nil, a text handler to stderr at Info level is used.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{Logger: slog.New(handler)}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{Logger: slog.New(handler)}
}

// LogLearnRound logs one subsampled learning round.
func (l *Logger) LogLearnRound(ctx context.Context, k, b, workers int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "subsample learning failed",
			"k", k,
			"B", b,
			"workers", workers,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "subsample learning completed",
			"k", k,
			"B", b,
			"workers", workers,
		)
	}
}

// LogEvaluationRound logs one cached-evaluation round.
func (l *Logger) LogEvaluationRound(ctx context.Context, k, b, distinctRows, candidates int) {
	l.DebugContext(ctx, "subsample evaluation completed",
		"k", k,
		"B", b,
		"distinct_rows", distinctRows,
		"candidates", candidates,
	)
}

// LogVote logs the outcome of a majority vote.
func (l *Logger) LogVote(ctx context.Context, buckets, winnerCount, total int) {
	l.DebugContext(ctx, "majority vote completed",
		"unique_candidates", buckets,
		"winner_count", winnerCount,
		"total", total,
	)
}

// LogEpsilonSearch logs the result of the auto-epsilon bisection.
func (l *Logger) LogEpsilonSearch(ctx context.Context, epsilon, targetProb float64) {
	l.DebugContext(ctx, "auto-epsilon search completed",
		"epsilon", epsilon,
		"target_prob", targetProb,
	)
}

// WarnClampedSubsampleSize logs the k-larger-than-n clamping warning.
func (l *Logger) WarnClampedSubsampleSize(ctx context.Context, param string, k int, n int) {
	l.WarnContext(ctx, "subsample size exceeds available rows, clamping",
		"param", param,
		"requested", k,
		"rows", n,
	)
}
