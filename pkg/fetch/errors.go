package fetch

import (
	"context"

	"github.com/rs/zerolog"
)

// BatchContext identifies the chunk a failure belongs to.
type BatchContext struct {
	Collection string
	// BatchIndex is the 1-based position of the chunk within its fetch.
	BatchIndex int
	Keys       []string
}

// ErrorLogger receives one call per failed chunk. Implementations must not
// block for long and must not panic.
type ErrorLogger interface {
	LogBatchError(ctx context.Context, batch BatchContext, err error)
}

// ErrorLoggerFunc adapts a function to ErrorLogger.
type ErrorLoggerFunc func(ctx context.Context, batch BatchContext, err error)

// LogBatchError calls fn.
func (fn ErrorLoggerFunc) LogBatchError(ctx context.Context, batch BatchContext, err error) {
	fn(ctx, batch, err)
}

type zerologErrorLogger struct {
	logger zerolog.Logger
}

// NewZerologErrorLogger returns the default ErrorLogger, which writes one
// warning per failed chunk.
func NewZerologErrorLogger(logger zerolog.Logger) ErrorLogger {
	return zerologErrorLogger{logger: logger}
}

func (z zerologErrorLogger) LogBatchError(_ context.Context, batch BatchContext, err error) {
	z.logger.Warn().
		Err(err).
		Str("collection", batch.Collection).
		Int("batch_index", batch.BatchIndex).
		Int("keys", len(batch.Keys)).
		Msg("Chunk fetch failed - identifiers omitted from result")
}
