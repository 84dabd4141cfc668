package tokenqueue

import (
	"context"

	"go.uber.org/zap"

	"github.com/aleksaelezovic/quadstream/internal/token"
)

type options struct {
	capacity int
	tracer   Tracer
	ctx      context.Context
}

// Option configures New.
type Option func(*options)

// WithBufferSize bounds the ring buffer (Buffered) or channel (Async).
func WithBufferSize(n int) Option {
	return func(o *options) { o.capacity = n }
}

// WithTracer reports every dequeued token to t.
func WithTracer(t Tracer) Option {
	return func(o *options) { o.tracer = t }
}

// WithContext ties the Async producer to ctx in addition to Close.
func WithContext(ctx context.Context) Option {
	return func(o *options) { o.ctx = ctx }
}

// Tracer observes dequeued tokens.
type Tracer interface {
	Dequeued(tok token.Token)
}

// TracerFunc adapts a function to Tracer.
type TracerFunc func(tok token.Token)

func (f TracerFunc) Dequeued(tok token.Token) { f(tok) }

// LogTracer logs each token at debug level.
func LogTracer(logger *zap.Logger) Tracer {
	return TracerFunc(func(tok token.Token) {
		logger.Debug("dequeue token",
			zap.Stringer("kind", tok.Kind),
			zap.String("text", tok.Text),
			zap.Int("line", tok.Span.StartLine),
			zap.Int("column", tok.Span.StartCol))
	})
}
