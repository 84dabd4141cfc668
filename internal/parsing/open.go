package parsing

import (
	"context"
	"fmt"
	"io"

	"github.com/aleksaelezovic/quadstream/internal/source"
	"github.com/aleksaelezovic/quadstream/internal/tokenizer"
	"github.com/aleksaelezovic/quadstream/internal/tokenqueue"
)

// OpenTokens decodes r (gzip, byte order marks, s.Charset) and wires it
// through a source reader and a tokenizer into the token queue selected by
// s. The caller must Close the queue.
func OpenTokens(ctx context.Context, r io.Reader, syntax tokenizer.Syntax, nquads bool, s Settings) (tokenqueue.Queue, error) {
	// text is never closed: it holds no resources of its own and an Async
	// producer may still be reading it after the queue is closed.
	text, err := source.Decode(r, source.DecodeOptions{Charset: s.Charset})
	if err != nil {
		return nil, fmt.Errorf("failed to decode input: %w", err)
	}

	var src source.Reader
	if s.ReadBufferSize > 0 {
		if src, err = source.NewBlockingReader(text, s.ReadBufferSize); err != nil {
			return nil, fmt.Errorf("failed to create source reader: %w", err)
		}
	} else {
		src = source.NewPassThroughReader(text)
	}

	tz := tokenizer.New(src, tokenizer.Options{Dialect: s.Dialect, Syntax: syntax, NQuadsMode: nquads})

	opts := []tokenqueue.Option{tokenqueue.WithContext(ctx)}
	if s.BufferSize > 0 {
		opts = append(opts, tokenqueue.WithBufferSize(s.BufferSize))
	}
	if s.TraceTokens {
		opts = append(opts, tokenqueue.WithTracer(tokenqueue.LogTracer(s.logger())))
	}
	q, err := tokenqueue.New(tz, s.QueueMode, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create token queue: %w", err)
	}
	return q, nil
}
