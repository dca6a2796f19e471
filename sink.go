package zipstream

import (
	"context"
	"io"
)

// Sink receives archive bytes as a sequence of contiguous chunks.
//
// The producer awaits Ready before each Write; a sink that needs to slow the
// producer down blocks in Ready until it can accept more bytes. The sink may
// merge or split chunks freely. Close is invoked only when the archive
// completed successfully.
type Sink interface {
	Ready(ctx context.Context) error
	Write(ctx context.Context, chunk []byte) error
	Close(ctx context.Context) error
}

// SinkFactory creates the sink an operation writes its output to.
// The name is the output file name, for example "photos.zip".
type SinkFactory func(ctx context.Context, name string) (Sink, error)

// writerSink adapts an io.Writer to the Sink contract. It is always ready.
type writerSink struct {
	w io.Writer
}

// NewWriterSink returns a Sink writing chunks to w.
//
// Ready succeeds immediately unless ctx is done. If w implements io.Closer,
// Close closes it.
func NewWriterSink(w io.Writer) Sink {
	return &writerSink{w: w}
}

func (s *writerSink) Ready(ctx context.Context) error {
	return ctx.Err()
}

func (s *writerSink) Write(ctx context.Context, chunk []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.w.Write(chunk)
	return err
}

func (s *writerSink) Close(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c, ok := s.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
