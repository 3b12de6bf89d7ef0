package frame

import (
	"context"
	"io"
)

// ChunkSource yields frames in chunks until io.EOF.
type ChunkSource interface {
	Next() (*Frame, error)
}

// ChunkSink consumes frames, typically writing them out.
type ChunkSink interface {
	Write(*Frame) error
	Close() error
}

// AppendSink accumulates every chunk into one Frame. The first chunk sets
// the schema; later chunks must match it.
type AppendSink struct {
	Frame *Frame
}

func (s *AppendSink) Write(f *Frame) error {
	if s.Frame == nil {
		s.Frame = f
		return nil
	}
	return s.Frame.Append(f)
}

func (s *AppendSink) Close() error { return nil }

// RunStream pulls chunks from src, applies the pipeline, and writes to sink.
// The sink is closed on every return path.
func RunStream(ctx context.Context, p *Pipeline, src ChunkSource, sink ChunkSink) error {
	defer func() { _ = sink.Close() }()
	for {
		f, err := src.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		out, err := p.Run(ctx, f)
		if err != nil {
			return err
		}
		if err := sink.Write(out); err != nil {
			return err
		}
	}
}
