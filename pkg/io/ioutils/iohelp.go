// Package ioutils provides transparent gzip handling for pipeline inputs and
// outputs.
package ioutils

import (
	"bufio"
	"compress/gzip"
	"io"
	"os"
	"strings"
)

// OpenMaybeCompressed opens path and, when the file is gzip compressed (by
// extension or magic bytes), wraps the reader with a gzip decoder.
func OpenMaybeCompressed(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if strings.HasSuffix(path, ".gz") {
		zr, err := gzip.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		return &stackedCloser{Reader: zr, closers: []io.Closer{zr, f}}, nil
	}
	br := bufio.NewReader(f)
	if magic, err := br.Peek(2); err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		zr, err := gzip.NewReader(br)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		return &stackedCloser{Reader: zr, closers: []io.Closer{zr, f}}, nil
	}
	return &stackedCloser{Reader: br, closers: []io.Closer{f}}, nil
}

// CreateMaybeCompressed creates path; a .gz suffix selects gzip compression.
func CreateMaybeCompressed(path string) (io.WriteCloser, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	if strings.HasSuffix(path, ".gz") {
		zw := gzip.NewWriter(f)
		return &stackedWriteCloser{Writer: zw, closers: []io.Closer{zw, f}}, nil
	}
	bw := bufio.NewWriter(f)
	return &stackedWriteCloser{Writer: bw, flush: bw.Flush, closers: []io.Closer{f}}, nil
}

type stackedCloser struct {
	io.Reader
	closers []io.Closer
}

func (s *stackedCloser) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

type stackedWriteCloser struct {
	io.Writer
	flush   func() error
	closers []io.Closer
}

func (s *stackedWriteCloser) Close() error {
	var first error
	if s.flush != nil {
		first = s.flush()
	}
	for _, c := range s.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
