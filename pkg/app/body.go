package app

import (
	"errors"
	"io"
)

// Body yields the response body in chunks. Next returns io.EOF once the body
// is exhausted. A Body that also implements io.Closer is closed by the
// collector after iteration, whether or not iteration succeeded.
type Body interface {
	Next() ([]byte, error)
}

type chunks struct {
	parts [][]byte
}

// Chunks returns a Body yielding each part in order.
func Chunks(parts ...[]byte) Body {
	return &chunks{parts: parts}
}

// String returns a Body with a single chunk.
func String(s string) Body {
	return Chunks([]byte(s))
}

// Empty returns a Body with no content.
func Empty() Body {
	return Chunks()
}

func (c *chunks) Next() ([]byte, error) {
	if len(c.parts) == 0 {
		return nil, io.EOF
	}
	p := c.parts[0]
	c.parts = c.parts[1:]
	return p, nil
}

const readerChunkSize = 32 * 1024

type readerBody struct {
	r   io.Reader
	buf []byte
}

// FromReader returns a Body that reads r in fixed size chunks. If r is an
// io.Closer it is closed along with the Body.
func FromReader(r io.Reader) Body {
	rb := &readerBody{r: r, buf: make([]byte, readerChunkSize)}
	if c, ok := r.(io.Closer); ok {
		return &closingReaderBody{readerBody: rb, c: c}
	}
	return rb
}

func (b *readerBody) Next() ([]byte, error) {
	n, err := b.r.Read(b.buf)
	if n > 0 {
		out := make([]byte, n)
		copy(out, b.buf[:n])
		if errors.Is(err, io.EOF) {
			err = nil
		}
		return out, err
	}
	if err == nil {
		// a zero byte read without error yields an empty chunk, which the
		// collector skips
		return nil, nil
	}
	return nil, err
}

type closingReaderBody struct {
	*readerBody
	c io.Closer
}

func (b *closingReaderBody) Close() error {
	return b.c.Close()
}
