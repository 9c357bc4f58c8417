package core

// streaming.go cleans the byte stream before encoding/csv sees it, in
// constant memory:
//
//   - a leading UTF-8 BOM (written by Excel exports) is dropped
//   - invalid UTF-8 is replaced with U+FFFD
//   - bytes are counted for progress logging

import (
	"bufio"
	"bytes"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// sanitizeChunk is the read size of the UTF-8 sanitizer.
const sanitizeChunk = 32 * 1024

// SkipBOM returns a reader that omits a leading UTF-8 byte order mark.
func SkipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br
}

// UTF8Sanitizer replaces invalid UTF-8 sequences with U+FFFD. Multi-byte
// runes split across reads of the source are carried over intact.
type UTF8Sanitizer struct {
	src     io.Reader
	pending []byte // undecoded tail of the previous chunk
	out     []byte // sanitized bytes not yet returned
	err     error
}

// NewUTF8Sanitizer wraps r.
func NewUTF8Sanitizer(r io.Reader) *UTF8Sanitizer {
	return &UTF8Sanitizer{src: r}
}

func (s *UTF8Sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for len(s.out) == 0 {
		if s.err != nil {
			return 0, s.err
		}
		s.fill()
	}
	n := copy(p, s.out)
	s.out = s.out[n:]
	return n, nil
}

func (s *UTF8Sanitizer) fill() {
	chunk := make([]byte, sanitizeChunk)
	n, err := s.src.Read(chunk)
	s.err = err

	data := append(s.pending, chunk[:n]...)
	keep := 0
	if err == nil {
		keep = incompleteTail(data)
	}

	s.out = bytes.ToValidUTF8(data[:len(data)-keep], []byte("\uFFFD"))
	s.pending = append([]byte(nil), data[len(data)-keep:]...)
}

// incompleteTail returns how many trailing bytes of b begin a multi-byte
// rune that is not complete yet.
func incompleteTail(b []byte) int {
	for i := 1; i < utf8.UTFMax && i <= len(b); i++ {
		c := b[len(b)-i]
		if !utf8.RuneStart(c) {
			continue
		}
		if c >= utf8.RuneSelf && !utf8.FullRune(b[len(b)-i:]) {
			return i
		}
		return 0
	}
	return 0
}

// CountingReader counts the bytes read through it.
type CountingReader struct {
	r io.Reader
	n int64
}

func NewCountingReader(r io.Reader) *CountingReader {
	return &CountingReader{r: r}
}

func (c *CountingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// BytesRead returns the number of bytes consumed from the source.
func (c *CountingReader) BytesRead() int64 { return c.n }

// WrapForStreaming applies the cleaning steps in order: count raw bytes,
// strip the BOM, then sanitize.
func WrapForStreaming(r io.Reader) (io.Reader, *CountingReader) {
	counter := NewCountingReader(r)
	return NewUTF8Sanitizer(SkipBOM(counter)), counter
}
