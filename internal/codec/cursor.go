package codec

import (
	"io"
)

// byteSource is what the reader consumes: one byte at a time with a
// single byte of push-back. *bufio.Reader satisfies it.
type byteSource interface {
	io.ByteScanner
}

// cursor is the in-memory byte source.
type cursor struct {
	data []byte
	off  int
}

// ReadByte читает текущий байт и сдвигает курсор
func (c *cursor) ReadByte() (byte, error) {
	if c.off >= len(c.data) {
		return 0, io.EOF
	}
	b := c.data[c.off]
	c.off++
	return b, nil
}

// UnreadByte возвращает последний прочитанный байт
func (c *cursor) UnreadByte() error {
	if c.off == 0 {
		return io.ErrNoProgress
	}
	c.off--
	return nil
}
