package link

import (
	"io"
	"time"
)

// Frame limits
const (
	MaxDataLen = 0x7f
	CodeMask   = 0x8f

	lenMask   = 0x70
	lenSpill  = 7
	lenShift  = 4
	seqLimit  = 0xf0
)

// Seq is the frame sequence number. Valid values are 1..0xef.
type Seq byte

// NewSeq creates a random starting sequence number.
func NewSeq() Seq {
	return Seq(byte(time.Now().UnixNano())).Next()
}

// Next calculates the next sequence number.
func (s Seq) Next() Seq {
	n := byte(s) + 1
	if n == 0 || n >= seqLimit {
		n = 1
	}
	return Seq(n)
}

// IsValid checks if it's a valid sequence number.
func (s Seq) IsValid() bool {
	return s > 0 && s < seqLimit
}

// Frame is a single unit transferred over the link.
type Frame struct {
	Seq  Seq
	Code byte
	Data []byte
}

func (f *Frame) header() []byte {
	head := []byte{byte(f.Seq), f.Code & CodeMask, byte(len(f.Data))}
	if n := len(f.Data); n < lenSpill {
		head[1] |= byte(n<<lenShift) & lenMask
		return head[:2]
	}
	head[1] |= lenMask
	return head
}

// Bytes returns the encoded frame.
func (f *Frame) Bytes() []byte {
	head := f.header()
	b := make([]byte, 0, len(head)+len(f.Data))
	return append(append(b, head...), f.Data...)
}

// WriteTo writes the encoded frame.
func (f *Frame) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(f.Bytes())
	return int64(n), err
}

func (f *Frame) validate() error {
	if len(f.Data) > MaxDataLen {
		return ErrFrameTooLarge
	}
	if f.Code&^CodeMask != 0 {
		return ErrInvalidCode
	}
	return nil
}
