package link

import "errors"

var (
	// ErrNotReady indicates the link is not synchronized with the peer.
	ErrNotReady = errors.New("not ready")
	// ErrFrameTooLarge indicates the frame data exceeds MaxDataLen.
	ErrFrameTooLarge = errors.New("frame too large")
	// ErrInvalidCode indicates the code uses bits reserved for length.
	ErrInvalidCode = errors.New("invalid frame code")
	// ErrClosed indicates the link stopped running.
	ErrClosed = errors.New("link closed")
)
