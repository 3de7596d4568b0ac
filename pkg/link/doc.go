// Package link frames packets over a peer-to-peer byte stream.
package link

// The link is used between the device firmware and the host over a serial
// port. Both ends synchronize with a sequence based handshake and then
// exchange frames carrying a sequence number, a code and up to 127 bytes of
// data. Transfer errors are detected by sequence checks only; there is no
// checksum, parity can be enabled on the serial port if needed.
//
// A frame is laid out as:
//
//   [seq] [code | len<<4] [data...]          when len < 7
//   [seq] [code | 0x70] [len] [data...]      when 7 <= len < 0x80
//
// Sync commands are two bytes: 0xff (REQ) or 0xfe (ACK) followed by the
// sender's next sequence number.
