// Package transport defines packet level transports between the host and
// the device.
package transport

// PacketReader reads packets in bytes.
type PacketReader interface {
	ReadPacket() ([]byte, error)
}

// PacketWriter writes packets in bytes.
type PacketWriter interface {
	WritePacket([]byte) error
}

// PacketReadWriter combines PacketReader and PacketWriter.
type PacketReadWriter interface {
	PacketReader
	PacketWriter
}
