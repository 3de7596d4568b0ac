// Package msgs defines the MaxMix message types and payload schemas.
package msgs

// Messages are exchanged between the host application and the device.
// Each packet carries one MessageType byte followed by a protobuf encoded
// payload. The type values are kept below 0x10 so a packet type always
// fits the code field of a serial link frame.
//
// Producer: host application and device
// Consumer: host application and device
