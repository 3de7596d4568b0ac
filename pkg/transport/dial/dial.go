// Package dial opens packet transports from URLs.
package dial

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/url"
	"os"
	"time"

	"github.com/maxmix/maxmix.go/pkg/link"
	"github.com/maxmix/maxmix.go/pkg/transport"
	"github.com/maxmix/maxmix.go/pkg/transport/mqtt"
	"github.com/maxmix/maxmix.go/pkg/transport/stream"
	"github.com/maxmix/maxmix.go/pkg/transport/websocket"
)

// Config provides common options to open a transport.
type Config struct {
	// URL specifies the transport, e.g.
	//   serial:///dev/ttyUSB0
	//   link+tcp://host:port   (link framing over TCP, e.g. ser2net)
	//   tcp://host:port        (length-prefixed packets)
	//   ws://host:port/path
	//   mqtt://host:port/topic-prefix/
	//   loopback:
	URL string
	// DeviceID names the device on brokers.
	DeviceID string
	// Host opens the host end of the MQTT topics instead of the device end.
	Host bool
	// DialTimeout limits TCP connection setup.
	DialTimeout time.Duration
}

var defaultConfig = Config{
	URL:         "loopback:",
	DialTimeout: 5 * time.Second,
}

func init() {
	if val := os.Getenv("MAXMIX_TRANSPORT"); val != "" {
		defaultConfig.URL = val
	}
	if val := os.Getenv("MAXMIX_DEVICE_ID"); val != "" {
		defaultConfig.DeviceID = val
	}
}

// SetupFlags sets up command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.URL, "transport", defaultConfig.URL, "Transport URL (serial://, link+tcp://, tcp://, ws://, mqtt://, loopback:).")
	flag.StringVar(&defaultConfig.DeviceID, "device-id", defaultConfig.DeviceID, "Device ID used in MQTT topics, defaults to machine ID.")
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Open opens the transport. The returned PacketReadWriter may also
// implement framework.Runnable and io.Closer.
func (c *Config) Open(ctx context.Context) (transport.PacketReadWriter, error) {
	u, err := url.Parse(c.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid transport URL: %v", err)
	}
	switch u.Scheme {
	case "serial":
		path := u.Path
		if path == "" {
			path = u.Opaque
		}
		f, err := os.OpenFile(path, os.O_RDWR, 0)
		if err != nil {
			return nil, err
		}
		return link.New(f), nil
	case "link+tcp":
		conn, err := c.dialTCP(ctx, u.Host)
		if err != nil {
			return nil, err
		}
		return link.New(conn), nil
	case "tcp":
		conn, err := c.dialTCP(ctx, u.Host)
		if err != nil {
			return nil, err
		}
		return stream.New(conn), nil
	case "ws", "wss":
		origin := "http://" + u.Host
		if u.Scheme == "wss" {
			origin = "https://" + u.Host
		}
		return websocket.Dial(c.URL, origin)
	case "mqtt":
		q, err := mqtt.NewQueueFromURL(c.URL)
		if err != nil {
			return nil, err
		}
		id := c.DeviceID
		if id == "" {
			id = MachineID()
		}
		rw := mqtt.NewPacketReadWriter(q)
		if c.Host {
			return rw.ForHost(id), nil
		}
		return rw.ForDevice(id), nil
	case "loopback":
		end, peer := transport.NewLoopback(16)
		go discard(peer)
		return end, nil
	default:
		return nil, fmt.Errorf("unknown transport URL scheme: %q", u.Scheme)
	}
}

func (c *Config) dialTCP(ctx context.Context, addr string) (net.Conn, error) {
	d := net.Dialer{Timeout: c.DialTimeout}
	return d.DialContext(ctx, "tcp", addr)
}

func discard(r transport.PacketReader) {
	for {
		if _, err := r.ReadPacket(); err != nil {
			return
		}
	}
}
