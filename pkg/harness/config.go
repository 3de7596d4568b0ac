package harness

import (
	"flag"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/maxmix/maxmix.go/pkg/device"
	"github.com/maxmix/maxmix.go/pkg/msgs"
)

// SessionConfig describes a session preloaded into the ring.
type SessionConfig struct {
	ID        int32  `toml:"id"`
	Name      string `toml:"name"`
	IsDefault bool   `toml:"is_default"`
	Volume    uint32 `toml:"volume"`
	IsMuted   bool   `toml:"is_muted"`
}

// Config defines the options of the harness.
type Config struct {
	DelayMin         int    `toml:"delay_min"`
	DelayMax         int    `toml:"delay_max"`
	BroadcastEvery   int    `toml:"broadcast_every"`
	ContinuousScroll bool   `toml:"continuous_scroll"`
	Mode             string `toml:"mode"`
	Current          uint32 `toml:"current"`
	// Count overrides the session count, which defaults to len(Sessions).
	Count    uint32          `toml:"count"`
	Sessions []SessionConfig `toml:"sessions"`
}

var (
	baseConfig = Config{
		DelayMin:       DefaultDelayMin,
		DelayMax:       DefaultDelayMax,
		BroadcastEvery: DefaultBroadcastEvery,
	}

	defaultConfig = baseConfig
	configFile    string

	// flagFields copies the value set from command line into the config.
	flagFields = map[string]func(dst, src *Config){
		"delay-min":         func(dst, src *Config) { dst.DelayMin = src.DelayMin },
		"delay-max":         func(dst, src *Config) { dst.DelayMax = src.DelayMax },
		"broadcast-every":   func(dst, src *Config) { dst.BroadcastEvery = src.BroadcastEvery },
		"continuous-scroll": func(dst, src *Config) { dst.ContinuousScroll = src.ContinuousScroll },
		"mode":              func(dst, src *Config) { dst.Mode = src.Mode },
	}
)

// SetupFlags sets up command line flags.
func SetupFlags() {
	flag.StringVar(&configFile, "config", configFile, "TOML file with harness options and sessions.")
	flag.IntVar(&defaultConfig.DelayMin, "delay-min", defaultConfig.DelayMin, "Minimum loop delay in milliseconds.")
	flag.IntVar(&defaultConfig.DelayMax, "delay-max", defaultConfig.DelayMax, "Maximum loop delay in milliseconds (exclusive).")
	flag.IntVar(&defaultConfig.BroadcastEvery, "broadcast-every", defaultConfig.BroadcastEvery, "Iterations between full state broadcasts.")
	flag.BoolVar(&defaultConfig.ContinuousScroll, "continuous-scroll", defaultConfig.ContinuousScroll, "Wrap around when navigating sessions.")
	flag.StringVar(&defaultConfig.Mode, "mode", defaultConfig.Mode, "Display mode: output, input, application, game.")
}

// NewConfig creates a Config from the config file (if specified) with
// command line flags taking precedence.
func NewConfig() (*Config, error) {
	conf := baseConfig
	if configFile != "" {
		if err := conf.LoadFile(configFile); err != nil {
			return nil, err
		}
	}
	flag.Visit(func(f *flag.Flag) {
		if fn := flagFields[f.Name]; fn != nil {
			fn(&conf, &defaultConfig)
		}
	})
	return &conf, nil
}

// LoadFile decodes a TOML file into the config. Keys absent from the file
// keep their current values.
func (c *Config) LoadFile(fn string) error {
	md, err := toml.DecodeFile(fn, c)
	if err != nil {
		return fmt.Errorf("config %s: %v", fn, err)
	}
	if keys := md.Undecoded(); len(keys) > 0 {
		return fmt.Errorf("config %s: unknown keys %v", fn, keys)
	}
	return nil
}

// ParseMode parses a display mode name.
func ParseMode(name string) (msgs.DisplayMode, error) {
	if name == "" {
		return msgs.ModeOutput, nil
	}
	for mode := msgs.ModeOutput; mode <= msgs.ModeGame; mode++ {
		if strings.EqualFold(mode.String(), name) {
			return mode, nil
		}
	}
	return 0, fmt.Errorf("unknown display mode: %q", name)
}

// NewState creates the initial device state. The ring is filled around
// Current from Sessions.
func (c *Config) NewState() (*device.State, error) {
	mode, err := ParseMode(c.Mode)
	if err != nil {
		return nil, err
	}
	count := c.Count
	if count == 0 {
		count = uint32(len(c.Sessions))
	}
	if count < uint32(len(c.Sessions)) {
		return nil, fmt.Errorf("count %d is less than the %d configured sessions", count, len(c.Sessions))
	}
	s := &device.State{}
	s.Settings.ContinuousScroll = c.ContinuousScroll
	s.Screen.Mode = mode
	if err := s.SetSessionInfo(msgs.SessionInfo{Mode: mode, Current: c.Current, Count: count}); err != nil {
		return nil, err
	}
	if len(c.Sessions) == 0 {
		return s, nil
	}
	// Sessions beyond the configured ones stay placeholders.
	n, total := len(c.Sessions), int(count)
	cur := int(c.Current)
	for slot := 0; slot < device.RingSize; slot++ {
		index := cur + slot - device.SlotCurrent
		if index < 0 || index >= total {
			if !c.ContinuousScroll || total < 2 {
				continue
			}
			index = (index + total) % total
		}
		if index < n {
			s.Sessions.Set(slot, c.Sessions[index].session())
		}
	}
	return s, nil
}

// NewDriver creates a Driver with the configured timing.
func (c *Config) NewDriver(state *device.State, ch Channel) *Driver {
	d := NewDriver(state, ch)
	d.DelayMin = c.DelayMin
	d.DelayMax = c.DelayMax
	d.BroadcastEvery = c.BroadcastEvery
	return d
}

func (s SessionConfig) session() msgs.Session {
	return msgs.Session{
		ID:        s.ID,
		Name:      s.Name,
		IsDefault: s.IsDefault,
		Volume:    s.Volume,
		IsMuted:   s.IsMuted,
	}
}
