// Package session provides shell commands for session navigation.
package session

import (
	"fmt"
	"strconv"

	"github.com/abiosoft/ishell"

	"github.com/maxmix/maxmix.go/pkg/cli/sh"
	"github.com/maxmix/maxmix.go/pkg/device"
	"github.com/maxmix/maxmix.go/pkg/harness"
	"github.com/maxmix/maxmix.go/pkg/msgs"
)

var slotNames = map[string]int{
	"prev":     device.SlotPrevious,
	"previous": device.SlotPrevious,
	"cur":      device.SlotCurrent,
	"current":  device.SlotCurrent,
	"next":     device.SlotNext,
}

func navigate(fn func(*device.State, device.Writer) (bool, error)) func(c *ishell.Context) {
	return sh.MustBeRunning(func(c *ishell.Context) {
		var moved bool
		var current uint32
		if sh.DoRequest(c, func(s *device.State, w device.Writer) (err error) {
			moved, err = fn(s, w)
			current = s.SessionInfo.Current
			return
		}) != nil {
			return
		}
		if !moved {
			c.Println("not moved")
			return
		}
		c.Printf("current %d\n", current)
	})
}

// ParseSlot parses a slot index or name.
func ParseSlot(str string) (int, error) {
	if index, ok := slotNames[str]; ok {
		return index, nil
	}
	index, err := strconv.Atoi(str)
	if err != nil || index < 0 || index >= device.RingSize {
		return 0, fmt.Errorf("invalid SLOT %q", str)
	}
	return index, nil
}

// SetScroll switches continuous scroll and writes SETTINGS.
func SetScroll(en bool) harness.Request {
	return func(s *device.State, w device.Writer) error {
		s.Settings.ContinuousScroll = en
		return w.Write(msgs.TypeSettings)
	}
}

// SetCount changes the session count, clamping current to the last
// session, and writes SESSION_INFO.
func SetCount(n uint32) harness.Request {
	return func(s *device.State, w device.Writer) error {
		info := s.SessionInfo
		info.Count = n
		if info.Current >= info.Count {
			info.Current = 0
			if info.Count > 0 {
				info.Current = info.Count - 1
			}
		}
		if err := s.SetSessionInfo(info); err != nil {
			return err
		}
		return w.Write(msgs.TypeSessionInfo)
	}
}

// SetSlot replaces the session in a ring slot and writes it.
func SetSlot(slot int, session msgs.Session) harness.Request {
	return func(s *device.State, w device.Writer) error {
		if err := s.Sessions.Set(slot, session); err != nil {
			return err
		}
		return w.Write(msgs.SessionTypeAt(slot))
	}
}

var (
	// PrevCmd focuses the previous session.
	PrevCmd = ishell.Cmd{
		Name:    "prev",
		Aliases: []string{"p"},
		Help:    "",
		Func:    navigate(device.PreviousSession),
	}

	// NextCmd focuses the next session.
	NextCmd = ishell.Cmd{
		Name:    "next",
		Aliases: []string{"n"},
		Help:    "",
		Func:    navigate(device.NextSession),
	}

	// ScrollCmd toggles continuous scroll.
	ScrollCmd = ishell.Cmd{
		Name: "scroll",
		Help: "on|off",
		Func: sh.MustBeRunning(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("on|off required"))
				return
			}
			var en bool
			switch c.Args[0] {
			case "on":
				en = true
			case "off":
			default:
				c.Err(fmt.Errorf("invalid value %q, expect on|off", c.Args[0]))
				return
			}
			if sh.DoRequest(c, SetScroll(en)) == nil {
				c.Println("OK")
			}
		}),
	}

	// CountCmd sets the number of sessions. Current is clamped.
	CountCmd = ishell.Cmd{
		Name: "count",
		Help: "N",
		Func: sh.MustBeRunning(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("N required"))
				return
			}
			n, err := strconv.ParseUint(c.Args[0], 10, 32)
			if err != nil {
				c.Err(fmt.Errorf("invalid N: %v", err))
				return
			}
			if sh.DoRequest(c, SetCount(uint32(n))) == nil {
				c.Println("OK")
			}
		}),
	}

	// SetCmd replaces the session in a ring slot.
	SetCmd = ishell.Cmd{
		Name: "set",
		Help: "SLOT ID NAME [VOLUME]",
		Func: sh.MustBeRunning(func(c *ishell.Context) {
			if len(c.Args) < 3 {
				c.Err(fmt.Errorf("SLOT ID NAME required"))
				return
			}
			slot, err := ParseSlot(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			id, err := strconv.ParseInt(c.Args[1], 10, 32)
			if err != nil {
				c.Err(fmt.Errorf("invalid ID: %v", err))
				return
			}
			session := msgs.Session{ID: int32(id), Name: c.Args[2]}
			if len(c.Args) > 3 {
				vol, err := strconv.ParseUint(c.Args[3], 10, 32)
				if err != nil || vol > 100 {
					c.Err(fmt.Errorf("invalid VOLUME %q", c.Args[3]))
					return
				}
				session.Volume = uint32(vol)
			}
			if sh.DoRequest(c, SetSlot(slot, session)) == nil {
				c.Println("OK")
			}
		}),
	}
)

func init() {
	sh.AddCmds(
		&PrevCmd,
		&NextCmd,
		&ScrollCmd,
		&CountCmd,
		&SetCmd,
	)
}
