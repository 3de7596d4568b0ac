// Package device holds the state of the emulated device and the session
// navigation logic.
package device

import (
	"errors"
	"fmt"

	"github.com/golang/protobuf/proto"

	"github.com/maxmix/maxmix.go/pkg/msgs"
)

var (
	// ErrSessionOutOfRange indicates SessionInfo.Current is not below Count.
	ErrSessionOutOfRange = errors.New("current session out of range")
	// ErrEmptySlot indicates a volume update for a placeholder slot.
	ErrEmptySlot = errors.New("volume update for empty slot")
)

// State is the full device state. It's owned by a single goroutine.
type State struct {
	Settings    msgs.Settings
	SessionInfo msgs.SessionInfo
	Sessions    Ring
	Screen      msgs.Screen
}

// SetSessionInfo replaces SessionInfo after validating it.
func (s *State) SetSessionInfo(info msgs.SessionInfo) error {
	if info.Count > 0 && info.Current >= info.Count {
		return ErrSessionOutOfRange
	}
	if info.Count == 0 && info.Current != 0 {
		return ErrSessionOutOfRange
	}
	s.SessionInfo = info
	return nil
}

// Payload returns a copy of the state item carried by message type t.
func (s *State) Payload(t msgs.MessageType) (proto.Message, error) {
	switch {
	case t == msgs.TypeSettings:
		settings := s.Settings
		return &settings, nil
	case t == msgs.TypeSessionInfo:
		info := s.SessionInfo
		return &info, nil
	case t.IsSession():
		index, _ := t.SlotIndex()
		slot, err := s.Sessions.Slot(index)
		if err != nil {
			return nil, err
		}
		session := *slot
		return &session, nil
	case t.IsVolume():
		index, _ := t.SlotIndex()
		slot, err := s.Sessions.Slot(index)
		if err != nil {
			return nil, err
		}
		return slot.VolumeData(), nil
	case t == msgs.TypeScreen:
		screen := s.Screen
		return &screen, nil
	}
	return nil, &msgs.ErrUnknownType{Type: t}
}

// Apply updates the state from a decoded payload of message type t.
func (s *State) Apply(t msgs.MessageType, payload proto.Message) error {
	switch m := payload.(type) {
	case *msgs.Settings:
		if t == msgs.TypeSettings {
			s.Settings = *m
			return nil
		}
	case *msgs.SessionInfo:
		if t == msgs.TypeSessionInfo {
			return s.SetSessionInfo(*m)
		}
	case *msgs.Session:
		if index, ok := t.SlotIndex(); ok && t.IsSession() {
			return s.Sessions.Set(index, *m)
		}
	case *msgs.VolumeData:
		if index, ok := t.SlotIndex(); ok && t.IsVolume() {
			slot, err := s.Sessions.Slot(index)
			if err != nil {
				return err
			}
			if slot.IsEmpty() {
				return ErrEmptySlot
			}
			if slot.ID != m.ID {
				return fmt.Errorf("volume for session %d doesn't match slot session %d", m.ID, slot.ID)
			}
			slot.Volume, slot.IsMuted = m.Volume, m.IsMuted
			return nil
		}
	case *msgs.Screen:
		if t == msgs.TypeScreen {
			s.Screen = *m
			return nil
		}
	}
	return msgs.ErrTypeMismatch
}
