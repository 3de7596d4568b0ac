package device

import "github.com/maxmix/maxmix.go/pkg/msgs"

// Writer transmits the state item of a message type.
type Writer interface {
	Write(msgs.MessageType) error
}

// PreviousSession focuses the previous session. It returns false without
// touching the state when there's nothing to move to. SESSION_INFO is
// written after moving; the cleared previous slot is expected to be
// repopulated by the host.
func PreviousSession(s *State, w Writer) (bool, error) {
	info := &s.SessionInfo
	if info.Count == 0 {
		return false, nil
	}
	if !s.Settings.ContinuousScroll && info.Current == 0 {
		return false, nil
	}
	if info.Current == 0 {
		info.Current = info.Count
	}
	info.Current--
	s.Sessions.ShiftBackward()
	return true, w.Write(msgs.TypeSessionInfo)
}

// NextSession focuses the next session. See PreviousSession.
func NextSession(s *State, w Writer) (bool, error) {
	info := &s.SessionInfo
	if info.Count == 0 {
		return false, nil
	}
	if !s.Settings.ContinuousScroll && info.Current == info.Count-1 {
		return false, nil
	}
	info.Current = (info.Current + 1) % info.Count
	s.Sessions.ShiftForward()
	return true, w.Write(msgs.TypeSessionInfo)
}
