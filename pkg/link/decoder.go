package link

// State indicates the synchronization state of the link.
type State int

// States are bit flags.
const (
	StateSyncing   State = 0
	StateReady     State = 0x01
	StateReceiving State = 0x02
)

// IsReady indicates the link is synchronized and frames can be sent.
func (s State) IsReady() bool {
	return s&StateReady != 0
}

// IsReceiving indicates a handshake or a frame is partially received.
func (s State) IsReceiving() bool {
	return s&StateReceiving != 0
}

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateSyncing:
		return "syncing"
	case StateSyncing | StateReceiving:
		return "syncing+receiving"
	case StateReady:
		return "ready"
	case StateReady | StateReceiving:
		return "ready+receiving"
	}
	return "unknown"
}

// Sync commands
const (
	SyncREQ byte = 0xff
	SyncACK byte = 0xfe
)

// Result is the outcome of feeding the decoder.
type Result struct {
	// Reply is the sync command to send to the peer, 0 for none.
	Reply byte
	State State
	Frame *Frame
}

// RestartTimer indicates the resync timer should be (re)started.
func (r Result) RestartTimer() bool {
	return r.State.IsReceiving() || r.Reply == SyncREQ
}

// StopTimer indicates the resync timer is no longer needed.
func (r Result) StopTimer() bool {
	return !r.RestartTimer() && r.State.IsReady()
}

type step int

const (
	stepAwaitSync   step = iota // REQ sent, waiting for REQ or ACK
	stepReqSeq                  // got REQ, waiting for its seq
	stepAckSeq                  // got ACK, waiting for its seq
	stepFrameSeq                // idle, waiting for next frame seq
	stepIdleAckSeq              // got ACK while idle, validate seq
	stepFrameCode               // waiting for code|len
	stepFrameLen                // waiting for spilled length
	stepFrameData               // waiting for data bytes
)

// Decoder is the receiving state machine of the link.
type Decoder struct {
	peerSeq Seq
	step    step
	frame   *Frame
	filled  int
}

// State gets the current sync state.
func (d *Decoder) State() State {
	switch {
	case d.step == stepAwaitSync:
		return StateSyncing
	case d.step == stepFrameSeq:
		return StateReady
	case d.step > stepFrameSeq:
		return StateReady | StateReceiving
	}
	return StateSyncing | StateReceiving
}

// Reset drops any partial frame and requests a resync.
func (d *Decoder) Reset() Result {
	d.frame = nil
	return d.result(d.resync())
}

// Feed consumes one byte.
func (d *Decoder) Feed(b byte) Result {
	return d.result(d.feed(b))
}

// Expire notifies the decoder that the resync timer fired.
func (d *Decoder) Expire() Result {
	if d.step == stepFrameSeq {
		return d.result(0, nil)
	}
	return d.result(d.resync())
}

func (d *Decoder) result(reply byte, frame *Frame) Result {
	return Result{Reply: reply, State: d.State(), Frame: frame}
}

func (d *Decoder) feed(b byte) (byte, *Frame) {
	switch d.step {
	case stepAwaitSync:
		switch b {
		case SyncREQ:
			d.step = stepReqSeq
		case SyncACK:
			d.step = stepAckSeq
		}
	case stepReqSeq:
		if !Seq(b).IsValid() {
			return d.resync()
		}
		d.peerSeq, d.step = Seq(b), stepFrameSeq
		return SyncACK, nil
	case stepAckSeq:
		if !Seq(b).IsValid() {
			return d.resync()
		}
		d.peerSeq, d.step = Seq(b), stepFrameSeq
	case stepFrameSeq:
		switch {
		case b == SyncREQ:
			d.step = stepReqSeq
		case b == SyncACK:
			d.step = stepIdleAckSeq
		case Seq(b) != d.peerSeq:
			return d.resync()
		default:
			d.frame = &Frame{Seq: d.peerSeq}
			d.peerSeq = d.peerSeq.Next()
			d.step = stepFrameCode
		}
	case stepIdleAckSeq:
		if Seq(b) != d.peerSeq {
			return d.resync()
		}
		d.step = stepFrameSeq
	case stepFrameCode:
		d.frame.Code = b & CodeMask
		switch n := int(b&lenMask) >> lenShift; n {
		case 0:
			return d.complete()
		case lenSpill:
			d.step = stepFrameLen
		default:
			d.expect(n)
		}
	case stepFrameLen:
		if b > MaxDataLen {
			return d.resync()
		}
		if b == 0 {
			return d.complete()
		}
		d.expect(int(b))
	case stepFrameData:
		d.frame.Data[d.filled] = b
		if d.filled++; d.filled >= len(d.frame.Data) {
			return d.complete()
		}
	}
	return 0, nil
}

func (d *Decoder) expect(n int) {
	d.frame.Data, d.filled = make([]byte, n), 0
	d.step = stepFrameData
}

func (d *Decoder) resync() (byte, *Frame) {
	d.step = stepAwaitSync
	return SyncREQ, nil
}

func (d *Decoder) complete() (byte, *Frame) {
	d.step = stepFrameSeq
	frame := d.frame
	d.frame = nil
	return 0, frame
}
