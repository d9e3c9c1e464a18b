package spu

import "fmt"

// Channel indices named in spec.md §4.5 plus the tag/mask pair the MFC
// uses internally. Every other channel number is rejected with
// InvalidChannelError by Count, Read and Write.
const (
	ChanRdInMbox      = 3
	ChanWrOutMbox      = 4
	ChanWrOutIntrMbox  = 5
	ChanRdSigNotify1   = 6
	ChanRdSigNotify2   = 7
	ChanMfcWrTagMask   = 22
	ChanMfcWrTagUpdate = 23 // selects ANY (1) / ALL (2) mode for MFC_RdTagStat
	ChanMfcRdTagStat   = 24
)

// SignalMode selects how writes to a signal-notification channel combine.
type SignalMode int

const (
	SignalOverwrite SignalMode = iota
	SignalAccumulate
)

// InvalidChannelError reports an access to a channel number the
// interpreter has no handler for.
type InvalidChannelError struct{ Channel uint8 }

func (e *InvalidChannelError) Error() string {
	return fmt.Sprintf("spu: invalid channel %d", e.Channel)
}

// channelFIFO is a small bounded queue backing mailbox-shaped channels.
type channelFIFO struct {
	buf   []uint32
	depth int
}

func newChannelFIFO(depth int) channelFIFO {
	return channelFIFO{buf: make([]uint32, 0, depth), depth: depth}
}

func (f *channelFIFO) count() int { return len(f.buf) }

func (f *channelFIFO) push(v uint32) bool {
	if len(f.buf) >= f.depth {
		return false
	}
	f.buf = append(f.buf, v)
	return true
}

func (f *channelFIFO) pop() (uint32, bool) {
	if len(f.buf) == 0 {
		return 0, false
	}
	v := f.buf[0]
	f.buf = f.buf[1:]
	return v, true
}

// Channels is the 32-entry channel file of one SPU thread.
type Channels struct {
	inMbox      channelFIFO
	outMbox     channelFIFO
	outIntrMbox channelFIFO

	sigMode    [2]SignalMode
	sigPending [2]bool
	sigValue   [2]uint32

	tagMask   uint32
	tagStatus uint32
	tagAllMode bool

	// intrPending records that a write to the interrupt mailbox occurred
	// and has not yet been observed by the bridge/host side.
	intrPending bool
}

// NewChannels builds a channel file with the fixed depths spec.md §3
// assigns to the mailbox trio.
func NewChannels() *Channels {
	return &Channels{
		inMbox:      newChannelFIFO(4),
		outMbox:     newChannelFIFO(1),
		outIntrMbox: newChannelFIFO(1),
	}
}

// Count returns the number of slots currently readable (for read-direction
// channels) or writable (for write-direction channels).
func (c *Channels) Count(channel uint8) (int, error) {
	switch channel {
	case ChanRdInMbox:
		return c.inMbox.count(), nil
	case ChanWrOutMbox:
		return c.outMbox.depth - c.outMbox.count(), nil
	case ChanWrOutIntrMbox:
		return c.outIntrMbox.depth - c.outIntrMbox.count(), nil
	case ChanRdSigNotify1:
		if c.sigPending[0] {
			return 1, nil
		}
		return 0, nil
	case ChanRdSigNotify2:
		if c.sigPending[1] {
			return 1, nil
		}
		return 0, nil
	case ChanMfcRdTagStat:
		if c.tagStatusReady() {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, &InvalidChannelError{Channel: channel}
	}
}

func (c *Channels) tagStatusReady() bool {
	if c.tagAllMode {
		return c.tagStatus&c.tagMask == c.tagMask
	}
	return c.tagStatus&c.tagMask != 0
}

// Read attempts a non-blocking read of channel, returning (value, true) on
// success or (_, false) if the channel has no data — the caller (Step)
// converts a false result into a WouldBlockRead outcome.
func (c *Channels) Read(channel uint8) (uint32, bool, error) {
	switch channel {
	case ChanRdInMbox:
		v, ok := c.inMbox.pop()
		return v, ok, nil
	case ChanRdSigNotify1:
		if !c.sigPending[0] {
			return 0, false, nil
		}
		v := c.sigValue[0]
		c.sigPending[0] = false
		c.sigValue[0] = 0
		return v, true, nil
	case ChanRdSigNotify2:
		if !c.sigPending[1] {
			return 0, false, nil
		}
		v := c.sigValue[1]
		c.sigPending[1] = false
		c.sigValue[1] = 0
		return v, true, nil
	case ChanMfcRdTagStat:
		if !c.tagStatusReady() {
			return 0, false, nil
		}
		return c.tagStatus, true, nil
	default:
		return 0, false, &InvalidChannelError{Channel: channel}
	}
}

// Write attempts a non-blocking write of v to channel, returning false if
// the channel is full (mailbox-shaped channels) — the caller converts a
// false result into a WouldBlockWrite outcome. The control channels
// (tag mask, tag-update mode) always accept.
func (c *Channels) Write(channel uint8, v uint32) (bool, error) {
	switch channel {
	case ChanWrOutMbox:
		return c.outMbox.push(v), nil
	case ChanWrOutIntrMbox:
		ok := c.outIntrMbox.push(v)
		if ok {
			c.intrPending = true
		}
		return ok, nil
	case ChanMfcWrTagMask:
		c.tagMask = v
		return true, nil
	case ChanMfcWrTagUpdate:
		c.SetTagAllMode(v == 2)
		return true, nil
	default:
		return false, &InvalidChannelError{Channel: channel}
	}
}

// PushInbound delivers a host->SPU mailbox message, used by the bridge.
func (c *Channels) PushInbound(v uint32) bool { return c.inMbox.push(v) }

// PopOutbound drains an SPU->host mailbox message, used by the bridge.
func (c *Channels) PopOutbound() (uint32, bool) { return c.outMbox.pop() }

// PopOutboundIntr drains the interrupt mailbox and clears the pending flag
// when it empties.
func (c *Channels) PopOutboundIntr() (uint32, bool) {
	v, ok := c.outIntrMbox.pop()
	if c.outIntrMbox.count() == 0 {
		c.intrPending = false
	}
	return v, ok
}

// IntrPending reports whether an unconsumed interrupt-mailbox write is
// outstanding, per spec.md §4.5's "raises a pending event" clause.
func (c *Channels) IntrPending() bool { return c.intrPending }

// Signal delivers a value to one of the two signal-notification channels,
// combining per its configured mode.
func (c *Channels) Signal(index int, mode SignalMode, v uint32) {
	if mode == SignalAccumulate && c.sigPending[index] {
		c.sigValue[index] |= v
	} else {
		c.sigValue[index] = v
	}
	c.sigPending[index] = true
}

// SetTagAllMode selects ANY (false) or ALL (true) semantics for
// MFC_RdTagStat, set by a prior write to the auxiliary mode channel.
func (c *Channels) SetTagAllMode(all bool) { c.tagAllMode = all }

// CompleteTag sets tag's status bit, called by the MFC on DMA completion.
func (c *Channels) CompleteTag(tag uint8) { c.tagStatus |= 1 << uint(tag&0x1f) }
