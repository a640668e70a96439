package multicore

import (
	"sync/atomic"

	"goels/core"
)

// Proxy is the supervisory-side controller. Setters enqueue and return at
// once; getters answer from the last status received.
//
// A setter that finds its queue full keeps the value as pending for that
// command kind and Flush retries it. Newer values replace a pending one
// rather than overtaking it, so each kind still arrives in order and the
// latest value always gets through.
type Proxy struct {
	ch     *Channel
	status core.Status

	pendingFeed       core.Ratio
	pendingReverse    bool
	pendingPower      bool
	pendingDriveRatio core.Ratio
	pending           [numCommandKinds]bool

	drops atomic.Uint32
}

// NewProxy creates a proxy over ch. Until the first status arrives the
// cached snapshot reads as powered on with nothing else set.
func NewProxy(ch *Channel) *Proxy {
	return &Proxy{ch: ch, status: core.Status{PowerOn: true}}
}

// SetFeed queues a feed ratio
func (p *Proxy) SetFeed(feed core.Ratio) {
	p.pendingFeed = feed
	p.sendOrHold(CmdFeed)
}

// SetReverse queues a direction
func (p *Proxy) SetReverse(reverse bool) {
	p.pendingReverse = reverse
	p.sendOrHold(CmdReverse)
}

// SetPowerOn queues a power state
func (p *Proxy) SetPowerOn(on bool) {
	p.pendingPower = on
	p.sendOrHold(CmdPower)
}

// SetDriveRatio queues a drive ratio
func (p *Proxy) SetDriveRatio(ratio core.Ratio) {
	p.pendingDriveRatio = ratio
	p.sendOrHold(CmdDriveRatio)
}

// RPM returns the cached spindle speed
func (p *Proxy) RPM() uint16 { return p.status.RPM }

// IsAlarm returns the cached alarm state
func (p *Proxy) IsAlarm() bool { return p.status.Alarm }

// IsPowerOn returns the cached power state
func (p *Proxy) IsPowerOn() bool { return p.status.PowerOn }

// IsOverrun returns the cached overrun state
func (p *Proxy) IsOverrun() bool { return p.status.Overrun }

// Status returns the cached snapshot
func (p *Proxy) Status() core.Status { return p.status }

// CheckStatus drains the status queue, keeping the newest snapshot. It
// reports whether anything arrived.
func (p *Proxy) CheckStatus() bool {
	got := false
	for {
		st, ok := p.ch.DrainStatus()
		if !ok {
			return got
		}
		p.status = st
		got = true
	}
}

// Flush retries held commands. It returns true when nothing is left held.
func (p *Proxy) Flush() bool {
	done := true
	for kind := CommandKind(0); kind < numCommandKinds; kind++ {
		if p.pending[kind] && !p.push(kind) {
			done = false
		}
	}
	return done
}

// Service runs the supervisory side once: retry held commands, then pick
// up status if the status doorbell is raised
func (p *Proxy) Service() {
	p.Flush()
	if p.ch.StatusBell.Raised() {
		p.CheckStatus()
	}
}

// Pending reports whether any command is held for retry
func (p *Proxy) Pending() bool {
	for _, held := range p.pending {
		if held {
			return true
		}
	}
	return false
}

// CommandDrops returns how many pushes found their queue full
func (p *Proxy) CommandDrops() uint32 {
	return p.drops.Load()
}

func (p *Proxy) sendOrHold(kind CommandKind) {
	if p.pending[kind] {
		// Older value still held: keep order, replace it
		return
	}
	p.pending[kind] = true
	p.push(kind)
}

// push tries to send the held value of kind
func (p *Proxy) push(kind CommandKind) bool {
	var ok bool
	switch kind {
	case CmdFeed:
		ok = p.ch.PushFeed(p.pendingFeed)
	case CmdReverse:
		ok = p.ch.PushReverse(p.pendingReverse)
	case CmdPower:
		ok = p.ch.PushPower(p.pendingPower)
	case CmdDriveRatio:
		ok = p.ch.PushDriveRatio(p.pendingDriveRatio)
	}
	if ok {
		p.pending[kind] = false
	} else {
		p.drops.Add(1)
	}
	return ok
}

var _ core.Controller = (*Proxy)(nil)
