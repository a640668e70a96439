package multicore

import "goels/core"

// CommandKind identifies a command queue
type CommandKind uint8

const (
	CmdFeed CommandKind = iota
	CmdReverse
	CmdPower
	CmdDriveRatio
	numCommandKinds
)

// String returns the command name
func (k CommandKind) String() string {
	switch k {
	case CmdFeed:
		return "feed"
	case CmdReverse:
		return "reverse"
	case CmdPower:
		return "power"
	case CmdDriveRatio:
		return "drive_ratio"
	default:
		return "unknown"
	}
}

// Channel is the pair of message directions between the two contexts.
// Create one with NewChannel and hand it to both sides at startup.
type Channel struct {
	feed       Queue[core.Ratio]
	reverse    Queue[bool]
	power      Queue[bool]
	driveRatio Queue[core.Ratio]
	status     Queue[core.Status]

	// CommandBell is rung toward the motion context
	CommandBell *Doorbell
	// StatusBell is rung toward the supervisory context
	StatusBell *Doorbell
}

// NewChannel creates an empty channel
func NewChannel() *Channel {
	return &Channel{
		CommandBell: NewDoorbell(),
		StatusBell:  NewDoorbell(),
	}
}

// Supervisory side: command producers

// PushFeed queues a feed ratio
func (c *Channel) PushFeed(feed core.Ratio) bool {
	return c.ringIf(c.feed.Push(feed), c.CommandBell)
}

// PushReverse queues a direction
func (c *Channel) PushReverse(reverse bool) bool {
	return c.ringIf(c.reverse.Push(reverse), c.CommandBell)
}

// PushPower queues a power state
func (c *Channel) PushPower(on bool) bool {
	return c.ringIf(c.power.Push(on), c.CommandBell)
}

// PushDriveRatio queues a drive ratio
func (c *Channel) PushDriveRatio(ratio core.Ratio) bool {
	return c.ringIf(c.driveRatio.Push(ratio), c.CommandBell)
}

// Motion side: command consumers

// DrainFeed pops the oldest feed ratio
func (c *Channel) DrainFeed() (core.Ratio, bool) {
	v, ok := c.feed.Pop()
	c.settleCommands()
	return v, ok
}

// DrainReverse pops the oldest direction
func (c *Channel) DrainReverse() (bool, bool) {
	v, ok := c.reverse.Pop()
	c.settleCommands()
	return v, ok
}

// DrainPower pops the oldest power state
func (c *Channel) DrainPower() (bool, bool) {
	v, ok := c.power.Pop()
	c.settleCommands()
	return v, ok
}

// DrainDriveRatio pops the oldest drive ratio
func (c *Channel) DrainDriveRatio() (core.Ratio, bool) {
	v, ok := c.driveRatio.Pop()
	c.settleCommands()
	return v, ok
}

// Status direction

// PushStatus queues a status snapshot from the motion context
func (c *Channel) PushStatus(st core.Status) bool {
	return c.ringIf(c.status.Push(st), c.StatusBell)
}

// DrainStatus pops the oldest status snapshot
func (c *Channel) DrainStatus() (core.Status, bool) {
	v, ok := c.status.Pop()
	if c.status.IsEmpty() {
		c.StatusBell.Clear()
		if !c.status.IsEmpty() {
			c.StatusBell.raised.Store(true)
		}
	}
	return v, ok
}

// CommandsPending reports whether any command queue holds entries
func (c *Channel) CommandsPending() bool {
	return !c.commandsEmpty()
}

func (c *Channel) commandsEmpty() bool {
	return c.feed.IsEmpty() && c.reverse.IsEmpty() && c.power.IsEmpty() && c.driveRatio.IsEmpty()
}

// settleCommands lowers the command doorbell once every command queue is
// empty. A push racing with the clear re-raises it.
func (c *Channel) settleCommands() {
	if !c.commandsEmpty() {
		return
	}
	c.CommandBell.Clear()
	if !c.commandsEmpty() {
		c.CommandBell.raised.Store(true)
	}
}

func (c *Channel) ringIf(ok bool, bell *Doorbell) bool {
	if ok {
		bell.Ring()
	}
	return ok
}
