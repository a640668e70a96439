package core

import "sync/atomic"

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// MotionEvent captures a notable motion-context event for post-mortem analysis
type MotionEvent struct {
	EventType uint8  // Event type code
	Clock     uint32 // System clock at event
	Value1    uint32 // Context-dependent value
	Value2    uint32 // Context-dependent value
}

// Event type codes
const (
	EvtResync        = 1 // feed, direction or drive ratio changed; v1=target
	EvtCounterWrap   = 2 // spindle counter wrapped; v1=previous, v2=position
	EvtOverrun       = 3 // backlog guard tripped; v1=desired, v2=current
	EvtCommandDrop   = 4 // command queue full; v1=kind
	EvtStatusDrop    = 5 // status queue full
	EvtGearboxReject = 6 // gearbox frame failed its checksum; v1=received, v2=computed
)

const (
	EventRingSize = 32 // Keep last 32 events for post-mortem
)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether debug output is active
	debugEnabled bool = false

	// Event ring buffer (non-blocking, for post-mortem)
	eventRing     [EventRingSize]MotionEvent
	eventRingHead atomic.Uint32
	eventsEnabled bool = true

	// Async debug output channel
	debugChan chan string
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to UART, USB, etc.
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// SetEventsEnabled turns event capture on or off
func SetEventsEnabled(enabled bool) {
	eventsEnabled = enabled
}

// InitAsyncDebug starts the async debug output goroutine
// Call this from main() after SetDebugWriter
func InitAsyncDebug() {
	debugChan = make(chan string, 16)
	go debugOutputWorker()
}

func debugOutputWorker() {
	for msg := range debugChan {
		if debugPrintln != nil {
			debugPrintln(msg)
		}
	}
}

// DebugPrintln writes a debug message using the platform-specific writer
// Blocks if debug is enabled (use DebugAsync for non-blocking)
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// DebugAsync queues a debug message for async output (non-blocking)
// Returns immediately even if channel is full (drops message)
func DebugAsync(msg string) {
	if !debugEnabled || debugChan == nil {
		return
	}
	select {
	case debugChan <- msg:
	default:
	}
}

// RecordEvent captures an event in the ring buffer. It never blocks and is
// safe to call from the control cycle. Each writer claims its own slot.
func RecordEvent(eventType uint8, clock, value1, value2 uint32) {
	if !eventsEnabled {
		return
	}
	idx := (eventRingHead.Add(1) - 1) % EventRingSize
	eventRing[idx] = MotionEvent{
		EventType: eventType,
		Clock:     clock,
		Value1:    value1,
		Value2:    value2,
	}
}

// Events returns the captured events, oldest first
func Events() []MotionEvent {
	out := make([]MotionEvent, 0, EventRingSize)
	start := eventRingHead.Load() % EventRingSize
	for i := uint32(0); i < EventRingSize; i++ {
		evt := eventRing[(start+i)%EventRingSize]
		if evt.EventType == 0 {
			continue
		}
		out = append(out, evt)
	}
	return out
}

// EventName returns a short label for an event type
func EventName(eventType uint8) string {
	switch eventType {
	case EvtResync:
		return "RESYNC"
	case EvtCounterWrap:
		return "WRAP"
	case EvtOverrun:
		return "OVERRUN!"
	case EvtCommandDrop:
		return "CMD_DROP"
	case EvtStatusDrop:
		return "STATUS_DROP"
	case EvtGearboxReject:
		return "GEARBOX_CRC"
	default:
		return "UNKNOWN"
	}
}

// DumpEvents outputs the event ring (call on panic or from a debug command).
// Call it from the context that records, or after that context has stopped.
func DumpEvents() {
	if debugPrintln == nil {
		return
	}

	debugPrintln("[EVENTS] === Event Ring Dump ===")
	for _, evt := range Events() {
		debugPrintln("[EVENTS] " + EventName(evt.EventType) +
			" clock=" + utoa(evt.Clock) +
			" v1=" + itoa(int(int32(evt.Value1))) +
			" v2=" + itoa(int(int32(evt.Value2))))
	}
	debugPrintln("[EVENTS] === End Dump ===")
}

// ClearEvents clears the event buffer
func ClearEvents() {
	for i := range eventRing {
		eventRing[i] = MotionEvent{}
	}
	eventRingHead.Store(0)
}
