package core

import (
	"strings"
	"testing"
)

func TestEventRingKeepsNewest(t *testing.T) {
	ClearEvents()
	defer ClearEvents()

	for i := 0; i < EventRingSize+5; i++ {
		RecordEvent(EvtCommandDrop, uint32(i), uint32(i), 0)
	}
	events := Events()
	if len(events) != EventRingSize {
		t.Fatalf("Expected %d events, got %d", EventRingSize, len(events))
	}
	if events[0].Clock != 5 || events[len(events)-1].Clock != EventRingSize+4 {
		t.Errorf("Expected oldest 5 and newest %d, got %d and %d",
			EventRingSize+4, events[0].Clock, events[len(events)-1].Clock)
	}
}

func TestDumpEvents(t *testing.T) {
	ClearEvents()
	defer ClearEvents()
	var lines []string
	SetDebugWriter(func(s string) { lines = append(lines, s) })
	defer SetDebugWriter(func(string) {})

	RecordEvent(EvtOverrun, 42, 150, uint32(0xffffffff))
	DumpEvents()

	if len(lines) != 3 {
		t.Fatalf("Expected header, one event and footer, got %v", lines)
	}
	if !strings.Contains(lines[1], "OVERRUN!") || !strings.Contains(lines[1], "v2=-1") {
		t.Errorf("Unexpected event line %q", lines[1])
	}
}

func TestDebugPrintlnGated(t *testing.T) {
	var lines []string
	SetDebugWriter(func(s string) { lines = append(lines, s) })
	defer SetDebugWriter(func(string) {})

	SetDebugEnabled(false)
	DebugPrintln("hidden")
	SetDebugEnabled(true)
	DebugPrintln("shown")
	SetDebugEnabled(false)

	if len(lines) != 1 || lines[0] != "shown" {
		t.Errorf("Expected only the enabled message, got %v", lines)
	}
}

func TestItoa(t *testing.T) {
	tests := map[int]string{0: "0", 7: "7", -42: "-42", 1234567: "1234567"}
	for in, want := range tests {
		if got := itoa(in); got != want {
			t.Errorf("itoa(%d): expected %q, got %q", in, want, got)
		}
	}
	if utoa(4294967295) != "4294967295" {
		t.Errorf("Expected max uint32, got %q", utoa(4294967295))
	}
}
