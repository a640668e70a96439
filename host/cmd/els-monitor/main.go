// Command els-monitor prints the status telemetry of a leadscrew
// controller, read from its serial port or from a capture file.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"goels/host/monitor"
	"goels/host/serial"
	"goels/protocol"
)

var (
	device  = flag.String("device", "/dev/ttyACM0", "Serial device path")
	baud    = flag.Int("baud", serial.DefaultBaud, "Baud rate (ignored for USB CDC)")
	file    = flag.String("file", "", "Read a telemetry capture file instead of a serial port")
	count   = flag.Int("count", 0, "Exit after this many reports (0 = run until interrupted)")
	verbose = flag.Bool("verbose", false, "Print decoder statistics on exit")
)

func main() {
	flag.Parse()

	port, err := openSource()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	mon, err := monitor.New(port, monitor.Options{RetryEOF: *file == ""})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	mon.Start()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)

	n := 0
loop:
	for {
		select {
		case r, ok := <-mon.Reports():
			if !ok {
				break loop
			}
			printReport(r)
			n++
			if *count > 0 && n >= *count {
				break loop
			}
		case <-sigs:
			break loop
		}
	}

	mon.Stop()
	if err := mon.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	if *verbose {
		s := mon.Stats()
		fmt.Printf("frames=%d bad=%d gaps=%d dropped=%d\n", s.Frames, s.BadFrames, s.Gaps, s.Dropped)
	}
}

func openSource() (io.ReadCloser, error) {
	if *file != "" {
		f, err := os.Open(*file)
		if err != nil {
			return nil, fmt.Errorf("open capture: %w", err)
		}
		return f, nil
	}
	cfg := serial.DefaultConfig(*device)
	cfg.Baud = *baud
	fmt.Printf("Listening on %s...\n", *device)
	return serial.Open(cfg)
}

func printReport(r protocol.StatusReport) {
	fmt.Printf("%s seq=%2d rpm=%5d power=%-5v alarm=%-5v overrun=%-5v cmd_drops=%d status_drops=%d\n",
		time.Now().Format("15:04:05.000"), r.Sequence, r.RPM,
		r.PowerOn, r.Alarm, r.Overrun, r.CommandDrops, r.StatusDrops)
}
