// Command els-sim runs the leadscrew against a simulated spindle and
// reports how closely the leadscrew followed it.
package main

import (
	"flag"
	"fmt"
	"os"

	"goels/config"
	"goels/core"
	"goels/sim"
)

var (
	configPath = flag.String("config", "", "Machine YAML file (defaults built in when empty)")
	rpm        = flag.Int("rpm", 600, "Spindle speed")
	tpi        = flag.Int("tpi", 0, "Cut a thread of this many threads per inch")
	pitch      = flag.Int("pitch", 0, "Cut a thread of this pitch in hundredths of a mm")
	feedThou   = flag.Int("feed", 10, "Feed in thousandths of an inch per revolution (when no thread is given)")
	seconds    = flag.Float64("seconds", 2, "Forward run time")
	backoff    = flag.Float64("backoff", 0.5, "Reverse run time after the forward run")
	telemetry  = flag.String("telemetry", "", "Write status telemetry frames to this file")
	events     = flag.Bool("events", false, "Dump the motion event ring at the end")
)

func main() {
	flag.Parse()

	m, err := loadMachine()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	rig, err := sim.NewRig(*m)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *telemetry != "" {
		f, err := os.Create(*telemetry)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: create telemetry file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		rig.SetTelemetry(f)
	}

	core.SetDebugWriter(func(s string) { fmt.Println(s) })
	core.SetDebugEnabled(true)

	feed, label := selectFeed(m)
	fmt.Printf("Feed %s: %s steps per count\n", label, feed)
	rig.Supervisor.SetFeeds(feed, feed)
	if err := rig.Run(rig.TickUS()); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	base := rig.Mark()
	phase(rig, base, "forward", int32(*rpm), *seconds)
	if *backoff > 0 {
		phase(rig, base, "reverse", -int32(*rpm), *backoff)
	}

	if *events {
		core.DumpEvents()
	}
}

func loadMachine() (*config.Machine, error) {
	if *configPath == "" {
		m := config.Default()
		return &m, nil
	}
	return config.Load(*configPath)
}

func selectFeed(m *config.Machine) (core.Ratio, string) {
	switch {
	case *tpi > 0:
		return m.ThreadTPI(*tpi), fmt.Sprintf("%d tpi", *tpi)
	case *pitch > 0:
		return m.ThreadHMM(*pitch), fmt.Sprintf("%d.%02d mm pitch", *pitch/100, *pitch%100)
	default:
		return m.FeedThou(*feedThou), fmt.Sprintf("0.%03d in/rev", *feedThou)
	}
}

func phase(rig *sim.Rig, base sim.Baseline, name string, speed int32, secs float64) {
	rig.Spindle.SetRPM(speed)
	if err := rig.Run(uint32(secs * 1e6)); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	r := rig.Report(base)
	fmt.Printf("%-8s t=%6.3fs revs=%9.3f expected=%7d emitted=%7d lag=%3d pulses=%d rpm=%d overrun=%v cmd_drops=%d status_drops=%d\n",
		name, float64(rig.Now())/1e6, r.Revolutions, r.Expected, r.Emitted, r.Lag,
		r.Pulses, r.RPM, r.Overrun, r.CommandDrops, r.StatusDrops)
}
