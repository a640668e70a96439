package core

// Controller is the command and status contract of the sync engine. Engine
// implements it directly; multicore.Proxy implements it across contexts.
type Controller interface {
	SetFeed(feed Ratio)
	SetReverse(reverse bool)
	SetPowerOn(on bool)
	SetDriveRatio(ratio Ratio)

	RPM() uint16
	IsAlarm() bool
	IsPowerOn() bool
	IsOverrun() bool
}

// Status is the snapshot the motion context publishes
type Status struct {
	RPM     uint16
	Alarm   bool
	PowerOn bool
	Overrun bool
}
