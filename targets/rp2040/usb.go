//go:build rp2040

package main

import "machine"

// InitUSB configures the USB CDC console. On the RP2040 machine.Serial is
// USB CDC, not a UART, so the config is ignored.
func InitUSB() {
	machine.Serial.Configure(machine.UARTConfig{})
}

// usbTelemetry writes telemetry frames to USB CDC and tracks whether the
// host is still reading
type usbTelemetry struct {
	failures uint32
}

const usbMaxFailures = 10

func (u *usbTelemetry) Write(p []byte) (int, error) {
	n, err := machine.Serial.Write(p)
	if err != nil || n < len(p) {
		u.failures++
		return n, err
	}
	u.failures = 0
	return n, nil
}

// Connected reports whether recent writes have succeeded
func (u *usbTelemetry) Connected() bool {
	return u.failures < usbMaxFailures
}

// debugLine writes a console line. Debug output shares the port with
// telemetry; the host decoder skips it as noise.
func debugLine(s string) {
	machine.Serial.Write([]byte(s))
	machine.Serial.Write([]byte("\r\n"))
}
