// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package hostenum lists CMSIS-DAP probes with this firmware's VID/PID
// plugged into the host. It is a Windows-only capability. cmd/dap-harness
// does not use it; it enumerates USB devices through gousb on every
// platform.
package hostenum

// Device describes one enumerated probe.
type Device struct {
	// Path is the OS-specific device instance path, suitable for opening the
	// matching HID device handle.
	Path string
	// SerialNumber is the USB iSerialNumber string, empty if the device does
	// not report one (the original firmware's device descriptor leaves
	// iSerialNumber at 0, so this is commonly empty in practice).
	SerialNumber string
}
