// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package transport carries fixed-size CMSIS-DAP HID report pairs between a
// host and the dispatcher in package dapdispatch. It deliberately mirrors
// the original firmware's framing: one 64-byte OUT report is a request, one
// 64-byte IN report is its response, one in flight at a time.
package transport

import "fmt"

// ReportSize is the fixed HID report length CMSIS-DAP uses on this probe.
// The original firmware's USB_HID_PACKET_SIZE.
const ReportSize = 64

// VendorID and ProductID identify this probe on the USB bus, carried over
// from the original firmware's device descriptor.
const (
	VendorID  = 0x1ad4
	ProductID = 0xa000
)

// Transport moves one CMSIS-DAP report pair at a time. ReadRequest blocks
// until a full ReportSize-byte OUT report has arrived; WriteResponse blocks
// until a full ReportSize-byte IN report has been accepted.
type Transport interface {
	ReadRequest() ([]byte, error)
	WriteResponse(resp []byte) error
	Close() error
}

// ErrShortReport is returned by a Transport backend when the underlying
// device delivered fewer than ReportSize bytes for a single report.
var ErrShortReport = fmt.Errorf("transport: short report, want %d bytes", ReportSize)
