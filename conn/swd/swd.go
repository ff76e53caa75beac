// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package swd declares the well known pin functions used by a bit-banged
// ARM Serial Wire Debug probe.
//
// See https://en.wikipedia.org/wiki/JTAG#Similar_interfaces for background on
// SWD as a two-wire alternative to JTAG.
package swd

import "github.com/stoyan-shopov/vx-cmsis-dap/conn/pin"

// Well known pin functionality.
const (
	SWDIO  pin.Func = "SWD_SWDIO"  // Bidirectional data line
	SWCLK  pin.Func = "SWD_SWCLK"  // Clock, driven by the probe
	NRESET pin.Func = "SWD_NRESET" // Target reset, active low
)
