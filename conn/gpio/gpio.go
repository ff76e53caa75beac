// Copyright 2016 The PIO Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package gpio defines digital pins.
//
// The GPIO pins are described in their logical functionality, not in their
// physical position.
package gpio

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/stoyan-shopov/vx-cmsis-dap/conn/physic"
	"github.com/stoyan-shopov/vx-cmsis-dap/conn/pin"
)

// Level is the level of the pin: Low or High.
type Level bool

const (
	// Low represents 0v.
	Low Level = false
	// High represents Vin, generally 3.3v or 5v.
	High Level = true
)

func (l Level) String() string {
	if l == Low {
		return "Low"
	}
	return "High"
}

// Pull specifies the internal pull-up or pull-down for a pin set as input.
type Pull uint8

// Acceptable pull values.
const (
	Float        Pull = 0 // Let the input float
	PullDown     Pull = 1 // Apply pull-down
	PullUp       Pull = 2 // Apply pull-up
	PullNoChange Pull = 3 // Do not change the previous pull resistor setting or an unknown value
)

const pullName = "FloatPullDownPullUpPullNoChange"

var pullIndex = [...]uint8{0, 5, 13, 19, 31}

func (i Pull) String() string {
	if i >= Pull(len(pullIndex)-1) {
		return fmt.Sprintf("Pull(%d)", i)
	}
	return pullName[pullIndex[i]:pullIndex[i+1]]
}

// Edge specifies if and how an input pin should trigger edge detection.
//
// Only enable it when needed, since this causes system interrupts.
type Edge uint8

// Acceptable edge detection values.
const (
	NoEdge    Edge = 0
	RisingEdge Edge = 1
	FallingEdge Edge = 2
	BothEdges Edge = 3
)

const edgeName = "NoEdgeRisingEdgeFallingEdgeBothEdges"

var edgeIndex = [...]uint8{0, 6, 16, 27, 36}

func (i Edge) String() string {
	if i >= Edge(len(edgeIndex)-1) {
		return fmt.Sprintf("Edge(%d)", i)
	}
	return edgeName[edgeIndex[i]:edgeIndex[i+1]]
}

// Duty is a PWM duty cycle expressed in 1/10000th of a full cycle, so it can
// be used without floating point.
type Duty int32

const (
	// DutyMax is the duty cycle corresponding to a pin held High.
	DutyMax Duty = 10000
	// DutyHalf is a 50% duty cycle.
	DutyHalf = DutyMax / 2
)

func (d Duty) String() string {
	whole := int32(d) / 100
	frac := int32(d) % 100
	if frac < 0 {
		frac = -frac
	}
	if frac == 0 {
		return fmt.Sprintf("%d%%", whole)
	}
	return fmt.Sprintf("%d.%02d%%", whole, frac)
}

// ParseDuty parses a string as a percentage to return a Duty value.
func ParseDuty(s string) (Duty, error) {
	if len(s) == 0 || s[len(s)-1] != '%' {
		return 0, fmt.Errorf("gpio: invalid duty %q, expected a trailing %%", s)
	}
	whole, frac, found := strings.Cut(s[:len(s)-1], ".")
	w, err := strconv.ParseInt(whole, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("gpio: invalid duty %q: %w", s, err)
	}
	d := Duty(w * 100)
	if found {
		for len(frac) < 2 {
			frac += "0"
		}
		if len(frac) > 2 {
			frac = frac[:2]
		}
		f, err := strconv.ParseInt(frac, 10, 32)
		if err != nil {
			return 0, fmt.Errorf("gpio: invalid duty %q: %w", s, err)
		}
		d += Duty(f)
	}
	return d, nil
}

// PinIn is an input GPIO pin.
//
// It may optionally support internal pull resistor and edge based triggering.
type PinIn interface {
	pin.Pin
	// In setups a pin as an input.
	//
	// If WaitForEdge() is planned to be called, make sure to use one of the Edge
	// value. Otherwise, use NoEdge to not generate unneeded hardware interrupts.
	In(pull Pull, edge Edge) error
	// Read return the current pin level.
	//
	// Behavior is undefined if In() wasn't used before.
	Read() Level
	// WaitForEdge() waits for the next edge or immediately return if an edge
	// occurred since the last call.
	//
	// Specify -1 to effectively disable timeout.
	WaitForEdge(timeout time.Duration) bool
	// Pull returns the internal pull resistor if the pin is set as input pin.
	// Returns PullNoChange if the value cannot be read.
	Pull() Pull
	// DefaultPull returns the pull that is initialized on CPU reset. This is
	// useful to determine if the pin is acceptable for operation with
	// external hardware.
	DefaultPull() Pull
}

// PinOut is an output GPIO pin.
type PinOut interface {
	pin.Pin
	// Out sets a pin as output if it wasn't already and sets the initial value.
	Out(l Level) error
	// PWM sets a pin as output with a specified duty cycle at the given
	// frequency, or as close as the hardware can sustain.
	PWM(duty Duty, f physic.Frequency) error
}

// PinIO is a GPIO pin that supports both input and output.
//
// It may fail at either input and or output, for example ground, vcc and
// other similar pins.
type PinIO interface {
	pin.Pin
	In(pull Pull, edge Edge) error
	Read() Level
	WaitForEdge(timeout time.Duration) bool
	Pull() Pull
	DefaultPull() Pull
	Out(l Level) error
	PWM(duty Duty, f physic.Frequency) error
}

// RealPin is implemented by aliased pins and allows the retrieval of the real
// pin underneath an alias.
//
// Some special pins, like the ones found on the CPU, are implemented via
// aliases to partially or fully redirect the stream to the real pin.
type RealPin interface {
	// Real returns the real pin behind an alias
	Real() PinIO
}

// INVALID implements PinIO and fails on all access.
var INVALID PinIO = invalidPin{}

//

// errInvalidPin is returned when trying to use INVALID.
var errInvalidPin = fmt.Errorf("invalid pin")

// invalidPin implements PinIO for compatibility but fails on all access.
type invalidPin struct{}

func (invalidPin) Number() int                              { return -1 }
func (invalidPin) Name() string                              { return "INVALID" }
func (invalidPin) String() string                            { return "INVALID" }
func (invalidPin) Function() string                           { return "" }
func (invalidPin) In(Pull, Edge) error                        { return errInvalidPin }
func (invalidPin) Read() Level                                { return Low }
func (invalidPin) WaitForEdge(timeout time.Duration) bool     { return false }
func (invalidPin) Pull() Pull                                 { return PullNoChange }
func (invalidPin) DefaultPull() Pull                           { return PullNoChange }
func (invalidPin) Out(Level) error                             { return errInvalidPin }
func (invalidPin) PWM(duty Duty, f physic.Frequency) error     { return errInvalidPin }

var _ PinIn = INVALID
var _ PinOut = INVALID
var _ PinIO = INVALID
