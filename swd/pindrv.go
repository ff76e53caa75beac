// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package swd

import (
	"fmt"

	"github.com/stoyan-shopov/vx-cmsis-dap/conn/gpio"
)

// PinDriver owns the physical pins of a bit-banged SWD probe: the
// bidirectional SWDIO data line, the SWCLK clock line (always an output,
// driven by the probe) and the active-low nRESET target reset line.
//
// PinDriver has no notion of SWD packets; it only knows how to flip pins and
// busy-wait a calibrated half clock cycle. Engine is built on top of it.
type PinDriver struct {
	swdio      gpio.PinIO
	swclk      gpio.PinIO
	nreset     gpio.PinIO
	idleCycles int
}

// NewPinDriver wires a PinDriver to already-resolved pins. idleCycles is the
// number of busy-loop iterations HalfCycleDelay spins through; it is a
// build-time calibration constant for the host the probe runs on, not
// something this package can compute on its own.
func NewPinDriver(swdio, swclk, nreset gpio.PinIO, idleCycles int) (*PinDriver, error) {
	if idleCycles < 0 {
		return nil, fmt.Errorf("swd: invalid idleCycles %d", idleCycles)
	}
	p := &PinDriver{swdio: swdio, swclk: swclk, nreset: nreset, idleCycles: idleCycles}
	if err := p.SetSWCLKOutput(); err != nil {
		return nil, err
	}
	if err := p.SwclkHi(); err != nil {
		return nil, err
	}
	if err := p.SetSWDIOOutput(); err != nil {
		return nil, err
	}
	if nreset != nil {
		if err := p.ResetPinDrive(gpio.High); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *PinDriver) String() string {
	return fmt.Sprintf("swd.PinDriver(%s, %s)", p.swdio, p.swclk)
}

// SetSWDIOOutput configures SWDIO as a driven output.
func (p *PinDriver) SetSWDIOOutput() error {
	return p.swdio.Out(gpio.High)
}

// SetSWDIOInput configures SWDIO as an input, pulled up so a floating or
// undriven target line reads high rather than an indeterminate value.
func (p *PinDriver) SetSWDIOInput() error {
	if err := p.swdio.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return err
	}
	p.HalfCycleDelay()
	return nil
}

// SwdioHi drives SWDIO high. SWDIO must already be an output.
func (p *PinDriver) SwdioHi() error {
	return p.swdio.Out(gpio.High)
}

// SwdioLow drives SWDIO low. SWDIO must already be an output.
func (p *PinDriver) SwdioLow() error {
	return p.swdio.Out(gpio.Low)
}

// SwdioRead samples the current SWDIO level. SWDIO must be an input.
func (p *PinDriver) SwdioRead() bool {
	return p.swdio.Read() == gpio.High
}

// SetSWCLKOutput configures SWCLK as a driven output. SWCLK never switches
// direction once the probe is running; this exists only for setup.
func (p *PinDriver) SetSWCLKOutput() error {
	return p.swclk.Out(gpio.High)
}

// SwclkHi drives SWCLK high.
func (p *PinDriver) SwclkHi() error {
	return p.swclk.Out(gpio.High)
}

// SwclkLow drives SWCLK low.
func (p *PinDriver) SwclkLow() error {
	return p.swclk.Out(gpio.Low)
}

// ResetPinDrive drives the target nRESET line. Level High deasserts reset.
// It is a no-op returning nil if no nRESET pin was configured.
func (p *PinDriver) ResetPinDrive(level gpio.Level) error {
	if p.nreset == nil {
		return nil
	}
	return p.nreset.Out(level)
}

// HalfCycleDelay busy-waits approximately one half SWCLK period. It is a
// cycle-counted spin, calibrated once by the caller via idleCycles, not a
// wall-clock sleep: at the clock rates a bit-banged SWD link runs at,
// scheduler-granularity sleeps would dominate the transfer time.
func (p *PinDriver) HalfCycleDelay() {
	for i := 0; i < p.idleCycles; i++ {
	}
}
