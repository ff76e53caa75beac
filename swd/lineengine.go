// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package swd

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/stoyan-shopov/vx-cmsis-dap/conn/gpio"
)

// Header bit layout, LSB first: start(1) | APnDP | RnW | A2 | A3 | parity |
// stop(0) | park(1).
const (
	headerStartBit = 1 << 0
	headerAPnDPBit = 1 << 1
	headerRnWBit   = 1 << 2
	headerA23Shift = 3
	headerParity   = 1 << 5
	headerParkBit  = 1 << 7
)

// Engine implements the five bit-banged SWD primitives, packet framing and
// the reset/line-switch sequences on top of a PinDriver.
//
// Engine has no notion of DP/AP registers; package dap builds the register
// model on top of it.
type Engine struct {
	mu  sync.Mutex
	pin *PinDriver
}

// NewEngine wraps a configured PinDriver.
func NewEngine(pin *PinDriver) *Engine {
	return &Engine{pin: pin}
}

func (e *Engine) String() string {
	return fmt.Sprintf("swd.Engine(%s)", e.pin)
}

// lock brackets a transfer with an OS thread lock, the same way
// bitbang.I2C.Tx does: the half-cycle delay is a busy loop, and the Go
// scheduler moving this goroutine to a different OS thread mid-transfer
// would not corrupt the protocol, but it could stretch a "half cycle" by an
// arbitrary scheduling quantum on a loaded host.
func (e *Engine) lock() func() {
	e.mu.Lock()
	runtime.LockOSThread()
	return func() {
		runtime.UnlockOSThread()
		e.mu.Unlock()
	}
}

// clockOutBit drives SWDIO to b and clocks one rising edge, presenting b to
// the target on that edge. SWDIO must be an output on entry; it is on exit.
func (e *Engine) clockOutBit(b bool) error {
	if b {
		if err := e.pin.SwdioHi(); err != nil {
			return err
		}
	} else {
		if err := e.pin.SwdioLow(); err != nil {
			return err
		}
	}
	e.pin.HalfCycleDelay()
	if err := e.pin.SwclkLow(); err != nil {
		return err
	}
	e.pin.HalfCycleDelay()
	return e.pin.SwclkHi()
}

// clockInBit drops SWCLK, samples SWDIO, and raises SWCLK again. SWDIO must
// be an input on entry; it remains an input on exit.
func (e *Engine) clockInBit() (bool, error) {
	if err := e.pin.SwclkLow(); err != nil {
		return false, err
	}
	e.pin.HalfCycleDelay()
	b := e.pin.SwdioRead()
	if err := e.pin.SwclkHi(); err != nil {
		return false, err
	}
	e.pin.HalfCycleDelay()
	return b, nil
}

// BuildHeader packs a request header: start(1) | APnDP | RnW | A2 | A3 |
// parity | stop(0) | park(1). a32 carries address bits [3:2] of the target
// DP/AP register, i.e. the register address shifted right by two.
func BuildHeader(isAP, isRead bool, a32 int) byte {
	var h byte = headerStartBit | headerParkBit
	if isAP {
		h |= headerAPnDPBit
	}
	if isRead {
		h |= headerRnWBit
	}
	h |= byte(a32&3) << headerA23Shift
	if evenParity(uint32(h)&0x1e>>1) == 1 {
		h |= headerParity
	}
	return h
}

// evenParity returns 1 if x has an odd number of set bits (the parity bit
// that makes the total even), 0 otherwise.
func evenParity(x uint32) uint32 {
	x ^= x >> 16
	x ^= x >> 8
	x ^= x >> 4
	x ^= x >> 2
	x ^= x >> 1
	return x & 1
}

// ClockHeaderOutGetAck shifts an 8-bit request header out LSB-first, then
// turns the bus around and clocks the 3-bit ACK value in LSB-first. SWDIO is
// left configured as an input.
func (e *Engine) ClockHeaderOutGetAck(header byte) (ACK, error) {
	unlock := e.lock()
	defer unlock()

	if err := e.pin.SetSWDIOOutput(); err != nil {
		return 0, err
	}
	for i := 0; i < 8; i++ {
		if err := e.clockOutBit(header&(1<<uint(i)) != 0); err != nil {
			return 0, err
		}
	}
	// Turnaround: the driver releases SWDIO and switches it to input.
	if err := e.pin.SetSWDIOInput(); err != nil {
		return 0, err
	}
	if err := e.pin.SwclkLow(); err != nil {
		return 0, err
	}
	e.pin.HalfCycleDelay()
	if err := e.pin.SwclkHi(); err != nil {
		return 0, err
	}
	e.pin.HalfCycleDelay()

	var ack ACK
	for i := uint(0); i < 3; i++ {
		b, err := e.clockInBit()
		if err != nil {
			return 0, err
		}
		if b {
			ack |= ACK(1 << i)
		}
	}
	return ack, nil
}

// ClockWordAndParityIn clocks 32 data bits LSB-first followed by one parity
// bit, then turns the bus around back to an output. SWDIO must be an input
// on entry. parityOK is false when the received parity bit disagrees with
// the even parity of the 32 data bits.
func (e *Engine) ClockWordAndParityIn() (word uint32, parityOK bool, err error) {
	unlock := e.lock()
	defer unlock()

	for i := uint(0); i < 32; i++ {
		b, err := e.clockInBit()
		if err != nil {
			return 0, false, err
		}
		if b {
			word |= 1 << i
		}
	}
	parityBit, err := e.clockInBit()
	if err != nil {
		return 0, false, err
	}
	want := evenParity(word) != 0
	parityOK = parityBit == want

	// Turnaround: sample (and discard) one more bit while still input, then
	// switch SWDIO to output and clock one idle-low bit.
	if _, err := e.clockInBit(); err != nil {
		return 0, false, err
	}
	if err := e.pin.SetSWDIOOutput(); err != nil {
		return 0, false, err
	}
	if err := e.clockOutBit(false); err != nil {
		return 0, false, err
	}
	return word, parityOK, nil
}

// ClockWordAndParityOut turns the bus around to an output, then clocks out
// 32 data bits LSB-first followed by the even-parity bit. SWDIO must be an
// input on entry; it is an output on exit.
func (e *Engine) ClockWordAndParityOut(word uint32) error {
	unlock := e.lock()
	defer unlock()

	// Turnaround: one input-side bit sampled and discarded, then SWDIO
	// reconfigured to output.
	if _, err := e.clockInBit(); err != nil {
		return err
	}
	if err := e.pin.SetSWDIOOutput(); err != nil {
		return err
	}
	for i := uint(0); i < 32; i++ {
		if err := e.clockOutBit(word&(1<<i) != 0); err != nil {
			return err
		}
	}
	return e.clockOutBit(evenParity(word) != 0)
}

// InsertIdleCycles drives SWDIO low for n full clock cycles with SWCLK
// output, leaving SWDIO as an output on exit. Called after every
// transaction that touches the bus.
func (e *Engine) InsertIdleCycles(n int) error {
	unlock := e.lock()
	defer unlock()
	return e.insertIdleCyclesLocked(n)
}

func (e *Engine) insertIdleCyclesLocked(n int) error {
	if err := e.pin.SetSWDIOOutput(); err != nil {
		return err
	}
	if err := e.pin.SwdioLow(); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := e.pin.SwclkLow(); err != nil {
			return err
		}
		e.pin.HalfCycleDelay()
		if err := e.pin.SwclkHi(); err != nil {
			return err
		}
		e.pin.HalfCycleDelay()
	}
	return nil
}

// ResetBus clocks the canonical JTAG-to-SWD-style line reset: at least 50
// cycles with SWDIO held high followed by at least one idle cycle (16 here)
// with SWDIO low. It does not touch DP.IDCODE or the SELECT/TAR shadows;
// that bookkeeping belongs to package dap, which calls this as its first
// step.
func (e *Engine) ResetBus() error {
	unlock := e.lock()
	defer unlock()
	return e.resetBusLocked()
}

func (e *Engine) resetBusLocked() error {
	if err := e.pin.SetSWDIOOutput(); err != nil {
		return err
	}
	if err := e.pin.SwdioHi(); err != nil {
		return err
	}
	for i := 0; i < 50; i++ {
		if err := e.pin.SwclkLow(); err != nil {
			return err
		}
		e.pin.HalfCycleDelay()
		if err := e.pin.SwclkHi(); err != nil {
			return err
		}
		e.pin.HalfCycleDelay()
	}
	return e.insertIdleCyclesLocked(16)
}

// ResetPinDrive drives the target nRESET line through the underlying
// PinDriver; it is a no-op if the probe was built without an nRESET pin.
func (e *Engine) ResetPinDrive(level gpio.Level) error {
	return e.pin.ResetPinDrive(level)
}

// switchToSWMagic is the 16-bit JTAG-to-SWD line-switch sequence defined by
// ARM ADIv5, clocked out LSB-first.
const switchToSWMagic = 0xE79E

// SwitchToSWD performs the JTAG→SWD line switch: at least 50 high cycles,
// the 16-bit magic sequence 0xE79E LSB-first, then a bus reset.
func (e *Engine) SwitchToSWD() error {
	unlock := e.lock()
	defer unlock()

	if err := e.pin.SetSWDIOOutput(); err != nil {
		return err
	}
	if err := e.pin.SwdioHi(); err != nil {
		return err
	}
	for i := 0; i < 50; i++ {
		if err := e.pin.SwclkLow(); err != nil {
			return err
		}
		e.pin.HalfCycleDelay()
		if err := e.pin.SwclkHi(); err != nil {
			return err
		}
		e.pin.HalfCycleDelay()
	}
	for i := uint(0); i < 16; i++ {
		if err := e.clockOutBit(switchToSWMagic&(1<<i) != 0); err != nil {
			return err
		}
	}
	return e.resetBusLocked()
}
