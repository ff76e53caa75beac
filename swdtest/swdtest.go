// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package swdtest implements a fake two-pin SWD target, for exercising
// swd.Engine and dap.Core without real hardware. It is modeled after
// conn/gpio/gpiotest's fake Pin: a SWCLK/SWDIO pair of gpio.PinIO pins whose
// Out() calls drive a small synchronous state machine that decodes headers,
// produces ACKs and clocks data in/out the same way a real SW-DP would.
package swdtest

import (
	"sync"

	"github.com/stoyan-shopov/vx-cmsis-dap/conn/gpio"
	"github.com/stoyan-shopov/vx-cmsis-dap/conn/gpio/gpiotest"
)

// Responder decides the ACK a Target returns for one transfer. The default
// Responder always returns OK; tests that want WAIT/FAULT/ProtocolError
// injection install their own.
type Responder func(isAP, isRead bool, a32 int) uint8

// ACK values as they travel on the wire, LSB first.
const (
	AckOK    uint8 = 1
	AckWait  uint8 = 2
	AckFault uint8 = 4
)

type phase int

const (
	phaseIdle phase = iota
	phaseHeader
	phaseTurnToAck
	phaseAck
	phaseTurnToData // write only: host resumes driving SWDIO after the ack
	phaseDataIn     // write: sampling host-driven data+parity
	phaseDataOut    // read: driving data+parity to the host
)

// Target is a software ADIv5 DP plus a single generic banked access port,
// enough to exercise package dap's full register model: DP.IDCODE,
// DP.ABORT, DP.CTRLSTAT, DP.SELECT, DP.RDBUFF, and an AP register file
// addressed the same way a MEM-AP's CSW/TAR/DRW/BDx/CFG/BASE are.
type Target struct {
	mu sync.Mutex

	IDCode  uint32
	Respond Responder

	selectReg uint32
	ctrlstat  uint32
	apRegs    [16 * 16]uint32 // index = bank*16 + a32
	rdbuff    uint32

	// mem backs the generic AP's DRW register, addressed by the current
	// value of its TAR register (apRegs[...][apTarA32]) rather than folded
	// into apRegs itself, so block transfers exercise real address-indexed
	// memory and TAR auto-increment instead of a single flat slot.
	mem map[uint32]uint32

	swdio *swdioPin
	swclk *swclkPin

	swclkLevel gpio.Level
	swdioLevel gpio.Level

	phase    phase
	bitPos   int
	header   byte
	ack      uint8
	shiftIn  uint32
	shiftOut uint32
	isAP     bool
	isRead   bool
	a32      int
	parityIn bool

	// consecutiveHigh counts rising edges sampled with SWDIO held high; at
	// 50 it forces phase back to idle, mirroring the ADIv5 line-reset rule
	// (>=50 SWCLK cycles with SWDIO high resets the DP's bit-phase state
	// regardless of where it was in a transfer).
	consecutiveHigh int
}

// NewTarget returns a Target with idcode set and an always-OK Responder.
// SWCLK starts high, matching the idle-high convention swd.PinDriver
// configures it to.
func NewTarget(idcode uint32) *Target {
	t := &Target{IDCode: idcode, Respond: func(bool, bool, int) uint8 { return AckOK }, swclkLevel: gpio.High, mem: make(map[uint32]uint32)}
	t.swdio = &swdioPin{Pin: gpiotest.Pin{N: "SWDIO"}, t: t}
	t.swclk = &swclkPin{Pin: gpiotest.Pin{N: "SWCLK"}, t: t}
	return t
}

// SWDIOPin returns the fake SWDIO pin to wire into an swd.PinDriver.
func (t *Target) SWDIOPin() gpio.PinIO { return t.swdio }

// SWCLKPin returns the fake SWCLK pin to wire into an swd.PinDriver.
func (t *Target) SWCLKPin() gpio.PinIO { return t.swclk }

// CtrlStat returns the current DP.CTRLSTAT value, for test assertions.
func (t *Target) CtrlStat() uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ctrlstat
}

// SetCtrlStat seeds DP.CTRLSTAT, e.g. to inject sticky error bits before a
// test exercises dap.Core's recovery path.
func (t *Target) SetCtrlStat(v uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ctrlstat = v
}

// APRegister returns the current value of one banked AP register, addressed
// the same way dap.Core addresses them (bank from SELECT, a32 = addr>>2&3).
func (t *Target) APRegister(bank, a32 int) uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.apRegs[bank*16+a32]
}

// SetAPRegister seeds one banked AP register.
func (t *Target) SetAPRegister(bank, a32 int, v uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.apRegs[bank*16+a32] = v
}

func evenParity(x uint32) uint32 {
	x ^= x >> 16
	x ^= x >> 8
	x ^= x >> 4
	x ^= x >> 2
	x ^= x >> 1
	return x & 1
}

func (t *Target) bank() int { return int((t.selectReg >> 4) & 0xf) }

func (t *Target) apIndex(a32 int) int { return t.bank()*16 + a32 }

// apTarA32 and apDrwA32 are the generic AP's TAR and DRW registers, a32 =
// addr>>2, matching dap.APTAR (0x04) and dap.APDRW (0x0c).
const (
	apTarA32 = 1
	apDrwA32 = 3
)

// advanceTar auto-increments the cached TAR register after a DRW access.
// Real MEM-AP auto-increment wraps within a 10-bit (1KB) window and leaves
// the upper address bits alone; dap.Core tracks the same boundary to know
// when it must explicitly reload TAR.
func (t *Target) advanceTar() {
	reg := t.apIndex(apTarA32)
	addr := t.apRegs[reg]
	t.apRegs[reg] = (addr &^ 0x3ff) | ((addr + 4) & 0x3ff)
}

func (t *Target) readRegister(isAP bool, a32 int) uint32 {
	if isAP {
		if a32 == apDrwA32 {
			// AP reads are posted: this access returns the result latched by
			// the *previous* DRW read (t.rdbuff), and only now triggers the
			// fetch at the current TAR, whose result becomes the next
			// posted value (retrievable by the next DRW read, or by reading
			// RDBUFF directly without disturbing TAR).
			prev := t.rdbuff
			t.rdbuff = t.mem[t.apRegs[t.apIndex(apTarA32)]]
			t.advanceTar()
			return prev
		}
		v := t.apRegs[t.apIndex(a32)]
		t.rdbuff = v
		return v
	}
	switch a32 {
	case 0: // IDCODE
		return t.IDCode
	case 1: // CTRLSTAT (CTRLSEL==0 assumed; WCR not modeled)
		return t.ctrlstat
	case 2, 3: // RESEND, RDBUFF
		return t.rdbuff
	}
	return 0
}

func (t *Target) writeRegister(isAP bool, a32 int, val uint32) {
	if isAP {
		if a32 == apDrwA32 {
			t.mem[t.apRegs[t.apIndex(apTarA32)]] = val
			t.advanceTar()
			return
		}
		t.apRegs[t.apIndex(a32)] = val
		return
	}
	switch a32 {
	case 0: // ABORT: clears the sticky error bits this simulator models.
		t.ctrlstat &^= 1<<1 | 1<<4 | 1<<5 | 1<<7
	case 1: // WCR, not modeled
	case 2: // SELECT
		t.selectReg = val
	}
}

type swdioPin struct {
	gpiotest.Pin
	t *Target
}

func (p *swdioPin) Out(l gpio.Level) error {
	p.t.mu.Lock()
	p.t.swdioLevel = l
	p.t.mu.Unlock()
	return p.Pin.Out(l)
}

func (p *swdioPin) In(pull gpio.Pull, edge gpio.Edge) error {
	return p.Pin.In(pull, edge)
}

func (p *swdioPin) Read() gpio.Level {
	return p.Pin.Read()
}

type swclkPin struct {
	gpiotest.Pin
	t *Target
}

func (p *swclkPin) Out(l gpio.Level) error {
	p.t.mu.Lock()
	prev := p.t.swclkLevel
	p.t.swclkLevel = l
	switch {
	case prev == gpio.High && l == gpio.Low:
		p.t.onFallingEdge()
	case prev == gpio.Low && l == gpio.High:
		p.t.onRisingEdge()
	}
	p.t.mu.Unlock()
	return p.Pin.Out(l)
}

// driveSWDIO sets the level the Target presents on SWDIO. Must be called
// with t.mu held.
func (t *Target) driveSWDIO(high bool) {
	l := gpio.Low
	if high {
		l = gpio.High
	}
	_ = t.swdio.Pin.Out(l)
}

// onFallingEdge is called with t.mu held, once per SWCLK high->low
// transition: this is when a driving side (the Target, during ack and
// data-out phases) must present its next bit, since the sampling side reads
// SWDIO while SWCLK is low.
func (t *Target) onFallingEdge() {
	switch t.phase {
	case phaseAck:
		t.driveSWDIO(t.shiftOut&(1<<uint(t.bitPos)) != 0)
	case phaseDataOut:
		if t.bitPos < 32 {
			t.driveSWDIO(t.shiftOut&(1<<uint(t.bitPos)) != 0)
		} else {
			t.driveSWDIO(evenParity(t.shiftOut) != 0)
		}
	}
}

// onRisingEdge is called with t.mu held, once per SWCLK low->high
// transition: this is when a sampling side (the Target, during header and
// data-in phases) captures the bit the other side set up, and when bit
// counters advance.
func (t *Target) onRisingEdge() {
	if t.swdioLevel == gpio.High {
		t.consecutiveHigh++
		if t.consecutiveHigh >= 50 {
			t.phase = phaseIdle
			return
		}
	} else {
		t.consecutiveHigh = 0
	}
	switch t.phase {
	case phaseIdle:
		// Idle cycles are clocked with SWDIO low; a header begins with its
		// start bit, which is always 1.
		if t.swdioLevel != gpio.High {
			return
		}
		t.phase = phaseHeader
		t.bitPos = 0
		t.header = 0
		t.sampleHeaderBit()
	case phaseHeader:
		t.sampleHeaderBit()
	case phaseTurnToAck:
		t.phase = phaseAck
		t.bitPos = 0
		t.ack = t.Respond(t.isAP, t.isRead, t.a32)
		t.shiftOut = uint32(t.ack)
	case phaseAck:
		t.bitPos++
		if t.bitPos < 3 {
			return
		}
		if t.isRead {
			t.phase = phaseDataOut
			t.bitPos = 0
			t.shiftOut = t.readRegister(t.isAP, t.a32)
		} else {
			t.phase = phaseTurnToData
			t.bitPos = 0
		}
	case phaseTurnToData:
		t.phase = phaseDataIn
		t.bitPos = 0
		t.shiftIn = 0
	case phaseDataIn:
		t.sampleDataInBit()
	case phaseDataOut:
		t.bitPos++
		// 32 data bits, the parity bit, then the host's turnaround cycle.
		if t.bitPos > 33 {
			t.phase = phaseIdle
		}
	}
}

func (t *Target) sampleHeaderBit() {
	if t.swdioLevel == gpio.High {
		t.header |= 1 << uint(t.bitPos)
	}
	t.bitPos++
	if t.bitPos == 8 {
		// A header with a wrong stop, park or parity bit (such as the ones
		// of a line reset) gets no response; the DP stays idle.
		if t.header&(1<<6) != 0 || t.header&(1<<7) == 0 || evenParity(uint32(t.header>>1)&0xf) != uint32(t.header>>5)&1 {
			t.phase = phaseIdle
			return
		}
		t.isAP = t.header&(1<<1) != 0
		t.isRead = t.header&(1<<2) != 0
		t.a32 = int((t.header >> 3) & 3)
		t.phase = phaseTurnToAck
		t.bitPos = 0
	}
}

func (t *Target) sampleDataInBit() {
	if t.bitPos < 32 {
		if t.swdioLevel == gpio.High {
			t.shiftIn |= 1 << uint(t.bitPos)
		}
		t.bitPos++
		return
	}
	t.parityIn = t.swdioLevel == gpio.High
	if t.ack == AckOK {
		t.writeRegister(t.isAP, t.a32, t.shiftIn)
	}
	t.phase = phaseIdle
}

var _ gpio.PinIO = &swdioPin{}
var _ gpio.PinIO = &swclkPin{}
