// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package dap

import (
	"fmt"

	"github.com/stoyan-shopov/vx-cmsis-dap/swd"
)

// Core is the DP/AP register engine for one connected target.
type Core struct {
	engine *swd.Engine

	// selectShadow mirrors the DP.SELECT register this core believes the
	// target currently holds. It is only updated on a confirmed-OK write
	// (commit-on-success), never speculatively.
	selectShadow uint32

	// lastKnownTar mirrors the MEM-AP TAR register. tarValid is false
	// until the first successful TAR write, forcing a reload rather than
	// trusting a zero-value TAR that was never actually written.
	lastKnownTar uint32
	tarValid     bool

	Counters Counters

	bitseqLog [8]BitseqLogEntry
	bitseqIdx int

	// DebugLog, if non-nil, is called with a formatted message on every
	// non-OK wire ACK. Nil by default; set it to re-enable the original
	// firmware's wire-error diagnostics without forcing them on
	// unconditionally.
	DebugLog func(format string, args ...interface{})
}

// NewCore wraps a configured LineEngine.
func NewCore(engine *swd.Engine) *Core {
	return &Core{engine: engine}
}

func (c *Core) logf(format string, args ...interface{}) {
	if c.DebugLog != nil {
		c.DebugLog(format, args...)
	}
}

// ctrlsel returns the CTRLSEL bit cached in SelectShadow.
func (c *Core) ctrlsel() int {
	return int(c.selectShadow & 1)
}

// apbanksel returns the APBANKSEL field cached in SelectShadow.
func (c *Core) apbanksel() int {
	return int((c.selectShadow >> 4) & 0xf)
}

// bitseqXfer is the single primitive every DP/AP access flows through.
//
//  1. If ctrlsel != -1 and it differs from the cached CTRLSEL bit, the
//     SELECT bank is rewritten first (recursively) with the adjusted
//     shadow; a non-OK ACK there aborts immediately.
//  2. If this call is itself a write to DP.SELECT, the shadow is updated —
//     but only after the transfer below succeeds (commit-on-success).
//  3. The header is built and clocked out; the ACK is read.
//  4. On read, the data word and parity are clocked in; a parity failure
//     overrides the ACK to ProtocolError. On write, the data word is
//     clocked out.
//  5. Ten idle cycles are inserted.
//  6. The ACK is normalized to {OK, WAIT, FAULT, ProtocolError}.
func (c *Core) bitseqXfer(isAP, isRead bool, ctrlsel int, a32 int, data *uint32) (swd.ACK, error) {
	if ctrlsel != -1 && (ctrlsel&1) != c.ctrlsel() {
		newShadow := (c.selectShadow &^ 1) | uint32(ctrlsel&1)
		ack, err := c.bitseqXfer(false, false, -1, DPSelect, &newShadow)
		if err != nil || ack != swd.ACKOk {
			return ack, err
		}
	}

	isSelectWrite := !isAP && !isRead && a32 == DPSelect

	c.Counters.BitseqXfersTotal++

	header := swd.BuildHeader(isAP, isRead, a32)
	ack, err := c.engine.ClockHeaderOutGetAck(header)
	if err != nil {
		return 0, err
	}
	if ack != swd.ACKOk {
		c.logf("bitseq: nack ap=%v read=%v a32=%d ack=%s", isAP, isRead, a32, ack)
		c.Counters.Nacks++
	}

	var word uint32
	if isRead {
		w, parityOK, err := c.engine.ClockWordAndParityIn()
		if err != nil {
			return 0, err
		}
		word = w
		*data = w
		if !parityOK {
			c.logf("bitseq: bad parity on read ap=%v a32=%d", isAP, a32)
			c.Counters.ParityErrors++
			ack = swd.ACKProtocolError
		}
	} else {
		word = *data
		if err := c.engine.ClockWordAndParityOut(word); err != nil {
			return 0, err
		}
	}

	if isSelectWrite && ack == swd.ACKOk {
		c.selectShadow = word
	}

	if err := c.engine.InsertIdleCycles(10); err != nil {
		return 0, err
	}

	switch ack {
	case swd.ACKOk:
	case swd.ACKWait:
		c.Counters.Waits++
	case swd.ACKFault:
		c.Counters.Faults++
	default:
		c.Counters.ProtocolErrors++
		ack = swd.ACKProtocolError
	}

	c.bitseqLog[c.bitseqIdx] = BitseqLogEntry{IsAP: isAP, IsRead: isRead, A32: a32, Data: word, Ack: ack}
	c.bitseqIdx = (c.bitseqIdx + 1) & 7
	return ack, nil
}

// BitseqLog returns a copy of the rolling 8-entry transfer log, oldest
// first starting from the current write cursor.
func (c *Core) BitseqLog() [8]BitseqLogEntry {
	var out [8]BitseqLogEntry
	for i := range out {
		out[i] = c.bitseqLog[(c.bitseqIdx+i)&7]
	}
	return out
}

// ReadDP reads a debug port register. No WAIT retry happens at this layer;
// the caller composes retries.
func (c *Core) ReadDP(addr int) (uint32, swd.ACK, error) {
	var data uint32
	ack, err := c.bitseqXfer(false, true, -1, addr, &data)
	return data, ack, err
}

// WriteDP writes a debug port register. If addr is DPSelect and the write
// succeeds, the SELECT shadow is updated (inside bitseqXfer, commit-on-
// success). No WAIT retry happens at this layer.
func (c *Core) WriteDP(addr int, data uint32) (swd.ACK, error) {
	ack, err := c.bitseqXfer(false, false, -1, addr, &data)
	return ack, err
}

// ReadAP reads an access port register: it updates the APBANKSEL shadow
// and issues a SELECT write first if the required bank differs, issues the
// (posted) AP read, then drains the result from DP.RDBUFF, retrying on
// WAIT.
func (c *Core) ReadAP(addr int) (uint32, swd.ACK, error) {
	if bank := (addr >> 4) & 0xf; bank != c.apbanksel() {
		newShadow := (c.selectShadow &^ (0xf << 4)) | uint32(bank<<4)
		ack, err := c.bitseqXfer(false, false, -1, DPSelect, &newShadow)
		if err != nil || ack != swd.ACKOk {
			return 0, ack, err
		}
	}

	var data uint32
	if ack, err := c.bitseqXfer(true, true, -1, (addr>>2)&3, &data); err != nil || ack != swd.ACKOk {
		return 0, ack, err
	}

	for i := 0; i < maxPostedReadRetries; i++ {
		ack, err := c.bitseqXfer(false, true, -1, DPRdBuff, &data)
		if err != nil {
			return 0, 0, err
		}
		if ack != swd.ACKWait {
			return data, ack, nil
		}
	}
	return data, swd.ACKWait, fmt.Errorf("dap: RDBUFF drain exceeded %d retries", maxPostedReadRetries)
}

// WriteAP writes an access port register: same bank preamble as ReadAP,
// then the AP write, then a write-buffer flush by rewriting DP.SELECT with
// the current shadow, retrying on WAIT.
func (c *Core) WriteAP(addr int, data uint32) (swd.ACK, error) {
	if bank := (addr >> 4) & 0xf; bank != c.apbanksel() {
		newShadow := (c.selectShadow &^ (0xf << 4)) | uint32(bank<<4)
		ack, err := c.bitseqXfer(false, false, -1, DPSelect, &newShadow)
		if err != nil || ack != swd.ACKOk {
			return ack, err
		}
	}

	if ack, err := c.bitseqXfer(true, false, -1, (addr>>2)&3, &data); err != nil || ack != swd.ACKOk {
		return ack, err
	}

	return c.flushWriteBuffer()
}

// flushWriteBuffer drains the SW-DP write buffer by reissuing a write of
// the current SELECT shadow value, retrying on WAIT.
func (c *Core) flushWriteBuffer() (swd.ACK, error) {
	for i := 0; i < maxPostedReadRetries; i++ {
		shadow := c.selectShadow
		ack, err := c.bitseqXfer(false, false, -1, DPSelect, &shadow)
		if err != nil {
			return 0, err
		}
		if ack != swd.ACKWait {
			return ack, nil
		}
		c.Counters.WriteAPRetries++
	}
	return swd.ACKWait, fmt.Errorf("dap: write buffer flush exceeded %d retries", maxPostedReadRetries)
}
