// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package dap

import (
	"fmt"

	"github.com/stoyan-shopov/vx-cmsis-dap/conn/gpio"
	"github.com/stoyan-shopov/vx-cmsis-dap/swd"
)

// ResetPinDrive drives the target nRESET line directly, bypassing the
// register-level bus reset. deasserted=true drives the line high (reset
// released); false asserts it (target held in reset). It is a no-op if the
// probe was built without an nRESET pin.
func (c *Core) ResetPinDrive(deasserted bool) error {
	level := gpio.Low
	if deasserted {
		level = gpio.High
	}
	return c.engine.ResetPinDrive(level)
}

// ResetBus clocks the SWD bus reset sequence, then brings the DP state
// machine out of reset and into idle by reading DP.IDCODE, writing
// DP.SELECT=0 and TAR=0 and caching both shadows. It returns an error only
// if any of the three steps fails.
func (c *Core) ResetBus() error {
	if err := c.engine.ResetBus(); err != nil {
		return err
	}
	if _, ack, err := c.ReadDP(DPIDCode); err != nil {
		return err
	} else if ack != swd.ACKOk {
		return fmt.Errorf("dap: IDCODE read failed after bus reset, ack %s", ack)
	}

	c.selectShadow = 0
	if ack, err := c.bitseqXfer(false, false, -1, DPSelect, &c.selectShadow); err != nil {
		return err
	} else if ack != swd.ACKOk {
		return fmt.Errorf("dap: SELECT=0 write failed after bus reset, ack %s", ack)
	}

	c.tarValid = false
	if ack, err := c.setTransferAddrReg(0); err != nil {
		return err
	} else if ack != swd.ACKOk {
		return fmt.Errorf("dap: TAR=0 write failed after bus reset, ack %s", ack)
	}
	return nil
}

// Connect performs the full SWD connect sequence: a JTAG→SWD line switch
// (which itself ends in a bus reset), then clears all counters and the
// bitseq log. It is idempotent — calling it again from an already-SWD bus
// is harmless, matching the original firmware's note that the switch
// sequence works "even if serial wire mode is already activated".
func (c *Core) Connect() error {
	if err := c.engine.SwitchToSWD(); err != nil {
		return err
	}
	if _, ack, err := c.ReadDP(DPIDCode); err != nil {
		return err
	} else if ack != swd.ACKOk {
		return fmt.Errorf("dap: IDCODE read failed after switch-to-SWD, ack %s", ack)
	}

	c.selectShadow = 0
	if ack, err := c.bitseqXfer(false, false, -1, DPSelect, &c.selectShadow); err != nil {
		return err
	} else if ack != swd.ACKOk {
		return fmt.Errorf("dap: SELECT=0 write failed after switch-to-SWD, ack %s", ack)
	}
	c.tarValid = false
	if ack, err := c.setTransferAddrReg(0); err != nil {
		return err
	} else if ack != swd.ACKOk {
		return fmt.Errorf("dap: TAR=0 write failed after switch-to-SWD, ack %s", ack)
	}

	c.Counters = Counters{}
	c.bitseqLog = [8]BitseqLogEntry{}
	c.bitseqIdx = 0
	return nil
}

// IDCode reads and returns the DP.IDCODE register, ignoring the ACK (kept
// for parity with the original's best-effort sw_read_dp_idcode).
func (c *Core) IDCode() uint32 {
	data, _, _ := c.ReadDP(DPIDCode)
	return data
}
