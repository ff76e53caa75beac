// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package dap

import (
	"fmt"

	"github.com/stoyan-shopov/vx-cmsis-dap/swd"
)

// setTransferAddrReg writes the MEM-AP TAR register, skipping the write
// (and the shadow update) if it already holds addr.
func (c *Core) setTransferAddrReg(addr uint32) (swd.ACK, error) {
	if c.tarValid && c.lastKnownTar == addr {
		return swd.ACKOk, nil
	}
	ack, err := c.WriteAP(APTAR, addr)
	if err != nil {
		return 0, err
	}
	if ack == swd.ACKOk {
		c.lastKnownTar = addr
		c.tarValid = true
	}
	return ack, nil
}

// advanceTar advances the cached TAR by one word, per the MEM-AP CSW
// auto-increment contract: auto-increment is only guaranteed over the
// bottom 10 bits of the address, so a reload is required whenever those
// bits wrap around.
func (c *Core) advanceTar() (reloadNeeded bool) {
	c.lastKnownTar += 4
	return c.lastKnownTar&(1<<10-1) == 0
}

// recoverStickyError reads DP.CTRLSTAT and, if any of the sticky error
// bits are latched, resets the bus and writes DP.ABORT=0x1e to clear them.
func (c *Core) recoverStickyError() error {
	val, ack, err := c.ReadDP(DPCtrlStat)
	if err != nil {
		return err
	}
	if ack != swd.ACKOk || val&ctrlStatStickyErrorMask == 0 {
		return nil
	}
	if err := c.ResetBus(); err != nil {
		return err
	}
	_, err = c.WriteDP(DPAbort, abortClearSticky)
	return err
}

// ReadMemAP reads one data word from a memory-mapped AP address. On a
// non-OK transfer it attempts sticky-error recovery and retries up to
// maxAPTransferRetries times.
func (c *Core) ReadMemAP(addr uint32) (uint32, error) {
	if addr&3 != 0 {
		return 0, fmt.Errorf("dap: unaligned mem-ap address %#x", addr)
	}
	var data uint32
	var ack swd.ACK
	var err error
	for retry := 0; retry < maxAPTransferRetries; retry++ {
		if ack, err = c.setTransferAddrReg(addr); err != nil {
			return 0, err
		}
		if ack == swd.ACKOk {
			data, ack, err = c.ReadAP(APDRW)
			if err != nil {
				return 0, err
			}
			if ack == swd.ACKOk {
				if c.advanceTar() {
					c.tarValid = false
				}
				return data, nil
			}
		}
		if rerr := c.recoverStickyError(); rerr != nil {
			return 0, rerr
		}
	}
	return 0, fmt.Errorf("dap: ReadMemAP(%#x) failed after %d retries, last ack %s", addr, maxAPTransferRetries, ack)
}

// WriteMemAP writes one data word to a memory-mapped AP address, with the
// same sticky-error recovery and retry policy as ReadMemAP.
func (c *Core) WriteMemAP(addr, data uint32) error {
	if addr&3 != 0 {
		return fmt.Errorf("dap: unaligned mem-ap address %#x", addr)
	}
	var ack swd.ACK
	var err error
	for retry := 0; retry < maxAPTransferRetries; retry++ {
		if ack, err = c.setTransferAddrReg(addr); err != nil {
			return err
		}
		if ack == swd.ACKOk {
			ack, err = c.WriteAP(APDRW, data)
			if err != nil {
				return err
			}
			if ack == swd.ACKOk {
				if c.advanceTar() {
					c.tarValid = false
				}
				return nil
			}
		}
		if rerr := c.recoverStickyError(); rerr != nil {
			return rerr
		}
	}
	return fmt.Errorf("dap: WriteMemAP(%#x) failed after %d retries, last ack %s", addr, maxAPTransferRetries, ack)
}

// ReadMemAPWords reads len(buf) consecutive words starting at addr,
// relying on MEM-AP CSW auto-increment and reloading TAR whenever the
// bottom 10 bits wrap.
func (c *Core) ReadMemAPWords(addr uint32, buf []uint32) error {
	if addr&3 != 0 {
		return fmt.Errorf("dap: unaligned mem-ap address %#x", addr)
	}
	if len(buf) == 0 {
		return nil
	}
	if ack, err := c.setTransferAddrReg(addr); err != nil {
		return err
	} else if ack != swd.ACKOk {
		return fmt.Errorf("dap: ReadMemAPWords TAR load failed, ack %s", ack)
	}

	// MEM-AP reads are posted: the data phase of a DRW read returns the
	// result of the *previous* AP access, not the one just triggered by
	// this header. Prime the pipeline with one throwaway DRW read, stream
	// the first len(buf)-1 words through the reads below (each one's
	// returned data belongs to the previous trigger), and recover the
	// final word from RDBUFF without triggering a further fetch, matching
	// sw_read_mem_ap_words in the original firmware.
	var primed uint32
	if ack, err := c.rawXferReadAPWord(&primed); err != nil {
		return err
	} else if ack != swd.ACKOk {
		return fmt.Errorf("dap: ReadMemAPWords priming read failed, ack %s", ack)
	}
	if c.advanceTar() {
		c.tarValid = false
		if _, err := c.setTransferAddrReg(c.lastKnownTar); err != nil {
			return err
		}
	}

	for i := 0; i < len(buf)-1; i++ {
		ack, err := c.rawXferReadAPWord(&buf[i])
		if err != nil {
			return err
		}
		if ack != swd.ACKOk {
			return fmt.Errorf("dap: ReadMemAPWords word %d failed, ack %s", i, ack)
		}
		if c.advanceTar() {
			c.tarValid = false
			if _, err := c.setTransferAddrReg(c.lastKnownTar); err != nil {
				return err
			}
		}
	}
	if err := c.engine.InsertIdleCycles(10); err != nil {
		return err
	}
	val, ack, err := c.drainRDBUFF()
	if err != nil {
		return err
	}
	if ack != swd.ACKOk {
		return fmt.Errorf("dap: ReadMemAPWords final RDBUFF drain failed, ack %s", ack)
	}
	buf[len(buf)-1] = val
	return nil
}

// WriteMemAPWords writes len(buf) consecutive words starting at addr,
// relying on MEM-AP CSW auto-increment and flushing the write buffer
// whenever the bottom 10 bits of TAR wrap.
func (c *Core) WriteMemAPWords(addr uint32, buf []uint32) error {
	if addr&3 != 0 {
		return fmt.Errorf("dap: unaligned mem-ap address %#x", addr)
	}
	if len(buf) == 0 {
		return nil
	}
	if ack, err := c.setTransferAddrReg(addr); err != nil {
		return err
	} else if ack != swd.ACKOk {
		return fmt.Errorf("dap: WriteMemAPWords TAR load failed, ack %s", ack)
	}

	for i := range buf {
		ack, err := c.rawXferWriteAPWord(buf[i])
		if err != nil {
			return err
		}
		if ack != swd.ACKOk {
			return fmt.Errorf("dap: WriteMemAPWords word %d failed, ack %s", i, ack)
		}
		if c.advanceTar() {
			ack, err := c.flushWriteBuffer()
			if err != nil {
				return err
			}
			if ack != swd.ACKOk {
				return fmt.Errorf("dap: WriteMemAPWords write-buffer flush failed, ack %s", ack)
			}
			c.tarValid = false
			if i+1 < len(buf) {
				if _, err := c.setTransferAddrReg(c.lastKnownTar); err != nil {
					return err
				}
			}
		}
	}
	if err := c.engine.InsertIdleCycles(10); err != nil {
		return err
	}
	ack, err := c.flushWriteBuffer()
	if err != nil {
		return err
	}
	if ack != swd.ACKOk {
		return fmt.Errorf("dap: WriteMemAPWords final write-buffer flush failed, ack %s", ack)
	}
	return nil
}

// drainRDBUFF reads DP.RDBUFF, retrying on WAIT.
func (c *Core) drainRDBUFF() (uint32, swd.ACK, error) {
	for i := 0; i < maxPostedReadRetries; i++ {
		data, ack, err := c.ReadDP(DPRdBuff)
		if err != nil {
			return 0, 0, err
		}
		if ack != swd.ACKWait {
			return data, ack, nil
		}
	}
	return 0, swd.ACKWait, nil
}

// rawXferReadAPWord issues a raw AP DRW read header (request byte 0x9f in
// the original firmware) retrying locally on WAIT up to
// maxHeaderWaitRetries times, used by the pipelined block-read path where
// composing through ReadAP's own RDBUFF drain would double the retries.
func (c *Core) rawXferReadAPWord(data *uint32) (swd.ACK, error) {
	var ack swd.ACK
	var err error
	for retry := 0; retry < maxHeaderWaitRetries; retry++ {
		ack, err = c.bitseqXfer(true, true, -1, (APDRW>>2)&3, data)
		if err != nil || ack != swd.ACKWait {
			return ack, err
		}
	}
	return ack, nil
}

// rawXferWriteAPWord issues a raw AP DRW write header (request byte 0xbb in
// the original firmware), retrying locally on WAIT up to
// maxHeaderWaitRetries times.
func (c *Core) rawXferWriteAPWord(data uint32) (swd.ACK, error) {
	var ack swd.ACK
	var err error
	for retry := 0; retry < maxHeaderWaitRetries; retry++ {
		ack, err = c.bitseqXfer(true, false, -1, (APDRW>>2)&3, &data)
		if err != nil || ack != swd.ACKWait {
			return ack, err
		}
	}
	return ack, nil
}

