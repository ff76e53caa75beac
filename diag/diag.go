// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package diag renders a dap.Core's rolling bitseq log and transfer
// counters to a terminal, colorizing each logged transfer by its ACK. It is
// purely a debugging aid: nothing here feeds back into the wire protocol.
package diag

import (
	"fmt"
	"image/color"
	"io"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"github.com/maruel/ansi256"

	"github.com/stoyan-shopov/vx-cmsis-dap/dap"
	"github.com/stoyan-shopov/vx-cmsis-dap/swd"
)

// Printer writes diagnostic dumps to a terminal, colorizing only when the
// underlying writer is actually a tty (go-isatty), exactly as the teacher's
// devices/screen package assumes an always-a-terminal sink: here that
// assumption is made explicit and checked instead.
type Printer struct {
	w      io.Writer
	colors bool
}

// NewStdout returns a Printer writing to a colorable stdout, detecting
// whether color escapes are worth emitting.
func NewStdout() *Printer {
	f := os.Stdout
	return &Printer{
		w:      colorable.NewColorableStdout(),
		colors: isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()),
	}
}

// ackColor maps a swd.ACK to the color its bitseq log entry is rendered in:
// green for OK, yellow for WAIT, red for FAULT or a malformed/ProtocolError
// response.
func ackColor(a swd.ACK) color.NRGBA {
	switch a {
	case swd.ACKOk:
		return color.NRGBA{G: 200, A: 255}
	case swd.ACKWait:
		return color.NRGBA{R: 200, G: 200, A: 255}
	case swd.ACKFault:
		return color.NRGBA{R: 200, A: 255}
	default:
		return color.NRGBA{R: 200, B: 200, A: 255}
	}
}

func (p *Printer) block(c color.NRGBA) string {
	if !p.colors {
		return ""
	}
	return ansi256.Default.Block(c)
}

func (p *Printer) reset() string {
	if !p.colors {
		return ""
	}
	return "\033[0m"
}

// DumpBitseqLog prints the rolling 8-entry transfer log, oldest first, one
// line per entry, each prefixed with a color block matching its ACK.
func (p *Printer) DumpBitseqLog(c *dap.Core) {
	for _, e := range c.BitseqLog() {
		kind := "DP"
		if e.IsAP {
			kind = "AP"
		}
		dir := "W"
		if e.IsRead {
			dir = "R"
		}
		fmt.Fprintf(p.w, "%s %s%s a32=%d data=%#08x ack=%s%s\n",
			p.block(ackColor(e.Ack)), kind, dir, e.A32, e.Data, e.Ack, p.reset())
	}
}

// DumpCounters prints the cumulative transfer counters.
func (p *Printer) DumpCounters(c *dap.Core) {
	cnt := c.Counters
	fmt.Fprintf(p.w, "xfers=%d waits=%d faults=%d parity_err=%d protocol_err=%d write_ap_retries=%d nacks=%d\n",
		cnt.BitseqXfersTotal, cnt.Waits, cnt.Faults, cnt.ParityErrors, cnt.ProtocolErrors, cnt.WriteAPRetries, cnt.Nacks)
}
