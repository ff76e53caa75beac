// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package diag

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stoyan-shopov/vx-cmsis-dap/dap"
	"github.com/stoyan-shopov/vx-cmsis-dap/swd"
	"github.com/stoyan-shopov/vx-cmsis-dap/swdtest"
)

func newCore(t *testing.T) *dap.Core {
	t.Helper()
	target := swdtest.NewTarget(0x2ba01477)
	pin, err := swd.NewPinDriver(target.SWDIOPin(), target.SWCLKPin(), nil, 0)
	if err != nil {
		t.Fatalf("NewPinDriver: %v", err)
	}
	return dap.NewCore(swd.NewEngine(pin))
}

func TestDumpBitseqLogNoColors(t *testing.T) {
	c := newCore(t)
	if err := c.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if _, _, err := c.ReadDP(dap.DPIDCode); err != nil {
		t.Fatalf("ReadDP: %v", err)
	}

	var buf bytes.Buffer
	p := &Printer{w: &buf}
	p.DumpBitseqLog(c)

	out := buf.String()
	if !strings.Contains(out, "DPR") {
		t.Fatalf("expected a DP read entry in the log, got: %q", out)
	}
	if !strings.Contains(out, "ack=OK") {
		t.Fatalf("expected an OK-acked entry, got: %q", out)
	}
	if strings.Contains(out, "\033[") {
		t.Fatalf("expected no color escapes when colors is false, got: %q", out)
	}
}

func TestDumpBitseqLogColors(t *testing.T) {
	c := newCore(t)
	if err := c.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if _, _, err := c.ReadDP(dap.DPIDCode); err != nil {
		t.Fatalf("ReadDP: %v", err)
	}

	var buf bytes.Buffer
	p := &Printer{w: &buf, colors: true}
	p.DumpBitseqLog(c)

	if !strings.Contains(buf.String(), "\033[0m") {
		t.Fatal("expected a reset escape when colors is true")
	}
}

func TestDumpCounters(t *testing.T) {
	c := newCore(t)
	if err := c.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if _, _, err := c.ReadDP(dap.DPIDCode); err != nil {
		t.Fatalf("ReadDP: %v", err)
	}

	var buf bytes.Buffer
	p := &Printer{w: &buf}
	p.DumpCounters(c)

	out := buf.String()
	if !strings.HasPrefix(out, "xfers=") {
		t.Fatalf("expected counters line to start with xfers=, got: %q", out)
	}
	if strings.Contains(out, "xfers=0 ") {
		t.Fatalf("expected at least one transfer to have been counted, got: %q", out)
	}
}
