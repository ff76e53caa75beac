// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// vx-cmsis-dap runs the CMSIS-DAP probe firmware on a Linux SBC: it bit-bangs
// SWD over two GPIO pins and a USB HID gadget character device carries the
// 64-byte CMSIS-DAP request/response reports.
package main

import (
	"flag"
	"fmt"
	"io/ioutil"
	"log"
	"os"

	"github.com/stoyan-shopov/vx-cmsis-dap/conn/gpio"
	"github.com/stoyan-shopov/vx-cmsis-dap/conn/gpio/gpioreg"
	swdpin "github.com/stoyan-shopov/vx-cmsis-dap/conn/swd"
	"github.com/stoyan-shopov/vx-cmsis-dap/dap"
	"github.com/stoyan-shopov/vx-cmsis-dap/dapdispatch"
	"github.com/stoyan-shopov/vx-cmsis-dap/diag"
	"github.com/stoyan-shopov/vx-cmsis-dap/host"
	"github.com/stoyan-shopov/vx-cmsis-dap/swd"
	"github.com/stoyan-shopov/vx-cmsis-dap/transport"
)

func mainImpl() error {
	swdioName := flag.String("swdio", "", "GPIO pin name or number to use for SWDIO")
	swclkName := flag.String("swclk", "", "GPIO pin name or number to use for SWCLK")
	nresetName := flag.String("nreset", "", "GPIO pin name or number to use for nRESET; empty disables target reset control")
	hidgPath := flag.String("hidg", "/dev/hidg0", "HID gadget character device to serve CMSIS-DAP reports on")
	idleCycles := flag.Int("idle-cycles", 0, "busy-loop iterations per SWCLK half cycle; 0 uses the package default calibration")
	verbose := flag.Bool("v", false, "verbose mode")
	diagEvery := flag.Int("diag-every", 0, "print the bitseq log and counters every N processed requests; 0 disables")
	flag.Parse()

	if !*verbose {
		log.SetOutput(ioutil.Discard)
	}
	log.SetFlags(log.Lmicroseconds)

	if *swdioName == "" || *swclkName == "" {
		return fmt.Errorf("-swdio and -swclk are required")
	}

	if _, err := host.Init(); err != nil {
		return err
	}

	swdioPin := gpioreg.ByName(*swdioName)
	if swdioPin == nil {
		return fmt.Errorf("no such pin: %s", *swdioName)
	}
	swclkPin := gpioreg.ByName(*swclkName)
	if swclkPin == nil {
		return fmt.Errorf("no such pin: %s", *swclkName)
	}
	var nresetPin gpio.PinIO
	if *nresetName != "" {
		nresetPin = gpioreg.ByName(*nresetName)
		if nresetPin == nil {
			return fmt.Errorf("no such pin: %s", *nresetName)
		}
	}
	if *verbose {
		log.Printf("pins: SWDIO=%s(%s) SWCLK=%s(%s)", swdioPin, swdpin.SWDIO, swclkPin, swdpin.SWCLK)
	}

	cycles := *idleCycles
	if cycles == 0 {
		cycles = defaultIdleCycles
	}
	pin, err := swd.NewPinDriver(swdioPin, swclkPin, nresetPin, cycles)
	if err != nil {
		return err
	}
	engine := swd.NewEngine(pin)
	core := dap.NewCore(engine)
	if *verbose {
		core.DebugLog = func(format string, args ...interface{}) { log.Printf(format, args...) }
	}

	disp := dapdispatch.NewDispatcher(core)
	// LPC175x boot-block write after nRESET is released: AP TAR=0x400FC040,
	// then AP DRW=1.
	disp.PostReset = func(c *dap.Core) error {
		if _, err := c.WriteAP(dap.APTAR, 0x400FC040); err != nil {
			return err
		}
		_, err := c.WriteAP(dap.APDRW, 1)
		return err
	}

	t, err := transport.OpenHIDG(*hidgPath)
	if err != nil {
		return err
	}
	defer t.Close()

	var printer *diag.Printer
	if *diagEvery > 0 {
		printer = diag.NewStdout()
	}

	count := 0
	for {
		req, err := t.ReadRequest()
		if err != nil {
			return err
		}
		resp := disp.Process(req)
		if err := t.WriteResponse(resp); err != nil {
			return err
		}
		count++
		if printer != nil && count%(*diagEvery) == 0 {
			printer.DumpBitseqLog(core)
			printer.DumpCounters(core)
		}
	}
}

// defaultIdleCycles is a conservative starting calibration for a
// bit-banged half SWCLK cycle on a modest Linux SBC; boards that need a
// different rate pass -idle-cycles explicitly.
const defaultIdleCycles = 50

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "vx-cmsis-dap: %s.\n", err)
		os.Exit(1)
	}
}
