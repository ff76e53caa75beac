// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package swd_test

import (
	"testing"

	"github.com/stoyan-shopov/vx-cmsis-dap/conn/gpio"
	"github.com/stoyan-shopov/vx-cmsis-dap/conn/gpio/gpiotest"
	"github.com/stoyan-shopov/vx-cmsis-dap/swd"
)

func TestNewPinDriverRejectsNegativeIdleCycles(t *testing.T) {
	swdio := &gpiotest.Pin{N: "SWDIO"}
	swclk := &gpiotest.Pin{N: "SWCLK"}
	if _, err := swd.NewPinDriver(swdio, swclk, nil, -1); err == nil {
		t.Fatal("expected an error for a negative idleCycles")
	}
}

func TestNewPinDriverDrivesClockHighAndSWDIOOutput(t *testing.T) {
	swdio := &gpiotest.Pin{N: "SWDIO"}
	swclk := &gpiotest.Pin{N: "SWCLK"}
	if _, err := swd.NewPinDriver(swdio, swclk, nil, 0); err != nil {
		t.Fatalf("NewPinDriver: %v", err)
	}
	if swclk.Read() != gpio.High {
		t.Fatal("expected SWCLK to be left idle-high after setup")
	}
	if swdio.Read() != gpio.High {
		t.Fatal("expected SWDIO to be left driven high after setup")
	}
}

func TestNewPinDriverDeassertsResetWhenPresent(t *testing.T) {
	swdio := &gpiotest.Pin{N: "SWDIO"}
	swclk := &gpiotest.Pin{N: "SWCLK"}
	nreset := &gpiotest.Pin{N: "NRESET"}
	if _, err := swd.NewPinDriver(swdio, swclk, nreset, 0); err != nil {
		t.Fatalf("NewPinDriver: %v", err)
	}
	if nreset.Read() != gpio.High {
		t.Fatal("expected nRESET to be deasserted (high) after setup")
	}
}

func TestPinDriverSWDIODirectionSwitch(t *testing.T) {
	swdio := &gpiotest.Pin{N: "SWDIO"}
	swclk := &gpiotest.Pin{N: "SWCLK"}
	p, err := swd.NewPinDriver(swdio, swclk, nil, 0)
	if err != nil {
		t.Fatalf("NewPinDriver: %v", err)
	}

	if err := p.SwdioLow(); err != nil {
		t.Fatalf("SwdioLow: %v", err)
	}
	if swdio.Read() != gpio.Low {
		t.Fatal("expected SWDIO driven low")
	}

	if err := p.SetSWDIOInput(); err != nil {
		t.Fatalf("SetSWDIOInput: %v", err)
	}
	// A pulled-up, undriven input reads high.
	if !p.SwdioRead() {
		t.Fatal("expected SWDIO to read high once switched to a pulled-up input")
	}

	if err := p.SetSWDIOOutput(); err != nil {
		t.Fatalf("SetSWDIOOutput: %v", err)
	}
	if err := p.SwdioHi(); err != nil {
		t.Fatalf("SwdioHi: %v", err)
	}
	if swdio.Read() != gpio.High {
		t.Fatal("expected SWDIO driven high again after switching back to output")
	}
}

func TestPinDriverResetPinDriveNoopWithoutNreset(t *testing.T) {
	swdio := &gpiotest.Pin{N: "SWDIO"}
	swclk := &gpiotest.Pin{N: "SWCLK"}
	p, err := swd.NewPinDriver(swdio, swclk, nil, 0)
	if err != nil {
		t.Fatalf("NewPinDriver: %v", err)
	}
	if err := p.ResetPinDrive(gpio.Low); err != nil {
		t.Fatalf("ResetPinDrive with no nRESET pin configured should be a no-op, got: %v", err)
	}
}

func TestPinDriverSwclkToggle(t *testing.T) {
	swdio := &gpiotest.Pin{N: "SWDIO"}
	swclk := &gpiotest.Pin{N: "SWCLK"}
	p, err := swd.NewPinDriver(swdio, swclk, nil, 0)
	if err != nil {
		t.Fatalf("NewPinDriver: %v", err)
	}
	if err := p.SwclkLow(); err != nil {
		t.Fatalf("SwclkLow: %v", err)
	}
	if swclk.Read() != gpio.Low {
		t.Fatal("expected SWCLK driven low")
	}
	if err := p.SwclkHi(); err != nil {
		t.Fatalf("SwclkHi: %v", err)
	}
	if swclk.Read() != gpio.High {
		t.Fatal("expected SWCLK driven high")
	}
}
