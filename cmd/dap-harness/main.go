// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// dap-harness is a host-side bring-up and integration client for a
// vx-cmsis-dap probe: it opens the real USB HID device over libusb and
// replays a handful of literal CMSIS-DAP request/response scenarios,
// printing what came back.
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/gousb"

	"github.com/stoyan-shopov/vx-cmsis-dap/transport"
)

func mainImpl() error {
	serial := flag.String("serial", "", "probe serial number to match; empty matches the first probe found")
	scenario := flag.String("scenario", "connect", "scenario to run: connect, idcode, readmem=<hex addr>")
	flag.Parse()

	ctx := gousb.NewContext()
	defer ctx.Close()

	dev, err := openProbe(ctx, *serial)
	if err != nil {
		return err
	}
	defer dev.Close()

	intf, done, err := dev.DefaultInterface()
	if err != nil {
		return fmt.Errorf("dap-harness: claiming interface: %w", err)
	}
	defer done()

	epOut, err := intf.OutEndpoint(1)
	if err != nil {
		return fmt.Errorf("dap-harness: opening OUT endpoint: %w", err)
	}
	epIn, err := intf.InEndpoint(1)
	if err != nil {
		return fmt.Errorf("dap-harness: opening IN endpoint: %w", err)
	}

	c := &usbClient{out: epOut, in: epIn}

	reqs, err := scenarioRequests(*scenario)
	if err != nil {
		return err
	}
	for _, req := range reqs {
		resp, err := c.transact(req)
		if err != nil {
			return err
		}
		fmt.Printf("-> %s\n<- %s\n", hex.EncodeToString(req), hex.EncodeToString(resp))
	}
	return nil
}

// openProbe finds the first (or serial-matching) device exposing this
// probe's vendor/product ID.
func openProbe(ctx *gousb.Context, serial string) (*gousb.Device, error) {
	devs, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return desc.Vendor == gousb.ID(transport.VendorID) && desc.Product == gousb.ID(transport.ProductID)
	})
	if err != nil {
		return nil, fmt.Errorf("dap-harness: enumerating devices: %w", err)
	}
	if len(devs) == 0 {
		return nil, fmt.Errorf("dap-harness: no probe found (vid=%#04x pid=%#04x)", transport.VendorID, transport.ProductID)
	}
	if serial == "" {
		for _, d := range devs[1:] {
			d.Close()
		}
		return devs[0], nil
	}
	for _, d := range devs {
		sn, err := d.SerialNumber()
		if err == nil && sn == serial {
			for _, other := range devs {
				if other != d {
					other.Close()
				}
			}
			return d, nil
		}
	}
	for _, d := range devs {
		d.Close()
	}
	return nil, fmt.Errorf("dap-harness: no probe with serial %q found", serial)
}

// usbClient implements one request/response round trip over a pair of
// gousb endpoints, padding/truncating to transport.ReportSize exactly as
// the gadget character device would.
type usbClient struct {
	out *gousb.OutEndpoint
	in  *gousb.InEndpoint
}

func (c *usbClient) transact(req []byte) ([]byte, error) {
	buf := make([]byte, transport.ReportSize)
	copy(buf, req)
	if _, err := c.out.Write(buf); err != nil {
		return nil, fmt.Errorf("dap-harness: write: %w", err)
	}
	resp := make([]byte, transport.ReportSize)
	n, err := c.in.Read(resp)
	if err != nil {
		return nil, fmt.Errorf("dap-harness: read: %w", err)
	}
	return resp[:n], nil
}

// scenarioRequests builds the literal request byte sequences for a handful
// of canned bring-up scenarios.
func scenarioRequests(name string) ([][]byte, error) {
	switch {
	case name == "connect":
		return [][]byte{
			{0x02, 0x01}, // ID_DAP_Connect, SWD port
		}, nil
	case name == "idcode":
		return [][]byte{
			{0x02, 0x01},                         // Connect
			{0x05, 0x00, 0x01, 0x02},             // Transfer: 1 transfer, DP read reg 0 (IDCODE)
		}, nil
	case strings.HasPrefix(name, "readmem="):
		addr, err := parseHexAddr(strings.TrimPrefix(name, "readmem="))
		if err != nil {
			return nil, err
		}
		req := make([]byte, 0, 16)
		req = append(req, 0x05, 0x00, 0x01, 0x05) // Transfer: 1 transfer, AP write TAR
		req = append(req, byte(addr), byte(addr>>8), byte(addr>>16), byte(addr>>24))
		return [][]byte{
			{0x02, 0x01},
			req,
			{0x06, 0x00, 0x01, 0x00, 0x0f}, // TransferBlock: count=1, AP read DRW
		}, nil
	default:
		return nil, fmt.Errorf("dap-harness: unknown scenario %q", name)
	}
}

func parseHexAddr(s string) (uint32, error) {
	s = strings.TrimPrefix(s, "0x")
	var v uint32
	if _, err := fmt.Sscanf(s, "%x", &v); err != nil {
		return 0, fmt.Errorf("dap-harness: invalid address %q: %w", s, err)
	}
	return v, nil
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "dap-harness: %s.\n", err)
		os.Exit(1)
	}
}
