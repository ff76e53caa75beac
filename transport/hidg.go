// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package transport

import (
	"io"
	"os"

	"github.com/stoyan-shopov/vx-cmsis-dap/host/fs"
)

// HIDG talks to a Linux USB HID gadget function's character device (e.g.
// /dev/hidg0, created by configfs' usb_gadget f_hid function). A gadget HID
// character device already presents exactly the report framing CMSIS-DAP
// wants: a Read() blocks for the next OUT report from the host, a Write()
// sends one IN report back. Device descriptor and endpoint configuration
// (VendorID, ProductID, ReportSize, the report descriptor itself) are
// configfs' job, not this package's — out of scope per this project's
// firmware boundary.
type HIDG struct {
	f fileIO
}

type fileIO interface {
	io.ReadWriteCloser
}

// OpenHIDG opens a gadget HID character device for CMSIS-DAP report
// exchange.
func OpenHIDG(path string) (*HIDG, error) {
	f, err := fs.Open(path, os.O_RDWR)
	if err != nil {
		return nil, err
	}
	return &HIDG{f: f}, nil
}

// ReadRequest implements Transport.
func (h *HIDG) ReadRequest() ([]byte, error) {
	buf := make([]byte, ReportSize)
	n, err := io.ReadFull(h.f, buf)
	if err != nil {
		return nil, err
	}
	if n != ReportSize {
		return nil, ErrShortReport
	}
	return buf, nil
}

// WriteResponse implements Transport.
func (h *HIDG) WriteResponse(resp []byte) error {
	if len(resp) != ReportSize {
		return ErrShortReport
	}
	n, err := h.f.Write(resp)
	if err != nil {
		return err
	}
	if n != ReportSize {
		return ErrShortReport
	}
	return nil
}

// Close implements Transport.
func (h *HIDG) Close() error {
	return h.f.Close()
}

var _ Transport = &HIDG{}
