// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hostenum

import (
	"fmt"
	"strings"

	"github.com/StackExchange/wmi"
)

// win32PnPEntity mirrors the WMI Win32_PnPEntity class fields this package
// reads. https://msdn.microsoft.com/en-us/library/aa394353.aspx
type win32PnPEntity struct {
	DeviceID string
	PNPClass string
}

// pnpIDSubstring is the USB hardware ID fragment Windows reports for this
// probe's vendor/product pair, matching transport.VendorID/ProductID.
const pnpIDSubstring = "VID_1AD4&PID_A000"

// List enumerates CMSIS-DAP probes currently plugged into the host via a
// WMI query against Win32_PnPEntity, filtered to this probe's hardware ID.
func List() ([]Device, error) {
	var entities []win32PnPEntity
	if err := wmi.Query("SELECT DeviceID, PNPClass FROM Win32_PnPEntity", &entities); err != nil {
		return nil, fmt.Errorf("hostenum: wmi query failed: %w", err)
	}
	var out []Device
	for _, e := range entities {
		if !strings.Contains(strings.ToUpper(e.DeviceID), pnpIDSubstring) {
			continue
		}
		out = append(out, Device{Path: e.DeviceID})
	}
	return out, nil
}
