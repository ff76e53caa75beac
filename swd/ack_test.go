// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package swd_test

import (
	"testing"

	"github.com/stoyan-shopov/vx-cmsis-dap/swd"
)

func TestACKString(t *testing.T) {
	cases := []struct {
		a    swd.ACK
		want string
	}{
		{swd.ACKOk, "OK"},
		{swd.ACKWait, "WAIT"},
		{swd.ACKFault, "FAULT"},
		{swd.ACKProtocolError, "PROTOCOL_ERROR"},
		{swd.ACK(3), "ACK(3)"},
	}
	for _, c := range cases {
		if got := c.a.String(); got != c.want {
			t.Errorf("ACK(%d).String() = %q, want %q", uint8(c.a), got, c.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	valid := []swd.ACK{swd.ACKOk, swd.ACKWait, swd.ACKFault}
	for _, a := range valid {
		if got := swd.Normalize(a); got != a {
			t.Errorf("Normalize(%s) = %s, want unchanged", a, got)
		}
	}
	invalid := []swd.ACK{swd.ACKProtocolError, swd.ACK(0), swd.ACK(3), swd.ACK(5), swd.ACK(6)}
	for _, a := range invalid {
		if got := swd.Normalize(a); got != swd.ACKProtocolError {
			t.Errorf("Normalize(%s) = %s, want PROTOCOL_ERROR", a, got)
		}
	}
}
