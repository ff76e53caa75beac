// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package swd bit-bangs the ARM Serial Wire Debug two-wire protocol over a
// pair of GPIO pins.
//
// It is organized the same way a bit-banged bus driver in conn/ would be: a
// PinDriver owns the two (or three, counting nRESET) physical pins and the
// half-cycle delay, and an Engine built on top of it knows the SWD packet
// shapes. Callers that need the DP/AP register model sit one layer above,
// in package dap.
package swd

import "fmt"

// ACK is the 3-bit acknowledge value returned in the acknowledge phase of a
// serial wire packet.
type ACK uint8

// Acceptable acknowledge values. Any other 3-bit pattern observed on the
// wire is folded into ProtocolError by the caller.
const (
	ACKOk            ACK = 1
	ACKWait          ACK = 2
	ACKFault         ACK = 4
	ACKProtocolError ACK = 7
)

func (a ACK) String() string {
	switch a {
	case ACKOk:
		return "OK"
	case ACKWait:
		return "WAIT"
	case ACKFault:
		return "FAULT"
	case ACKProtocolError:
		return "PROTOCOL_ERROR"
	default:
		return fmt.Sprintf("ACK(%d)", uint8(a))
	}
}

// Normalize folds any ACK value other than OK/WAIT/FAULT to ProtocolError,
// per the bitseq_xfer contract.
func Normalize(a ACK) ACK {
	switch a {
	case ACKOk, ACKWait, ACKFault:
		return a
	default:
		return ACKProtocolError
	}
}
