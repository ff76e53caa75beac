// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package conn

import "fmt"

// Resource is the interface shared by all the objects this package's
// subpackages expose to the rest of the tree: anything holding an exclusive
// handle to a piece of hardware (a pin, a bus, a connection).
type Resource interface {
	fmt.Stringer
	// Halt stops the resource, releasing what can be released.
	//
	// It is fine to call Halt() more than once, subsequent calls should be a
	// no-op.
	Halt() error
}

// Conn defines the interface for a connection on a point-to-point
// communication channel.
//
// The channel may either be write-only or read-write, either half-duplex or
// full duplex.
//
// This is the lowest common denominator for all point-to-point communication
// channels.
//
// Implementation are expected to also implement the following interfaces:
// - fmt.Stringer which returns something meaningful to the user like "SPI0.1",
//   "I2C1.76", "COM6", etc.
// - io.Writer as an way to use io.Copy() on a write-only device.
type Conn interface {
	// Tx does a single transaction.
	//
	// For full duplex protocols (SPI, UART), the two buffers must have the same
	// length as both reading and writing happen simultaneously.
	//
	// For half duplex protocols (I²C), there is no restriction as reading
	// happens after writing, and r can be nil.
	Tx(w, r []byte) error
	// Duplex returns the current duplex setting for this connection.
	Duplex() Duplex
}

// Duplex declares whether a connection is half-duplex or full-duplex.
type Duplex int

const (
	// DuplexUnknown is used when the duplex of a connection is not known.
	DuplexUnknown Duplex = iota
	// Half denotes a half-duplex connection: a Tx() writes then reads, but
	// not simultaneously, e.g. most I²C transactions.
	Half
	// Full denotes a full-duplex connection: the two halves of a Tx() happen
	// simultaneously, e.g. SPI.
	Full
)

func (d Duplex) String() string {
	switch d {
	case Half:
		return "Half"
	case Full:
		return "Full"
	default:
		return fmt.Sprintf("Duplex(%d)", int(d))
	}
}
