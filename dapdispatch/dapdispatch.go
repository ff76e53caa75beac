// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package dapdispatch parses CMSIS-DAP request packets and dispatches them
// against a dap.Core, producing the matching 64-byte response packet.
package dapdispatch

import (
	"encoding/binary"

	"github.com/stoyan-shopov/vx-cmsis-dap/dap"
)

// Command IDs, byte 0 of every request and response.
const (
	idInfo              = 0x00
	idLED               = 0x01
	idConnect           = 0x02
	idDisconnect        = 0x03
	idTransferConfigure = 0x04
	idTransfer          = 0x05
	idTransferBlock     = 0x06
	idTransferAbort     = 0x07
	idWriteABORT        = 0x08
	idDelay             = 0x09
	idResetTarget       = 0x0a
	idSWJPins           = 0x10
	idSWJClock          = 0x11
	idSWJSequence       = 0x12
	idSWDConfigure      = 0x13
	idJTAGSequence      = 0x14
	idJTAGConfigure     = 0x15
	idJTAGIDCode        = 0x16
)

// Info sub-command IDs (byte 1 of an Info request).
const (
	infoVendorID        = 0x01
	infoProductID       = 0x02
	infoSerialNumber    = 0x03
	infoFirmwareVersion = 0x04
	infoTargetVendor    = 0x05
	infoTargetName      = 0x06
	infoCapabilities    = 0xf0
	infoMaxPacketCount  = 0xfe
	infoMaxPacketSize   = 0xff
)

// Port numbers for Connect.
const (
	portDefault = 0
	portSWD     = 1
	portJTAG    = 2
)

// Generic status bytes.
const (
	statusOK    = 0x00
	statusError = 0xff
)

// Transfer request-byte bit layout.
const (
	xferAPnDP          = 1 << 0
	xferRnW            = 1 << 1
	xferA32Shift       = 2
	xferValueMatch     = 1 << 4
	xferMatchMaskWrite = 1 << 5
)

const packetSize = 64

// PostResetHook, if non-nil, runs after SWJ_Pins deasserts nRESET and
// re-initializes the SWD hardware — this is where board-specific boot
// configuration (e.g. remapping the boot block) is applied. It receives
// the Core so it can issue DP/AP transfers of its own.
type PostResetHook func(c *dap.Core) error

// Dispatcher turns 64-byte CMSIS-DAP requests into responses against a
// single dap.Core.
type Dispatcher struct {
	Core *dap.Core

	// PostReset applies vendor-specific bring-up after SWJ_Pins brings
	// nRESET high. Defaults to nil (no quirk).
	PostReset PostResetHook

	// writeMatchMask is the sticky mask set by a previous write-match-mask
	// transfer within an ID_DAP_Transfer command; CMSIS-DAP defines it as
	// persisting across Transfer commands, matching the original
	// firmware's static local. It starts as all ones, so a value-match read
	// compares all 32 bits until a write-match-mask transfer changes it.
	writeMatchMask uint32
}

// NewDispatcher wraps a dap.Core.
func NewDispatcher(core *dap.Core) *Dispatcher {
	return &Dispatcher{Core: core, writeMatchMask: 0xffffffff}
}

// Process parses one 64-byte request packet and returns the matching
// 64-byte response packet. An unrecognized command id is not fatal: it
// replies with the echoed command id and a generic error status, never
// hangs the dispatcher.
func (d *Dispatcher) Process(req []byte) []byte {
	resp := make([]byte, packetSize)
	if len(req) == 0 {
		resp[0] = statusError
		return resp
	}
	cmd := req[0]
	resp[0] = cmd

	switch cmd {
	case idInfo:
		d.handleInfo(req, resp)
	case idConnect:
		d.handleConnect(req, resp)
	case idDisconnect, idSWJClock, idTransferConfigure, idSWDConfigure, idLED, idSWJSequence, idDelay, idResetTarget, idTransferAbort:
		resp[1] = statusOK
	case idWriteABORT:
		d.handleWriteABORT(req, resp)
	case idSWJPins:
		d.handleSWJPins(req, resp)
	case idTransfer:
		d.handleTransfer(req, resp)
	case idTransferBlock:
		d.handleTransferBlock(req, resp)
	default:
		resp[1] = statusError
	}
	return resp
}

func (d *Dispatcher) handleInfo(req, resp []byte) {
	var infoID byte
	if len(req) > 1 {
		infoID = req[1]
	}
	switch infoID {
	case infoVendorID, infoProductID, infoSerialNumber, infoFirmwareVersion, infoTargetVendor, infoTargetName:
		resp[1] = 0
	case infoMaxPacketSize:
		resp[1] = 2
		binary.LittleEndian.PutUint16(resp[2:4], packetSize)
	case infoMaxPacketCount:
		resp[1] = 1
		resp[2] = 1
	case infoCapabilities:
		resp[1] = 1
		resp[2] = 1 // bit 0: SWD supported
	default:
		resp[1] = 0
	}
}

func (d *Dispatcher) handleConnect(req, resp []byte) {
	var port byte
	if len(req) > 1 {
		port = req[1]
	}
	if port != portSWD && port != portDefault {
		resp[1] = 0
		return
	}
	if err := d.Core.Connect(); err != nil {
		resp[1] = 0
		return
	}
	resp[1] = portSWD
}

func (d *Dispatcher) handleWriteABORT(req, resp []byte) {
	var value uint32
	if len(req) >= 6 {
		value = binary.LittleEndian.Uint32(req[2:6])
	}
	d.Core.WriteDP(dap.DPAbort, value)
	resp[1] = statusOK
}

// nResetBit is bit 7 of SWJ_Pins' pin_select/pin_output, carrying the
// nSRESET line.
const nResetBit = 1 << 7

func (d *Dispatcher) handleSWJPins(req, resp []byte) {
	var pinOutput, pinSelect byte
	if len(req) > 1 {
		pinOutput = req[1]
	}
	if len(req) > 2 {
		pinSelect = req[2]
	}
	if pinSelect&nResetBit != 0 {
		deasserted := pinOutput&nResetBit != 0
		d.Core.ResetPinDrive(deasserted)
		if deasserted {
			if err := d.Core.ResetBus(); err == nil && d.PostReset != nil {
				d.PostReset(d.Core)
			}
		}
	}
	resp[1] = pinOutput
}

func fetchData(b []byte) uint32    { return binary.LittleEndian.Uint32(b) }
func storeData(b []byte, v uint32) { binary.LittleEndian.PutUint32(b, v) }

// remapProtocolError turns a raw swd.ACK value into the 3-bit
// transfer_response field a CMSIS-DAP host expects: ProtocolError (7) is
// not a valid wire ACK value for a host to see, so it is reported as
// FAULT with bit 3 set instead, per §4.4's error-mapping rule.
func remapProtocolError(raw uint8) uint8 {
	const ackProtocolError = 7
	const ackFault = 4
	if raw == ackProtocolError {
		return ackFault | 1<<3
	}
	return raw
}

func (d *Dispatcher) handleTransfer(req, resp []byte) {
	if len(req) < 3 {
		resp[1] = statusError
		return
	}
	dapIndex := req[1]
	_ = dapIndex // ignored for swd
	transferCount := int(req[2])
	in := req[3:]
	out := resp[3:]
	outPos := 0

	executed := 0
	var lastAck uint8 = 1 // swd.ACKOk

	for i := 0; i < transferCount; i++ {
		if len(in) < 1 {
			break
		}
		reqByte := in[0]
		in = in[1:]
		isAP := reqByte&xferAPnDP != 0
		isRead := reqByte&xferRnW != 0
		a32 := int((reqByte >> xferA32Shift) & 3)

		if isRead {
			if reqByte&xferValueMatch != 0 {
				if len(in) < 4 {
					break
				}
				matchValue := fetchData(in)
				in = in[4:]
				for {
					var val uint32
					var ack uint8
					var err error
					if isAP {
						v, a, e := d.Core.ReadAP(a32 << 2)
						val, ack, err = v, uint8(a), e
					} else {
						v, a, e := d.Core.ReadDP(a32)
						val, ack, err = v, uint8(a), e
					}
					lastAck = ack
					if err != nil || ack != 1 {
						lastAck = remapProtocolError(lastAck)
						goto done
					}
					if val&d.writeMatchMask == matchValue {
						break
					}
				}
				executed++
				continue
			}
			var val uint32
			var ack uint8
			var err error
			if isAP {
				v, a, e := d.Core.ReadAP(a32 << 2)
				val, ack, err = v, uint8(a), e
			} else {
				v, a, e := d.Core.ReadDP(a32)
				val, ack, err = v, uint8(a), e
			}
			lastAck = ack
			if outPos+4 <= len(out) {
				storeData(out[outPos:outPos+4], val)
				outPos += 4
			}
			if err != nil || ack != 1 {
				lastAck = remapProtocolError(lastAck)
				break
			}
		} else {
			if reqByte&xferMatchMaskWrite != 0 {
				if len(in) < 4 {
					break
				}
				d.writeMatchMask = fetchData(in)
				in = in[4:]
				executed++
				continue
			}
			if len(in) < 4 {
				break
			}
			val := fetchData(in)
			in = in[4:]
			var ack uint8
			var err error
			if isAP {
				a, e := d.Core.WriteAP(a32<<2, val)
				ack, err = uint8(a), e
			} else {
				a, e := d.Core.WriteDP(a32, val)
				ack, err = uint8(a), e
			}
			lastAck = ack
			if err != nil || ack != 1 {
				lastAck = remapProtocolError(lastAck)
				break
			}
		}
		executed++
	}
done:
	resp[1] = byte(executed)
	resp[2] = lastAck
	if lastAck != 1 {
		d.Core.Connect()
	}
}

func (d *Dispatcher) handleTransferBlock(req, resp []byte) {
	if len(req) < 6 {
		resp[1] = statusError
		return
	}
	dapIndex := req[1]
	_ = dapIndex
	count := int(binary.LittleEndian.Uint16(req[2:4]))
	reqByte := req[4]
	isAP := reqByte&xferAPnDP != 0
	isRead := reqByte&xferRnW != 0
	a32 := int((reqByte >> xferA32Shift) & 3)

	in := req[5:]
	out := resp[4:]
	outPos := 0
	executed := 0
	var lastAck uint8 = 1

	for i := 0; i < count; i++ {
		if isRead {
			var val uint32
			var ack uint8
			var err error
			if isAP {
				v, a, e := d.Core.ReadAP(a32 << 2)
				val, ack, err = v, uint8(a), e
			} else {
				v, a, e := d.Core.ReadDP(a32)
				val, ack, err = v, uint8(a), e
			}
			lastAck = ack
			if outPos+4 <= len(out) {
				storeData(out[outPos:outPos+4], val)
				outPos += 4
			}
			executed++
			if err != nil || ack != 1 {
				lastAck = remapProtocolError(lastAck)
				break
			}
		} else {
			if len(in) < 4 {
				break
			}
			val := fetchData(in)
			in = in[4:]
			var ack uint8
			var err error
			if isAP {
				a, e := d.Core.WriteAP(a32<<2, val)
				ack, err = uint8(a), e
			} else {
				a, e := d.Core.WriteDP(a32, val)
				ack, err = uint8(a), e
			}
			lastAck = ack
			executed++
			if err != nil || ack != 1 {
				lastAck = remapProtocolError(lastAck)
				break
			}
		}
	}
	binary.LittleEndian.PutUint16(resp[1:3], uint16(executed))
	resp[3] = lastAck
	if lastAck != 1 {
		d.Core.Connect()
	}
}
