// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package dap implements the ARM ADIv5 DP/AP register model on top of the
// raw bit-banged transfers provided by package swd.
//
// Core is the single piece of process-wide state a CMSIS-DAP probe carries:
// the cached DP.SELECT and MEM-AP TAR register shadows, retry counters and
// a rolling log of the last few wire transfers. There is exactly one Core
// per connected target; nothing here is safe to share between goroutines,
// matching the single-threaded, cooperative dispatcher it is built for.
package dap

import "github.com/stoyan-shopov/vx-cmsis-dap/swd"

// Debug port register a32 selectors (address bits [3:2]). Some addresses
// are shared between two registers; which one is accessed is determined by
// the access direction (IDCODE/ABORT) or by the CTRLSEL bit cached in
// SELECT (CTRLSTAT/WCR).
const (
	DPIDCode   = 0 // read-only
	DPAbort    = 0 // write-only
	DPCtrlStat = 1 // CTRLSEL == 0
	DPWcr      = 1 // CTRLSEL == 1
	DPResend   = 2 // read-only
	DPSelect   = 2 // write-only
	DPRdBuff   = 3 // read-only
)

// MEM-AP register byte addresses within the banked AP register space.
const (
	APCSW  = 0x00
	APTAR  = 0x04
	APDRW  = 0x0c
	APBD0  = 0x10
	APBD1  = 0x14
	APBD2  = 0x18
	APBD3  = 0x1c
	APCFG  = 0xf4
	APBASE = 0xf8
)

// CTRLSTAT sticky-error bits that trigger bus-reset + ABORT recovery at the
// MEM-AP layer: STICKYORUN(1), STICKYCMP(4), STICKYERR(5), WDATAERR(7).
const ctrlStatStickyErrorMask = 1<<1 | 1<<4 | 1<<5 | 1<<7

// abortClearSticky is the ABORT register value that clears STKCMP, STKERR,
// WDERR and ORUNERR in one write.
const abortClearSticky = 0x1e

// maxAPTransferRetries bounds the mem-ap sticky-error recovery loop.
const maxAPTransferRetries = 4

// maxHeaderWaitRetries bounds the per-header WAIT retry loop issued
// directly around clock_header_out_get_ack (used by the raw AP word
// transfer helpers); it mirrors the original firmware's retry_cnt<4.
const maxHeaderWaitRetries = 4

// maxPostedReadRetries bounds the RDBUFF/SELECT-flush WAIT drain loops.
// These are bus-level handshakes expected to resolve within a handful of
// cycles; an unbounded loop would hang the dispatcher forever against a
// disconnected or wedged target.
const maxPostedReadRetries = 64

// BitseqLogEntry records one attempted serial-wire packet, for host-side
// debugging only; it plays no part in any correctness invariant.
type BitseqLogEntry struct {
	IsAP   bool
	IsRead bool
	A32    int
	Data   uint32
	Ack    swd.ACK
}

// Counters are monotone event counts, reset on every Connect.
type Counters struct {
	BitseqXfersTotal int
	Waits            int
	Faults           int
	ParityErrors     int
	ProtocolErrors   int
	WriteAPRetries   int
	Nacks            int
}
