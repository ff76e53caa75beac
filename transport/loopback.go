// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package transport

import "sync"

// Loopback is an in-process Transport backed by two channels, used to drive
// a dapdispatch.Dispatcher from test code or from cmd/dap-harness without a
// real USB gadget underneath.
type Loopback struct {
	mu   sync.Mutex
	reqs chan []byte
	resp chan []byte
}

// NewLoopback returns a Loopback ready for use.
func NewLoopback() *Loopback {
	return &Loopback{reqs: make(chan []byte), resp: make(chan []byte)}
}

// SendRequest feeds one request report in, to be picked up by a ReadRequest
// call on the other side.
func (l *Loopback) SendRequest(req []byte) {
	buf := make([]byte, ReportSize)
	copy(buf, req)
	l.reqs <- buf
}

// RecvResponse blocks for the response report produced by the matching
// WriteResponse call.
func (l *Loopback) RecvResponse() []byte {
	return <-l.resp
}

// ReadRequest implements Transport.
func (l *Loopback) ReadRequest() ([]byte, error) {
	return <-l.reqs, nil
}

// WriteResponse implements Transport.
func (l *Loopback) WriteResponse(resp []byte) error {
	if len(resp) != ReportSize {
		return ErrShortReport
	}
	buf := make([]byte, ReportSize)
	copy(buf, resp)
	l.resp <- buf
	return nil
}

// Close implements Transport.
func (l *Loopback) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	close(l.reqs)
	close(l.resp)
	return nil
}

var _ Transport = &Loopback{}
