// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package transporttest implements fakes for package transport.
package transporttest

import (
	"bytes"
	"errors"
	"fmt"
	"sync"

	"github.com/stoyan-shopov/vx-cmsis-dap/transport"
)

// IO registers one request/response report pair that happened on either a
// real or fake Transport.
type IO struct {
	Req  []byte
	Resp []byte
}

// Record implements transport.Transport that records every report pair
// exchanged through it.
//
// This can then be used to feed to Playback to do "replay" based unit
// tests.
type Record struct {
	sync.Mutex
	T   transport.Transport // T can be nil if only a fixed request sequence is being recorded.
	Ops []IO

	reqs [][]byte
	next int
}

// AddRequests queues request reports that ReadRequest will hand out in
// order, for use when T is nil.
func (r *Record) AddRequests(reqs ...[]byte) {
	r.Lock()
	defer r.Unlock()
	r.reqs = append(r.reqs, reqs...)
}

// ReadRequest implements transport.Transport.
func (r *Record) ReadRequest() ([]byte, error) {
	r.Lock()
	defer r.Unlock()
	if r.T != nil {
		return r.T.ReadRequest()
	}
	if r.next >= len(r.reqs) {
		return nil, errors.New("transporttest: no more queued requests")
	}
	req := r.reqs[r.next]
	r.next++
	return req, nil
}

// WriteResponse implements transport.Transport.
func (r *Record) WriteResponse(resp []byte) error {
	r.Lock()
	defer r.Unlock()
	if r.T != nil {
		if err := r.T.WriteResponse(resp); err != nil {
			return err
		}
	}
	var req []byte
	if r.next > 0 && r.next-1 < len(r.reqs) {
		req = r.reqs[r.next-1]
	}
	io := IO{Req: append([]byte(nil), req...), Resp: append([]byte(nil), resp...)}
	r.Ops = append(r.Ops, io)
	return nil
}

// Close implements transport.Transport.
func (r *Record) Close() error {
	if r.T != nil {
		return r.T.Close()
	}
	return nil
}

// Playback implements transport.Transport and plays back a recorded report
// flow, failing if the requests fed to it diverge from what was recorded.
type Playback struct {
	sync.Mutex
	Ops   []IO
	Count int
}

// Close verifies that all the expected Ops have been consumed.
func (p *Playback) Close() error {
	p.Lock()
	defer p.Unlock()
	if len(p.Ops) != p.Count {
		return fmt.Errorf("transporttest: expected playback to be empty: count %d; expected %d", p.Count, len(p.Ops))
	}
	return nil
}

// ReadRequest implements transport.Transport.
func (p *Playback) ReadRequest() ([]byte, error) {
	p.Lock()
	defer p.Unlock()
	if p.Count >= len(p.Ops) {
		return nil, fmt.Errorf("transporttest: unexpected ReadRequest() (count #%d)", p.Count)
	}
	return append([]byte(nil), p.Ops[p.Count].Req...), nil
}

// WriteResponse implements transport.Transport.
func (p *Playback) WriteResponse(resp []byte) error {
	p.Lock()
	defer p.Unlock()
	if p.Count >= len(p.Ops) {
		return fmt.Errorf("transporttest: unexpected WriteResponse() (count #%d)", p.Count)
	}
	if !bytes.Equal(p.Ops[p.Count].Resp, resp) {
		return fmt.Errorf("transporttest: unexpected response (count #%d) %#v != %#v", p.Count, resp, p.Ops[p.Count].Resp)
	}
	p.Count++
	return nil
}

var _ transport.Transport = &Record{}
var _ transport.Transport = &Playback{}
