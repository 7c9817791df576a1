// Copyright 2024 The qrstream Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package stream

import "errors"

// DefaultChunkSize is the default payload size per frame, chosen to
// keep the resulting QR symbol at a scannable version/EC-level
// combination.
const DefaultChunkSize = 1800

// ErrTooManyChunks is returned by NewSender if data would split into
// more than 65535 frames.
var ErrTooManyChunks = errors.New("stream: data requires too many frames for a uint16 sequence")

// A Sender holds a payload split into fixed-size chunks and emits
// them as Packets, serving retransmission requests ahead of the
// normal sequence.
type Sender struct {
	chunks    [][]byte
	next      int
	retransmit []uint16
	started   bool
	stopped   bool
}

// NewSender splits data into chunks of chunkSize bytes (DefaultChunkSize
// if chunkSize <= 0) and returns a Sender ready to emit them.
func NewSender(data []byte, chunkSize int) (*Sender, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	var chunks [][]byte
	for i := 0; i < len(data); i += chunkSize {
		end := i + chunkSize
		if end > len(data) {
			end = len(data)
		}
		chunks = append(chunks, data[i:end])
	}
	if len(chunks) == 0 {
		chunks = [][]byte{{}}
	}
	if len(chunks) > 1<<16-1 {
		return nil, ErrTooManyChunks
	}
	return &Sender{chunks: chunks}, nil
}

// Start marks the sender ready to emit frames, resetting its cursor
// to the beginning.
func (s *Sender) Start() {
	s.started = true
	s.stopped = false
	s.next = 0
	s.retransmit = nil
}

// Stop halts further frame emission; Next returns ok=false after
// Stop until Start is called again.
func (s *Sender) Stop() { s.stopped = true }

// Reset is an alias of Start.
func (s *Sender) Reset() { s.Start() }

// Total returns the number of frames the payload splits into.
func (s *Sender) Total() int { return len(s.chunks) }

// RequestRetransmit queues seq to be sent ahead of the next
// monotonic frame.  Invalid sequence numbers are ignored.
func (s *Sender) RequestRetransmit(seqs []uint16) {
	for _, seq := range seqs {
		if int(seq) < len(s.chunks) {
			s.retransmit = append(s.retransmit, seq)
		}
	}
}

// Next returns the next Packet to transmit: a queued retransmission
// if one is pending, otherwise the next frame in monotonic sequence
// order.  ok is false once every frame has been sent and no
// retransmission is pending, or after Stop.
func (s *Sender) Next() (pkt *Packet, ok bool) {
	if s.stopped {
		return nil, false
	}
	if len(s.retransmit) > 0 {
		seq := s.retransmit[0]
		s.retransmit = s.retransmit[1:]
		return s.frame(seq), true
	}
	if s.next >= len(s.chunks) {
		return nil, false
	}
	seq := s.next
	s.next++
	return s.frame(uint16(seq)), true
}

func (s *Sender) frame(seq uint16) *Packet {
	var flags Flags
	if seq == 0 {
		flags |= FlagFirst
	}
	if int(seq) == len(s.chunks)-1 {
		flags |= FlagLast
	}
	return &Packet{
		Seq:     seq,
		Total:   uint16(len(s.chunks)),
		Flags:   flags,
		Payload: s.chunks[seq],
	}
}
