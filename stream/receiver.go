// Copyright 2024 The qrstream Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package stream

import (
	"sort"
	"strconv"
)

// A FrameResult reports the outcome of a single OnFrame call, per
// the on_frame(bytes) -> {accepted, reason?, seq?} contract: Reason
// is set only when Accepted is false, and Seq is meaningful only when
// HasSeq is true, which holds for every accepted frame and for a
// checksum-failing one (not for a short or bad-magic frame).
type FrameResult struct {
	Accepted bool
	Reason   string
	Seq      uint16
	HasSeq   bool
}

// A Receiver accumulates frames of a transfer, re-emitting progress
// and completion callbacks as frames arrive, idempotent with respect
// to duplicate frames.
type Receiver struct {
	total          int
	have           map[uint16][]byte
	checksumErrors map[uint16]bool
	complete       bool

	// OnProgress is called after each newly accepted frame with the
	// number of distinct frames received so far and the expected
	// total.  It is never called after OnComplete fires.
	OnProgress func(received, total int)

	// OnComplete is called exactly once, after the frame completing
	// the transfer is accepted, with the reassembled payload.
	OnComplete func(payload []byte)
}

// NewReceiver returns an empty Receiver.
func NewReceiver() *Receiver {
	return &Receiver{have: make(map[uint16][]byte), checksumErrors: make(map[uint16]bool)}
}

// ChecksumErrors returns the number of distinct sequence numbers
// seen so far that failed their checksum.
func (r *Receiver) ChecksumErrors() int { return len(r.checksumErrors) }

// ChecksumErrorSeqs returns the sequence numbers that have failed
// their checksum, in ascending order, so a higher layer can target a
// retransmit request at frames known to be corrupted rather than
// only at frames that never arrived.
func (r *Receiver) ChecksumErrorSeqs() []uint16 {
	seqs := make([]uint16, 0, len(r.checksumErrors))
	for seq := range r.checksumErrors {
		seqs = append(seqs, seq)
	}
	sort.Slice(seqs, func(i, j int) bool { return seqs[i] < seqs[j] })
	return seqs
}

// OnFrame processes one raw, wire-form packet and reports the
// outcome.  Malformed and checksum-failing packets are discarded, and
// the seq of a checksum-failing packet is recorded; OnFrame never panics or returns an error, matching the
// protocol's no-acknowledgement-of-garbage design — the caller
// decides whether and how to act on a rejected frame.
func (r *Receiver) OnFrame(raw []byte) FrameResult {
	pkt, err := Unmarshal(raw)
	switch err {
	case nil:
		return r.onPacket(pkt)
	case ErrChecksum:
		r.checksumErrors[pkt.Seq] = true
		return FrameResult{Accepted: false, Reason: "checksum", Seq: pkt.Seq, HasSeq: true}
	default:
		return FrameResult{Accepted: false, Reason: "invalid"}
	}
}

func (r *Receiver) onPacket(pkt *Packet) FrameResult {
	result := FrameResult{Accepted: true, Seq: pkt.Seq, HasSeq: true}
	if r.complete || pkt.Has(FlagAck) || pkt.Has(FlagRetransmit) {
		return result
	}
	if r.total == 0 {
		r.total = int(pkt.Total)
	}
	if _, dup := r.have[pkt.Seq]; dup {
		return result
	}
	r.have[pkt.Seq] = pkt.Payload
	if r.OnProgress != nil {
		r.OnProgress(len(r.have), r.total)
	}
	if len(r.have) == r.total && r.total > 0 {
		r.complete = true
		if r.OnComplete != nil {
			r.OnComplete(r.assemble())
		}
	}
	return result
}

func (r *Receiver) assemble() []byte {
	var out []byte
	for seq := uint16(0); int(seq) < r.total; seq++ {
		out = append(out, r.have[seq]...)
	}
	return out
}

// Missing returns the sequence numbers not yet received, in
// ascending order.  It returns nil once the transfer is complete or
// before the total frame count is known.
func (r *Receiver) Missing() []uint16 {
	if r.complete || r.total == 0 {
		return nil
	}
	var missing []uint16
	for seq := uint16(0); int(seq) < r.total; seq++ {
		if _, ok := r.have[seq]; !ok {
			missing = append(missing, seq)
		}
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
	return missing
}

// NACK builds the retransmit-request packet for the currently
// missing sequence numbers: seq=0, total=0, FlagRetransmit set, and a
// payload of the missing sequence numbers as ASCII decimal, comma
// joined.
func (r *Receiver) NACK() *Packet {
	missing := r.Missing()
	var payload []byte
	for i, seq := range missing {
		if i > 0 {
			payload = append(payload, ',')
		}
		payload = append(payload, []byte(strconv.Itoa(int(seq)))...)
	}
	return &Packet{Flags: FlagRetransmit, Payload: payload}
}

// ParseNACK extracts the missing sequence numbers from a
// FlagRetransmit packet's payload.
func ParseNACK(pkt *Packet) []uint16 {
	if !pkt.Has(FlagRetransmit) || len(pkt.Payload) == 0 {
		return nil
	}
	var out []uint16
	start := 0
	for i := 0; i <= len(pkt.Payload); i++ {
		if i == len(pkt.Payload) || pkt.Payload[i] == ',' {
			if i > start {
				n, err := strconv.Atoi(string(pkt.Payload[start:i]))
				if err == nil {
					out = append(out, uint16(n))
				}
			}
			start = i + 1
		}
	}
	return out
}
