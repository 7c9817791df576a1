// Copyright 2024 The qrstream Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package stream implements the packet framing and sender/receiver
state machines used to carry an arbitrary payload across a sequence
of QR codes.
*/
package stream

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Magic identifies a qrstream packet.
var Magic = [2]byte{'Q', 'S'}

// HeaderSize is the fixed size in bytes of a packet header.
const HeaderSize = 9

// Flags is a bitset of packet control flags.
type Flags uint8

const (
	FlagFirst       Flags = 1 << iota // first data frame of the transfer
	FlagLast                          // last data frame of the transfer
	FlagRetransmit                    // payload lists missing sequence numbers (NACK)
	FlagAck                           // acknowledges receipt with no payload
)

// A Packet is one frame of the stream protocol: a 9-byte header
// followed by its payload.
type Packet struct {
	Seq     uint16
	Total   uint16
	Flags   Flags
	Payload []byte
}

// ErrShortPacket is returned by Unmarshal when data is too small to
// hold a header.
var ErrShortPacket = errors.New("stream: packet shorter than header")

// ErrBadMagic is returned by Unmarshal when the magic bytes do not
// match.
var ErrBadMagic = errors.New("stream: bad magic bytes")

// ErrChecksum is returned by Unmarshal when the CRC-16 does not
// validate.
var ErrChecksum = errors.New("stream: checksum mismatch")

// Marshal serializes p into its wire form: magic, seq, total, flags,
// crc16, payload.
func (p *Packet) Marshal() []byte {
	buf := make([]byte, HeaderSize+len(p.Payload))
	buf[0], buf[1] = Magic[0], Magic[1]
	binary.BigEndian.PutUint16(buf[2:4], p.Seq)
	binary.BigEndian.PutUint16(buf[4:6], p.Total)
	buf[6] = byte(p.Flags)
	copy(buf[HeaderSize:], p.Payload)
	crc := CRC16(buf[HeaderSize:])
	binary.BigEndian.PutUint16(buf[7:9], crc)
	return buf
}

// Unmarshal parses a wire-form packet, validating its magic bytes
// and checksum.  On a checksum failure it still returns a non-nil
// *Packet with Seq/Total/Flags populated (but no Payload) alongside
// ErrChecksum, so a caller can identify which sequence number was
// corrupted, e.g. to target a retransmit request at it.
func Unmarshal(data []byte) (*Packet, error) {
	if len(data) < HeaderSize {
		return nil, ErrShortPacket
	}
	if data[0] != Magic[0] || data[1] != Magic[1] {
		return nil, ErrBadMagic
	}
	p := &Packet{
		Seq:   binary.BigEndian.Uint16(data[2:4]),
		Total: binary.BigEndian.Uint16(data[4:6]),
		Flags: Flags(data[6]),
	}
	wantCRC := binary.BigEndian.Uint16(data[7:9])
	payload := data[HeaderSize:]
	if CRC16(payload) != wantCRC {
		return p, ErrChecksum
	}
	if len(payload) > 0 {
		p.Payload = append([]byte(nil), payload...)
	}
	return p, nil
}

// Has reports whether p has every flag in want set.
func (p *Packet) Has(want Flags) bool { return p.Flags&want == want }

func (f Flags) String() string {
	var s string
	for _, pair := range []struct {
		f Flags
		c byte
	}{{FlagFirst, 'F'}, {FlagLast, 'L'}, {FlagRetransmit, 'R'}, {FlagAck, 'A'}} {
		if f&pair.f != 0 {
			s += string(pair.c)
		}
	}
	if s == "" {
		return "-"
	}
	return s
}

func (p *Packet) String() string {
	return fmt.Sprintf("Packet{seq=%d/%d flags=%s len=%d}", p.Seq, p.Total, p.Flags, len(p.Payload))
}

// CRC-16/CCITT-FALSE: polynomial 0x1021, initial value 0xFFFF, no
// input or output reflection, no final XOR.
const crcPoly = 0x1021
const crcInit = 0xFFFF

var crcTable = func() [256]uint16 {
	var t [256]uint16
	for i := 0; i < 256; i++ {
		crc := uint16(i) << 8
		for b := 0; b < 8; b++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ crcPoly
			} else {
				crc <<= 1
			}
		}
		t[i] = crc
	}
	return t
}()

// CRC16 computes the CRC-16/CCITT-FALSE checksum of data.
func CRC16(data []byte) uint16 {
	crc := uint16(crcInit)
	for _, b := range data {
		crc = crc<<8 ^ crcTable[byte(crc>>8)^b]
	}
	return crc
}
