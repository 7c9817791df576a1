// Copyright 2024 The qrstream Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coding

import "errors"

// errShortBitstream is returned by BitReader.ReadBits when fewer than
// the requested number of bits remain.
var errShortBitstream = errors.New("coding: short bitstream")

// ErrNoFinderPatterns is returned by Locate when fewer than three
// finder patterns could be identified in the image.
var ErrNoFinderPatterns = errors.New("coding: could not locate three finder patterns")

// ErrFormatInfo is returned by Decode when neither copy of the format
// information is recoverable.
var ErrFormatInfo = errors.New("coding: unreadable format information")

// ErrVersionInfo is returned by Decode when neither copy of the
// version information is recoverable for version >= 7 symbols.
var ErrVersionInfo = errors.New("coding: unreadable version information")

// ErrDataCorrupt is returned by Decode when the extracted codewords
// fail Reed-Solomon validation (no correction is attempted), or when the
// decoded bitstream contains an unsupported or malformed mode
// segment.
var ErrDataCorrupt = errors.New("coding: data codewords do not validate")
