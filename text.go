// Copyright 2024 The qrstream Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qrstream

import "golang.org/x/text/encoding/charmap"

// DecodeLatin1 interprets a byte-mode payload as ISO-8859-1 (Latin-1)
// and returns it transcoded to UTF-8.  Byte-mode segments carry no
// charset indicator of their own; callers that know the far end wrote
// Latin-1 text use this instead of treating the payload as raw UTF-8
// bytes.
func DecodeLatin1(payload []byte) (string, error) {
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(payload)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
