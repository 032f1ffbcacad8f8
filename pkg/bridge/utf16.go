// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// EncodeUTF16 converts s to UTF-16 code units (java.lang.String's representation).
// Invalid UTF-8 is an error rather than being replaced with U+FFFD.
func EncodeUTF16(s string) ([]uint16, error) {
	enc := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder()
	b, _, err := transform.Bytes(transform.Chain(encoding.UTF8Validator, enc), []byte(s))
	if err != nil {
		return nil, err
	}
	rtn := make([]uint16, len(b)/2)
	for i := range rtn {
		rtn[i] = uint16(b[2*i]) | uint16(b[2*i+1])<<8
	}
	return rtn, nil
}
