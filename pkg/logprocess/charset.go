// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package logprocess

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
)

// DecodeFn turns a raw frame into text
type DecodeFn func(frame []byte) string

func passthrough(frame []byte) string {
	return string(frame)
}

// frames are split on the single byte '\n' before decoding, so only encodings
// that keep '\n' as one byte (utf-8, single-byte and ASCII-compatible
// multi-byte charsets) can be decoded per frame
var unframeableCharsets = map[string]bool{
	"utf-16le":    true,
	"utf-16be":    true,
	"replacement": true,
}

// MakeDecoder resolves a WHATWG encoding label (utf-8, latin1, shift_jis, ...).
// Frames that fail to decode are passed through unchanged; each sink applies
// its own validity check.
func MakeDecoder(charset string) (DecodeFn, error) {
	label := strings.TrimSpace(charset)
	if label == "" {
		return passthrough, nil
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unknown charset %q: %w", charset, err)
	}
	name, err := htmlindex.Name(enc)
	if err != nil {
		return nil, fmt.Errorf("unknown charset %q: %w", charset, err)
	}
	if unframeableCharsets[name] {
		return nil, fmt.Errorf("charset %q (%s) cannot be framed on newline bytes", charset, name)
	}
	if name == "utf-8" {
		return passthrough, nil
	}
	dec := enc.NewDecoder()
	return func(frame []byte) string {
		out, err := dec.Bytes(frame)
		if err != nil {
			return string(frame)
		}
		return string(out)
	}, nil
}
