// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package utilfn

import (
	"bytes"
)

const initLineBufSize = 1024

// LineBuf frames a byte stream into '\n' terminated lines.
// Read boundaries never need to line up with line boundaries. Not safe for concurrent use.
type LineBuf struct {
	buf []byte
}

func MakeLineBuf() *LineBuf {
	return &LineBuf{
		buf: make([]byte, 0, initLineBufSize),
	}
}

// ProcessBuf appends readBuf and returns every completed line, without its '\n'.
// Returned slices are copies (safe to retain). Partial lines are retained.
func (lb *LineBuf) ProcessBuf(readBuf []byte) (lines [][]byte) {
	for len(readBuf) > 0 {
		nlIdx := bytes.IndexByte(readBuf, '\n')
		if nlIdx == -1 {
			lb.buf = append(lb.buf, readBuf...)
			return
		}
		line := make([]byte, 0, len(lb.buf)+nlIdx)
		line = append(line, lb.buf...)
		line = append(line, readBuf[:nlIdx]...)
		lines = append(lines, line)
		lb.buf = lb.buf[:0]
		readBuf = readBuf[nlIdx+1:]
	}
	return
}

// Partial returns a copy of the unterminated tail
func (lb *LineBuf) Partial() []byte {
	return append([]byte(nil), lb.buf...)
}

// TrimLineEnd strips trailing '\r' and '\n' characters
func TrimLineEnd(s string) string {
	end := len(s)
	for end > 0 && (s[end-1] == '\n' || s[end-1] == '\r') {
		end--
	}
	return s[:end]
}
