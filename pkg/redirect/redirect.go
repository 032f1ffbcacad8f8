// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

// Package redirect takes over process descriptor slots (stdout/stderr) and
// points them at the write end of a private pipe.
// The takeover is permanent: there is no restore.
package redirect

import (
	"errors"
	"fmt"
	"io"
	"os"
)

var ErrUnsupported = errors.New("descriptor redirection not supported on this platform")

// Channel is the private pipe backing the redirected slots.
// The read end belongs to exactly one reader (the pump). Keep the Channel
// reachable: the runtime does not know pipeW was dup'ed, and its finalizer
// would close the descriptor.
type Channel struct {
	pipeR *os.File
	pipeW *os.File
	slots []int
}

// StdSlots returns the descriptor numbers of stdout and stderr
func StdSlots() []int {
	return []int{int(os.Stdout.Fd()), int(os.Stderr.Fd())}
}

// Install creates the pipe and duplicates its write end over each slot, in order.
// With no slots, stdout and stderr are taken over.
//
// dup2 replaces a slot atomically, so a concurrent writer reaches either the old
// target or the pipe, never a closed descriptor. If a later slot fails the earlier
// ones are already redirected and cannot be restored: the caller should abort.
func Install(slots ...int) (*Channel, error) {
	if len(slots) == 0 {
		slots = StdSlots()
	}
	pipeR, pipeW, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create pipe: %w", err)
	}
	for idx, slot := range slots {
		err = dup2Wrap(int(pipeW.Fd()), slot)
		if err != nil {
			_ = pipeR.Close()
			_ = pipeW.Close()
			if idx > 0 {
				return nil, fmt.Errorf("failed to dup2 fd %d (fds %v already redirected): %w", slot, slots[:idx], err)
			}
			return nil, fmt.Errorf("failed to dup2 fd %d: %w", slot, err)
		}
	}
	return &Channel{
		pipeR: pipeR,
		pipeW: pipeW,
		slots: append([]int(nil), slots...),
	}, nil
}

// Reader returns the read end. Only one goroutine may read from it.
func (c *Channel) Reader() io.Reader {
	return c.pipeR
}

// Slots returns the descriptor numbers that now point at the pipe
func (c *Channel) Slots() []int {
	return append([]int(nil), c.slots...)
}

// Close releases the channel's own write end. The redirected slots keep the pipe
// open, so the reader only sees EOF once every slot has been closed as well.
func (c *Channel) Close() error {
	return c.pipeW.Close()
}

// DupFile returns an independent descriptor for f's current target.
// Take it before Install to keep a handle on the original stream.
func DupFile(f *os.File, name string) (*os.File, error) {
	newfd, err := dupFd(int(f.Fd()))
	if err != nil {
		return nil, fmt.Errorf("failed to dup fd %d: %w", f.Fd(), err)
	}
	return os.NewFile(uintptr(newfd), name), nil
}
