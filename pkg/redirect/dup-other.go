//go:build !linux && !windows

// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package redirect

import "golang.org/x/sys/unix"

// dup2Wrap on non-Linux systems uses dup2.
// The slot keeps inheritable semantics so child processes also write into the channel.
func dup2Wrap(oldfd, newfd int) error {
	return unix.Dup2(oldfd, newfd)
}

// dupFd sets close-on-exec atomically with the dup, so a concurrent fork never inherits it
func dupFd(fd int) (int, error) {
	return unix.FcntlInt(uintptr(fd), unix.F_DUPFD_CLOEXEC, 0)
}
