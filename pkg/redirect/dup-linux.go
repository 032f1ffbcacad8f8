//go:build linux

// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package redirect

import "golang.org/x/sys/unix"

// dup2Wrap on Linux (and android) uses Dup3 with flags 0 (mimicking dup2).
// linux/arm64 has no dup2 syscall.
func dup2Wrap(oldfd, newfd int) error {
	return unix.Dup3(oldfd, newfd, 0)
}

func dupFd(fd int) (int, error) {
	return unix.FcntlInt(uintptr(fd), unix.F_DUPFD_CLOEXEC, 0)
}
