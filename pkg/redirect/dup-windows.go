//go:build windows

// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package redirect

func dup2Wrap(oldfd, newfd int) error {
	return ErrUnsupported
}

func dupFd(fd int) (int, error) {
	return -1, ErrUnsupported
}
