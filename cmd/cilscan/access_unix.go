// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

//go:build !windows

package main

import "golang.org/x/sys/unix"

// checkReadable pre-flights read access to path before mmap'ing it, giving a
// plain "permission denied" rather than a less obvious mmap failure.
func checkReadable(path string) error {
	return unix.Access(path, unix.R_OK)
}
