// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

//go:build windows

package main

import "os"

// checkReadable has no unix.Access equivalent on Windows; it only checks
// that os.Stat succeeds on the path, and os.Open's own error during
// peparser.New reports any permission failure.
func checkReadable(path string) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}
	return nil
}
