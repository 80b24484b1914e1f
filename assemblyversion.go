// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

import (
	"fmt"

	"golang.org/x/mod/semver"
)

// FormatAssemblyVersion renders an Assembly or AssemblyRef row's four-part
// version tuple as a semver-shaped "vMAJOR.MINOR.BUILD" string (the
// revision number has no semver slot and is reported separately), so the
// tuple can be compared with golang.org/x/mod/semver instead of a bespoke
// four-way integer comparison.
func FormatAssemblyVersion(major, minor, build uint16) string {
	return fmt.Sprintf("v%d.%d.%d", major, minor, build)
}

// CompareAssemblyVersions orders two Assembly/AssemblyRef version tuples the
// way semver.Compare orders its "vX.Y.Z" strings: negative, zero, or
// positive as a is less than, equal to, or greater than b. Ties on the
// major.minor.build triple fall through to comparing the revision numbers,
// since semver has no fourth slot for them.
func CompareAssemblyVersions(aMajor, aMinor, aBuild, aRev uint16, bMajor, bMinor, bBuild, bRev uint16) int {
	if c := semver.Compare(FormatAssemblyVersion(aMajor, aMinor, aBuild), FormatAssemblyVersion(bMajor, bMinor, bBuild)); c != 0 {
		return c
	}
	switch {
	case aRev < bRev:
		return -1
	case aRev > bRev:
		return 1
	default:
		return 0
	}
}
