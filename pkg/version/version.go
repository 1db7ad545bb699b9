/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package version models Minecraft game versions: a total order over
// dotted numeric strings and a release/pre-release classification.
package version

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// releasePattern matches stable release versions like "1.21" or "1.21.1".
var releasePattern = regexp.MustCompile(`^\d+\.\d+(\.\d+)?$`)

// nonReleaseMarkers are substrings that identify snapshot and candidate
// builds regardless of their overall shape.
var nonReleaseMarkers = []string{"experimental", "snapshot", "pre", "rc"}

// Version wraps a raw game version string. The zero value is the empty
// version, which is never a release and sorts before everything else.
type Version struct {
	raw string
}

// Parse wraps a raw version string. It never fails; malformed input
// simply never classifies as a release.
func Parse(raw string) Version {
	return Version{raw: raw}
}

// String returns the underlying version string.
func (v Version) String() string {
	return v.raw
}

// IsZero reports whether the version is the empty value.
func (v Version) IsZero() bool {
	return v.raw == ""
}

// IsRelease reports whether the version is a stable release. A release
// matches the dotted numeric pattern and carries no snapshot markers.
func (v Version) IsRelease() bool {
	if v.raw == "" {
		return false
	}

	lower := strings.ToLower(v.raw)
	for _, marker := range nonReleaseMarkers {
		if strings.Contains(lower, marker) {
			return false
		}
	}

	return releasePattern.MatchString(v.raw)
}

// Equal reports exact string equality of the underlying values. Versions
// that compare as ordered-equal (e.g. "1.21" and "1.21-") are not Equal
// unless the raw strings match.
func (v Version) Equal(o Version) bool {
	return v.raw == o.raw
}

// components splits the raw string into integer components. Segments
// that fail to parse count as 0 so ordering stays total for any input.
func (v Version) components() []int {
	segments := strings.Split(v.raw, ".")
	parts := make([]int, len(segments))

	for i, seg := range segments {
		n, err := strconv.Atoi(seg)
		if err != nil {
			n = 0
		}

		parts[i] = n
	}

	return parts
}

// Compare orders two versions component-wise.
// Returns:
//
//	-1 if a < b
//	 0 if a and b are order-equivalent
//	 1 if a > b
//
// A strict prefix sorts before its extension, so "1.21" < "1.21.1".
func Compare(a, b Version) int {
	ac, bc := a.components(), b.components()

	for i := 0; i < len(ac) && i < len(bc); i++ {
		switch {
		case ac[i] < bc[i]:
			return -1
		case ac[i] > bc[i]:
			return 1
		}
	}

	switch {
	case len(ac) < len(bc):
		return -1
	case len(ac) > len(bc):
		return 1
	}

	return 0
}

// Less reports whether v orders strictly before o.
func (v Version) Less(o Version) bool {
	return Compare(v, o) < 0
}

// SortAscending sorts versions in place from lowest to highest.
func SortAscending(versions []Version) {
	sort.SliceStable(versions, func(i, j int) bool {
		return Compare(versions[i], versions[j]) < 0
	})
}

// Max returns the highest version in the list. The second return value
// is false for an empty list.
func Max(versions []Version) (Version, bool) {
	if len(versions) == 0 {
		return Version{}, false
	}

	best := versions[0]
	for _, v := range versions[1:] {
		if Compare(v, best) > 0 {
			best = v
		}
	}

	return best, true
}

// Intersect returns the versions present in every list, keyed by exact
// string value, preserving the order of the first list. With no lists it
// returns nil.
func Intersect(lists ...[]Version) []Version {
	if len(lists) == 0 {
		return nil
	}

	counts := make(map[string]int)
	for _, list := range lists {
		seen := make(map[string]bool, len(list))

		for _, v := range list {
			if !seen[v.raw] {
				seen[v.raw] = true
				counts[v.raw]++
			}
		}
	}

	var common []Version
	emitted := make(map[string]bool)

	for _, v := range lists[0] {
		if counts[v.raw] == len(lists) && !emitted[v.raw] {
			emitted[v.raw] = true
			common = append(common, v)
		}
	}

	return common
}

// Dedupe removes order-adjacent duplicates by exact string value,
// preserving first occurrences.
func Dedupe(versions []Version) []Version {
	seen := make(map[string]bool, len(versions))
	out := versions[:0]

	for _, v := range versions {
		if !seen[v.raw] {
			seen[v.raw] = true
			out = append(out, v)
		}
	}

	return out
}
