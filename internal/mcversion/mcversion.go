// Package mcversion orders dotted Minecraft version strings.
//
// Minecraft release versions are not semver: "1.21.2" and "1.8" must compare
// as plain numeric tuples, with missing trailing components treated as zero so
// that "1.2" and "1.2.0" are equal.
package mcversion

import (
	"strconv"
	"strings"
)

// Tuple is an ordered sequence of non-negative numeric version components.
type Tuple []int

// Parse splits a dotted version string into a Tuple. Components that fail to
// parse as integers (snapshot suffixes and the like) become 0 so that
// comparison stays total over noisy input.
func Parse(version string) Tuple {
	parts := strings.Split(strings.TrimSpace(version), ".")
	tuple := make(Tuple, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			n = 0
		}
		tuple = append(tuple, n)
	}
	return tuple
}

// Compare returns a negative number when a < b, zero when equal and a positive
// number when a > b. Comparison is lexicographic over components; the shorter
// tuple is padded with zeros.
func Compare(a, b Tuple) int {
	max := len(a)
	if len(b) > max {
		max = len(b)
	}
	for i := 0; i < max; i++ {
		av, bv := 0, 0
		if i < len(a) {
			av = a[i]
		}
		if i < len(b) {
			bv = b[i]
		}
		if av != bv {
			return av - bv
		}
	}
	return 0
}

// CompareStrings compares two dotted version strings.
func CompareStrings(a, b string) int {
	return Compare(Parse(a), Parse(b))
}
