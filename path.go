// SPDX-License-Identifier: MIT
// Source: github.com/hack3ric/hive-asar

package asar

import "strings"

// SplitPath normalizes a slash-separated archive path into segments.
//
// Empty segments and "." are dropped; ".." pops the last kept segment (or
// is itself dropped if there is nothing to pop). There is no
// absolute/relative distinction and traversal cannot escape the root:
// SplitPath("/a//./b/../c") == []string{"a", "c"}.
func SplitPath(raw string) []string {
	parts := strings.Split(raw, "/")
	segments := make([]string, 0, len(parts))

	for _, p := range parts {
		switch p {
		case "", ".":
			continue
		case "..":
			if len(segments) > 0 {
				segments = segments[:len(segments)-1]
			}
		default:
			segments = append(segments, p)
		}
	}

	return segments
}

// joinSegments renders normalized segments back into a slash-separated path.
func joinSegments(segments []string) string {
	return strings.Join(segments, "/")
}
