// Package testutil carries small helpers shared by the test suites.
package testutil

import "regexp"

// csiRegex matches CSI escape sequences (ESC [ parameters final-byte),
// which covers everything the ui themes emit.
var csiRegex = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// StripAnsiCodes removes ANSI escape sequences so CLI output tests can
// assert on text content regardless of the active color theme.
func StripAnsiCodes(s string) string {
	return csiRegex.ReplaceAllString(s, "")
}
