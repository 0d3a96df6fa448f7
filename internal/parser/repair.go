package parser

import (
	"regexp"
	"strings"
)

var (
	// launcher_radial followed by optional spacing and '='
	launcherAssignRegex = regexp.MustCompile(`launcher_radial[ \t]*=[ \t]*`)
	// every launcher_radial occurrence plus whatever follows it on the line
	launcherFlagRegex = regexp.MustCompile(`launcher_radial([^\n]*)`)
)

// Repair normalizes a few known malformations in hand-edited shapes files
// before grammar parsing. It never fails and is idempotent; the result is
// not guaranteed to be valid grammar.
//
// Transforms, in order:
//  1. a missing comma between a table close and a table open on the next
//     line ("}\n{" and "}\n\t{") is inserted;
//  2. "launcher_radial=" spacing is normalized to "launcher_radial = ", and
//     a bare launcher_radial flag becomes "launcher_radial = true".
func Repair(text string) string {
	fixed := strings.ReplaceAll(text, "}\n\t{", "},\n\t{")
	fixed = strings.ReplaceAll(fixed, "}\n{", "},\n{")

	fixed = launcherAssignRegex.ReplaceAllString(fixed, "launcher_radial = ")
	fixed = launcherFlagRegex.ReplaceAllStringFunc(fixed, func(m string) string {
		rest := strings.TrimLeft(m[len("launcher_radial"):], " \t")
		if strings.HasPrefix(rest, "=") {
			return m
		}
		return "launcher_radial = true" + m[len("launcher_radial"):]
	})

	return fixed
}
