package services

import (
	"fmt"
	"regexp"
)

var placeholderRe = regexp.MustCompile(`\{[^}]+\}`)

// segmentPattern matches one non-empty path segment
const segmentPattern = `[^/]+`

// CompileURI turns a schema URI template into a rule pattern. Each {name}
// placeholder becomes a single-segment match; literal text is kept as is.
//
//	/redfish/v1/Systems/{ComputerSystemId}/Bios -> /redfish/v1/Systems/[^/]+/Bios
func CompileURI(template string) string {
	return placeholderRe.ReplaceAllString(template, segmentPattern)
}

// Anchor wraps a rule pattern so it has to match a whole URI
func Anchor(pattern string) string {
	return "^(?:" + pattern + ")$"
}

// Matches reports whether uri is matched in full by a rule pattern
func Matches(pattern, uri string) (bool, error) {
	re, err := regexp.Compile(Anchor(pattern))
	if err != nil {
		return false, fmt.Errorf("invalid rule pattern %q: %w", pattern, err)
	}
	return re.MatchString(uri), nil
}
