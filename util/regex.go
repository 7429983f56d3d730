package util

import (
	"regexp"
)

// GetRegexCaptureGroups returns a map of capture group names to values,
// for a given string and compiled regex.
func GetRegexCaptureGroups(s string, re *regexp.Regexp) map[string]string {
	captured := make(map[string]string)
	match := re.FindStringSubmatch(s)
	if match != nil {
		for i, name := range re.SubexpNames() {
			if i != 0 && len(name) > 0 {
				captured[name] = match[i]
			}
		}
	}
	return captured
}
