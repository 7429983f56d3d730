package util

import "strings"

// ContainsAny checks whether msg contains any of the given substrings.
func ContainsAny(msg string, a []string) bool {
	for _, v := range a {
		if strings.Contains(msg, v) {
			return true
		}
	}
	return false
}

// FirstMatch returns the first of the given substrings found in msg, or empty string.
func FirstMatch(msg string, a []string) string {
	for _, v := range a {
		if strings.Contains(msg, v) {
			return v
		}
	}
	return ""
}
