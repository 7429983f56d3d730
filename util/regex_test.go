package util

import (
	"regexp"
	"testing"
)

func TestGetRegexCaptureGroups(t *testing.T) {
	re := regexp.MustCompile(`/functions/(?P<functionId>[0-9a-fA-F]{32})/run$`)
	path := "/functions/11e5e4867a6e27bce4ab34f4c7fa9d0e/run"
	groups := GetRegexCaptureGroups(path, re)
	if groups["functionId"] != "11e5e4867a6e27bce4ab34f4c7fa9d0e" {
		t.Errorf("expected capture group functionId, got %v", groups)
	}
}

func TestGetRegexCaptureGroupsNoMatch(t *testing.T) {
	re := regexp.MustCompile(`/functions/(?P<functionId>[0-9a-fA-F]{32})$`)
	groups := GetRegexCaptureGroups("/metrics", re)
	if len(groups) != 0 {
		t.Errorf("expected no capture groups, got %v", groups)
	}
}
