package util

import "testing"

func TestContainsAny(t *testing.T) {
	retryable := []string{"database is locked", "busy"}
	if !ContainsAny("stmt failed: database is locked (5) (SQLITE_BUSY)", retryable) {
		t.Error("expected match for locked database error")
	}
	if ContainsAny("no such table: functions", retryable) {
		t.Error("did not expect a match")
	}
}

func TestFirstMatch(t *testing.T) {
	retryable := []string{"database is locked", "busy"}
	if m := FirstMatch("the database is locked", retryable); m != "database is locked" {
		t.Errorf("got %q", m)
	}
	if m := FirstMatch("ok", retryable); m != "" {
		t.Errorf("got %q", m)
	}
}
