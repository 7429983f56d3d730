package performance

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestBeginEndReport(t *testing.T) {
	jrs := NewJobReporters(32)
	defer jrs.Stop()

	began := jrs.BeginTime(ExecuteRuncCounter)
	r := jrs.Report(ExecuteRuncCounter)
	if r.Population != 1 {
		t.Errorf("expected one job in flight, got %d", r.Population)
	}
	time.Sleep(5 * time.Millisecond)
	jrs.EndTime(ExecuteRuncCounter, began, 128)

	// The end message is async. Poll briefly for the counter to settle.
	deadline := time.Now().Add(time.Second)
	for {
		r = jrs.Report(ExecuteRuncCounter)
		if r.Count == 1 || time.Now().After(deadline) {
			break
		}
		time.Sleep(time.Millisecond)
	}
	if r.Count != 1 || r.Population != 0 {
		t.Errorf("expected one completed job, got %+v", r)
	}
	if r.TotalUnits != 128 {
		t.Errorf("expected recorded units, got %d", r.TotalUnits)
	}
	if r.TotalDuration <= 0 {
		t.Errorf("expected positive duration, got %d", r.TotalDuration)
	}
}

func TestDump(t *testing.T) {
	jrs := NewJobReporters(32)
	defer jrs.Stop()
	var buf bytes.Buffer
	jrs.Dump(&buf)
	if !strings.Contains(buf.String(), "execute-runsc") {
		t.Errorf("expected reporter names in dump, got %q", buf.String())
	}
}
