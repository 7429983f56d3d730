package util

import (
	"time"

	metrics "github.com/rcrowley/go-metrics"
)

// NowMS returns the current wall clock time in milliseconds.
func NowMS() int64 {
	return time.Now().UnixNano() / int64(time.Millisecond)
}

// Time records the duration of the enclosing call into the named timer in
// the default metrics registry. Defer the returned func at the top of the
// operation being measured.
func Time(name string) func() {
	begin := NowMS()
	return func() {
		interval := time.Duration(NowMS()-begin) * time.Millisecond
		metrics.GetOrRegisterTimer(name, metrics.DefaultRegistry).Update(interval)
	}
}
