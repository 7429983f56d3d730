package server

import (
	"context"
	"fmt"
	"net/http"
)

func (h AppServer) getStats(ctx context.Context, w http.ResponseWriter, r *http.Request) *AppError {
	gem, _ := GEMFromContext(ctx)
	gem.Action = "access"

	renderErrorCounters(w)

	fmt.Fprintf(w, "\nExecution Aggregates:\n")
	h.Tracker.Dump(w)

	h.publishSuccess(gem, http.StatusOK)
	return nil
}

// renderErrorCounters writes the counters out to stats
func renderErrorCounters(w http.ResponseWriter) {
	doWriteCounters(w)
}

// Count the total number of events per location, and report for each line.
func doWriteCounters(w http.ResponseWriter) {

	totalQueries := int64(0)
	totalErrors := int64(0)
	var lines = make([]string, 0)

	// We are under the lock, so don't do IO in here yet.
	mutex.Lock()
	for _, v := range counters {
		totalQueries += v
	}
	for k, v := range counters {
		// Unless it's 400 or greater, it's not an error.
		if k.Code >= 400 {
			lines = append(
				lines,
				fmt.Sprintf("%d\t%d\t%s:%d", v, k.Code, k.File, k.Line),
			)
			totalErrors += v
		}
	}
	mutex.Unlock()

	// Do io outside the mutex!
	if len(lines) == 0 {
		fmt.Fprintf(w, "Errors: none\n")
	} else {
		fmt.Fprintf(w, "Errors: %d in %d queries\n", totalErrors, totalQueries)
		fmt.Fprintf(w, "count\tcode\tfile:line\n")
		for i := range lines {
			fmt.Fprintf(w, "%s\n", lines[i])
		}
	}
}
