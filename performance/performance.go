package performance

import (
	"fmt"
	"io"
	"time"
)

// ReporterID is used to locate our various counters
type ReporterID int

const (
	// ExecuteRuncCounter tracks executions under the standard runtime
	ExecuteRuncCounter = ReporterID(1)
	// ExecuteRunscCounter tracks executions under the gVisor runtime
	ExecuteRunscCounter = ReporterID(2)
	// ColdStartCounter tracks executions that could not use a warm container
	ColdStartCounter = ReporterID(3)
	// ImageBuildCounter tracks base image builds
	ImageBuildCounter = ReporterID(4)
)

// BeganJob is an opaque timestamp handed back when a job begins.
type BeganJob int64

// SizeJob is the number of units of work to report, e.g. bytes of output.
type SizeJob int64

// JobReport is the aggregate state of one reporter.
type JobReport struct {
	// Name identifies the reporter in dumps.
	Name string
	// Count is the number of completed jobs.
	Count int64
	// TotalDuration is the summed wall time of completed jobs in milliseconds.
	TotalDuration int64
	// TotalUnits is the summed size of completed jobs.
	TotalUnits int64
	// Population is the number of jobs currently in flight.
	Population int64
	// MaxPopulation is the high water mark of concurrent jobs.
	MaxPopulation int64
}

// AverageDuration is the mean wall time of completed jobs in milliseconds.
func (r JobReport) AverageDuration() int64 {
	if r.Count == 0 {
		return 0
	}
	return r.TotalDuration / r.Count
}

type beginningJob struct {
	reporterID ReporterID
	reply      chan BeganJob
}

type endingJob struct {
	reporterID ReporterID
	start      BeganJob
	sizeJob    SizeJob
}

type requestingReport struct {
	reporterID ReporterID
	reply      chan JobReport
}

// JobReporters tracks in-flight and completed jobs per reporter. All state
// is owned by a single goroutine, so that begin and end messages cannot race.
type JobReporters struct {
	reporters map[ReporterID]*JobReport

	beginningJob     chan beginningJob
	endingJob        chan endingJob
	requestingReport chan requestingReport
	quit             chan struct{}
}

// NewJobReporters creates the counters and launches the goroutine that owns them.
func NewJobReporters(capacity int) *JobReporters {
	jrs := &JobReporters{
		reporters: map[ReporterID]*JobReport{
			ExecuteRuncCounter:  {Name: "execute-runc"},
			ExecuteRunscCounter: {Name: "execute-runsc"},
			ColdStartCounter:    {Name: "cold-start"},
			ImageBuildCounter:   {Name: "image-build"},
		},
		beginningJob:     make(chan beginningJob, capacity),
		endingJob:        make(chan endingJob, capacity),
		requestingReport: make(chan requestingReport),
		quit:             make(chan struct{}),
	}
	go jrs.run()
	return jrs
}

func (jrs *JobReporters) run() {
	for {
		select {
		case b := <-jrs.beginningJob:
			r := jrs.reporters[b.reporterID]
			r.Population++
			if r.Population > r.MaxPopulation {
				r.MaxPopulation = r.Population
			}
			b.reply <- BeganJob(getTStampMS())
		case e := <-jrs.endingJob:
			r := jrs.reporters[e.reporterID]
			r.Population--
			r.Count++
			r.TotalDuration += getTStampMS() - int64(e.start)
			r.TotalUnits += int64(e.sizeJob)
		case q := <-jrs.requestingReport:
			q.reply <- *jrs.reporters[q.reporterID]
		case <-jrs.quit:
			return
		}
	}
}

// Stop terminates the goroutine that owns the counters.
func (jrs *JobReporters) Stop() {
	close(jrs.quit)
}

// BeginTime marks the beginning of a job and returns its start timestamp.
func (jrs *JobReporters) BeginTime(reporterID ReporterID) BeganJob {
	reply := make(chan BeganJob)
	jrs.beginningJob <- beginningJob{reporterID, reply}
	return <-reply
}

// EndTime marks the end of a job begun with BeginTime.
func (jrs *JobReporters) EndTime(reporterID ReporterID, start BeganJob, sizeJob SizeJob) {
	jrs.endingJob <- endingJob{reporterID, start, sizeJob}
}

// Report retrieves a snapshot of the given counter.
func (jrs *JobReporters) Report(reporterID ReporterID) JobReport {
	reply := make(chan JobReport)
	jrs.requestingReport <- requestingReport{reporterID, reply}
	return <-reply
}

// Dump writes all reports in a plain text form.
func (jrs *JobReporters) Dump(w io.Writer) {
	for _, id := range []ReporterID{ExecuteRuncCounter, ExecuteRunscCounter, ColdStartCounter, ImageBuildCounter} {
		r := jrs.Report(id)
		fmt.Fprintf(w, "%s: count=%d avgDurationMS=%d inFlight=%d maxInFlight=%d units=%d\n",
			r.Name, r.Count, r.AverageDuration(), r.Population, r.MaxPopulation, r.TotalUnits)
	}
}

func getTStampMS() int64 {
	return time.Now().UnixNano() / (1000 * 1000)
}
