package ioformat

import (
	"fmt"
	"strings"

	"github.com/swarmguard/npdaa/internal/model"
	"github.com/swarmguard/npdaa/internal/timeval"
)

// ResponseTimesCSV renders the per-job `<input>.rta.csv` body (the -r
// flag), matching run_analysis.cpp's rta ostringstream: one row per
// job with task id, job id, best/worst completion time, and best/worst
// response time relative to the job's earliest arrival.
func ResponseTimesCSV[T timeval.Numeric](jobs []model.Job[T], finishTimes map[model.JobID]timeval.Interval[T]) string {
	var b strings.Builder
	b.WriteString("Task ID, Job ID, BCCT, WCCT, BCRT, WCRT\n")
	for _, j := range jobs {
		finish, ok := finishTimes[j.ID]
		if !ok {
			continue
		}
		bcrt := finish.From() - j.EarliestArrival()
		var zero T
		if bcrt < zero {
			bcrt = zero
		}
		wcrt := finish.Until() - j.EarliestArrival()
		fmt.Fprintf(&b, "%d, %d, %v, %v, %v, %v\n", j.ID.Task, j.ID.Job, finish.From(), finish.Until(), bcrt, wcrt)
	}
	return b.String()
}

// DataAgeRow renders one quoted, comma-separated row for
// results_DA.csv in append mode, matching csvfile.hpp's quoting style
// (string fields wrapped in double quotes, each field followed by the
// separator, including the trailing empty field) used by
// run_analysis.cpp's csv_DA writer.
func DataAgeRow[T timeval.Numeric](label string, dataAge timeval.Interval[T]) string {
	return fmt.Sprintf("\"%s\",%v,%v,\"\",\n", label, dataAge.From(), dataAge.Until())
}

// DataAgeLabel builds the "<file> - <chain index>" label used as the
// first column of each results_DA.csv row.
func DataAgeLabel(fileName string, chainIndex int) string {
	return fmt.Sprintf("%s - %d", fileName, chainIndex)
}
