package ioformat

import (
	"fmt"
	"time"
)

// PrintHeader returns the CSV comment header line printed once when
// --header is given, matching run_analysis.cpp's print_header. Note:
// the header names a trailing "#recovery blocks" column that
// SummaryLine does not actually populate — a pre-existing
// inconsistency in the original CSV output this port reproduces
// verbatim rather than silently "fixing" the header text (see
// DESIGN.md).
func PrintHeader() string {
	return "# file name, schedulable?, #jobs, #states, #edges, max width, CPU time, memory, timeout, #CPUs, #recovery blocks"
}

// SummaryLine renders the one-line-per-file stdout summary, matching
// run_analysis.cpp's main() reporting block. memoryKB mirrors
// ru_maxrss/1024 from getrusage; this port derives it from
// runtime.ReadMemStats in the CLI driver instead, since Go has no
// direct getrusage equivalent in the standard library.
func SummaryLine(fileName string, schedulable bool, invalidatedByDepthLimit bool, numJobs int, numStates, numEdges, maxWidth uint64, cpuTime time.Duration, memoryKB float64, timedOut bool, numProcessors int) string {
	schedField := "0"
	if invalidatedByDepthLimit {
		schedField = "X"
	} else if schedulable {
		schedField = "1"
	}
	timeoutField := 0
	if timedOut {
		timeoutField = 1
	}
	return fmt.Sprintf("%s,  %s,  %d,  %d,  %d,  %d,  %.6f,  %.3f,  %d,  %d",
		fileName, schedField, numJobs, numStates, numEdges, maxWidth, cpuTime.Seconds(), memoryKB, timeoutField, numProcessors)
}
