package ioformat

import (
	"strings"
	"testing"
	"time"
)

func TestPrintHeaderNamesEveryColumn(t *testing.T) {
	h := PrintHeader()
	for _, col := range []string{"file name", "schedulable?", "#jobs", "#states", "#edges", "max width", "CPU time", "memory", "timeout", "#CPUs", "#recovery blocks"} {
		if !strings.Contains(h, col) {
			t.Fatalf("expected header to mention %q, got %q", col, h)
		}
	}
}

func TestSummaryLineSchedulableField(t *testing.T) {
	line := SummaryLine("a.yaml", true, false, 3, 10, 9, 4, 250*time.Millisecond, 512.0, false, 2)
	fields := strings.Split(line, ",")
	if strings.TrimSpace(fields[1]) != "1" {
		t.Fatalf("expected schedulable field '1', got %q in %q", fields[1], line)
	}
}

func TestSummaryLineDepthLimitedOverridesSchedulable(t *testing.T) {
	line := SummaryLine("a.yaml", true, true, 3, 10, 9, 4, 0, 0, false, 2)
	fields := strings.Split(line, ",")
	if strings.TrimSpace(fields[1]) != "X" {
		t.Fatalf("expected depth-limited runs to report 'X' regardless of the schedulable flag, got %q", fields[1])
	}
}

func TestSummaryLineUnschedulableField(t *testing.T) {
	line := SummaryLine("a.yaml", false, false, 3, 10, 9, 4, 0, 0, true, 2)
	fields := strings.Split(line, ",")
	if strings.TrimSpace(fields[1]) != "0" {
		t.Fatalf("expected schedulable field '0', got %q", fields[1])
	}
	if strings.TrimSpace(fields[8]) != "1" {
		t.Fatalf("expected the timeout field to be '1', got %q in %q", fields[8], line)
	}
}

func TestSummaryLineReportsConfiguredProcessorCountNotPartitionCount(t *testing.T) {
	line := SummaryLine("a.yaml", true, false, 1, 1, 0, 1, 0, 0, false, 8)
	if !strings.HasSuffix(strings.TrimSpace(line), "8") {
		t.Fatalf("expected the trailing #CPUs field to echo the configured processor count (8), got %q", line)
	}
}
