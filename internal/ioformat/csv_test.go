package ioformat

import (
	"strings"
	"testing"

	"github.com/swarmguard/npdaa/internal/model"
	"github.com/swarmguard/npdaa/internal/timeval"
)

func TestResponseTimesCSVRendersOneRowPerJobWithRecordedFinish(t *testing.T) {
	j1 := model.NewJob[int64](0, model.JobID{Task: 1, Job: 0}, 0,
		timeval.New[int64](2, 2), timeval.New[int64](1, 2), timeval.New[int64](1, 2), 10, 1, 1, false)
	j2 := model.NewJob[int64](1, model.JobID{Task: 2, Job: 0}, 0,
		timeval.New[int64](0, 0), timeval.New[int64](1, 2), timeval.New[int64](1, 2), 10, 1, 1, false)

	finish := map[model.JobID]timeval.Interval[int64]{
		j1.ID: timeval.New[int64](3, 4),
	}
	out := ResponseTimesCSV[int64]([]model.Job[int64]{j1, j2}, finish)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected a header plus exactly one data row (job 2 has no recorded finish), got %d lines: %q", len(lines), out)
	}
	if !strings.Contains(lines[1], "1, 0, 3, 4") {
		t.Fatalf("expected job 1's row to report BCCT=3 WCCT=4, got %q", lines[1])
	}
}

func TestResponseTimesCSVClampsNegativeBCRTToZero(t *testing.T) {
	// Finish-from below the earliest arrival can only happen through
	// loose bookkeeping; BCRT must never go negative.
	j := model.NewJob[int64](0, model.JobID{Task: 1, Job: 0}, 0,
		timeval.New[int64](10, 10), timeval.New[int64](1, 2), timeval.New[int64](1, 2), 20, 1, 1, false)
	finish := map[model.JobID]timeval.Interval[int64]{j.ID: timeval.New[int64](5, 12)}
	out := ResponseTimesCSV[int64]([]model.Job[int64]{j}, finish)
	if !strings.Contains(out, "1, 0, 5, 12, 0, 2") {
		t.Fatalf("expected BCRT clamped to 0 (raw would be -5), got %q", out)
	}
}

func TestDataAgeRowQuotesLabelAndLeavesTrailingField(t *testing.T) {
	row := DataAgeRow[int64]("chain.yaml - 0", timeval.New[int64](-3, -1))
	if row != "\"chain.yaml - 0\",-3,-1,\"\",\n" {
		t.Fatalf("unexpected row format: %q", row)
	}
}

func TestDataAgeLabelFormat(t *testing.T) {
	if got := DataAgeLabel("input.yaml", 2); got != "input.yaml - 2" {
		t.Fatalf("unexpected label: %q", got)
	}
}
