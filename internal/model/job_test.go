package model

import (
	"testing"

	"github.com/swarmguard/npdaa/internal/timeval"
)

func newTestJob(taskID, jobID uint64, priority int64, recoveryBlock bool, recPriority int64) Job[int64] {
	return NewJob[int64](0, JobID{Task: taskID, Job: jobID}, 0,
		timeval.New[int64](0, 0), timeval.New[int64](1, 2), timeval.New[int64](1, 2),
		10, priority, recPriority, recoveryBlock)
}

func TestHigherPriorityThanOrdinaryJobs(t *testing.T) {
	a := newTestJob(1, 0, 5, false, 5)
	b := newTestJob(2, 0, 7, false, 7)
	if !a.HigherPriorityThan(b) {
		t.Fatalf("lower numeric priority should be higher priority")
	}
	if b.HigherPriorityThan(a) {
		t.Fatalf("higher numeric priority should not be higher priority")
	}
}

func TestHigherPriorityThanRecoveryBlocks(t *testing.T) {
	normal := newTestJob(1, 0, 100, false, 100)
	recovery := newTestJob(2, 0, 1, true, 1)
	if !normal.HigherPriorityThan(recovery) {
		t.Fatalf("a non-recovery job always outranks a recovery-block job")
	}
	if recovery.HigherPriorityThan(normal) {
		t.Fatalf("a recovery-block job never outranks a non-recovery job")
	}

	r1 := newTestJob(1, 0, 0, true, 3)
	r2 := newTestJob(2, 0, 0, true, 5)
	if !r1.HigherPriorityThan(r2) {
		t.Fatalf("between two recovery jobs, lower recovery priority wins")
	}
}

func TestHigherPriorityThanBreaksTiesByTaskThenJobID(t *testing.T) {
	lowTask := newTestJob(1, 5, 3, false, 3)
	highTask := newTestJob(2, 0, 3, false, 3)
	if !lowTask.HigherPriorityThan(highTask) {
		t.Fatalf("equal priority should break ties toward the lower task id")
	}
	if highTask.HigherPriorityThan(lowTask) {
		t.Fatalf("the higher task id should not win an equal-priority tie")
	}

	sameTaskLowJob := newTestJob(1, 0, 3, false, 3)
	sameTaskHighJob := newTestJob(1, 9, 3, false, 3)
	if !sameTaskLowJob.HigherPriorityThan(sameTaskHighJob) {
		t.Fatalf("equal priority and task id should break ties toward the lower job id")
	}
	if sameTaskHighJob.HigherPriorityThan(sameTaskLowJob) {
		t.Fatalf("the higher job id should not win an equal-priority, equal-task tie")
	}
}

func TestPriorityExceedsReportsHigherActualPriority(t *testing.T) {
	high := newTestJob(1, 0, 2, false, 2)
	if !high.PriorityExceeds(5) {
		t.Fatalf("a numerically lower priority value should exceed a higher one")
	}
	if high.PriorityExceeds(1) {
		t.Fatalf("a numerically higher priority value should not exceed a lower one")
	}
	if high.PriorityExceeds(2) {
		t.Fatalf("equal priority values should not be reported as exceeding")
	}
}

func TestExceedsDeadlineWithTolerance(t *testing.T) {
	j := newTestJob(1, 0, 1, false, 1)
	if j.ExceedsDeadline(10, 0) {
		t.Fatalf("finishing exactly at the deadline should not exceed it")
	}
	if !j.ExceedsDeadline(11, 0) {
		t.Fatalf("finishing after the deadline should exceed it")
	}
	if j.ExceedsDeadline(11, 1) {
		t.Fatalf("tolerance should absorb a one-unit overrun")
	}
}

func TestJobKeyDistinguishesInstances(t *testing.T) {
	a := newTestJob(1, 0, 5, false, 5)
	b := newTestJob(1, 1, 5, false, 5)
	if a.Key() == b.Key() {
		t.Fatalf("distinct job ids should not collide (in this test's input)")
	}
}

func TestSetLookupAndContains(t *testing.T) {
	jobs := []Job[int64]{newTestJob(1, 0, 5, false, 5), newTestJob(2, 0, 3, false, 3)}
	set := NewSet[int64](jobs)
	if !set.Contains(JobID{Task: 1, Job: 0}) {
		t.Fatalf("expected job T1J0 to be present")
	}
	if set.Contains(JobID{Task: 9, Job: 9}) {
		t.Fatalf("did not expect T9J9 to be present")
	}
	got, ok := set.Lookup(JobID{Task: 2, Job: 0})
	if !ok || got.ID.Task != 2 {
		t.Fatalf("expected to find T2J0, got %+v ok=%v", got, ok)
	}
}
