package partition

import (
	"context"
	"testing"

	"github.com/swarmguard/npdaa/internal/explore"
	"github.com/swarmguard/npdaa/internal/indexset"
	"github.com/swarmguard/npdaa/internal/model"
	"github.com/swarmguard/npdaa/internal/reduction"
	"github.com/swarmguard/npdaa/internal/resilience"
	"github.com/swarmguard/npdaa/internal/timeval"
)

func singleJobProblem(task, pe uint64) explore.Problem[int64] {
	j := pjob(0, task, pe)
	return explore.Problem[int64]{
		Jobs:         []model.Job[int64]{j},
		Predecessors: [][]int{{}},
		Successors:   [][]int{{}},
		Ancestors:    []indexset.Set{indexset.New(1)},
	}
}

func baseRunOptions() explore.Options[int64] {
	return explore.Options[int64]{
		Epsilon:   1,
		Tolerance: 0,
		EarlyExit: true,
		Criterion: reduction.ReleaseOrder[int64]{},
	}
}

func TestRunAggregatesAcrossPartitions(t *testing.T) {
	problems := map[uint64]explore.Problem[int64]{
		0: singleJobProblem(1, 0),
		1: singleJobProblem(2, 1),
	}
	agg := Run[int64](context.Background(), problems, baseRunOptions(), nil, 2, nil)

	if !agg.Schedulable {
		t.Fatalf("expected both trivially-schedulable partitions to aggregate to schedulable=true")
	}
	if len(agg.PerPE) != 2 {
		t.Fatalf("expected 2 per-PE results, got %d", len(agg.PerPE))
	}
	if agg.PerPE[0].PE != 0 || agg.PerPE[1].PE != 1 {
		t.Fatalf("expected per-PE results sorted by PE id, got %+v", agg.PerPE)
	}
	if len(agg.FinishTimes) != 2 {
		t.Fatalf("expected finish times merged from both partitions, got %d entries", len(agg.FinishTimes))
	}
}

func TestRunPropagatesUnschedulableFromAnyPartition(t *testing.T) {
	// PE 1's only job has an impossible deadline.
	badJob := model.NewJob[int64](0, model.JobID{Task: 9, Job: 0}, 1,
		timeval.New[int64](0, 0), timeval.New[int64](5, 5), timeval.New[int64](5, 5), 1, 1, 1, false)
	problems := map[uint64]explore.Problem[int64]{
		0: singleJobProblem(1, 0),
		1: {
			Jobs:         []model.Job[int64]{badJob},
			Predecessors: [][]int{{}},
			Successors:   [][]int{{}},
			Ancestors:    []indexset.Set{indexset.New(1)},
		},
	}
	agg := Run[int64](context.Background(), problems, baseRunOptions(), nil, 2, nil)
	if agg.Schedulable {
		t.Fatalf("expected the aggregate to be unschedulable when any partition misses a deadline")
	}
}

func TestRunWithRateLimiterStillCompletesAllPartitions(t *testing.T) {
	problems := map[uint64]explore.Problem[int64]{
		0: singleJobProblem(1, 0),
		1: singleJobProblem(2, 1),
		2: singleJobProblem(3, 2),
	}
	limiter := resilience.NewRateLimiter(1, 1000, 0, 0)
	agg := Run[int64](context.Background(), problems, baseRunOptions(), limiter, 1, nil)
	if len(agg.PerPE) != 3 {
		t.Fatalf("expected all 3 partitions to complete even under a tight worker/limiter budget, got %d", len(agg.PerPE))
	}
}
