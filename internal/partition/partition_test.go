package partition

import (
	"testing"

	"github.com/swarmguard/npdaa/internal/model"
	"github.com/swarmguard/npdaa/internal/precedence"
	"github.com/swarmguard/npdaa/internal/timeval"
)

func pjob(index int, task, pe uint64) model.Job[int64] {
	return model.NewJob[int64](index, model.JobID{Task: task, Job: 0}, pe,
		timeval.New[int64](0, 0), timeval.New[int64](1, 1), timeval.New[int64](1, 1), 10, 1, 1, false)
}

func TestBuildPartitionsGroupsByPEAndReindexesLocally(t *testing.T) {
	jobs := []model.Job[int64]{
		pjob(0, 1, 0),
		pjob(1, 2, 1),
		pjob(2, 3, 0),
	}
	problems := BuildPartitions[int64](jobs, nil)
	if len(problems) != 2 {
		t.Fatalf("expected 2 partitions (PE 0 and PE 1), got %d", len(problems))
	}
	pe0 := problems[0]
	if len(pe0.Jobs) != 2 {
		t.Fatalf("expected 2 jobs on PE 0, got %d", len(pe0.Jobs))
	}
	for i, j := range pe0.Jobs {
		if j.Index != i {
			t.Fatalf("expected job %d to be reindexed to local position %d, got %d", j.ID.Task, i, j.Index)
		}
	}
	pe1 := problems[1]
	if len(pe1.Jobs) != 1 || pe1.Jobs[0].Index != 0 {
		t.Fatalf("expected PE 1's single job to be reindexed to 0, got %+v", pe1.Jobs)
	}
}

func TestBuildPartitionsKeepsSamePEConstraints(t *testing.T) {
	jobs := []model.Job[int64]{
		pjob(0, 1, 0),
		pjob(1, 2, 0),
	}
	constraints := []precedence.Constraint{
		{Pred: model.JobID{Task: 1, Job: 0}, Succ: model.JobID{Task: 2, Job: 0}},
	}
	problems := BuildPartitions[int64](jobs, constraints)
	pe0 := problems[0]
	if len(pe0.Predecessors[1]) != 1 || pe0.Predecessors[1][0] != 0 {
		t.Fatalf("expected job 2 (local index 1) to have job 1 (local index 0) as a predecessor, got %v", pe0.Predecessors)
	}
	if len(pe0.Successors[0]) != 1 || pe0.Successors[0][0] != 1 {
		t.Fatalf("expected job 1 (local index 0) to have job 2 (local index 1) as a successor, got %v", pe0.Successors)
	}
	if !pe0.Ancestors[1].Contains(0) {
		t.Fatalf("expected job 2's ancestor set to include job 1's local index")
	}
}

func TestBuildPartitionsDropsCrossPEConstraints(t *testing.T) {
	jobs := []model.Job[int64]{
		pjob(0, 1, 0), // PE 0
		pjob(1, 2, 1), // PE 1
	}
	constraints := []precedence.Constraint{
		{Pred: model.JobID{Task: 1, Job: 0}, Succ: model.JobID{Task: 2, Job: 0}},
	}
	problems := BuildPartitions[int64](jobs, constraints)
	for pe, p := range problems {
		for i, preds := range p.Predecessors {
			if len(preds) != 0 {
				t.Fatalf("expected no same-PE predecessors on PE %d (constraint crosses PEs), job %d got %v", pe, i, preds)
			}
		}
	}
}

func TestTransitiveAncestorsFollowsChainOfPredecessors(t *testing.T) {
	// 0 -> 1 -> 2 (preds[2] = [1], preds[1] = [0])
	preds := [][]int{{}, {0}, {1}}
	got := transitiveAncestors(2, preds)
	if len(got) != 2 {
		t.Fatalf("expected 2 transitive ancestors of job 2, got %v", got)
	}
	seen := map[int]bool{}
	for _, a := range got {
		seen[a] = true
	}
	if !seen[0] || !seen[1] {
		t.Fatalf("expected ancestors {0,1}, got %v", got)
	}
}

func TestTransitiveAncestorsEmptyForRoot(t *testing.T) {
	preds := [][]int{{}, {0}}
	if got := transitiveAncestors(0, preds); len(got) != 0 {
		t.Fatalf("expected no ancestors for a root job, got %v", got)
	}
}
