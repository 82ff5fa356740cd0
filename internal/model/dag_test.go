package model

import (
	"testing"

	"github.com/swarmguard/npdaa/internal/timeval"
)

func buildChainDAG(t *testing.T) *DAG[int64] {
	t.Helper()
	d := NewDAG[int64]()
	d.AddTask(1, 1, 2, 1, 2, 10, timeval.New[int64](0, 0), 10, 0)
	d.AddTask(2, 2, 3, 2, 3, 10, timeval.New[int64](0, 0), 10, 0)
	if err := d.AddEdge(1, 2); err != nil {
		t.Fatalf("AddEdge failed: %v", err)
	}
	return d
}

func TestFindTaskMissReturnsError(t *testing.T) {
	d := buildChainDAG(t)
	if _, err := d.FindTask(99); err == nil {
		t.Fatalf("expected InvalidTaskReference for a missing task id")
	}
}

func TestAddEdgeUnknownTaskReturnsError(t *testing.T) {
	d := NewDAG[int64]()
	d.AddTask(1, 1, 2, 1, 2, 10, timeval.New[int64](0, 0), 10, 0)
	if err := d.AddEdge(1, 2); err == nil {
		t.Fatalf("expected an error wiring an edge to a nonexistent task")
	}
}

func TestSourceAndSinkTasks(t *testing.T) {
	d := buildChainDAG(t)
	sources := d.SourceTasks()
	sinks := d.SinkTasks()
	if len(sources) != 1 || d.Tasks[sources[0]].TaskID != 1 {
		t.Fatalf("expected task 1 to be the only source, got %v", sources)
	}
	if len(sinks) != 1 || d.Tasks[sinks[0]].TaskID != 2 {
		t.Fatalf("expected task 2 to be the only sink, got %v", sinks)
	}
}

func TestFindLongestTaskChainPicksTheLongestPath(t *testing.T) {
	d := NewDAG[int64]()
	d.AddTask(1, 1, 1, 1, 1, 10, timeval.New[int64](0, 0), 10, 0)
	d.AddTask(2, 1, 1, 1, 1, 10, timeval.New[int64](0, 0), 10, 0)
	d.AddTask(3, 1, 1, 1, 1, 10, timeval.New[int64](0, 0), 10, 0)
	d.AddTask(4, 1, 1, 1, 1, 10, timeval.New[int64](0, 0), 10, 0)
	d.AddEdge(1, 2)
	d.AddEdge(2, 3)
	d.AddEdge(1, 4) // short branch: 1 -> 4

	d.FindLongestTaskChain()
	if len(d.Chains) != 1 {
		t.Fatalf("expected exactly one chain, got %d", len(d.Chains))
	}
	if len(d.Chains[0]) != 3 {
		t.Fatalf("expected the longest chain (1->2->3) to have length 3, got %d", len(d.Chains[0]))
	}
}

func TestCalculateHyperperiodIsLCMOfPeriods(t *testing.T) {
	d := NewDAG[int64]()
	d.AddTask(1, 1, 1, 1, 1, 6, timeval.New[int64](0, 0), 6, 0)
	d.AddTask(2, 1, 1, 1, 1, 10, timeval.New[int64](0, 0), 10, 0)
	d.CalculateHyperperiod()
	if d.Hyperperiod != 30 {
		t.Fatalf("expected hyperperiod lcm(6,10)=30, got %d", d.Hyperperiod)
	}
}

func TestGetNumberHPObservationWindowAtLeastOne(t *testing.T) {
	d := buildChainDAG(t)
	d.CalculateHyperperiod()
	d.FindLongestTaskChain()
	ow := d.GetNumberHPObservationWindow()
	if ow < 1 {
		t.Fatalf("observation window multiplier must be >= 1, got %d", ow)
	}
}

func TestChainHyperperiodOutOfRangeReturnsZero(t *testing.T) {
	d := buildChainDAG(t)
	if got := d.ChainHyperperiod(5); got != 0 {
		t.Fatalf("expected zero value for out-of-range chain index, got %v", got)
	}
}

func TestDescribeIncludesTaskAndChainNames(t *testing.T) {
	d := buildChainDAG(t)
	d.FindLongestTaskChain()
	desc := d.Describe()
	if len(desc) == 0 {
		t.Fatalf("expected a non-empty description")
	}
}
