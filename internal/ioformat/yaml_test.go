package ioformat

import (
	"testing"
)

const twoTaskYAML = `
vertexset:
  - TaskID: 1
    BCET: 2
    WCET: 3
    Period: 10
    Deadline: 10
    Jitter: 1
    PE: 0
    Successors: [2]
  - TaskID: 2
    BCET: 1
    WCET: 2
    Period: 10
    Deadline: 10
    Jitter: 0
    PE: 0
    Successors: []
`

func TestParseDAGBuildsTasksAndEdges(t *testing.T) {
	dag, err := ParseDAG[int64]([]byte(twoTaskYAML), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(dag.Tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(dag.Tasks))
	}
	if len(dag.Edges) != 1 {
		t.Fatalf("expected 1 edge, got %d", len(dag.Edges))
	}
	t1, err := dag.FindTask(1)
	if err != nil {
		t.Fatalf("expected to find task 1: %v", err)
	}
	if dag.Tasks[t1].BCET != 2 || dag.Tasks[t1].WCET != 3 {
		t.Fatalf("expected bcet=2 wcet=3 in non-worst-case mode, got bcet=%v wcet=%v", dag.Tasks[t1].BCET, dag.Tasks[t1].WCET)
	}
}

func TestParseDAGWorstCaseOverridesBCETAndZeroesJitter(t *testing.T) {
	dag, err := ParseDAG[int64]([]byte(twoTaskYAML), true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t1, _ := dag.FindTask(1)
	task := dag.Tasks[t1]
	if task.BCET != task.WCET {
		t.Fatalf("worst-case mode should collapse BCET to WCET, got bcet=%v wcet=%v", task.BCET, task.WCET)
	}
	if task.MaxJitter() != 0 {
		t.Fatalf("worst-case mode should zero jitter, got %v", task.MaxJitter())
	}
}

func TestParseDAGRecoveryCostDefaultsWithoutExplicitValues(t *testing.T) {
	dag, err := ParseDAG[int64]([]byte(twoTaskYAML), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t1, _ := dag.FindTask(1)
	task := dag.Tasks[t1]
	if task.RecCostMin != task.BCET {
		t.Fatalf("expected RecoveryCostMin to default to BCET in non-worst-case mode, got %v (bcet=%v)", task.RecCostMin, task.BCET)
	}
	if task.RecCostMax != task.WCET {
		t.Fatalf("expected RecoveryCostMax to default to WCET, got %v (wcet=%v)", task.RecCostMax, task.WCET)
	}
}

func TestParseDAGUnknownSuccessorReturnsError(t *testing.T) {
	bad := `
vertexset:
  - TaskID: 1
    BCET: 1
    WCET: 1
    Period: 5
    Deadline: 5
    Jitter: 0
    PE: 0
    Successors: [99]
`
	if _, err := ParseDAG[int64]([]byte(bad), false); err == nil {
		t.Fatalf("expected an error wiring an edge to a nonexistent successor task")
	}
}

func TestHasTaskChainsDetectsPresenceAndAbsence(t *testing.T) {
	if HasTaskChains([]byte(twoTaskYAML)) {
		t.Fatalf("expected no taskchains key in the plain vertexset document")
	}
	withChains := twoTaskYAML + "\ntaskchains:\n  - Chain: [1, 2]\n"
	if !HasTaskChains([]byte(withChains)) {
		t.Fatalf("expected taskchains key to be detected")
	}
}

func TestParseTaskChainsBuildsExplicitChain(t *testing.T) {
	dag, err := ParseDAG[int64]([]byte(twoTaskYAML), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	doc := twoTaskYAML + "\ntaskchains:\n  - Chain: [1, 2]\n"
	if err := ParseTaskChains[int64]([]byte(doc), dag); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	chains := dag.GetTaskChains()
	if len(chains) != 1 || len(chains[0]) != 2 {
		t.Fatalf("expected one 2-task chain, got %v", chains)
	}
}

func TestParseTaskChainsUnknownTaskReturnsError(t *testing.T) {
	dag, err := ParseDAG[int64]([]byte(twoTaskYAML), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	doc := twoTaskYAML + "\ntaskchains:\n  - Chain: [1, 99]\n"
	if err := ParseTaskChains[int64]([]byte(doc), dag); err == nil {
		t.Fatalf("expected an error for a chain referencing a nonexistent task")
	}
}
