package model

import (
	"fmt"
	"strings"

	"github.com/swarmguard/npdaa/internal/errs"
	"github.com/swarmguard/npdaa/internal/timeval"
)

// TaskChain is an ordered sequence of task indices forming a
// source-to-sink path, grounded on dag.hpp's Task_chain typedef
// (originally a vector of shared_ptr<Task>; re-expressed here as task
// indices per the arena+indices redesign).
type TaskChain []int

// DAG holds the task and edge arenas plus the derived chain list and
// hyperperiod, grounded on original_source/include/dag.hpp. Tasks and
// edges are immutable once added; chains are computed or supplied
// after all tasks/edges are in place.
type DAG[T timeval.Numeric] struct {
	Tasks       []Task[T]
	Edges       []Edge
	byTaskID    map[uint64]int
	Chains      []TaskChain
	Hyperperiod T
}

// NewDAG returns an empty DAG ready for AddTask/AddEdge calls.
func NewDAG[T timeval.Numeric]() *DAG[T] {
	return &DAG[T]{byTaskID: make(map[uint64]int)}
}

// AddTask appends a task, assigning it the next arena index. Matches
// dag.hpp's add_task (both overloads collapse into one Go signature;
// callers needing the recovery-cost-defaults-to-BCET/WCET behavior do
// that resolution in the YAML loader, per io.hpp's parse_mr_dag).
func (d *DAG[T]) AddTask(taskID uint64, bcet, wcet, recMin, recMax, period T, jitter timeval.Interval[T], deadline T, pe uint64) int {
	idx := len(d.Tasks)
	d.Tasks = append(d.Tasks, Task[T]{
		Index:      idx,
		TaskID:     taskID,
		Name:       fmt.Sprintf("T%d", taskID),
		BCET:       bcet,
		WCET:       wcet,
		RecCostMin: recMin,
		RecCostMax: recMax,
		Period:     period,
		Jitter:     jitter,
		Deadline:   deadline,
		PE:         pe,
	})
	d.byTaskID[taskID] = idx
	return idx
}

// FindTask looks up a task by its external TaskID. Unlike dag.hpp's
// find_task, which calls exit(1) on a miss, this returns a recoverable
// error (see DESIGN.md / spec.md §9).
func (d *DAG[T]) FindTask(taskID uint64) (int, error) {
	idx, ok := d.byTaskID[taskID]
	if !ok {
		return -1, &errs.InvalidTaskReference{TaskID: taskID}
	}
	return idx, nil
}

// AddEdge wires a precedence edge between two existing tasks,
// updating both tasks' incident-edge index slices. Matches dag.hpp's
// add_edge, which in the original sets back-references on both task
// objects; here that is two index-slice appends instead of pointer
// mutation.
func (d *DAG[T]) AddEdge(srcTaskID, dstTaskID uint64) error {
	srcIdx, err := d.FindTask(srcTaskID)
	if err != nil {
		return err
	}
	dstIdx, err := d.FindTask(dstTaskID)
	if err != nil {
		return err
	}
	edgeIdx := len(d.Edges)
	d.Edges = append(d.Edges, Edge{
		Src:  srcIdx,
		Dst:  dstIdx,
		Name: fmt.Sprintf("%s->%s", d.Tasks[srcIdx].Name, d.Tasks[dstIdx].Name),
	})
	d.Tasks[srcIdx].OutgoingEdge = append(d.Tasks[srcIdx].OutgoingEdge, edgeIdx)
	d.Tasks[dstIdx].IncomingEdge = append(d.Tasks[dstIdx].IncomingEdge, edgeIdx)
	return nil
}

// AddTaskChain records an explicit chain (from the YAML taskchains
// document), matching dag.hpp's add_task_chain.
func (d *DAG[T]) AddTaskChain(chain TaskChain) {
	d.Chains = append(d.Chains, chain)
}

// GetTaskChains returns the chains currently recorded (explicit or
// derived).
func (d *DAG[T]) GetTaskChains() []TaskChain { return d.Chains }

// SourceTasks returns indices of tasks with no incoming edges.
func (d *DAG[T]) SourceTasks() []int {
	var out []int
	for _, t := range d.Tasks {
		if t.IsSource() {
			out = append(out, t.Index)
		}
	}
	return out
}

// SinkTasks returns indices of tasks with no outgoing edges.
func (d *DAG[T]) SinkTasks() []int {
	var out []int
	for _, t := range d.Tasks {
		if t.IsSink() {
			out = append(out, t.Index)
		}
	}
	return out
}

// FindAllPaths enumerates every source-to-sink path in the DAG,
// matching dag.hpp's find_all_paths/find_all_paths_util (DFS
// enumeration). Supplements the spec's default longest-chain-only
// behavior for callers that want the full chain set (see
// SPEC_FULL.md §4.8).
func (d *DAG[T]) FindAllPaths() []TaskChain {
	var paths []TaskChain
	sinks := make(map[int]bool)
	for _, s := range d.SinkTasks() {
		sinks[s] = true
	}
	var dfs func(cur int, path TaskChain)
	dfs = func(cur int, path TaskChain) {
		path = append(path, cur)
		if sinks[cur] {
			cp := make(TaskChain, len(path))
			copy(cp, path)
			paths = append(paths, cp)
			return
		}
		for _, eidx := range d.Tasks[cur].OutgoingEdge {
			dfs(d.Edges[eidx].Dst, path)
		}
	}
	for _, s := range d.SourceTasks() {
		dfs(s, nil)
	}
	return paths
}

// FindTaskChains recomputes Chains as every source-to-sink path,
// matching dag.hpp's find_task_chains.
func (d *DAG[T]) FindTaskChains() {
	d.Chains = d.FindAllPaths()
}

// FindLongestTaskChain sets Chains to a single-element slice holding
// only the longest source-to-sink path, matching dag.hpp's
// find_longest_task_chain. This is what run_analysis.cpp actually
// calls when the input has no taskchains document (its call to
// find_task_chains is commented out), so the CLI driver in this
// repository uses this method for that default, not FindTaskChains.
func (d *DAG[T]) FindLongestTaskChain() {
	paths := d.FindAllPaths()
	var longest TaskChain
	for _, p := range paths {
		if len(p) > len(longest) {
			longest = p
		}
	}
	if longest != nil {
		d.Chains = []TaskChain{longest}
	} else {
		d.Chains = nil
	}
}

// gcd computes the greatest common "divisor" of two period values via
// subtraction-based Euclid, which works for any Numeric type (integer
// or integer-valued float) without requiring a modulo operator. A zero
// operand yields zero, which callers treat as "skip this period".
func gcd[T timeval.Numeric](a, b T) T {
	var zero T
	if a == zero || b == zero {
		return zero
	}
	if a < zero {
		a = -a
	}
	if b < zero {
		b = -b
	}
	for a != b {
		if a > b {
			a -= b
		} else {
			b -= a
		}
	}
	return a
}

// CalculateHyperperiod sets Hyperperiod to the LCM of every task's
// period, matching dag.hpp's calculate_hyperperiod.
func (d *DAG[T]) CalculateHyperperiod() {
	var zero T
	hp := zero
	for i, t := range d.Tasks {
		if i == 0 {
			hp = t.Period
			continue
		}
		g := gcd(hp, t.Period)
		if g == zero {
			continue
		}
		hp = (hp / g) * t.Period
	}
	d.Hyperperiod = hp
}

// GetNumberHPObservationWindow returns the hyperperiod multiplier for
// the job-generation unrolling horizon, matching dag.hpp's
// get_number_hp_observation_window: the largest ceil(2*sum(period) /
// hyperperiod) over every recorded chain, plus one. Multiplying the result by
// Hyperperiod (done by the caller, see generate_job_set in io.hpp) is
// what spec.md §3 calls the observation window OW.
func (d *DAG[T]) GetNumberHPObservationWindow() int64 {
	var zero T
	if d.Hyperperiod == zero {
		return 1
	}
	var maxRatio int64 = 0
	for _, chain := range d.Chains {
		var sumPeriod T
		for _, ti := range chain {
			sumPeriod += d.Tasks[ti].Period
		}
		num := toFloat(sumPeriod) * 2
		den := toFloat(d.Hyperperiod)
		ratio := ceilDiv(num, den)
		if ratio > maxRatio {
			maxRatio = ratio
		}
	}
	if len(d.Chains) == 0 {
		maxRatio = 1
	}
	return maxRatio + 1
}

// ChainHyperperiod returns the LCM of periods along the chain at the
// given index, matching dag.hpp's get_chain_hyperperiod.
func (d *DAG[T]) ChainHyperperiod(index int) T {
	var zero T
	if index < 0 || index >= len(d.Chains) {
		return zero
	}
	chain := d.Chains[index]
	hp := zero
	for i, ti := range chain {
		if i == 0 {
			hp = d.Tasks[ti].Period
			continue
		}
		g := gcd(hp, d.Tasks[ti].Period)
		if g == zero {
			continue
		}
		hp = (hp / g) * d.Tasks[ti].Period
	}
	return hp
}

func toFloat[T timeval.Numeric](v T) float64 { return float64(v) }

func ceilDiv(num, den float64) int64 {
	if den == 0 {
		return 0
	}
	q := num / den
	iq := int64(q)
	if float64(iq) < q {
		iq++
	}
	return iq
}

// Describe renders a human-readable dump of tasks, edges, and chains,
// matching dag.hpp's to_string(). Supplemented per SPEC_FULL.md §4.8.
func (d *DAG[T]) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "tasks (%d):\n", len(d.Tasks))
	for _, t := range d.Tasks {
		fmt.Fprintf(&b, "  %s\n", t.PrintSpec())
	}
	fmt.Fprintf(&b, "edges (%d):\n", len(d.Edges))
	for _, e := range d.Edges {
		fmt.Fprintf(&b, "  %s\n", e.String())
	}
	fmt.Fprintf(&b, "chains (%d):\n", len(d.Chains))
	for i, c := range d.Chains {
		names := make([]string, len(c))
		for j, ti := range c {
			names[j] = d.Tasks[ti].Name
		}
		fmt.Fprintf(&b, "  [%d] %s\n", i, strings.Join(names, " -> "))
	}
	return b.String()
}
