// Package ioformat implements the thin glue around the analyzer core:
// YAML input parsing, CSV/Graphviz output, and the stdout summary
// line, grounded on original_source/include/io.hpp and
// original_source/src/run_analysis.cpp. None of this package
// participates in the exploration or data-age algorithms themselves.
package ioformat

import (
	"gopkg.in/yaml.v3"

	"github.com/swarmguard/npdaa/internal/errs"
	"github.com/swarmguard/npdaa/internal/model"
	"github.com/swarmguard/npdaa/internal/timeval"
)

type vertexDocument struct {
	VertexSet []vertexEntry `yaml:"vertexset"`
}

type vertexEntry struct {
	TaskID          uint64   `yaml:"TaskID"`
	BCET            float64  `yaml:"BCET"`
	WCET            float64  `yaml:"WCET"`
	RecoveryCostMin *float64 `yaml:"RecoveryCostMin"`
	RecoveryCostMax *float64 `yaml:"RecoveryCostMax"`
	Period          float64  `yaml:"Period"`
	Deadline        float64  `yaml:"Deadline"`
	Jitter          float64  `yaml:"Jitter"`
	PE              uint64   `yaml:"PE"`
	Successors      []uint64 `yaml:"Successors"`
}

type chainDocument struct {
	TaskChains []chainEntry `yaml:"taskchains"`
}

type chainEntry struct {
	Chain []uint64 `yaml:"Chain"`
}

func fromFloat64[T timeval.Numeric](v float64) T { return T(v) }

// ParseDAG decodes a vertexset document into a DAG, matching
// io.hpp's parse_mr_dag. worstCase mirrors the CLI's -w flag: BCET is
// overridden to WCET and jitter collapses to zero, with the same
// RecoveryCostMin/Max default resolution the original applies.
func ParseDAG[T timeval.Numeric](data []byte, worstCase bool) (*model.DAG[T], error) {
	var doc vertexDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &errs.ParseError{Err: err}
	}

	dag := model.NewDAG[T]()
	for _, t := range doc.VertexSet {
		bcetRaw, wcetRaw := t.BCET, t.WCET
		bcet := bcetRaw
		if worstCase {
			bcet = wcetRaw
		}

		var recMin float64
		if t.RecoveryCostMin != nil {
			if worstCase {
				if t.RecoveryCostMax != nil {
					recMin = *t.RecoveryCostMax
				} else {
					recMin = wcetRaw
				}
			} else {
				recMin = *t.RecoveryCostMin
			}
		} else if worstCase {
			recMin = wcetRaw
		} else {
			recMin = bcetRaw
		}

		var recMax float64
		if t.RecoveryCostMax != nil {
			recMax = *t.RecoveryCostMax
		} else {
			recMax = wcetRaw
		}

		jitter := t.Jitter
		if worstCase {
			jitter = 0
		}

		dag.AddTask(
			t.TaskID,
			fromFloat64[T](bcet),
			fromFloat64[T](wcetRaw),
			fromFloat64[T](recMin),
			fromFloat64[T](recMax),
			fromFloat64[T](t.Period),
			timeval.New(fromFloat64[T](0), fromFloat64[T](jitter)),
			fromFloat64[T](t.Deadline),
			t.PE,
		)
	}

	for _, t := range doc.VertexSet {
		for _, succ := range t.Successors {
			if err := dag.AddEdge(t.TaskID, succ); err != nil {
				return nil, err
			}
		}
	}
	return dag, nil
}

// ParseTaskChains decodes a taskchains document into explicit chains
// on an already-parsed DAG, matching io.hpp's parse_task_chain. The
// original re-seeks the same input stream to parse this second
// top-level key; since Go's YAML decoder does not need a seekable
// stream, callers simply pass the same file bytes given to ParseDAG.
func ParseTaskChains[T timeval.Numeric](data []byte, dag *model.DAG[T]) error {
	var doc chainDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return &errs.ParseError{Err: err}
	}
	for _, entry := range doc.TaskChains {
		chain := make(model.TaskChain, 0, len(entry.Chain))
		for _, tid := range entry.Chain {
			idx, err := dag.FindTask(tid)
			if err != nil {
				return err
			}
			chain = append(chain, idx)
		}
		dag.AddTaskChain(chain)
	}
	return nil
}

// HasTaskChains reports whether the raw document bytes contain a
// non-empty taskchains key, used by the CLI driver to decide between
// the explicit chains and the longest-path default (matching
// run_analysis.cpp, whose call to find_task_chains() is commented out
// in favor of always falling back to find_longest_task_chain when no
// taskchains document is supplied).
func HasTaskChains(data []byte) bool {
	var doc chainDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return false
	}
	return len(doc.TaskChains) > 0
}
