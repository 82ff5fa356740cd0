package ioformat

import (
	"fmt"
	"strings"

	"github.com/swarmguard/npdaa/internal/errs"
	"github.com/swarmguard/npdaa/internal/model"
	"github.com/swarmguard/npdaa/internal/timeval"
)

// WriteDOT renders a Graphviz digraph summarizing per-job start/finish
// windows, loosely matching por_space.hpp's print_edge label format
// (task/job id, deadline, earliest/latest start). The original's -g
// flag dumps the full schedule graph, which requires compile-time
// edge collection (CONFIG_COLLECT_SCHEDULE_GRAPH) this port does not
// carry (see DESIGN.md); -g here instead renders one node per job with
// its computed windows, which is the graph-shaped data this analyzer
// actually retains. Returns FeatureDisabled if no job has recorded
// start times (nothing to draw).
func WriteDOT[T timeval.Numeric](jobs []model.Job[T], startTimes, finishTimes map[model.JobID]timeval.Interval[T]) (string, error) {
	if len(startTimes) == 0 {
		return "", &errs.FeatureDisabled{Feature: "graph"}
	}
	var b strings.Builder
	b.WriteString("digraph schedule {\n")
	for _, j := range jobs {
		st, stOK := startTimes[j.ID]
		ft, ftOK := finishTimes[j.ID]
		if !stOK || !ftOK {
			continue
		}
		fmt.Fprintf(&b, "\tJ_%d_%d [label=\"T%d J%d\\nDL=%v\\nES=%v LS=%v\\nEF=%v LF=%v\"];\n",
			j.ID.Task, j.ID.Job, j.ID.Task, j.ID.Job, j.Deadline, st.From(), st.Until(), ft.From(), ft.Until())
	}
	b.WriteString("}\n")
	return b.String(), nil
}
