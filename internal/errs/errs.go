// Package errs defines the recoverable error kinds surfaced by the
// analyzer, replacing the original implementation's process-abort and
// silent-stderr behavior with values callers can inspect and map to
// exit codes.
package errs

import "fmt"

// ParseError wraps a malformed-input failure, reported together with
// the offending file name.
type ParseError struct {
	File string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: parse error: %v", e.File, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// JobRef identifies a job referenced by a precedence constraint.
type JobRef struct {
	Task uint64
	Job  uint64
}

// InvalidJobReference is raised when a precedence edge names a job
// that does not exist in the generated job set.
type InvalidJobReference struct {
	Ref  JobRef
	File string
}

func (e *InvalidJobReference) Error() string {
	return fmt.Sprintf("%s: bad job reference: job %d of task %d is not part of the job set",
		e.File, e.Ref.Job, e.Ref.Task)
}

// InvalidTaskReference is raised when a task chain or edge names a
// task id absent from the DAG. The original C++ source calls exit(1)
// on this condition inside dag::find_task; this type is what the Go
// port returns instead.
type InvalidTaskReference struct {
	TaskID uint64
}

func (e *InvalidTaskReference) Error() string {
	return fmt.Sprintf("no such task: %d", e.TaskID)
}

// CyclicPrecedence means the topological sort could not emit every
// job; treated as a parse-class error upstream.
type CyclicPrecedence struct {
	Remaining int
}

func (e *CyclicPrecedence) Error() string {
	return fmt.Sprintf("cyclic precedence constraints: %d jobs never became ready", e.Remaining)
}

// FeatureDisabled is returned when DOT graph output is requested but
// graph collection was not compiled in.
type FeatureDisabled struct {
	Feature string
}

func (e *FeatureDisabled) Error() string {
	return fmt.Sprintf("feature disabled: %s", e.Feature)
}

// ExitCode maps an error produced by this package to the process exit
// code defined in the external-interface contract. Unrecognized errors
// (and nil) map to 0/1 as appropriate.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch err.(type) {
	case *InvalidJobReference:
		return 3
	case *FeatureDisabled:
		return 2
	default:
		return 1
	}
}
