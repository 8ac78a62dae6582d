package planner

import "errors"

// ErrPlanning matches every *PlanningError via errors.Is.
var ErrPlanning = errors.New("planning error")

// PlanningError reports a request the planner cannot turn into jobs, such as
// combining in-place output with an explicit output directory. It is raised
// before any job runs.
type PlanningError struct {
	Msg string
	Err error // optional cause
}

func (e *PlanningError) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *PlanningError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrPlanning) match any PlanningError.
func (e *PlanningError) Is(target error) bool { return target == ErrPlanning }
