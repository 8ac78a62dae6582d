// Package planner turns a root argument (file, directory or glob) and
// an output policy into an ordered list of jobs. It reads path metadata
// only, never pixel data.
//
//   - types.go: Job, Request, OutputPolicy, RootKind, Plan
//   - discover.go: directory walk and glob matching with the extension filter
//   - planner.go: NewPolicy, Classify, Build (sort, dedupe, collision policy)
//   - errors.go: PlanningError
package planner
