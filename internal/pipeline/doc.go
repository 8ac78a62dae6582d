// Package pipeline runs planned jobs and reports what happened.
//
// Per job (ProcessJob): mkdir, read, decode, inspect, dilate, encode, and an
// atomic temp-file-plus-rename write. Errors never escape a job; they become
// a failed Outcome with a Kind.
//
// Execution is either local (Execute: a fixed worker pool over the job list,
// one outcome slot per job, joined with a WaitGroup) or distributed
// (Coordinate/Serve: jobs and outcomes travel over Redis Streams). Both
// produce a Summary. Run ties planning, execution, archiving and the final
// log lines together for the CLI.
package pipeline
