package pipeline

import (
	"sort"
	"time"
)

// Summary aggregates the outcomes of one batch.
type Summary struct {
	Total         int
	Succeeded     int
	Failed        int
	Outcomes      []Outcome // job order
	Failures      []Outcome // sorted by input path
	InputBytes    int64
	OutputBytes   int64
	PixelsChanged int64
	Elapsed       time.Duration
	BatchID       string
}

// Summarize folds outcomes into a Summary. It runs after all workers have
// joined, so no synchronization is needed.
func Summarize(outcomes []Outcome, elapsed time.Duration) Summary {
	s := Summary{
		Total:    len(outcomes),
		Outcomes: outcomes,
		Elapsed:  elapsed,
	}
	for _, o := range outcomes {
		if !o.OK() {
			s.Failed++
			s.Failures = append(s.Failures, o)
			continue
		}
		s.Succeeded++
		s.InputBytes += o.InputBytes
		s.OutputBytes += o.OutputBytes
		s.PixelsChanged += int64(o.PixelsChanged)
	}
	sort.SliceStable(s.Failures, func(i, j int) bool {
		return s.Failures[i].Job.Input < s.Failures[j].Job.Input
	})
	return s
}

// SizeDelta returns output minus input bytes over successful jobs. Dilated
// PNGs usually grow because transparent areas stop being uniform.
func (s *Summary) SizeDelta() int64 {
	return s.OutputBytes - s.InputBytes
}

// Successes returns the successful outcomes in job order.
func (s *Summary) Successes() []Outcome {
	out := make([]Outcome, 0, s.Succeeded)
	for _, o := range s.Outcomes {
		if o.OK() {
			out = append(out, o)
		}
	}
	return out
}
