package pipeline

import (
	"fmt"
	"io"
	"math"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fixmyhalo/fixmyhalo/internal/display"
	"github.com/fixmyhalo/fixmyhalo/internal/term"
)

// reportRow holds the per-file data for the report table.
type reportRow struct {
	Name        string
	Resolution  string
	Transparent float64 // percent
	Changed     int
	InBytes     int64
	OutBytes    int64
	Growth      float64 // output/input size ratio
	Status      string
}

// PrintReport writes a per-file table of a finished batch to w. Files whose
// output grew unusually compared to the rest of the batch are flagged using
// IQR bounds on the output/input size ratio.
func PrintReport(w io.Writer, s *Summary) {
	if len(s.Outcomes) == 0 {
		return
	}
	rows := make([]reportRow, 0, len(s.Outcomes))
	var growth []float64
	for _, o := range s.Outcomes {
		r := reportRow{Name: filepath.Base(o.Job.Input), Status: "ok"}
		if !o.OK() {
			r.Status = string(o.Kind)
			rows = append(rows, r)
			continue
		}
		r.Resolution = o.Stats.Resolution()
		r.Transparent = o.Stats.TransparentPercent()
		r.Changed = o.PixelsChanged
		r.InBytes, r.OutBytes = o.InputBytes, o.OutputBytes
		if o.InputBytes > 0 {
			r.Growth = float64(o.OutputBytes) / float64(o.InputBytes)
			growth = append(growth, r.Growth)
		}
		rows = append(rows, r)
	}
	bounds := computeStats(growth)

	nameW := len("File")
	resW := len("Size")
	for _, r := range rows {
		nameW = max(nameW, len(r.Name))
		resW = max(resW, len(r.Resolution))
	}
	if nameW > 50 {
		nameW = 50
	}

	header := fmt.Sprintf("  %-*s  %-*s  %7s  %10s  %10s  %10s  %-9s",
		nameW, "File", resW, "Size", "Transp", "Changed", "Input", "Output", "Status")
	fmt.Fprintln(w, header)
	fmt.Fprintln(w, "  "+strings.Repeat("─", len(header)-2))

	for _, r := range rows {
		name := r.Name
		if len(name) > nameW {
			name = name[:nameW-1] + "…"
		}
		if r.Status != "ok" {
			fmt.Fprintf(w, "  %-*s  %-*s  %7s  %10s  %10s  %10s  %s\n",
				nameW, name, resW, "-", "-", "-", "-", "-",
				term.Red+r.Status+term.NC)
			continue
		}
		class := bounds.classify(r.Growth)
		outCell := colorPad(display.FormatBytes(r.OutBytes), 10, class)
		fmt.Fprintf(w, "  %-*s  %-*s  %6.1f%%  %10d  %10s  %s  %s%s\n",
			nameW, name, resW, r.Resolution, r.Transparent, r.Changed,
			display.FormatBytes(r.InBytes), outCell, r.Status, formatFlag(class))
	}
	fmt.Fprintln(w)
}

// iqrBounds holds the IQR-based thresholds for outlier classification.
type iqrBounds struct {
	q1, q3    float64
	outlierHi float64 // Q3 + 1.5*IQR
	extremeHi float64 // Q3 + 3.0*IQR
	valid     bool
}

func computeStats(vals []float64) iqrBounds {
	if len(vals) < 4 {
		return iqrBounds{}
	}

	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)

	q1 := percentile(sorted, 25)
	q3 := percentile(sorted, 75)
	iqr := q3 - q1

	return iqrBounds{
		q1:        q1,
		q3:        q3,
		outlierHi: q3 + 1.5*iqr,
		extremeHi: q3 + 3.0*iqr,
		valid:     iqr > 0,
	}
}

// classify returns "" (normal), "outlier", or "extreme". Only growth is
// flagged; shrinking output is never a problem.
func (b *iqrBounds) classify(v float64) string {
	if !b.valid || v <= 0 {
		return ""
	}
	if v > b.extremeHi {
		return "extreme"
	}
	if v > b.outlierHi {
		return "outlier"
	}
	return ""
}

func formatFlag(flag string) string {
	switch flag {
	case "extreme":
		return " " + term.Red + "[!]" + term.NC
	case "outlier":
		return " " + term.Orange + "[*]" + term.NC
	default:
		return ""
	}
}

// colorPad pads a plain string to width, then wraps in ANSI color, so
// alignment is not thrown off by escape bytes.
func colorPad(s string, width int, class string) string {
	padded := fmt.Sprintf("%*s", width, s)
	switch class {
	case "extreme":
		return term.Red + padded + term.NC
	case "outlier":
		return term.Orange + padded + term.NC
	default:
		return padded
	}
}

// percentile computes the p-th percentile using linear interpolation.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := (p / 100) * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi || hi >= len(sorted) {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
