package photometry

import (
	"fmt"
	"math"
)

// GroupBin is one time bin of a group summary. Mean and SEM are NaN when no
// animal contributed a sample to the bin; N records how many did.
type GroupBin struct {
	Time float64
	Mean float64
	SEM  float64
	N    int
}

// GroupSummary is the aggregated mean and SEM trace of one group of animals
// over a contiguous fixed-resolution time grid.
type GroupSummary struct {
	Group   string
	Animals int
	Bins    []GroupBin
}

// Aggregate resamples the per-animal Z-score traces of one group onto a
// common time grid and computes the across-animal mean and SEM per bin,
// restricted to the given plot window.
//
// Each sample lands in the bin nearest round(t/binSize); within-bin
// duplicates of one animal are averaged first. Per bin the mean ignores
// absent animals, while the SEM divisor is always the square root of the
// group's total animal count, not the count present at that bin. Absent
// animals therefore widen the SEM rather than shrinking the sample. The
// numerator is the sample standard deviation of the present values, zero when
// fewer than two animals are present.
//
// Zero traces yield an empty summary, not an error.
func Aggregate(group string, traces []Trace, binSize float64, window Window) (GroupSummary, error) {
	if binSize <= 0 {
		return GroupSummary{}, fmt.Errorf("%w: bin size %.3f not positive", ErrInvalidWindow, binSize)
	}
	if err := window.Validate(); err != nil {
		return GroupSummary{}, fmt.Errorf("plot window: %w", err)
	}

	summary := GroupSummary{Group: group, Animals: len(traces)}
	if len(traces) == 0 {
		return summary, nil
	}

	type binAcc struct {
		sum float64
		n   int
	}

	// Per-animal binning: bin index -> mean of that animal's in-bin samples.
	binned := make([]map[int]float64, len(traces))
	for ai, tr := range traces {
		acc := make(map[int]binAcc)
		for i, t := range tr.Time {
			if !window.Contains(t) {
				continue
			}
			idx := int(math.Round(t / binSize))
			a := acc[idx]
			a.sum += tr.Value[i]
			a.n++
			acc[idx] = a
		}
		binned[ai] = make(map[int]float64, len(acc))
		for idx, a := range acc {
			binned[ai][idx] = a.sum / float64(a.n)
		}
	}

	first := int(math.Round(window.Start / binSize))
	last := int(math.Round(window.End / binSize))
	totalN := math.Sqrt(float64(len(traces)))

	for idx := first; idx <= last; idx++ {
		bin := GroupBin{Time: float64(idx) * binSize}

		var present []float64
		for ai := range binned {
			if v, ok := binned[ai][idx]; ok {
				present = append(present, v)
			}
		}
		bin.N = len(present)

		switch {
		case bin.N == 0:
			bin.Mean = math.NaN()
			bin.SEM = math.NaN()
		default:
			var sum float64
			for _, v := range present {
				sum += v
			}
			bin.Mean = sum / float64(bin.N)
			if bin.N >= 2 {
				var ss float64
				for _, v := range present {
					d := v - bin.Mean
					ss += d * d
				}
				bin.SEM = math.Sqrt(ss/float64(bin.N-1)) / totalN
			}
		}
		summary.Bins = append(summary.Bins, bin)
	}
	return summary, nil
}
