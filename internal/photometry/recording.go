// Package photometry implements the per-animal signal correction pipeline for
// fiber photometry recordings: photobleaching detrending, reference channel
// motion regression and fixed-baseline Z-score normalization, plus the
// cross-animal aggregation into group mean and SEM traces.
package photometry

import (
	"fmt"
	"math"

	"github.com/nkarvinen/photometry-go/internal/errors"
)

// Sentinel errors returned by the numeric core. Callers match these with
// errors.Is; the analysis layer attaches animal identity on top.
var (
	ErrMalformedRecording   = errors.NewStd("malformed recording")
	ErrInvalidWindow        = errors.NewStd("invalid correction window")
	ErrDegenerateRegression = errors.NewStd("reference channel has no variance")
	ErrEmptyBaseline        = errors.NewStd("no samples in baseline window")
	ErrZeroVariance         = errors.NewStd("baseline standard deviation is zero")
)

// epsVariance is the threshold below which a variance or standard deviation
// is treated as zero, so degenerate inputs surface as errors instead of
// producing NaN or Inf.
const epsVariance = 1e-12

// Recording holds the canonical channels of one animal's session as produced
// by the channel extractor: a strictly increasing time axis in seconds, the
// calcium-dependent signal channel and the isosbestic reference channel.
type Recording struct {
	AnimalID  string
	Time      []float64
	Signal    []float64
	Reference []float64
}

// Validate checks the recording invariants: non-empty, equal channel lengths
// and a strictly increasing time axis.
func (r *Recording) Validate() error {
	if len(r.Time) == 0 {
		return fmt.Errorf("%w: empty time series", ErrMalformedRecording)
	}
	if len(r.Signal) != len(r.Time) || len(r.Reference) != len(r.Time) {
		return fmt.Errorf("%w: channel lengths differ (time=%d signal=%d reference=%d)",
			ErrMalformedRecording, len(r.Time), len(r.Signal), len(r.Reference))
	}
	for i := 1; i < len(r.Time); i++ {
		if r.Time[i] <= r.Time[i-1] {
			return fmt.Errorf("%w: time not strictly increasing at sample %d (%.3f -> %.3f)",
				ErrMalformedRecording, i, r.Time[i-1], r.Time[i])
		}
	}
	return nil
}

// Span returns the first and last timestamp of the recording.
func (r *Recording) Span() (start, end float64) {
	if len(r.Time) == 0 {
		return 0, 0
	}
	return r.Time[0], r.Time[len(r.Time)-1]
}

// Window is a closed time interval in seconds. Both bounds are inclusive when
// selecting samples.
type Window struct {
	Start float64
	End   float64
}

// Validate reports whether the window is well formed.
func (w Window) Validate() error {
	if w.Start >= w.End {
		return fmt.Errorf("%w: start %.3f not before end %.3f", ErrInvalidWindow, w.Start, w.End)
	}
	return nil
}

// Contains reports whether t falls inside the window, bounds inclusive.
func (w Window) Contains(t float64) bool {
	return t >= w.Start && t <= w.End
}

// Mid returns the window midpoint.
func (w Window) Mid() float64 {
	return (w.Start + w.End) / 2
}

// Trace is an ordered (time, value) series aligned one to one with the
// timestamps of the recording it was derived from. Traces are treated as
// immutable once returned from a pipeline stage.
type Trace struct {
	Time  []float64
	Value []float64
}

// windowStats returns mean, sample standard deviation and count of the values
// whose timestamp falls inside the window. The standard deviation uses the
// n-1 divisor and is zero when fewer than two samples are present.
func windowStats(time, values []float64, w Window) (mean, std float64, n int) {
	var sum float64
	for i, t := range time {
		if w.Contains(t) {
			sum += values[i]
			n++
		}
	}
	if n == 0 {
		return 0, 0, 0
	}
	mean = sum / float64(n)
	if n < 2 {
		return mean, 0, n
	}
	var ss float64
	for i, t := range time {
		if w.Contains(t) {
			d := values[i] - mean
			ss += d * d
		}
	}
	std = math.Sqrt(ss / float64(n-1))
	return mean, std, n
}
