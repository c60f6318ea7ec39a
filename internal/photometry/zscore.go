package photometry

import "fmt"

// BaselineStats records the statistics of the fixed baseline window used for
// Z-score normalization.
type BaselineStats struct {
	Mean    float64
	Std     float64
	Samples int
}

// Normalize converts a corrected trace to Z-scores against a fixed baseline
// window expressed in time from recording start. The baseline mean and sample
// standard deviation are computed from samples inside the window, bounds
// inclusive, and every sample becomes (value - mean) / std.
//
// A window with zero samples inside the trace span yields ErrEmptyBaseline.
// A baseline standard deviation at or below the numeric epsilon yields
// ErrZeroVariance. A window that only partially overlaps the trace span is
// valid as long as at least one sample falls inside.
func Normalize(trace Trace, baseline Window) (Trace, BaselineStats, error) {
	if err := baseline.Validate(); err != nil {
		return Trace{}, BaselineStats{}, fmt.Errorf("baseline window: %w", err)
	}
	if len(trace.Time) != len(trace.Value) {
		return Trace{}, BaselineStats{}, fmt.Errorf("%w: time and value lengths differ (%d != %d)",
			ErrMalformedRecording, len(trace.Time), len(trace.Value))
	}

	mean, std, n := windowStats(trace.Time, trace.Value, baseline)
	if n == 0 {
		return Trace{}, BaselineStats{}, fmt.Errorf("%w: baseline [%.3f, %.3f] outside trace span",
			ErrEmptyBaseline, baseline.Start, baseline.End)
	}
	if std <= epsVariance {
		return Trace{}, BaselineStats{}, fmt.Errorf("%w: std %.3e over %d baseline samples",
			ErrZeroVariance, std, n)
	}

	stats := BaselineStats{Mean: mean, Std: std, Samples: n}
	out := Trace{Time: trace.Time, Value: make([]float64, len(trace.Value))}
	for i, v := range trace.Value {
		out.Value[i] = (v - mean) / std
	}
	return out, stats, nil
}
