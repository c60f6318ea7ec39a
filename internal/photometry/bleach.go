package photometry

import "fmt"

// CorrectBleaching removes slow photobleaching drift from a single
// fluorescence channel. It averages the channel inside the early and late
// windows, fits a two-point linear trend with slope
// (lateMean-earlyMean)/(lateMid-earlyMid) anchored so the line passes through
// the early window start at the early mean, evaluates the trend at every
// sample time and returns the channel with the trend subtracted.
//
// The returned slice has the same length as the input and is aligned with the
// same timestamps. Equal window means produce a flat trend, which is valid.
func CorrectBleaching(time, values []float64, early, late Window) ([]float64, error) {
	if len(time) != len(values) {
		return nil, fmt.Errorf("%w: time and value lengths differ (%d != %d)",
			ErrMalformedRecording, len(time), len(values))
	}
	if err := early.Validate(); err != nil {
		return nil, fmt.Errorf("early window: %w", err)
	}
	if err := late.Validate(); err != nil {
		return nil, fmt.Errorf("late window: %w", err)
	}
	if early.End > late.Start {
		return nil, fmt.Errorf("%w: early window [%.3f, %.3f] does not precede late window [%.3f, %.3f]",
			ErrInvalidWindow, early.Start, early.End, late.Start, late.End)
	}

	earlyMean, _, earlyN := windowStats(time, values, early)
	if earlyN == 0 {
		return nil, fmt.Errorf("%w: early window [%.3f, %.3f] contains no samples",
			ErrInvalidWindow, early.Start, early.End)
	}
	lateMean, _, lateN := windowStats(time, values, late)
	if lateN == 0 {
		return nil, fmt.Errorf("%w: late window [%.3f, %.3f] contains no samples",
			ErrInvalidWindow, late.Start, late.End)
	}

	slope := (lateMean - earlyMean) / (late.Mid() - early.Mid())
	intercept := earlyMean - slope*early.Start

	out := make([]float64, len(values))
	for i := range values {
		out[i] = values[i] - (slope*time[i] + intercept)
	}
	return out, nil
}
