package photometry

import "fmt"

// Regression holds the ordinary least squares fit of the reference channel
// onto the signal channel.
type Regression struct {
	Slope     float64
	Intercept float64
}

// CorrectMotion removes movement-correlated artifact from the signal channel
// using the time-aligned reference channel. It fits signal = a*reference + b
// by closed-form ordinary least squares and returns signal - (a*reference + b)
// together with the fitted coefficients.
//
// A reference channel whose variance falls below the numeric epsilon yields
// ErrDegenerateRegression before any division takes place.
func CorrectMotion(signal, reference []float64) ([]float64, Regression, error) {
	if len(signal) != len(reference) {
		return nil, Regression{}, fmt.Errorf("%w: channel lengths differ (signal=%d reference=%d)",
			ErrMalformedRecording, len(signal), len(reference))
	}
	if len(signal) == 0 {
		return nil, Regression{}, fmt.Errorf("%w: empty channels", ErrMalformedRecording)
	}

	n := float64(len(signal))
	var sumSig, sumRef float64
	for i := range signal {
		sumSig += signal[i]
		sumRef += reference[i]
	}
	meanSig := sumSig / n
	meanRef := sumRef / n

	var ssRef, ssCross float64
	for i := range signal {
		dr := reference[i] - meanRef
		ssRef += dr * dr
		ssCross += dr * (signal[i] - meanSig)
	}
	if ssRef/n < epsVariance {
		return nil, Regression{}, fmt.Errorf("%w: variance %.3e below epsilon", ErrDegenerateRegression, ssRef/n)
	}

	fit := Regression{Slope: ssCross / ssRef}
	fit.Intercept = meanSig - fit.Slope*meanRef

	out := make([]float64, len(signal))
	for i := range signal {
		out[i] = signal[i] - (fit.Slope*reference[i] + fit.Intercept)
	}
	return out, fit, nil
}
