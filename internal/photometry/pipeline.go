package photometry

import "fmt"

// PipelineConfig is the immutable per-run configuration shared by every
// animal in a batch. The early bleach window is absolute; the late window is
// derived per recording from the recording end minus the configured offsets,
// so recordings of different lengths anchor the trend at their own tail.
type PipelineConfig struct {
	EarlyWindow     Window  // early bleach correction window, absolute seconds
	LateStartOffset float64 // late window start, seconds back from recording end
	LateEndOffset   float64 // late window end, seconds back from recording end
	Baseline        Window  // fixed Z-score baseline, seconds from start
}

// Validate checks that the configuration can produce well formed windows.
func (c PipelineConfig) Validate() error {
	if err := c.EarlyWindow.Validate(); err != nil {
		return fmt.Errorf("early bleach window: %w", err)
	}
	if c.LateStartOffset <= c.LateEndOffset {
		return fmt.Errorf("%w: late window offsets %.3f..%.3f collapse to an empty interval",
			ErrInvalidWindow, c.LateStartOffset, c.LateEndOffset)
	}
	if err := c.Baseline.Validate(); err != nil {
		return fmt.Errorf("baseline window: %w", err)
	}
	return nil
}

// LateWindow resolves the late bleach window for a recording ending at end.
func (c PipelineConfig) LateWindow(end float64) Window {
	return Window{Start: end - c.LateStartOffset, End: end - c.LateEndOffset}
}

// Result carries the final Z-score trace of one animal together with the
// intermediate corrected traces and fit diagnostics, for optional
// persistence.
type Result struct {
	AnimalID        string
	SignalBleach    Trace
	ReferenceBleach Trace
	SignalMotion    Trace
	ZScore          Trace
	Motion          Regression
	Baseline        BaselineStats
}

// Process runs the full correction pipeline for one animal: bleach correction
// of both channels, motion regression of the reference onto the signal, then
// fixed-baseline Z-score normalization. The first error from any stage is
// returned unchanged; stages never retry. The recording is not modified.
func Process(rec *Recording, cfg PipelineConfig) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := rec.Validate(); err != nil {
		return nil, err
	}

	_, end := rec.Span()
	late := cfg.LateWindow(end)

	sigBleach, err := CorrectBleaching(rec.Time, rec.Signal, cfg.EarlyWindow, late)
	if err != nil {
		return nil, fmt.Errorf("bleach correction (signal): %w", err)
	}
	refBleach, err := CorrectBleaching(rec.Time, rec.Reference, cfg.EarlyWindow, late)
	if err != nil {
		return nil, fmt.Errorf("bleach correction (reference): %w", err)
	}

	sigMotion, fit, err := CorrectMotion(sigBleach, refBleach)
	if err != nil {
		return nil, fmt.Errorf("motion correction: %w", err)
	}

	zscore, stats, err := Normalize(Trace{Time: rec.Time, Value: sigMotion}, cfg.Baseline)
	if err != nil {
		return nil, fmt.Errorf("normalization: %w", err)
	}

	return &Result{
		AnimalID:        rec.AnimalID,
		SignalBleach:    Trace{Time: rec.Time, Value: sigBleach},
		ReferenceBleach: Trace{Time: rec.Time, Value: refBleach},
		SignalMotion:    Trace{Time: rec.Time, Value: sigMotion},
		ZScore:          zscore,
		Motion:          fit,
		Baseline:        stats,
	}, nil
}
