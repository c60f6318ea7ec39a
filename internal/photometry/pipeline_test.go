package photometry

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syntheticRecording builds a deterministic recording: a bleaching ramp plus
// a motion artifact shared with the reference channel plus an event bump
// outside the baseline.
func syntheticRecording(t *testing.T, samples int) *Recording {
	t.Helper()

	rng := rand.New(rand.NewSource(42))
	rec := &Recording{
		AnimalID:  "m01",
		Time:      make([]float64, samples),
		Signal:    make([]float64, samples),
		Reference: make([]float64, samples),
	}
	for i := 0; i < samples; i++ {
		tm := float64(i)
		motion := math.Sin(tm / 7.0)
		noise := rng.NormFloat64() * 0.05
		rec.Time[i] = tm
		rec.Reference[i] = 10 - 0.001*tm + motion
		rec.Signal[i] = 50 - 0.01*tm + 2*motion + noise
		if tm >= 700 && tm <= 720 {
			rec.Signal[i] += 5 // transient event outside the baseline
		}
	}
	return rec
}

func testConfig() PipelineConfig {
	return PipelineConfig{
		EarlyWindow:     Window{Start: 100, End: 200},
		LateStartOffset: 100,
		LateEndOffset:   0,
		Baseline:        Window{Start: 300, End: 500},
	}
}

func TestProcessEndToEnd(t *testing.T) {
	t.Parallel()

	rec := syntheticRecording(t, 1000)
	res, err := Process(rec, testConfig())
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.Equal(t, "m01", res.AnimalID)
	assert.Len(t, res.ZScore.Value, len(rec.Time))
	assert.Equal(t, rec.Time, res.ZScore.Time)

	// Baseline samples of the Z-score trace must have near-zero mean.
	var sum float64
	var n int
	for i, tm := range res.ZScore.Time {
		if tm >= 300 && tm <= 500 {
			sum += res.ZScore.Value[i]
			n++
		}
	}
	require.Positive(t, n)
	assert.InDelta(t, 0.0, sum/float64(n), 1e-9)

	// The event bump must survive correction as a strong positive Z-score.
	var peak float64
	for i, tm := range res.ZScore.Time {
		if tm >= 700 && tm <= 720 && res.ZScore.Value[i] > peak {
			peak = res.ZScore.Value[i]
		}
	}
	assert.Greater(t, peak, 3.0, "event should stand above baseline noise")

	assert.Positive(t, res.Baseline.Std)
	assert.Equal(t, 201, res.Baseline.Samples)
}

func TestProcessDeterministic(t *testing.T) {
	t.Parallel()

	rec := syntheticRecording(t, 1000)
	cfg := testConfig()

	first, err := Process(rec, cfg)
	require.NoError(t, err)
	second, err := Process(rec, cfg)
	require.NoError(t, err)

	assert.Equal(t, first.ZScore.Value, second.ZScore.Value, "identical input must give bit-identical output")
	assert.Equal(t, first.Motion, second.Motion)
	assert.Equal(t, first.Baseline, second.Baseline)
}

func TestProcessDoesNotModifyRecording(t *testing.T) {
	t.Parallel()

	rec := syntheticRecording(t, 500)
	sig := append([]float64(nil), rec.Signal...)
	ref := append([]float64(nil), rec.Reference...)

	cfg := testConfig()
	cfg.Baseline = Window{Start: 150, End: 350}
	_, err := Process(rec, cfg)
	require.NoError(t, err)

	assert.Equal(t, sig, rec.Signal)
	assert.Equal(t, ref, rec.Reference)
}

func TestProcessShortRecording(t *testing.T) {
	t.Parallel()

	// Three samples are enough when the windows line up with them.
	rec := &Recording{
		AnimalID:  "tiny",
		Time:      []float64{0, 1, 2},
		Signal:    []float64{1, 5, 3},
		Reference: []float64{2, 1, 3},
	}
	cfg := PipelineConfig{
		EarlyWindow:     Window{Start: 0, End: 1},
		LateStartOffset: 1,
		LateEndOffset:   0,
		Baseline:        Window{Start: 0, End: 2},
	}

	res, err := Process(rec, cfg)
	require.NoError(t, err)
	assert.Len(t, res.ZScore.Value, 3)
}

func TestProcessErrorStages(t *testing.T) {
	t.Parallel()

	base := testConfig()

	tests := []struct {
		name    string
		mutate  func(rec *Recording, cfg *PipelineConfig)
		wantErr error
	}{
		{
			name: "invalid config",
			mutate: func(rec *Recording, cfg *PipelineConfig) {
				cfg.EarlyWindow = Window{Start: 5, End: 5}
			},
			wantErr: ErrInvalidWindow,
		},
		{
			name: "unsorted time axis",
			mutate: func(rec *Recording, cfg *PipelineConfig) {
				rec.Time[10], rec.Time[11] = rec.Time[11], rec.Time[10]
			},
			wantErr: ErrMalformedRecording,
		},
		{
			name: "empty recording",
			mutate: func(rec *Recording, cfg *PipelineConfig) {
				rec.Time = nil
				rec.Signal = nil
				rec.Reference = nil
			},
			wantErr: ErrMalformedRecording,
		},
		{
			name: "early window beyond recording",
			mutate: func(rec *Recording, cfg *PipelineConfig) {
				cfg.EarlyWindow = Window{Start: 5000, End: 5100}
			},
			wantErr: ErrInvalidWindow,
		},
		{
			name: "constant reference",
			mutate: func(rec *Recording, cfg *PipelineConfig) {
				for i := range rec.Reference {
					rec.Reference[i] = 3
				}
			},
			wantErr: ErrDegenerateRegression,
		},
		{
			name: "baseline outside recording",
			mutate: func(rec *Recording, cfg *PipelineConfig) {
				cfg.Baseline = Window{Start: 5000, End: 6000}
			},
			wantErr: ErrEmptyBaseline,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := syntheticRecording(t, 1000)
			cfg := base
			tt.mutate(rec, &cfg)

			_, err := Process(rec, cfg)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLateWindowFollowsRecordingEnd(t *testing.T) {
	t.Parallel()

	cfg := PipelineConfig{LateStartOffset: 500, LateEndOffset: 0}

	w := cfg.LateWindow(24300)
	assert.Equal(t, Window{Start: 23800, End: 24300}, w)

	w = cfg.LateWindow(10000)
	assert.Equal(t, Window{Start: 9500, End: 10000}, w)
}
