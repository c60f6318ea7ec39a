package photometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordingValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		rec     Recording
		wantErr bool
	}{
		{
			name: "valid",
			rec: Recording{
				Time:      []float64{0, 0.1, 0.2},
				Signal:    []float64{1, 2, 3},
				Reference: []float64{4, 5, 6},
			},
		},
		{
			name:    "empty",
			rec:     Recording{},
			wantErr: true,
		},
		{
			name: "length mismatch",
			rec: Recording{
				Time:      []float64{0, 1, 2},
				Signal:    []float64{1, 2},
				Reference: []float64{4, 5, 6},
			},
			wantErr: true,
		},
		{
			name: "duplicate timestamp",
			rec: Recording{
				Time:      []float64{0, 1, 1},
				Signal:    []float64{1, 2, 3},
				Reference: []float64{4, 5, 6},
			},
			wantErr: true,
		},
		{
			name: "decreasing time",
			rec: Recording{
				Time:      []float64{0, 2, 1},
				Signal:    []float64{1, 2, 3},
				Reference: []float64{4, 5, 6},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.rec.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrMalformedRecording)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRecordingSpan(t *testing.T) {
	t.Parallel()

	rec := Recording{Time: []float64{3.5, 10, 24300}}
	start, end := rec.Span()
	assert.InDelta(t, 3.5, start, 1e-9)
	assert.InDelta(t, 24300.0, end, 1e-9)

	empty := Recording{}
	start, end = empty.Span()
	assert.Zero(t, start)
	assert.Zero(t, end)
}

func TestWindowContainsInclusiveBounds(t *testing.T) {
	t.Parallel()

	w := Window{Start: 100, End: 600}
	assert.True(t, w.Contains(100))
	assert.True(t, w.Contains(600))
	assert.True(t, w.Contains(350))
	assert.False(t, w.Contains(99.999))
	assert.False(t, w.Contains(600.001))
}

func TestWindowValidate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, Window{Start: 0, End: 1}.Validate())
	assert.ErrorIs(t, Window{Start: 1, End: 1}.Validate(), ErrInvalidWindow)
	assert.ErrorIs(t, Window{Start: 2, End: 1}.Validate(), ErrInvalidWindow)
}
