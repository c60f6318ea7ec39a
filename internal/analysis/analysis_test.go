package analysis

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkarvinen/photometry-go/internal/conf"
	"github.com/nkarvinen/photometry-go/internal/errors"
	"github.com/nkarvinen/photometry-go/internal/photometry"
)

// testSettings returns a run configuration matching the short synthetic
// recordings used across these tests.
func testSettings(t *testing.T) *conf.Settings {
	t.Helper()
	s := &conf.Settings{}
	s.Main.Name = "test-node"
	s.Photometry = conf.PhotometryConfig{
		Baseline: conf.WindowConfig{Start: 30, End: 90},
		Bleach: conf.BleachConfig{
			PreStart:        0,
			PreEnd:          20,
			PostStartOffset: 20,
			PostEndOffset:   0,
		},
		BinSize:    1.0,
		Plot:       conf.PlotConfig{Lower: 0, Upper: 199},
		MinSamples: 10,
		Threads:    2,
	}
	s.Output.File.Enabled = true
	s.Output.File.Path = t.TempDir()
	return s
}

// writeRecordingCSV writes a synthetic raw export with n samples. The signal
// carries a component the reference cannot explain, so the corrected trace
// keeps baseline variance.
func writeRecordingCSV(t *testing.T, dir, name string, n int) string {
	t.Helper()

	var b strings.Builder
	b.WriteString("Device: test rig\n")
	b.WriteString("Time(s),GFP,Tomato\n")
	for i := 0; i < n; i++ {
		tm := float64(i)
		motion := math.Sin(tm / 5.0)
		fmt.Fprintf(&b, "%g,%g,%g\n",
			tm,
			50-0.01*tm+2*motion+math.Cos(tm/1.7),
			10-0.001*tm+motion)
	}

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func TestProcessRecordingFileSuccess(t *testing.T) {
	settings := testSettings(t)
	inDir := t.TempDir()
	path := writeRecordingCSV(t, inDir, "m01.csv", 200)

	res, err := processRecordingFile(settings, path, "control", settings.Output.File.Path)
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.Equal(t, "m01", res.AnimalID)
	assert.Len(t, res.ZScore.Value, 200)

	artifact := filepath.Join(settings.Output.File.Path, "m01-phmtry.csv")
	data, err := os.ReadFile(artifact)
	require.NoError(t, err, "per-animal artifact must be written")
	assert.True(t, strings.HasPrefix(string(data), "time,signal,reference,"))
}

func TestProcessRecordingFileOutputDisabled(t *testing.T) {
	settings := testSettings(t)
	settings.Output.File.Enabled = false
	inDir := t.TempDir()
	path := writeRecordingCSV(t, inDir, "m02.csv", 200)

	_, err := processRecordingFile(settings, path, "control", settings.Output.File.Path)
	require.NoError(t, err)

	_, statErr := os.Stat(filepath.Join(settings.Output.File.Path, "m02-phmtry.csv"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestProcessRecordingFileTooFewSamples(t *testing.T) {
	settings := testSettings(t)
	inDir := t.TempDir()
	path := writeRecordingCSV(t, inDir, "tiny.csv", 5)

	_, err := processRecordingFile(settings, path, "control", settings.Output.File.Path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTooFewSamples)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))

	_, statErr := os.Stat(filepath.Join(settings.Output.File.Path, "tiny-phmtry.csv"))
	assert.True(t, os.IsNotExist(statErr), "skipped animals leave no artifact")
}

func TestProcessRecordingFileUnreadableCSV(t *testing.T) {
	settings := testSettings(t)
	inDir := t.TempDir()
	path := filepath.Join(inDir, "junk.csv")
	require.NoError(t, os.WriteFile(path, []byte("no,header,here\n1,2,3\n"), 0o644))

	_, err := processRecordingFile(settings, path, "control", settings.Output.File.Path)
	require.Error(t, err)
}

func TestProcessRecordingFilePipelineFailure(t *testing.T) {
	settings := testSettings(t)
	inDir := t.TempDir()

	// Constant reference channel defeats the motion regression.
	var b strings.Builder
	b.WriteString("time,gfp,tomato\n")
	for i := 0; i < 200; i++ {
		fmt.Fprintf(&b, "%d,%g,7\n", i, 50+math.Sin(float64(i)))
	}
	path := filepath.Join(inDir, "flat.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))

	_, err := processRecordingFile(settings, path, "test", settings.Output.File.Path)
	require.Error(t, err)
	assert.ErrorIs(t, err, photometry.ErrDegenerateRegression)
	assert.True(t, errors.IsCategory(err, errors.CategoryMotionCorrection))
}

func TestStageCategory(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want errors.ErrorCategory
	}{
		{photometry.ErrInvalidWindow, errors.CategoryBleachCorrection},
		{photometry.ErrDegenerateRegression, errors.CategoryMotionCorrection},
		{photometry.ErrEmptyBaseline, errors.CategoryNormalization},
		{photometry.ErrZeroVariance, errors.CategoryNormalization},
		{photometry.ErrMalformedRecording, errors.CategoryRecordingParsing},
		{fmt.Errorf("something else"), errors.CategoryGeneric},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, stageCategory(fmt.Errorf("wrapped: %w", tt.err)))
	}
}

func TestPipelineConfigMapping(t *testing.T) {
	t.Parallel()

	settings := &conf.Settings{}
	settings.Photometry = conf.PhotometryConfig{
		Baseline: conf.WindowConfig{Start: 1500, End: 2100},
		Bleach: conf.BleachConfig{
			PreStart:        100,
			PreEnd:          600,
			PostStartOffset: 500,
			PostEndOffset:   0,
		},
	}

	cfg := pipelineConfig(settings)
	assert.Equal(t, photometry.Window{Start: 100, End: 600}, cfg.EarlyWindow)
	assert.Equal(t, 500.0, cfg.LateStartOffset)
	assert.Equal(t, 0.0, cfg.LateEndOffset)
	assert.Equal(t, photometry.Window{Start: 1500, End: 2100}, cfg.Baseline)
	assert.Equal(t, photometry.Window{Start: 23800, End: 24300}, cfg.LateWindow(24300))
}

func TestAnimalIDFromPath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "m01", animalIDFromPath("/data/control/m01.csv"))
	assert.Equal(t, "rat.7", animalIDFromPath("rat.7.csv"))
	assert.Equal(t, "noext", animalIDFromPath("noext"))
}

func TestWorkerCount(t *testing.T) {
	t.Parallel()

	settings := &conf.Settings{}

	settings.Photometry.Threads = 3
	assert.Equal(t, 3, workerCount(settings))

	settings.Photometry.Threads = 100
	assert.Equal(t, 8, workerCount(settings))

	settings.Photometry.Threads = 0
	n := workerCount(settings)
	assert.GreaterOrEqual(t, n, 1)
	assert.LessOrEqual(t, n, 8)
}
