package analysis

import (
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/nkarvinen/photometry-go/internal/conf"
	"github.com/nkarvinen/photometry-go/internal/errors"
	"github.com/nkarvinen/photometry-go/internal/extract"
	"github.com/nkarvinen/photometry-go/internal/observation"
	"github.com/nkarvinen/photometry-go/internal/photometry"
)

// artifactSuffix is appended to the animal id for per-animal trace CSVs.
const artifactSuffix = "-phmtry"

// ErrTooFewSamples marks recordings skipped before the pipeline because they
// carry fewer usable rows than photometry.minsamples.
var ErrTooFewSamples = errors.NewStd("too few usable samples")

// pipelineConfig maps the run configuration onto the numeric core's
// immutable per-run configuration.
func pipelineConfig(settings *conf.Settings) photometry.PipelineConfig {
	p := &settings.Photometry
	return photometry.PipelineConfig{
		EarlyWindow:     photometry.Window{Start: p.Bleach.PreStart, End: p.Bleach.PreEnd},
		LateStartOffset: p.Bleach.PostStartOffset,
		LateEndOffset:   p.Bleach.PostEndOffset,
		Baseline:        photometry.Window{Start: p.Baseline.Start, End: p.Baseline.End},
	}
}

// plotWindow returns the configured plotting time range.
func plotWindow(settings *conf.Settings) photometry.Window {
	return photometry.Window{
		Start: settings.Photometry.Plot.Lower,
		End:   settings.Photometry.Plot.Upper,
	}
}

// processRecordingFile runs the full per-animal pipeline for one input file:
// channel extraction, sample count guard, correction pipeline and artifact
// output. Database records are written for successes and failures alike. The
// returned error carries the animal identity in its context.
func processRecordingFile(settings *conf.Settings, path, group, outDir string) (*photometry.Result, error) {
	rec, err := extract.ReadRecording(path)
	if err != nil {
		recordFailure(settings, group, animalIDFromPath(path), path, observation.StatusFailed, err)
		return nil, err
	}

	if len(rec.Time) < settings.Photometry.MinSamples {
		err := fmt.Errorf("%w: %d < %d", ErrTooFewSamples, len(rec.Time), settings.Photometry.MinSamples)
		recordFailure(settings, group, rec.AnimalID, path, observation.StatusSkipped, err)
		return nil, errors.New(err).
			Category(errors.CategoryValidation).
			AnimalContext(rec.AnimalID, group).
			FileContext(path).
			Build()
	}

	result, err := photometry.Process(rec, pipelineConfig(settings))
	if err != nil {
		recordFailure(settings, group, rec.AnimalID, path, observation.StatusFailed, err)
		return nil, errors.New(err).
			Category(stageCategory(err)).
			AnimalContext(rec.AnimalID, group).
			FileContext(path).
			Build()
	}

	if settings.Output.File.Enabled {
		artifact := filepath.Join(outDir, result.AnimalID+artifactSuffix)
		if err := observation.WriteTraceCsv(rec, result, artifact); err != nil {
			return nil, errors.New(err).
				Category(errors.CategoryFileIO).
				AnimalContext(rec.AnimalID, group).
				Build()
		}
	}

	record := observation.NewProcessedAnimal(settings, group, path, result)
	if err := observation.SaveToDatabase(settings, &record); err != nil {
		// Database output is best effort, the numeric result stands
		GetLogger().Warn("Failed to save animal record to database",
			"animal", result.AnimalID, "error", err)
	}

	return result, nil
}

// recordFailure stores a failed or skipped animal in the database when
// database output is enabled.
func recordFailure(settings *conf.Settings, group, animalID, path, status string, reason error) {
	record := observation.NewFailedAnimal(settings, group, animalID, path, status, reason)
	if err := observation.SaveToDatabase(settings, &record); err != nil {
		GetLogger().Warn("Failed to save failure record to database",
			"animal", animalID, "error", err)
	}
}

// stageCategory maps a pipeline error to its error category.
func stageCategory(err error) errors.ErrorCategory {
	switch {
	case errors.Is(err, photometry.ErrInvalidWindow):
		return errors.CategoryBleachCorrection
	case errors.Is(err, photometry.ErrDegenerateRegression):
		return errors.CategoryMotionCorrection
	case errors.Is(err, photometry.ErrEmptyBaseline), errors.Is(err, photometry.ErrZeroVariance):
		return errors.CategoryNormalization
	case errors.Is(err, photometry.ErrMalformedRecording):
		return errors.CategoryRecordingParsing
	default:
		return errors.CategoryGeneric
	}
}

// animalIDFromPath derives the animal identity from the input file name.
func animalIDFromPath(path string) string {
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}

// workerCount resolves the directory analysis worker pool size, between 1
// and 8 workers.
func workerCount(settings *conf.Settings) int {
	n := settings.Photometry.Threads
	if n <= 0 {
		n = runtime.NumCPU()
	}
	return clampInt(n, 1, 8)
}

// clampInt ensures a value is between min and max (inclusive)
func clampInt(value, minValue, maxValue int) int {
	if value < minValue {
		return minValue
	}
	if value > maxValue {
		return maxValue
	}
	return value
}
