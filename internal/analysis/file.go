package analysis

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/nkarvinen/photometry-go/internal/conf"
	"github.com/nkarvinen/photometry-go/internal/errors"
)

// FileAnalysis processes a single animal recording and writes its artifacts.
// The input path comes from settings.Input.Path; artifacts go to the
// configured output directory.
func FileAnalysis(settings *conf.Settings) error {
	if err := validateInputFile(settings.Input.Path); err != nil {
		return err
	}

	outDir := settings.Output.File.Path
	if settings.Input.Group != "" {
		outDir = filepath.Join(outDir, settings.Input.Group)
	}

	result, err := processRecordingFile(settings, settings.Input.Path, settings.Input.Group, outDir)
	if err != nil {
		return err
	}

	GetLogger().Info("Animal processed",
		"animal", result.AnimalID,
		"samples", len(result.ZScore.Time),
		"baseline_mean", result.Baseline.Mean,
		"baseline_std", result.Baseline.Std,
		"motion_slope", result.Motion.Slope)
	fmt.Printf("✅ %s: %d samples, baseline std %.4f\n",
		result.AnimalID, len(result.ZScore.Time), result.Baseline.Std)
	return nil
}

// validateInputFile checks that the path names a readable, non-empty file.
func validateInputFile(path string) error {
	fileInfo, err := os.Stat(path)
	if err != nil {
		return errors.FileError(fmt.Errorf("error accessing file %s: %w", filepath.Base(path), err), path)
	}
	if fileInfo.IsDir() {
		return errors.Newf("the path %s is a directory, not a file", filepath.Base(path)).
			Category(errors.CategoryValidation).
			FileContext(path).
			Build()
	}
	if fileInfo.Size() == 0 {
		return errors.Newf("file %s is empty (0 bytes)", filepath.Base(path)).
			Category(errors.CategoryValidation).
			FileContext(path).
			Build()
	}
	return nil
}
