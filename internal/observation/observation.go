// Package observation persists the artifacts of a pipeline run: per-animal
// trace CSVs, per-group summary CSVs and optional database records.
package observation

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nkarvinen/photometry-go/internal/conf"
	"github.com/nkarvinen/photometry-go/internal/photometry"
)

// Animal statuses stored in ProcessedAnimal records.
const (
	StatusProcessed = "processed"
	StatusFailed    = "failed"
	StatusSkipped   = "skipped"
)

// ProcessedAnimal is the database record of one animal's pipeline run.
type ProcessedAnimal struct {
	ID              uint   `gorm:"primaryKey"`
	SourceNode      string // name of the analysis node that produced the record
	AnimalID        string `gorm:"index:idx_animals_animal"`
	GroupName       string `gorm:"index:idx_animals_group"`
	InputFile       string
	Samples         int
	MotionSlope     float64
	MotionIntercept float64
	BaselineMean    float64
	BaselineStd     float64
	Status          string `gorm:"index:idx_animals_status"`
	FailReason      string
	ProcessedAt     time.Time
}

// NewProcessedAnimal builds the database record for a successful pipeline
// result.
func NewProcessedAnimal(settings *conf.Settings, group, inputFile string, res *photometry.Result) ProcessedAnimal {
	return ProcessedAnimal{
		SourceNode:      settings.Main.Name,
		AnimalID:        res.AnimalID,
		GroupName:       group,
		InputFile:       inputFile,
		Samples:         len(res.ZScore.Time),
		MotionSlope:     res.Motion.Slope,
		MotionIntercept: res.Motion.Intercept,
		BaselineMean:    res.Baseline.Mean,
		BaselineStd:     res.Baseline.Std,
		Status:          StatusProcessed,
		ProcessedAt:     time.Now(),
	}
}

// NewFailedAnimal builds the database record for a failed or skipped animal.
func NewFailedAnimal(settings *conf.Settings, group, animalID, inputFile, status string, reason error) ProcessedAnimal {
	record := ProcessedAnimal{
		SourceNode:  settings.Main.Name,
		AnimalID:    animalID,
		GroupName:   group,
		InputFile:   inputFile,
		Status:      status,
		ProcessedAt: time.Now(),
	}
	if reason != nil {
		record.FailReason = reason.Error()
	}
	return record
}

// WriteTraceCsv writes the per-animal artifact CSV: raw channels, the
// intermediate corrected traces and the final Z-score trace, one row per
// sample. If filename is empty, output goes to stdout.
func WriteTraceCsv(rec *photometry.Recording, res *photometry.Result, filename string) error {
	w, closeFn, err := openOutput(filename, ".csv")
	if err != nil {
		return err
	}
	defer closeFn()

	header := "time,signal,reference,signal_bleach,reference_bleach,signal_motion,zscore\n"
	if _, err := w.Write([]byte(header)); err != nil {
		return fmt.Errorf("failed to write header to CSV: %w", err)
	}

	for i := range rec.Time {
		line := fmt.Sprintf("%g,%g,%g,%g,%g,%g,%g\n",
			rec.Time[i], rec.Signal[i], rec.Reference[i],
			res.SignalBleach.Value[i], res.ReferenceBleach.Value[i],
			res.SignalMotion.Value[i], res.ZScore.Value[i])
		if _, err := w.Write([]byte(line)); err != nil {
			return fmt.Errorf("failed to write trace row to CSV: %w", err)
		}
	}

	return nil
}

// WriteSummaryCsv writes a group summary as (bin_time, mean, sem, n) rows.
// Bins with no contributing animal carry empty mean and sem fields rather
// than NaN literals, so spreadsheet imports stay clean.
func WriteSummaryCsv(summary *photometry.GroupSummary, filename string) error {
	w, closeFn, err := openOutput(filename, ".csv")
	if err != nil {
		return err
	}
	defer closeFn()

	header := "time,mean,sem,n\n"
	if _, err := w.Write([]byte(header)); err != nil {
		return fmt.Errorf("failed to write header to CSV: %w", err)
	}

	for i := range summary.Bins {
		bin := &summary.Bins[i]
		var line string
		if bin.N == 0 || math.IsNaN(bin.Mean) {
			line = fmt.Sprintf("%g,,,%d\n", bin.Time, bin.N)
		} else {
			line = fmt.Sprintf("%g,%g,%g,%d\n", bin.Time, bin.Mean, bin.SEM, bin.N)
		}
		if _, err := w.Write([]byte(line)); err != nil {
			return fmt.Errorf("failed to write summary row to CSV: %w", err)
		}
	}

	return nil
}

// openOutput returns a writer for the artifact, creating parent directories
// and appending the extension when missing. An empty filename selects stdout.
func openOutput(filename, ext string) (io.Writer, func() error, error) {
	if filename == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	if !strings.HasSuffix(filename, ext) {
		filename += ext
	}
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory %s: %w", dir, err)
		}
	}
	file, err := os.Create(filename)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create file %s: %w", filename, err)
	}
	return file, file.Close, nil
}
