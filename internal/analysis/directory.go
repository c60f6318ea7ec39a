package analysis

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/nkarvinen/photometry-go/internal/conf"
	"github.com/nkarvinen/photometry-go/internal/errors"
	"github.com/nkarvinen/photometry-go/internal/observation"
	"github.com/nkarvinen/photometry-go/internal/photometry"
	"github.com/nkarvinen/photometry-go/internal/render"
)

// animalOutcome is the per-file result of a group run: either a pipeline
// result or the error that excluded the animal.
type animalOutcome struct {
	Path   string
	Animal string
	Result *photometry.Result
	Err    error
}

// DirectoryAnalysis processes every recording CSV in the input directory as
// one group, writes per-animal artifacts and the group's mean±SEM summary
// CSV and SVG figure. A failing animal is reported and excluded without
// aborting the rest of the group.
func DirectoryAnalysis(settings *conf.Settings) error {
	group := settings.Input.Group
	if group == "" {
		group = filepath.Base(filepath.Clean(settings.Input.Path))
	}

	summary, outcomes, err := processGroup(settings, settings.Input.Path, group)
	if err != nil {
		return err
	}
	reportOutcomes(group, outcomes)

	if summary.Animals == 0 {
		GetLogger().Warn("No animals processed successfully, skipping group outputs", "group", group)
		fmt.Printf("⚠ %s: no animals processed successfully\n", group)
		return nil
	}

	if settings.Output.File.Enabled {
		outDir := filepath.Join(settings.Output.File.Path, group)
		if err := observation.WriteSummaryCsv(summary, filepath.Join(outDir, group+"_summary")); err != nil {
			return err
		}
		figure := filepath.Join(outDir, group+".svg")
		err := render.WriteComparisonSVG(
			[]render.Series{{Label: group, Summary: summary}},
			"Z-score Mean ± SEM ("+group+")", figure)
		if err != nil {
			return err
		}
		fmt.Printf("✅ Saved SVG: %s\n", figure)
	}
	return nil
}

// processGroup runs the per-animal pipeline over every CSV in dir through a
// bounded worker pool and aggregates the successful Z-score traces. The
// returned error covers directory level problems only; per-animal failures
// are carried in the outcomes.
func processGroup(settings *conf.Settings, dir, group string) (*photometry.GroupSummary, []animalOutcome, error) {
	files, err := collectInputFiles(dir, settings.Input.Recursive)
	if err != nil {
		return nil, nil, err
	}
	if len(files) == 0 {
		GetLogger().Warn("No CSV files found", "directory", dir)
	}

	outDir := filepath.Join(settings.Output.File.Path, group)

	numWorkers := workerCount(settings)
	jobs := make(chan string)
	results := make(chan animalOutcome)

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				result, err := processRecordingFile(settings, path, group, outDir)
				outcome := animalOutcome{Path: path, Err: err, Result: result}
				if result != nil {
					outcome.Animal = result.AnimalID
				} else {
					outcome.Animal = animalIDFromPath(path)
				}
				results <- outcome
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	go func() {
		for _, path := range files {
			jobs <- path
		}
		close(jobs)
	}()

	startTime := time.Now()
	var outcomes []animalOutcome
	for outcome := range results {
		outcomes = append(outcomes, outcome)
	}
	GetLogger().Info("Group processing completed",
		"group", group, "files", len(files), "duration", time.Since(startTime).Round(time.Millisecond))

	var traces []photometry.Trace
	for _, outcome := range outcomes {
		if outcome.Err == nil {
			traces = append(traces, outcome.Result.ZScore)
		}
	}

	summary, err := photometry.Aggregate(group, traces, settings.Photometry.BinSize, plotWindow(settings))
	if err != nil {
		return nil, outcomes, errors.New(err).
			Category(errors.CategoryAggregation).
			Context("group", group).
			Build()
	}
	return &summary, outcomes, nil
}

// collectInputFiles lists the raw recording CSVs under dir. Artifact CSVs
// from earlier runs are ignored by their suffix.
func collectInputFiles(dir string, recursive bool) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if !recursive && path != filepath.Clean(dir) {
				return filepath.SkipDir
			}
			return nil
		}
		name := strings.ToLower(d.Name())
		if !strings.HasSuffix(name, ".csv") {
			return nil
		}
		if strings.HasSuffix(strings.TrimSuffix(name, ".csv"), artifactSuffix) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, errors.FileError(fmt.Errorf("scanning directory: %w", err), dir)
	}
	return files, nil
}

// reportOutcomes logs every failed animal with its identity and reason.
func reportOutcomes(group string, outcomes []animalOutcome) {
	for _, outcome := range outcomes {
		if outcome.Err == nil {
			continue
		}
		GetLogger().Warn("Animal excluded from group",
			"group", group, "animal", outcome.Animal, "file", outcome.Path, "reason", outcome.Err.Error())
		fmt.Printf("⚠ %s skipped: %v\n", outcome.Animal, outcome.Err)
	}
}
