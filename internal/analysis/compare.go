package analysis

import (
	"fmt"
	"path/filepath"

	"github.com/nkarvinen/photometry-go/internal/conf"
	"github.com/nkarvinen/photometry-go/internal/observation"
	"github.com/nkarvinen/photometry-go/internal/photometry"
	"github.com/nkarvinen/photometry-go/internal/render"
)

// Group labels for compare runs.
const (
	groupControl = "Control"
	groupTest    = "Test"
)

// CompareAnalysis runs the full control-versus-test flow: both group
// directories through the per-animal pipeline, one summary per group and a
// combined comparison figure. A group without a single successful animal
// yields an empty summary and a warning, never a crash.
func CompareAnalysis(settings *conf.Settings) error {
	controlSummary, controlOutcomes, err := processGroup(settings, settings.Input.Control, groupControl)
	if err != nil {
		return err
	}
	reportOutcomes(groupControl, controlOutcomes)

	testSummary, testOutcomes, err := processGroup(settings, settings.Input.Test, groupTest)
	if err != nil {
		return err
	}
	reportOutcomes(groupTest, testOutcomes)

	if !settings.Output.File.Enabled {
		return nil
	}

	for _, s := range []struct {
		group   string
		summary *photometry.GroupSummary
	}{
		{groupControl, controlSummary},
		{groupTest, testSummary},
	} {
		if s.summary.Animals == 0 {
			GetLogger().Warn("Group has no successful animals", "group", s.group)
			fmt.Printf("⚠ %s: no animals processed successfully\n", s.group)
			continue
		}
		outFile := filepath.Join(settings.Output.File.Path, s.group, s.group+"_summary")
		if err := observation.WriteSummaryCsv(s.summary, outFile); err != nil {
			return err
		}
	}

	if controlSummary.Animals == 0 && testSummary.Animals == 0 {
		GetLogger().Warn("Nothing to plot, both groups are empty")
		return nil
	}

	figure := filepath.Join(settings.Output.File.Path, "Control_vs_Test", "Control_vs_Test.svg")
	err = render.WriteComparisonSVG(
		[]render.Series{
			{Label: groupControl, Summary: controlSummary},
			{Label: groupTest, Summary: testSummary},
		},
		"Z-score Mean ± SEM (Control vs Test)", figure)
	if err != nil {
		return err
	}

	GetLogger().Info("Comparison figure written", "path", figure)
	fmt.Printf("✅ Saved SVG: %s\n", figure)
	return nil
}
