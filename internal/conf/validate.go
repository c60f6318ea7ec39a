package conf

import (
	"errors"
	"fmt"
)

// ValidateSettings checks that the loaded configuration can drive a pipeline
// run. It collects every problem instead of stopping at the first one.
func ValidateSettings(settings *Settings) error {
	var errs []error

	p := &settings.Photometry

	if p.Baseline.Start >= p.Baseline.End {
		errs = append(errs, fmt.Errorf("photometry.baseline: start %.1f must be before end %.1f",
			p.Baseline.Start, p.Baseline.End))
	}
	if p.Bleach.PreStart >= p.Bleach.PreEnd {
		errs = append(errs, fmt.Errorf("photometry.bleach: prestart %.1f must be before preend %.1f",
			p.Bleach.PreStart, p.Bleach.PreEnd))
	}
	if p.Bleach.PostStartOffset <= p.Bleach.PostEndOffset {
		errs = append(errs, fmt.Errorf("photometry.bleach: poststartoffset %.1f must exceed postendoffset %.1f",
			p.Bleach.PostStartOffset, p.Bleach.PostEndOffset))
	}
	if p.Bleach.PostEndOffset < 0 {
		errs = append(errs, fmt.Errorf("photometry.bleach: postendoffset %.1f must not be negative",
			p.Bleach.PostEndOffset))
	}
	if p.BinSize <= 0 {
		errs = append(errs, fmt.Errorf("photometry.binsize: %.3f must be positive", p.BinSize))
	}
	if p.Plot.Lower >= p.Plot.Upper {
		errs = append(errs, fmt.Errorf("photometry.plot: lower %.1f must be before upper %.1f",
			p.Plot.Lower, p.Plot.Upper))
	}
	if p.MinSamples < 0 {
		errs = append(errs, fmt.Errorf("photometry.minsamples: %d must not be negative", p.MinSamples))
	}
	if p.Threads < 0 {
		errs = append(errs, fmt.Errorf("photometry.threads: %d must not be negative", p.Threads))
	}

	if settings.Output.MySQL.Enabled {
		if settings.Output.MySQL.Username == "" || settings.Output.MySQL.Database == "" {
			errs = append(errs, errors.New("output.mysql: username and database are required when enabled"))
		}
	}
	if settings.Output.SQLite.Enabled && settings.Output.SQLite.Path == "" {
		errs = append(errs, errors.New("output.sqlite: path is required when enabled"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
