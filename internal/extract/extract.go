// Package extract maps raw photometry CSV exports to canonical recordings.
// Acquisition software writes a preamble of device metadata before the actual
// header row, and column names vary between setups, so the extractor locates
// the header by keyword and maps columns to time, signal and reference.
package extract

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nkarvinen/photometry-go/internal/errors"
	"github.com/nkarvinen/photometry-go/internal/photometry"
)

// maxHeaderScan is how many leading lines are searched for the header row.
const maxHeaderScan = 20

// ErrHeaderNotFound is returned when no line in the leading portion of the
// file carries the expected column keywords.
var ErrHeaderNotFound = errors.NewStd("header line not detected")

// ErrMissingColumn is returned when the header was found but one of the
// required channels could not be mapped.
var ErrMissingColumn = errors.NewStd("required column missing")

// column keyword sets, matched case-insensitively as substrings
var (
	timeKeywords      = []string{"time"}
	signalKeywords    = []string{"gfp", "465", "signal"}
	referenceKeywords = []string{"tomato", "405", "reference"}
)

// ReadRecording loads a raw CSV export and returns the canonical recording
// for one animal. The animal identity is the file name without extension.
// Rows with blank or unparseable numeric fields are dropped.
func ReadRecording(path string) (*photometry.Recording, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.FileError(err, path)
	}
	defer file.Close()

	rec, err := readRecording(file)
	if err != nil {
		return nil, errors.New(fmt.Errorf("%s: %w", filepath.Base(path), err)).
			Category(errors.CategoryRecordingParsing).
			FileContext(path).
			Build()
	}

	base := filepath.Base(path)
	rec.AnimalID = strings.TrimSuffix(base, filepath.Ext(base))
	return rec, nil
}

func readRecording(r io.Reader) (*photometry.Recording, error) {
	reader := bufio.NewReader(r)

	header, err := findHeader(reader)
	if err != nil {
		return nil, err
	}

	timeCol, signalCol, referenceCol, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(reader)
	cr.FieldsPerRecord = -1 // trailing device rows may be ragged
	cr.TrimLeadingSpace = true

	rec := &photometry.Recording{}
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading data rows: %w", err)
		}
		t, ok := parseField(row, timeCol)
		if !ok {
			continue
		}
		s, ok := parseField(row, signalCol)
		if !ok {
			continue
		}
		ref, ok := parseField(row, referenceCol)
		if !ok {
			continue
		}
		rec.Time = append(rec.Time, t)
		rec.Signal = append(rec.Signal, s)
		rec.Reference = append(rec.Reference, ref)
	}

	return rec, nil
}

// findHeader scans up to maxHeaderScan lines for the header row and returns
// its parsed cells. The reader is left positioned at the first data row.
func findHeader(reader *bufio.Reader) ([]string, error) {
	for i := 0; i < maxHeaderScan; i++ {
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			break
		}
		low := strings.ToLower(line)
		if containsAny(low, timeKeywords) &&
			(containsAny(low, signalKeywords) || containsAny(low, referenceKeywords)) {
			cells := strings.Split(strings.TrimRight(line, "\r\n"), ",")
			for j := range cells {
				cells[j] = strings.TrimSpace(cells[j])
			}
			return cells, nil
		}
		if err != nil {
			break
		}
	}
	return nil, ErrHeaderNotFound
}

// mapColumns resolves the canonical column indices from the header cells.
func mapColumns(header []string) (timeCol, signalCol, referenceCol int, err error) {
	timeCol, signalCol, referenceCol = -1, -1, -1
	for i, cell := range header {
		low := strings.ToLower(cell)
		switch {
		case timeCol < 0 && containsAny(low, timeKeywords):
			timeCol = i
		case signalCol < 0 && containsAny(low, signalKeywords):
			signalCol = i
		case referenceCol < 0 && containsAny(low, referenceKeywords):
			referenceCol = i
		}
	}
	var missing []string
	if timeCol < 0 {
		missing = append(missing, "time")
	}
	if signalCol < 0 {
		missing = append(missing, "signal")
	}
	if referenceCol < 0 {
		missing = append(missing, "reference")
	}
	if len(missing) > 0 {
		return 0, 0, 0, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return timeCol, signalCol, referenceCol, nil
}

func parseField(row []string, col int) (float64, bool) {
	if col >= len(row) {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(row[col]), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
