// Package render turns group summary traces into SVG figures. The figures
// are plain hand-assembled SVG: a mean polyline per group with a translucent
// SEM band, axes with tick labels and a legend.
package render

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/nkarvinen/photometry-go/internal/errors"
	"github.com/nkarvinen/photometry-go/internal/photometry"
)

// Series pairs one group summary with its display attributes.
type Series struct {
	Label   string
	Color   string // hex color for the mean line, band uses the same at low opacity
	Summary *photometry.GroupSummary
}

// DefaultColors are assigned to series without an explicit color.
var DefaultColors = []string{"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728"}

// figure geometry, pixels
const (
	figWidth     = 960
	figHeight    = 480
	marginLeft   = 70
	marginRight  = 20
	marginTop    = 50
	marginBottom = 55
)

// WriteComparisonSVG renders the mean±SEM traces of the given series into a
// single SVG figure at the given path. Bins without contributing animals
// break the line and band rather than drawing through the gap.
func WriteComparisonSVG(series []Series, title, filename string) error {
	var drawable []Series
	for i, s := range series {
		if s.Summary == nil || len(s.Summary.Bins) == 0 {
			continue
		}
		if s.Color == "" {
			s.Color = DefaultColors[i%len(DefaultColors)]
		}
		drawable = append(drawable, s)
	}
	if len(drawable) == 0 {
		return errors.Newf("no data to render").
			Category(errors.CategoryRendering).
			Context("figure", title).
			Build()
	}

	xMin, xMax, yMin, yMax, ok := dataRange(drawable)
	if !ok {
		return errors.Newf("no finite bins to render").
			Category(errors.CategoryRendering).
			Context("figure", title).
			Build()
	}
	// Pad the value range so lines do not touch the frame.
	pad := (yMax - yMin) * 0.05
	if pad == 0 {
		pad = 1
	}
	yMin -= pad
	yMax += pad

	sx := func(t float64) float64 {
		return marginLeft + (t-xMin)/(xMax-xMin)*(figWidth-marginLeft-marginRight)
	}
	sy := func(v float64) float64 {
		return figHeight - marginBottom - (v-yMin)/(yMax-yMin)*(figHeight-marginTop-marginBottom)
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+"\n",
		figWidth, figHeight, figWidth, figHeight)
	b.WriteString(`<rect width="100%" height="100%" fill="white"/>` + "\n")

	writeAxes(&b, sx, sy, xMin, xMax, yMin, yMax, title)

	for _, s := range drawable {
		// Band first so mean lines draw on top of every band.
		writeBand(&b, s, sx, sy)
	}
	for _, s := range drawable {
		writeMeanLine(&b, s, sx, sy)
	}

	writeLegend(&b, drawable)
	b.WriteString("</svg>\n")

	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.FileError(fmt.Errorf("failed to create figure directory: %w", err), dir)
		}
	}
	if err := os.WriteFile(filename, []byte(b.String()), 0o644); err != nil {
		return errors.FileError(fmt.Errorf("failed to write figure: %w", err), filename)
	}
	return nil
}

// dataRange finds the extent of all finite mean±SEM values.
func dataRange(series []Series) (xMin, xMax, yMin, yMax float64, ok bool) {
	xMin, yMin = math.Inf(1), math.Inf(1)
	xMax, yMax = math.Inf(-1), math.Inf(-1)
	for _, s := range series {
		for i := range s.Summary.Bins {
			bin := &s.Summary.Bins[i]
			xMin = math.Min(xMin, bin.Time)
			xMax = math.Max(xMax, bin.Time)
			if bin.N == 0 || math.IsNaN(bin.Mean) {
				continue
			}
			yMin = math.Min(yMin, bin.Mean-bin.SEM)
			yMax = math.Max(yMax, bin.Mean+bin.SEM)
			ok = true
		}
	}
	if xMin >= xMax {
		ok = false
	}
	return xMin, xMax, yMin, yMax, ok
}

// contiguousRuns splits the bins into runs of consecutive populated bins.
func contiguousRuns(bins []photometry.GroupBin) [][]photometry.GroupBin {
	var runs [][]photometry.GroupBin
	var run []photometry.GroupBin
	for i := range bins {
		if bins[i].N == 0 || math.IsNaN(bins[i].Mean) {
			if len(run) > 0 {
				runs = append(runs, run)
				run = nil
			}
			continue
		}
		run = append(run, bins[i])
	}
	if len(run) > 0 {
		runs = append(runs, run)
	}
	return runs
}

func writeMeanLine(b *strings.Builder, s Series, sx, sy func(float64) float64) {
	for _, run := range contiguousRuns(s.Summary.Bins) {
		var points strings.Builder
		for i := range run {
			fmt.Fprintf(&points, "%.2f,%.2f ", sx(run[i].Time), sy(run[i].Mean))
		}
		fmt.Fprintf(b, `<polyline fill="none" stroke="%s" stroke-width="2" points="%s"/>`+"\n",
			s.Color, strings.TrimSpace(points.String()))
	}
}

func writeBand(b *strings.Builder, s Series, sx, sy func(float64) float64) {
	for _, run := range contiguousRuns(s.Summary.Bins) {
		if len(run) < 2 {
			continue
		}
		var points strings.Builder
		for i := range run {
			fmt.Fprintf(&points, "%.2f,%.2f ", sx(run[i].Time), sy(run[i].Mean+run[i].SEM))
		}
		for i := len(run) - 1; i >= 0; i-- {
			fmt.Fprintf(&points, "%.2f,%.2f ", sx(run[i].Time), sy(run[i].Mean-run[i].SEM))
		}
		fmt.Fprintf(b, `<polygon fill="%s" fill-opacity="0.3" stroke="none" points="%s"/>`+"\n",
			s.Color, strings.TrimSpace(points.String()))
	}
}

func writeAxes(b *strings.Builder, sx, sy func(float64) float64, xMin, xMax, yMin, yMax float64, title string) {
	x0, x1 := sx(xMin), sx(xMax)
	y0, y1 := sy(yMin), sy(yMax)

	fmt.Fprintf(b, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="black"/>`+"\n", x0, y0, x1, y0)
	fmt.Fprintf(b, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="black"/>`+"\n", x0, y0, x0, y1)

	for _, t := range ticks(xMin, xMax, 8) {
		x := sx(t)
		fmt.Fprintf(b, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="black"/>`+"\n", x, y0, x, y0+5)
		fmt.Fprintf(b, `<text x="%.2f" y="%.2f" font-size="12" text-anchor="middle">%s</text>`+"\n",
			x, y0+20, formatTick(t))
	}
	for _, v := range ticks(yMin, yMax, 6) {
		y := sy(v)
		fmt.Fprintf(b, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="black"/>`+"\n", x0-5, y, x0, y)
		fmt.Fprintf(b, `<text x="%.2f" y="%.2f" font-size="12" text-anchor="end">%s</text>`+"\n",
			x0-9, y+4, formatTick(v))
	}

	fmt.Fprintf(b, `<text x="%d" y="%d" font-size="16" text-anchor="middle">%s</text>`+"\n",
		figWidth/2, marginTop-20, escapeText(title))
	fmt.Fprintf(b, `<text x="%d" y="%d" font-size="13" text-anchor="middle">Time (s)</text>`+"\n",
		figWidth/2, figHeight-12)
	fmt.Fprintf(b, `<text x="16" y="%d" font-size="13" text-anchor="middle" transform="rotate(-90 16 %d)">Z-score</text>`+"\n",
		figHeight/2, figHeight/2)
}

func writeLegend(b *strings.Builder, series []Series) {
	x := marginLeft + 12
	y := marginTop + 6
	for _, s := range series {
		fmt.Fprintf(b, `<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="%s" stroke-width="2"/>`+"\n",
			x, y, x+24, y, s.Color)
		fmt.Fprintf(b, `<text x="%d" y="%d" font-size="13">%s (n=%d)</text>`+"\n",
			x+30, y+4, escapeText(s.Label), s.Summary.Animals)
		y += 18
	}
}

// ticks returns at most n round tick positions covering [lo, hi].
func ticks(lo, hi float64, n int) []float64 {
	if hi <= lo || n < 2 {
		return nil
	}
	step := niceStep((hi - lo) / float64(n))
	var out []float64
	for t := math.Ceil(lo/step) * step; t <= hi+step/1e6; t += step {
		out = append(out, t)
	}
	return out
}

// niceStep rounds a raw step up to 1, 2 or 5 times a power of ten.
func niceStep(raw float64) float64 {
	mag := math.Pow(10, math.Floor(math.Log10(raw)))
	switch {
	case raw/mag <= 1:
		return mag
	case raw/mag <= 2:
		return 2 * mag
	case raw/mag <= 5:
		return 5 * mag
	default:
		return 10 * mag
	}
}

func formatTick(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e7 {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.2f", v)
}

func escapeText(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}
