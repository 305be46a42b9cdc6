package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

const (
	defaultPlotHeight   = 10
	minPlotWidth        = 10
	axisSeparator       = " │ "
	colorReset          = "\x1b[0m"
	colorProfit         = "\x1b[32m"
	colorLoss           = "\x1b[31m"
	colorBaseline       = "\x1b[90m"
	terminalWidthBackup = 80
	// baselinePeriod and baselineOn draw the zero line dotted.
	baselinePeriod = 4
	baselineOn     = 1
)

// PlotCurve renders points as a braille line chart with a value axis and a
// dotted zero line.
func PlotCurve(w io.Writer, title, xLabel string, points []Point, width, height int) error {
	return plotCurve(w, title, xLabel, points, width, height, false)
}

// PlotCurveWithColor renders the chart with optional forced color output.
func PlotCurveWithColor(w io.Writer, title, xLabel string, points []Point, width, height int, forceColor bool) error {
	return plotCurve(w, title, xLabel, points, width, height, forceColor)
}

func plotCurve(w io.Writer, title, xLabel string, points []Point, width, height int, forceColor bool) error {
	if len(points) == 0 {
		return nil
	}
	points = withOrigin(points)
	if height <= 0 {
		height = defaultPlotHeight
	}
	if width <= 0 {
		width = PlotWidthFor(terminalWidth(), points)
	}
	if width < minPlotWidth {
		width = minPlotWidth
	}

	minY, maxY := yRange(points)
	dotRows := height * 4
	line := makeCells(height, width)
	baseline := makeCells(height, width)

	zeroRow := valueToRow(0, minY, maxY, dotRows)
	for x := 0; x < width*2; x++ {
		if x%baselinePeriod < baselineOn {
			setBrailleDot(baseline, x, zeroRow)
		}
	}
	prevX, prevY := -1, -1
	for x, v := range sampleCurve(points, width*2) {
		y := valueToRow(v, minY, maxY, dotRows)
		if prevX >= 0 {
			drawLine(prevX, prevY, x, y, func(dx, dy int) {
				setBrailleDot(line, dx, dy)
			})
		} else {
			setBrailleDot(line, x, y)
		}
		prevX, prevY = x, y
	}

	useColor := shouldUseColor(w, forceColor)
	lineColor := colorProfit
	if points[len(points)-1].Y < 0 {
		lineColor = colorLoss
	}
	labels := axisLabels(height, minY, maxY)
	labelWidth := maxWidth(labels)

	if title != "" {
		if _, err := fmt.Fprintln(w, title); err != nil {
			return err
		}
	}
	for y := 0; y < height; y++ {
		var row strings.Builder
		row.WriteString(runewidth.FillLeft(labels[y], labelWidth))
		row.WriteString(axisSeparator)
		for x := 0; x < width; x++ {
			mask, color := line[y][x], lineColor
			if mask == 0 {
				mask, color = baseline[y][x], colorBaseline
			}
			ch := brailleFromMask(mask)
			if useColor && mask != 0 {
				row.WriteString(color)
				row.WriteRune(ch)
				row.WriteString(colorReset)
			} else {
				row.WriteRune(ch)
			}
		}
		if _, err := fmt.Fprintln(w, row.String()); err != nil {
			return err
		}
	}
	last := points[len(points)-1]
	if _, err := fmt.Fprintf(w, "%s 0 to %s: %s, final %s\n", strings.Repeat(" ", labelWidth), formatAxis(last.X), xLabel, FormatMoney(last.Y)); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// PlotWidthFor computes a plot width that fits within the total available
// width next to the value axis of points.
func PlotWidthFor(totalWidth int, points []Point) int {
	if totalWidth <= 0 {
		return minPlotWidth
	}
	minY, maxY := yRange(withOrigin(points))
	axisWidth := maxWidth(axisLabels(3, minY, maxY)) + utf8.RuneCountInString(axisSeparator)
	plotWidth := totalWidth - axisWidth
	if plotWidth < minPlotWidth {
		plotWidth = minPlotWidth
	}
	return plotWidth
}

func withOrigin(points []Point) []Point {
	if len(points) == 0 || points[0].X <= 0 {
		return points
	}
	out := make([]Point, 0, len(points)+1)
	out = append(out, Point{})
	return append(out, points...)
}

// yRange always includes zero so the baseline is visible.
func yRange(points []Point) (float64, float64) {
	minY, maxY := 0.0, 0.0
	for _, p := range points {
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}
	if maxY-minY < 1e-9 {
		minY--
		maxY++
	}
	return minY, maxY
}

// sampleCurve evaluates the step function through points at n evenly spaced
// x positions. Points must be ordered by X.
func sampleCurve(points []Point, n int) []float64 {
	out := make([]float64, n)
	if n == 0 || len(points) == 0 {
		return out
	}
	minX, maxX := points[0].X, points[len(points)-1].X
	for i := range out {
		x := maxX
		if n > 1 {
			x = minX + (maxX-minX)*float64(i)/float64(n-1)
		}
		// Last point at or before x.
		idx := sort.Search(len(points), func(j int) bool { return points[j].X > x }) - 1
		if idx < 0 {
			idx = 0
		}
		out[i] = points[idx].Y
	}
	return out
}

func axisLabels(height int, minY, maxY float64) []string {
	labels := make([]string, height)
	if height <= 0 {
		return labels
	}
	labels[0] = formatAxis(maxY)
	if height > 2 {
		labels[height/2] = formatAxis((minY + maxY) / 2)
	}
	if height > 1 {
		labels[height-1] = formatAxis(minY)
	}
	return labels
}

func formatAxis(v float64) string {
	if math.Abs(v) >= 100 || v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.1f", v)
}

func maxWidth(values []string) int {
	width := 0
	for _, v := range values {
		if w := runewidth.StringWidth(v); w > width {
			width = w
		}
	}
	return width
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

func shouldUseColor(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

func makeCells(height, width int) [][]uint8 {
	cells := make([][]uint8, height)
	for y := 0; y < height; y++ {
		cells[y] = make([]uint8, width)
	}
	return cells
}

func valueToRow(v, minVal, maxVal float64, height int) int {
	if height <= 1 {
		return 0
	}
	pos := (v - minVal) / (maxVal - minVal)
	row := int(math.Round((1 - pos) * float64(height-1)))
	if row < 0 {
		row = 0
	}
	if row >= height {
		row = height - 1
	}
	return row
}

func drawLine(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx := int(math.Abs(float64(x1 - x0)))
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -int(math.Abs(float64(y1 - y0)))
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			if x0 == x1 {
				break
			}
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			if y0 == y1 {
				break
			}
			err += dx
			y0 += sy
		}
	}
}

func setBrailleDot(cells [][]uint8, x, y int) {
	if y < 0 || x < 0 {
		return
	}
	cellY := y / 4
	cellX := x / 2
	if cellY >= len(cells) || cellX >= len(cells[cellY]) {
		return
	}
	cells[cellY][cellX] |= brailleDotMask(x%2, y%4)
}

// brailleDotMask maps a dot inside a 2x4 braille cell to its bit.
func brailleDotMask(x, y int) uint8 {
	masks := [2][4]uint8{
		{0x01, 0x02, 0x04, 0x40},
		{0x08, 0x10, 0x20, 0x80},
	}
	if x < 0 || x > 1 || y < 0 || y > 3 {
		return 0
	}
	return masks[x][y]
}

func brailleFromMask(mask uint8) rune {
	return rune(0x2800 + int(mask))
}
