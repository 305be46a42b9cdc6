package stats

import (
	"bytes"
	"strings"
	"testing"
)

func TestPlotCurve(t *testing.T) {
	var buf bytes.Buffer
	points := []Point{{X: 1, Y: 50}, {X: 2, Y: 30}, {X: 3, Y: -10}, {X: 4, Y: 20}}
	if err := PlotCurve(&buf, "Bankroll Curve", "sessions", points, 20, 4); err != nil {
		t.Fatalf("PlotCurve failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Bankroll Curve") {
		t.Fatalf("expected title in output")
	}
	if !strings.Contains(out, "0 to 4: sessions, final $20.00") {
		t.Fatalf("expected axis footer, got:\n%s", out)
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 1+4+1 {
		t.Fatalf("expected 6 lines, got %d:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[1], " 50 │ ") || !strings.HasPrefix(lines[4], "-10 │ ") {
		t.Fatalf("unexpected axis labels:\n%s", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("expected no color for a buffer")
	}
}

func TestPlotCurveEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := PlotCurve(&buf, "x", "sessions", nil, 20, 4); err != nil {
		t.Fatalf("PlotCurve failed: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %q", buf.String())
	}
}

func TestPlotWidthFor(t *testing.T) {
	points := []Point{{X: 1, Y: -1500}}
	// Widest label is "-1500" plus the separator.
	if got := PlotWidthFor(80, points); got != 80-5-3 {
		t.Fatalf("unexpected width %d", got)
	}
	if got := PlotWidthFor(0, points); got != minPlotWidth {
		t.Fatalf("expected min width %d, got %d", minPlotWidth, got)
	}
}

func TestSampleCurveSteps(t *testing.T) {
	got := sampleCurve([]Point{{X: 0, Y: 0}, {X: 1, Y: 5}, {X: 2, Y: 7}}, 5)
	want := []float64{0, 0, 5, 5, 7}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sample %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}
