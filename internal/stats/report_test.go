package stats

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/potlog/internal/model"
	"github.com/verte-zerg/potlog/internal/store"
)

func TestBuildReport(t *testing.T) {
	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "potlog.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})

	ctx := context.Background()
	now := base.Add(20 * 24 * time.Hour)
	err = st.WithTx(ctx, func(tx *store.Tx) error {
		for _, s := range []model.Session{
			sess(0, "1/2", 100, 40),
			sess(15*24*time.Hour, "1/2", 100, -10),
			sess(16*24*time.Hour, "2/5", 200, 25),
		} {
			s.CreatedAt = now
			if _, err := tx.Insert(ctx, s); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	report, err := BuildReport(ctx, st, model.StatsConfig{Range: string(RangeWeek), Format: "Hold'em"}, now)
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if len(report.Sessions) != 2 {
		t.Fatalf("expected 2 sessions in the last week, got %d", len(report.Sessions))
	}
	if !near(report.Trajectory.Current.Value, 15) {
		t.Fatalf("unexpected bankroll: %v", report.Trajectory.Current)
	}
	if len(report.Groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(report.Groups))
	}
	if report.Recommendation.Confidence != DefaultConfidence {
		t.Fatalf("expected default confidence, got %v", report.Recommendation.Confidence)
	}

	all, err := BuildReport(ctx, st, model.StatsConfig{}, now)
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if len(all.Sessions) != 3 || all.Range != RangeAll {
		t.Fatalf("unexpected full report: %d sessions, range %s", len(all.Sessions), all.Range)
	}
}

func TestRenderSummaryEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderSummary(&buf, Compute(nil, model.StatsConfig{}, base)); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "No sessions found.") {
		t.Fatalf("expected empty notice, got:\n%s", out)
	}
	if !strings.Contains(out, "Total Won:") || strings.Contains(out, "$0.00") {
		t.Fatalf("empty summary should show unavailable metrics, got:\n%s", out)
	}
}

func TestRenderGroupsAndSessions(t *testing.T) {
	sessions := []model.Session{sess(0, "1/2", 100, 50), sess(30*time.Minute, "1/2", 100, -20)}
	var buf bytes.Buffer
	if err := RenderGroups(&buf, Groups(sessions)); err != nil {
		t.Fatalf("render groups: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header, separator and one row, got:\n%s", buf.String())
	}
	if lines[2] != "1/2    Hold'em  $30.00    200    7.50" {
		t.Fatalf("unexpected group row %q", lines[2])
	}

	buf.Reset()
	if err := RenderSessions(&buf, sessions, 0, 2); err != nil {
		t.Fatalf("render sessions: %v", err)
	}
	if !strings.Contains(buf.String(), "Showing 1-2 of 2") {
		t.Fatalf("expected pagination footer, got:\n%s", buf.String())
	}
	if !strings.Contains(buf.String(), "-$20.00") {
		t.Fatalf("expected loss row, got:\n%s", buf.String())
	}
}
