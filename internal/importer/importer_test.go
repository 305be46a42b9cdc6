package importer

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/verte-zerg/potlog/internal/ingest"
	"github.com/verte-zerg/potlog/internal/model"
	"github.com/verte-zerg/potlog/internal/stats"
	"github.com/verte-zerg/potlog/internal/store"
)

var base = time.Date(2024, 6, 1, 19, 0, 0, 0, time.UTC)

func newTestImporter(t *testing.T) (*Importer, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "potlog.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := st.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	n := 0
	im := New(st, Options{
		Now: func() time.Time { return base.Add(48 * time.Hour) },
		NewBatchID: func() string {
			n++
			return "batch-" + strconv.Itoa(n)
		},
	})
	return im, st
}

func candidate(start time.Time, duration, stakes string, hands int, result float64) model.Candidate {
	format := "Hold'em"
	return model.Candidate{
		StartTime:   &start,
		Duration:    &duration,
		GameFormat:  &format,
		Stakes:      &stakes,
		HandsPlayed: &hands,
		Result:      &result,
	}
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestImportOverlappingSessions(t *testing.T) {
	ctx := context.Background()
	im, st := newTestImporter(t)
	// Out of order on purpose; the importer sorts by start time.
	batch := []model.Candidate{
		candidate(base.Add(30*time.Minute), "1h 0m 0s", "1/2", 100, -20),
		candidate(base, "1h 0m 0s", "1/2", 100, 50),
	}
	res, err := im.Import(ctx, "test", batch)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if !res.OK || res.Imported != 2 || res.Duplicates != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Message != "Imported 2 sessions" {
		t.Fatalf("unexpected message: %q", res.Message)
	}

	sessions, err := st.ListAll(ctx, model.Filter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !near(sessions[0].TotalHours, 1.0) || !near(sessions[1].TotalHours, 1.5) {
		t.Fatalf("unexpected total hours: %v %v", sessions[0].TotalHours, sessions[1].TotalHours)
	}
	if sessions[0].BBResult == nil || !near(*sessions[0].BBResult, 25) {
		t.Fatalf("unexpected bb result: %v", sessions[0].BBResult)
	}

	groups := stats.Groups(sessions)
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	g := groups[0]
	if g.Stakes != "1/2" || !near(g.Profit, 30) || g.Hands != 200 || !near(g.BBPer100, 7.5) {
		t.Fatalf("unexpected group: %+v", g)
	}
}

func TestImportTwiceIsIdempotent(t *testing.T) {
	ctx := context.Background()
	im, st := newTestImporter(t)
	batch := []model.Candidate{
		candidate(base, "1h", "1/2", 100, 50),
		candidate(base.Add(3*time.Hour), "2h", "1/2", 150, -10),
		candidate(base.Add(6*time.Hour), "45m", "2/5", 60, 12.5),
	}
	if _, err := im.Import(ctx, "first", batch); err != nil {
		t.Fatalf("first import: %v", err)
	}
	res, err := im.Import(ctx, "second", batch)
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if res.Imported != 0 || res.Duplicates != len(batch) {
		t.Fatalf("unexpected second result: %+v", res)
	}
	if res.Message != "Imported 0 sessions (skipped 3 duplicates)" {
		t.Fatalf("unexpected message: %q", res.Message)
	}
	n, err := st.CountSessions(ctx, model.Filter{})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != len(batch) {
		t.Fatalf("expected %d sessions, got %d", len(batch), n)
	}
	imports, err := st.ListImports(ctx, 0)
	if err != nil {
		t.Fatalf("imports: %v", err)
	}
	if len(imports) != 2 {
		t.Fatalf("expected 2 import log entries, got %d", len(imports))
	}
}

func TestImportDuplicatesWithinBatch(t *testing.T) {
	ctx := context.Background()
	im, _ := newTestImporter(t)
	c := candidate(base, "1h", "1/2", 100, 50)
	res, err := im.Import(ctx, "test", []model.Candidate{c, c})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if res.Imported != 1 || res.Duplicates != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestImportRejectsWholeBatch(t *testing.T) {
	ctx := context.Background()
	im, st := newTestImporter(t)
	bad := candidate(base.Add(time.Hour), "1h", "1/2", 10, 1)
	bad.Result = nil
	bad.Line = 7
	res, err := im.Import(ctx, "test", []model.Candidate{candidate(base, "1h", "1/2", 100, 50), bad})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !errors.Is(err, ingest.ErrMissingField) {
		t.Fatalf("expected missing field error, got %v", err)
	}
	var rej *model.Rejection
	if !errors.As(err, &rej) || rej.Line != 7 {
		t.Fatalf("expected rejection on line 7, got %v", err)
	}
	if res.OK || res.Imported != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
	n, err := st.CountSessions(ctx, model.Filter{})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected no sessions, got %d", n)
	}
}

func TestImportRollsBackStorageFailure(t *testing.T) {
	ctx := context.Background()
	st, err := store.Open(filepath.Join(t.TempDir(), "potlog.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := st.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	// A reused batch id fails the import log insert, after the sessions
	// were inserted and recomputed in the same transaction.
	im := New(st, Options{
		Now:        func() time.Time { return base.Add(48 * time.Hour) },
		NewBatchID: func() string { return "same-batch" },
	})
	if _, err := im.Import(ctx, "first", []model.Candidate{candidate(base, "1h", "1/2", 100, 50)}); err != nil {
		t.Fatalf("first import: %v", err)
	}

	res, err := im.Import(ctx, "second", []model.Candidate{
		candidate(base.Add(30*time.Minute), "1h", "1/2", 100, -20),
		candidate(base.Add(3*time.Hour), "2h", "1/2", 150, 10),
	})
	if err == nil {
		t.Fatalf("expected storage error")
	}
	if res.OK || res.Imported != 0 || res.Duplicates != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
	n, err := st.CountSessions(ctx, model.Filter{})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected only the first session, got %d", n)
	}
	sessions, err := st.ListAll(ctx, model.Filter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !near(sessions[0].TotalHours, 1) {
		t.Fatalf("expected total_hours untouched, got %v", sessions[0].TotalHours)
	}
	imports, err := st.ListImports(ctx, 0)
	if err != nil {
		t.Fatalf("list imports: %v", err)
	}
	if len(imports) != 1 || imports[0].Source != "first" {
		t.Fatalf("expected only the first import logged, got %+v", imports)
	}
}

func TestImportRecomputesAcrossBatches(t *testing.T) {
	ctx := context.Background()
	im, st := newTestImporter(t)
	if _, err := im.Import(ctx, "late", []model.Candidate{candidate(base.Add(2*time.Hour), "1h", "1/2", 10, 1)}); err != nil {
		t.Fatalf("import: %v", err)
	}
	// An earlier session arriving later shifts the cumulative hours of the first.
	if _, err := im.Import(ctx, "early", []model.Candidate{candidate(base, "1h", "1/2", 10, 1)}); err != nil {
		t.Fatalf("import: %v", err)
	}
	sessions, err := st.ListAll(ctx, model.Filter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !near(sessions[0].TotalHours, 1) || !near(sessions[1].TotalHours, 2) {
		t.Fatalf("unexpected totals: %v %v", sessions[0].TotalHours, sessions[1].TotalHours)
	}
	changed, err := im.Refresh(ctx)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if changed != 0 {
		t.Fatalf("expected nothing to refresh, got %d", changed)
	}
}

func TestAdjust(t *testing.T) {
	ctx := context.Background()
	im, st := newTestImporter(t)
	res, err := im.Adjust(ctx, 250, time.Time{}, "")
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if res.Imported != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	sessions, err := st.ListAll(ctx, model.Filter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	s := sessions[0]
	if s.GameFormat != model.AdjustmentFormat || s.HandsPlayed != 0 || s.Result != 250 || s.TotalHours != 0 {
		t.Fatalf("unexpected adjustment: %+v", s)
	}
	if !s.StartTime.Equal(base.Add(48 * time.Hour)) {
		t.Fatalf("expected adjustment at import time, got %v", s.StartTime)
	}
}
