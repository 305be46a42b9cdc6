// Package importer stores batches of session candidates without duplicates
// and keeps the derived per-session fields current.
package importer

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/potlog/internal/ingest"
	"github.com/verte-zerg/potlog/internal/model"
	"github.com/verte-zerg/potlog/internal/parse"
	"github.com/verte-zerg/potlog/internal/store"
	"github.com/verte-zerg/potlog/internal/timeline"
)

// AdjustmentSource is the import log source of manual adjustments.
const AdjustmentSource = "adjustment"

// Options configure an Importer.
type Options struct {
	// Now returns the import time. Defaults to time.Now.
	Now func() time.Time
	// NewBatchID returns import log identifiers. Defaults to uuid.NewString.
	NewBatchID func() string
}

// Result summarizes one import call.
type Result struct {
	OK         bool
	BatchID    string
	Imported   int
	Duplicates int
	Message    string
}

// Importer is the only writer of new sessions.
type Importer struct {
	store *store.Store
	opts  Options
}

// New creates an importer for the store.
func New(st *store.Store, opts Options) *Importer {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewBatchID == nil {
		opts.NewBatchID = uuid.NewString
	}
	return &Importer{store: st, opts: opts}
}

// Import validates, de-duplicates and stores the candidates in a single
// transaction. Any invalid candidate or storage failure rolls back the whole
// batch; the returned Result then reports zero imported sessions.
func (im *Importer) Import(ctx context.Context, source string, candidates []model.Candidate) (Result, error) {
	sessions := make([]model.Session, 0, len(candidates))
	for _, c := range candidates {
		s, rej := ingest.Validate(c)
		if rej != nil {
			return failure(rej), rej
		}
		sessions = append(sessions, s)
	}
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].StartTime.Before(sessions[j].StartTime)
	})

	now := im.opts.Now()
	res := Result{BatchID: im.opts.NewBatchID()}
	err := im.store.WithTx(ctx, func(tx *store.Tx) error {
		for _, s := range sessions {
			dup, err := tx.HasDuplicate(ctx, s.Key())
			if err != nil {
				return fmt.Errorf("check duplicate: %w", err)
			}
			if dup {
				res.Duplicates++
				continue
			}
			s.CreatedAt = now
			if _, err := tx.Insert(ctx, s); err != nil {
				return fmt.Errorf("insert session: %w", err)
			}
			res.Imported++
		}
		if res.Imported > 0 {
			if _, err := recompute(ctx, tx); err != nil {
				return err
			}
		}
		return tx.RecordImport(ctx, model.ImportRecord{
			BatchID:    res.BatchID,
			Source:     source,
			Imported:   res.Imported,
			Duplicates: res.Duplicates,
			CreatedAt:  now,
		})
	})
	if err != nil {
		return failure(err), err
	}
	res.OK = true
	res.Message = summary(res.Imported, res.Duplicates)
	return res, nil
}

// Adjust records a manual bankroll adjustment as a zero-hand session.
func (im *Importer) Adjust(ctx context.Context, amount float64, at time.Time, room string) (Result, error) {
	if at.IsZero() {
		at = im.opts.Now()
	}
	duration, format, stakes, hands := "0s", model.AdjustmentFormat, "", 0
	return im.Import(ctx, AdjustmentSource, []model.Candidate{{
		Room:        room,
		StartTime:   &at,
		Duration:    &duration,
		GameFormat:  &format,
		Stakes:      &stakes,
		HandsPlayed: &hands,
		Result:      &amount,
	}})
}

// Refresh recomputes total_hours and bb_result for every stored session
// and returns the number of sessions that changed.
func (im *Importer) Refresh(ctx context.Context) (int, error) {
	var changed int
	err := im.store.WithTx(ctx, func(tx *store.Tx) error {
		var err error
		changed, err = recompute(ctx, tx)
		return err
	})
	if err != nil {
		return 0, err
	}
	return changed, nil
}

func recompute(ctx context.Context, tx *store.Tx) (int, error) {
	sessions, err := tx.ListOrdered(ctx)
	if err != nil {
		return 0, fmt.Errorf("list sessions: %w", err)
	}
	var frontier timeline.Frontier
	changed := 0
	for _, s := range sessions {
		total := frontier.Add(timeline.SpanOf(s.StartTime, s.Duration))
		bb := s.Result / parse.BigBlind(s.Stakes)
		if s.TotalHours == total && s.BBResult != nil && *s.BBResult == bb {
			continue
		}
		if err := tx.UpdateDerived(ctx, s.ID, total, &bb); err != nil {
			return 0, fmt.Errorf("update session %d: %w", s.ID, err)
		}
		changed++
	}
	return changed, nil
}

func failure(err error) Result {
	return Result{Message: "Error importing sessions: " + err.Error()}
}

func summary(imported, duplicates int) string {
	msg := fmt.Sprintf("Imported %d sessions", imported)
	if duplicates > 0 {
		msg += fmt.Sprintf(" (skipped %d duplicates)", duplicates)
	}
	return msg
}
