// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"strconv"

	"github.com/verte-zerg/potlog/internal/model"
	"github.com/verte-zerg/potlog/internal/parse"
)

const dateLayout = "2006-01-02 15:04"

// Item is a labelled display value.
type Item struct {
	Label string
	Value string
}

// FormatMoney renders a signed amount.
func FormatMoney(v float64) string {
	if v < 0 {
		return fmt.Sprintf("-$%.2f", -v)
	}
	return fmt.Sprintf("$%.2f", v)
}

func money(m Metric) string {
	if !m.Valid {
		return Unavailable
	}
	return FormatMoney(m.Value)
}

func sessionLabel(s *model.Session) string {
	if s == nil {
		return Unavailable
	}
	label := FormatMoney(s.Result)
	if s.Stakes != "" {
		label += " at " + s.Stakes
	}
	return label + " on " + s.StartTime.Format("2006-01-02")
}

// SummaryItems lists the headline metrics of a report.
func SummaryItems(rep Report) []Item {
	sum := rep.Summary
	hours := Unavailable
	if sum.Hours.Valid {
		hours = parse.FormatHours(sum.Hours.Value)
	}
	won := Unavailable
	if sum.Sessions > 0 {
		won = fmt.Sprintf("%d / %d", sum.Won, sum.Sessions)
	}
	hands := Unavailable
	if sum.Sessions > 0 {
		hands = strconv.Itoa(sum.Hands)
	}
	return []Item{
		{"Total Won", money(sum.Profit)},
		{"$/Hour", money(sum.PerHour)},
		{"$/Hand", sum.PerHand.Format("$%.4f")},
		{"Sessions Won", won},
		{"Win %", sum.WinPct.Format("%.1f%%")},
		{"Total Time", hours},
		{"Total Hands", hands},
		{"Hands/Hour", sum.HandsPerHour.Format("%.1f")},
		{"Biggest Win", sessionLabel(sum.BiggestWin)},
		{"Biggest Loss", sessionLabel(sum.BiggestLoss)},
	}
}

// BankrollItems lists the trajectory, variance and streak metrics.
func BankrollItems(rep Report) []Item {
	tr := rep.Trajectory
	format := rep.Variance.Format
	if format == "" {
		format = "all formats"
	}
	return []Item{
		{"Bankroll", money(tr.Current)},
		{"Last 7 Days", money(tr.Last7Days)},
		{"Last 30 Days", money(tr.Last30Days)},
		{"Peak", money(tr.Peak)},
		{"Max Drawdown", money(tr.MaxDrawdown)},
		{"ROI", tr.ROI.Format("%.2f%%")},
		{"BB/100 (" + format + ")", rep.Variance.BBPer100.String()},
		{"Std Dev BB/100", rep.Variance.StdDev.String()},
		{fmt.Sprintf("Bankroll (%.0f%%)", rep.Recommendation.Confidence*100), rep.Recommendation.String()},
		{"Best Streak", streakLabel(rep.Best)},
		{"Worst Streak", streakLabel(rep.Worst)},
	}
}

func streakLabel(s Streak) string {
	if s.Sessions == 0 {
		return Unavailable
	}
	return fmt.Sprintf("%s (%.1f BB, %d sessions, %d hands)", FormatMoney(s.Profit), s.BB, s.Sessions, s.Hands)
}

// GroupHeaders are the column titles of the group table.
var GroupHeaders = []string{"Stake", "Game", "Won", "Hands", "BB/100"}

// GroupRow formats one group for a table.
func GroupRow(g Group) []string {
	return []string{g.Stakes, g.GameFormat, FormatMoney(g.Profit), strconv.Itoa(g.Hands), fmt.Sprintf("%.2f", g.BBPer100)}
}

// SessionHeaders are the column titles of the session table.
var SessionHeaders = []string{"Date", "Stakes", "Game", "Duration", "Hands", "Result", "BB/100", "$/Hour"}

// SessionRow formats one session for a table.
func SessionRow(s model.Session) []string {
	perHour := 0.0
	if h := parse.Duration(s.Duration); h > 0 {
		perHour = s.Result / h
	}
	return []string{
		s.StartTime.Format(dateLayout),
		s.Stakes,
		s.GameFormat,
		s.Duration,
		strconv.Itoa(s.HandsPlayed),
		FormatMoney(s.Result),
		fmt.Sprintf("%.2f", SessionBBPer100(s)),
		FormatMoney(perHour),
	}
}

func renderItems(w io.Writer, title string, items []Item) error {
	if _, err := fmt.Fprintln(w, title); err != nil {
		return err
	}
	rows := make([][]string, 0, len(items))
	for _, it := range items {
		rows = append(rows, []string{it.Label + ":", it.Value})
	}
	for _, line := range formatTable(nil, rows, nil) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderSummary prints the headline and bankroll metrics.
func RenderSummary(w io.Writer, rep Report) error {
	if len(rep.Sessions) == 0 {
		if _, err := fmt.Fprintln(w, "No sessions found."); err != nil {
			return err
		}
	}
	if err := renderItems(w, "Summary ("+rep.Range.Label()+")", SummaryItems(rep)); err != nil {
		return err
	}
	return renderItems(w, "Bankroll", BankrollItems(rep))
}

// RenderGroups prints the per-stake aggregation table.
func RenderGroups(w io.Writer, groups []Group) error {
	if len(groups) == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	rows := make([][]string, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, GroupRow(g))
	}
	rightAlign := map[int]bool{2: true, 3: true, 4: true}
	for _, line := range formatTable(GroupHeaders, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderSessions prints one page of sessions and the pagination state.
func RenderSessions(w io.Writer, sessions []model.Session, offset, total int) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		rows = append(rows, SessionRow(s))
	}
	rightAlign := map[int]bool{4: true, 5: true, 6: true, 7: true}
	for _, line := range formatTable(SessionHeaders, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "\nShowing %d-%d of %d\n", offset+1, offset+len(sessions), total)
	return err
}

// RenderCurve plots cumulative profit.
func RenderCurve(w io.Writer, sessions []model.Session, hoursAxis bool, totalWidth, height int, useColor bool) error {
	points := Curve(sessions, hoursAxis)
	if len(points) == 0 {
		return nil
	}
	xLabel := "sessions"
	if hoursAxis {
		xLabel = "hours"
	}
	width := 0
	if totalWidth > 0 {
		width = PlotWidthFor(totalWidth, points)
	}
	return PlotCurveWithColor(w, "Bankroll Curve", xLabel, points, width, height, useColor)
}
