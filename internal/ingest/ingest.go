// Package ingest turns saved session exports and scraped history pages into
// import candidates.
package ingest

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/verte-zerg/potlog/internal/model"
)

// StartLayout is the start time layout used by exports and history pages.
const StartLayout = "Jan 2, 3:04 PM"

// ErrMissingField reports a candidate that lacks a required field.
var ErrMissingField = errors.New("missing field")

// Options control how source timestamps are completed.
type Options struct {
	// Year is assigned to timestamps, which carry no year. Zero means the
	// year of Now.
	Year     int
	Now      time.Time
	Location *time.Location
	Room     string
}

func (o Options) year() int {
	if o.Year > 0 {
		return o.Year
	}
	if o.Now.IsZero() {
		return time.Now().Year()
	}
	return o.Now.Year()
}

func (o Options) location() *time.Location {
	if o.Location != nil {
		return o.Location
	}
	return time.Local
}

// ParseStart parses a start time such as "Jan 02, 03:04 PM".
func ParseStart(value string, opts Options) (time.Time, error) {
	t, err := time.ParseInLocation(StartLayout, strings.TrimSpace(value), opts.location())
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(opts.year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, opts.location()), nil
}

var (
	exportStart  = regexp.MustCompile(`Start time \((.*?)\)`)
	exportDur    = regexp.MustCompile(`Duration \((.*?)\)`)
	exportFormat = regexp.MustCompile(`Format \((.*?)\)`)
	exportStake  = regexp.MustCompile(`Stake \((.*?)\)`)
	exportHands  = regexp.MustCompile(`HandsPlayed \((\d+)\)`)
	exportResult = regexp.MustCompile(`Result \(\$?([+-]?[\d.]+)\)`)
)

// ParseExport reads one session per line. A line that names any export field
// yields a candidate; fields that are absent or unreadable stay nil so the
// importer rejects the batch. Blank and unrelated lines are skipped.
func ParseExport(r io.Reader, opts Options) ([]model.Candidate, error) {
	scanner := bufio.NewScanner(r)
	var out []model.Candidate
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || !looksLikeExport(line) {
			continue
		}
		c := model.Candidate{Room: opts.Room, Line: lineNo}
		if m := exportStart.FindStringSubmatch(line); m != nil {
			if t, err := ParseStart(m[1], opts); err == nil {
				c.StartTime = &t
			}
		}
		if m := exportDur.FindStringSubmatch(line); m != nil {
			c.Duration = stringPtr(m[1])
		}
		if m := exportFormat.FindStringSubmatch(line); m != nil {
			c.GameFormat = stringPtr(m[1])
		}
		if m := exportStake.FindStringSubmatch(line); m != nil {
			c.Stakes = stringPtr(m[1])
		}
		if m := exportHands.FindStringSubmatch(line); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				c.HandsPlayed = &n
			}
		}
		if m := exportResult.FindStringSubmatch(line); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				c.Result = &v
			}
		}
		out = append(out, c)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func looksLikeExport(line string) bool {
	for _, marker := range []string{"Start time (", "Duration (", "HandsPlayed (", "Result ("} {
		if strings.Contains(line, marker) {
			return true
		}
	}
	return false
}

var pageEntry = regexp.MustCompile(
	`([A-Z][a-z]{2} \d{1,2}, \d{1,2}:\d{2} [AP]M)\n` +
		`((?:\d+h )?\d+m \d+s)\n` +
		`(Hold'em|Omaha)\n` +
		`([\d.]+ SC / [\d.]+ SC)\n` +
		`(\d+)\n` +
		`([+-][\d.]+) SC`)

// ParsePage extracts sessions from the text of the site's session history
// page, where each session is a block of six lines.
func ParsePage(content string, opts Options) []model.Candidate {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	var out []model.Candidate
	for _, m := range pageEntry.FindAllStringSubmatch(content, -1) {
		start, err := ParseStart(m[1], opts)
		if err != nil {
			continue
		}
		hands, err := strconv.Atoi(m[5])
		if err != nil {
			continue
		}
		result, err := strconv.ParseFloat(m[6], 64)
		if err != nil {
			continue
		}
		out = append(out, model.Candidate{
			Room:        opts.Room,
			StartTime:   &start,
			Duration:    stringPtr(m[2]),
			GameFormat:  stringPtr(m[3]),
			Stakes:      stringPtr(m[4]),
			HandsPlayed: &hands,
			Result:      &result,
		})
	}
	return out
}

// LoadFile reads an export file, falling back to the page layout when the
// file holds no export lines.
func LoadFile(path string, opts Options) ([]model.Candidate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	content := string(data)
	if strings.Contains(content, "Start time (") {
		return ParseExport(strings.NewReader(content), opts)
	}
	return ParsePage(content, opts), nil
}

// Validate converts a candidate into a session or explains why it cannot.
func Validate(c model.Candidate) (model.Session, *model.Rejection) {
	var missing []string
	if c.StartTime == nil {
		missing = append(missing, "start time")
	}
	if c.Duration == nil {
		missing = append(missing, "duration")
	}
	if c.GameFormat == nil {
		missing = append(missing, "game format")
	}
	if c.Stakes == nil {
		missing = append(missing, "stakes")
	}
	if c.HandsPlayed == nil {
		missing = append(missing, "hands played")
	}
	if c.Result == nil {
		missing = append(missing, "result")
	}
	if len(missing) > 0 {
		return model.Session{}, &model.Rejection{
			Line:   c.Line,
			Reason: fmt.Sprintf("%s: %s", ErrMissingField, strings.Join(missing, ", ")),
			Err:    ErrMissingField,
		}
	}
	if *c.HandsPlayed < 0 {
		return model.Session{}, &model.Rejection{Line: c.Line, Reason: "negative hands played"}
	}
	return model.Session{
		Room:        c.Room,
		StartTime:   *c.StartTime,
		Duration:    strings.TrimSpace(*c.Duration),
		GameFormat:  strings.TrimSpace(*c.GameFormat),
		Stakes:      strings.TrimSpace(*c.Stakes),
		HandsPlayed: *c.HandsPlayed,
		Result:      *c.Result,
	}, nil
}

// WriteExport writes sessions in the export line format.
func WriteExport(w io.Writer, sessions []model.Session) error {
	bw := bufio.NewWriter(w)
	for _, s := range sessions {
		if _, err := fmt.Fprintf(bw, "Start time (%s) Duration (%s) Format (%s) Stake (%s) HandsPlayed (%d) Result ($%.2f)\n",
			s.StartTime.Format("Jan 02, 03:04 PM"), s.Duration, s.GameFormat, s.Stakes, s.HandsPlayed, s.Result); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func stringPtr(v string) *string {
	return &v
}
