package attendance

import (
	"fmt"
	"math"
	"strings"
	"time"

	"attendance-backend/internal/components/assert"
	"attendance-backend/internal/components/chrono"
)

const (
	// DateLayout is the portal's day-month-year format, one or two digit days and months are accepted.
	DateLayout = "2-1-2006"
	// DisplayLayout is how dates are rendered back to the student.
	DisplayLayout = "02-01-2006"
	// PresentStatus is compared case-insensitively against a record's status.
	PresentStatus = "Present"
)

// Note explains how a SubjectSummary came to be, NoteOK is the only non-degraded note.
type Note string

const (
	NoteOK           Note = "OK"
	NoteNoTable      Note = "No attendance table"
	NoteNoRecords    Note = "No records"
	NoteInvalidDates Note = "Invalid dates"
)

func FetchErrorNote(err error) Note {
	return Note(fmt.Sprintf("Fetch error: %s", err.Error()))
}

type Record struct {
	Date   time.Time
	Status string
}

func (r Record) Present() bool {
	return strings.EqualFold(strings.TrimSpace(r.Status), PresentStatus)
}

// ParseDate parses a portal date, the boolean is false when the text is not a
// valid calendar date (ex. 31-02-2024).
func ParseDate(text string) (time.Time, bool) {
	date, err := time.ParseInLocation(DateLayout, strings.TrimSpace(text), time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return date, true
}

type SubjectSummary struct {
	Subject        string
	StartDate      time.Time
	EndDate        time.Time
	TotalDays      int
	Present        int
	Absent         int
	Percentage     float64
	CanSkip        int
	NeedToAttend   int
	Note           Note
	EndDateWarning bool
}

// Degraded is true for placeholder summaries, whose statistics are all zero.
func (s SubjectSummary) Degraded() bool {
	return s.Note != NoteOK
}

// Placeholder is the summary of a subject whose records could not be obtained.
func Placeholder(subject string, note Note) SubjectSummary {
	return SubjectSummary{
		Subject: subject,
		Note:    note,
	}
}

type Overall struct {
	TotalDays  int
	Present    int
	Percentage float64
}

// RoundPercent returns part/whole as a percentage rounded to 2 decimal places, 0 when whole is 0.
func RoundPercent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return math.Round(float64(part)/float64(whole)*100*100) / 100
}

// Aggregate sums the statistics of every subject, placeholders contribute zeros.
func Aggregate(summaries []SubjectSummary) Overall {
	var overall Overall
	for _, s := range summaries {
		if s.TotalDays <= 0 {
			continue
		}
		overall.TotalDays += s.TotalDays
		overall.Present += s.Present
	}
	overall.Percentage = RoundPercent(overall.Present, overall.TotalDays)
	return overall
}

// Summarizer turns the records of a subject into a SubjectSummary.
type Summarizer struct {
	policy     Policy
	time       chrono.TimeAPI
	staleAfter int
}

// NewSummarizer creates a Summarizer, end dates more than `staleAfterDays` days
// before now are flagged with EndDateWarning. A non-positive value disables the flag.
func NewSummarizer(policy Policy, time chrono.TimeAPI, staleAfterDays int) Summarizer {
	assert.NotNil(time)
	assert.Positive(policy.Threshold)
	return Summarizer{
		policy:     policy,
		time:       time,
		staleAfter: staleAfterDays,
	}
}

// Ready is false for the zero Summarizer.
func (s Summarizer) Ready() bool {
	return s.time != nil && s.policy.Threshold > 0
}

func (s Summarizer) Summarize(subject string, records []Record) SubjectSummary {
	if len(records) == 0 {
		return Placeholder(subject, NoteInvalidDates)
	}

	start := records[0].Date
	end := records[0].Date
	present := 0
	for _, r := range records {
		if r.Date.Before(start) {
			start = r.Date
		}
		if r.Date.After(end) {
			end = r.Date
		}
		if r.Present() {
			present++
		}
	}

	total := len(records)
	percentage := RoundPercent(present, total)
	canSkip, needToAttend := s.policy.Advise(total, present, percentage)

	return SubjectSummary{
		Subject:        subject,
		StartDate:      start,
		EndDate:        end,
		TotalDays:      total,
		Present:        present,
		Absent:         total - present,
		Percentage:     percentage,
		CanSkip:        canSkip,
		NeedToAttend:   needToAttend,
		Note:           NoteOK,
		EndDateWarning: s.stale(end),
	}
}

func (s Summarizer) stale(end time.Time) bool {
	if s.staleAfter <= 0 {
		return false
	}
	now := s.time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	days := int(today.Sub(end).Hours() / 24)
	return days > s.staleAfter
}
