package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"attendance-backend/internal/attendance"
	"attendance-backend/internal/checker"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
)

const notAvailable = "N/A"

var (
	GREEN  = lipgloss.Color("#50FA7B")
	RED    = lipgloss.Color("#FF5555")
	YELLOW = lipgloss.Color("#F1FA8C")

	okStyle       = lipgloss.NewStyle().Foreground(GREEN)
	degradedStyle = lipgloss.NewStyle().Foreground(RED)
	staleStyle    = lipgloss.NewStyle().Foreground(YELLOW)
	headingStyle  = lipgloss.NewStyle().Bold(true)
	noticeStyle   = lipgloss.NewStyle().Bold(true).Foreground(YELLOW)
)

func formatDate(t time.Time) string {
	if t.IsZero() {
		return notAvailable
	}
	return t.Format(attendance.DisplayLayout)
}

func formatNote(s attendance.SubjectSummary) string {
	if s.Degraded() {
		return degradedStyle.Render(string(s.Note))
	}
	if s.EndDateWarning {
		return staleStyle.Render("last updated over a month ago")
	}
	return okStyle.Render(string(s.Note))
}

func renderReport(out io.Writer, report checker.Report) {
	if notice := noticeFor(report.Profile); notice != "" {
		fmt.Fprintln(out, noticeStyle.Render(notice))
	}

	if len(report.Profile.Details) > 0 {
		fmt.Fprintln(out, headingStyle.Render("My Details"))
		details := table.NewWriter()
		details.SetOutputMirror(out)
		for _, d := range report.Profile.Details {
			details.AppendRow(table.Row{d.Label, d.Value})
		}
		details.SetStyle(table.StyleRounded)
		details.Render()
	}

	subjects := table.NewWriter()
	subjects.SetOutputMirror(out)
	subjects.AppendHeader(table.Row{
		"Subject", "Start", "End", "Total", "Present", "Absent", "%", "Can skip", "Need to attend", "Note",
	})
	for _, s := range report.Subjects {
		subjects.AppendRow(table.Row{
			s.Subject,
			formatDate(s.StartDate),
			formatDate(s.EndDate),
			s.TotalDays,
			s.Present,
			s.Absent,
			fmt.Sprintf("%.2f", s.Percentage),
			s.CanSkip,
			s.NeedToAttend,
			formatNote(s),
		})
	}
	subjects.AppendFooter(table.Row{
		"Overall", "", "",
		report.Overall.TotalDays,
		report.Overall.Present,
		report.Overall.TotalDays - report.Overall.Present,
		fmt.Sprintf("%.2f", report.Overall.Percentage),
	})
	subjects.SetStyle(table.StyleRounded)
	subjects.Render()
}

type jsonDetail struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type jsonSubject struct {
	Subject        string  `json:"subject"`
	StartDate      string  `json:"start_date"`
	EndDate        string  `json:"end_date"`
	TotalDays      int     `json:"total_days"`
	Present        int     `json:"present"`
	Absent         int     `json:"absent"`
	Percentage     float64 `json:"percentage"`
	CanSkip        int     `json:"can_skip"`
	NeedToAttend   int     `json:"need_to_attend"`
	Note           string  `json:"note"`
	EndDateWarning bool    `json:"end_date_warning"`
}

type jsonOverall struct {
	TotalDays  int     `json:"total_days"`
	Present    int     `json:"present"`
	Percentage float64 `json:"percentage"`
}

type jsonReport struct {
	Notice   string        `json:"notice,omitempty"`
	Profile  []jsonDetail  `json:"profile"`
	Subjects []jsonSubject `json:"subjects"`
	Overall  jsonOverall   `json:"overall"`
}

func toJSONReport(report checker.Report) jsonReport {
	out := jsonReport{
		Notice:   noticeFor(report.Profile),
		Profile:  []jsonDetail{},
		Subjects: []jsonSubject{},
		Overall: jsonOverall{
			TotalDays:  report.Overall.TotalDays,
			Present:    report.Overall.Present,
			Percentage: report.Overall.Percentage,
		},
	}
	for _, d := range report.Profile.Details {
		out.Profile = append(out.Profile, jsonDetail{Label: d.Label, Value: d.Value})
	}
	for _, s := range report.Subjects {
		out.Subjects = append(out.Subjects, jsonSubject{
			Subject:        s.Subject,
			StartDate:      formatDate(s.StartDate),
			EndDate:        formatDate(s.EndDate),
			TotalDays:      s.TotalDays,
			Present:        s.Present,
			Absent:         s.Absent,
			Percentage:     s.Percentage,
			CanSkip:        s.CanSkip,
			NeedToAttend:   s.NeedToAttend,
			Note:           string(s.Note),
			EndDateWarning: s.EndDateWarning,
		})
	}
	return out
}

func writeJSON(out io.Writer, report checker.Report) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(toJSONReport(report))
}
