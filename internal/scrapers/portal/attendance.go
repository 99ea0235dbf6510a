package portal

import (
	"bytes"
	"context"
	"fmt"

	"attendance-backend/internal/attendance"
	"attendance-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

const attendanceTableClasses = "table table-bordered table-striped"

// column indices within an attendance row
const (
	columnDate   = 0
	columnStatus = 2
)

// Attendance fetches and summarizes one subject. It never fails, a subject
// that cannot be fetched or parsed yields a placeholder explaining why.
func (s *Session) Attendance(ctx context.Context, descriptor SubjectDescriptor) (summary attendance.SubjectSummary) {
	subject := descriptor.Name()

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic: %v", r)
			s.tel.ReportBroken(report_client_attendance, err, subject)
			summary = attendance.Placeholder(subject, attendance.FetchErrorNote(err))
		}
	}()

	summary = s.attendance(ctx, subject, descriptor)
	if summary.Degraded() {
		s.tel.ReportWarning(report_client_attendance, subject, string(summary.Note))
	}
	return summary
}

func (s *Session) attendance(ctx context.Context, subject string, descriptor SubjectDescriptor) attendance.SubjectSummary {
	res, err := s.Http.R().
		SetContext(ctx).
		SetFormDataFromValues(descriptor.Values()).
		Post(s.opts.Endpoints.Attendance)
	if err != nil {
		return attendance.Placeholder(subject, attendance.FetchErrorNote(err))
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		return attendance.Placeholder(subject, attendance.FetchErrorNote(err))
	}

	records, note := ParseAttendance(doc)
	if note != attendance.NoteOK {
		return attendance.Placeholder(subject, note)
	}
	return s.opts.Summarizer.Summarize(subject, records)
}

// ParseAttendance reads the dated records out of a subject's attendance
// page. Rows with too few columns or an invalid date are skipped, the note
// is NoteOK only if at least one record survived.
func ParseAttendance(doc *goquery.Document) ([]attendance.Record, attendance.Note) {
	table := htmlutil.FindByClass(doc.Selection, "table", attendanceTableClasses)
	if table.Length() == 0 {
		return nil, attendance.NoteNoTable
	}

	candidates := 0
	var records []attendance.Record
	for _, cells := range htmlutil.TableRows(table) {
		if len(cells) <= columnStatus {
			continue
		}
		candidates++
		date, ok := attendance.ParseDate(cells[columnDate])
		if !ok {
			continue
		}
		records = append(records, attendance.Record{
			Date:   date,
			Status: cells[columnStatus],
		})
	}

	if candidates == 0 {
		return nil, attendance.NoteNoRecords
	}
	if len(records) == 0 {
		return nil, attendance.NoteInvalidDates
	}
	return records, attendance.NoteOK
}
