package portal

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"attendance-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// context fields the portal renders on the home page and expects back when listing subjects.
const (
	fieldStudentId    = "student_id"
	fieldClassId      = "class_id"
	fieldClassName    = "classname"
	fieldAcademicYear = "acad_year"
)

const detailsHeading = "My Details"

type Detail struct {
	Label string
	Value string
}

type Profile struct {
	// Details are the labeled fields of the details panel in document order.
	Details []Detail

	StudentId    string
	ClassId      string
	ClassName    string
	AcademicYear string
}

func (p Profile) Get(label string) (string, bool) {
	for _, d := range p.Details {
		if d.Label == label {
			return d.Value, true
		}
	}
	return "", false
}

// set keeps the position of the first occurrence of a label but the value of the last.
func (p *Profile) set(label, value string) {
	for i, d := range p.Details {
		if d.Label == label {
			p.Details[i].Value = value
			return
		}
	}
	p.Details = append(p.Details, Detail{Label: label, Value: value})
}

func (p Profile) contextFields() map[string]string {
	return map[string]string{
		fieldStudentId:    p.StudentId,
		fieldClassId:      p.ClassId,
		fieldClassName:    p.ClassName,
		fieldAcademicYear: p.AcademicYear,
	}
}

// Profile reads the student's details and the context fields needed to list subjects.
func (s *Session) Profile(ctx context.Context) (Profile, error) {
	res, err := s.Http.R().
		SetContext(ctx).
		Get(s.opts.Endpoints.Home)
	if err != nil {
		s.tel.ReportBroken(
			report_client_profile,
			fmt.Errorf("fetch: %w", err),
		)
		return Profile{}, &ProtocolError{Component: "profile", Err: err}
	}
	if res.IsError() {
		err := protocolError("profile", "unexpected status %s", res.Status())
		s.tel.ReportBroken(report_client_profile, err)
		return Profile{}, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		s.tel.ReportBroken(
			report_client_profile,
			fmt.Errorf("parse: %w", err),
		)
		return Profile{}, &ProtocolError{Component: "profile", Err: err}
	}

	profile, err := ParseProfile(doc)
	if err != nil {
		s.tel.ReportBroken(report_client_profile, err)
		return Profile{}, err
	}
	return profile, nil
}

func findDetailsPanel(doc *goquery.Document) *goquery.Selection {
	heading := doc.Find("h1, h2, h3, h4, h5, h6, .panel-heading, .card-header").
		FilterFunction(func(_ int, sel *goquery.Selection) bool {
			return strings.Contains(htmlutil.Text(sel), detailsHeading)
		}).
		First()
	if heading.Length() == 0 {
		return heading
	}
	panel := heading.Closest(".panel, .card")
	if panel.Length() == 0 {
		panel = heading.Parent()
	}
	return panel
}

// ParseProfile extracts a Profile from the portal's home page.
func ParseProfile(doc *goquery.Document) (Profile, error) {
	panel := findDetailsPanel(doc)
	if panel.Length() == 0 {
		return Profile{}, protocolError("profile", "could not find %q panel", detailsHeading)
	}

	var profile Profile
	panel.Find("li").Each(func(_ int, li *goquery.Selection) {
		label := li.Find("b, strong, label").First()
		if label.Length() == 0 {
			return
		}
		key := strings.TrimSpace(strings.TrimSuffix(htmlutil.Text(label), ":"))
		if key == "" {
			return
		}
		item := li.Clone()
		item.Find("b, strong, label").First().Remove()
		value := strings.TrimSpace(strings.TrimPrefix(htmlutil.Text(item), ":"))
		profile.set(key, value)
	})

	targets := []struct {
		name string
		dest *string
	}{
		{name: fieldStudentId, dest: &profile.StudentId},
		{name: fieldClassId, dest: &profile.ClassId},
		{name: fieldClassName, dest: &profile.ClassName},
		{name: fieldAcademicYear, dest: &profile.AcademicYear},
	}
	var missing []string
	for _, target := range targets {
		value, _ := htmlutil.InputValue(doc.Selection, target.name)
		if strings.TrimSpace(value) == "" {
			missing = append(missing, target.name)
			continue
		}
		*target.dest = value
	}
	if len(missing) > 0 {
		return Profile{}, protocolError("profile", "missing context fields %s", strings.Join(missing, ", "))
	}

	return profile, nil
}
