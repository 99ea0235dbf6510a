package portal

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"attendance-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

const UnknownSubject = "Unknown"

// SubjectDescriptor holds exactly the form fields needed to request one
// subject's attendance, in the order the portal rendered them.
type SubjectDescriptor struct {
	fields    []htmlutil.Field
	nameField string
}

func NewSubjectDescriptor(nameField string, fields ...htmlutil.Field) SubjectDescriptor {
	return SubjectDescriptor{
		fields:    fields,
		nameField: nameField,
	}
}

// Name is the human readable subject name, or UnknownSubject if the portal
// did not render one.
func (d SubjectDescriptor) Name() string {
	name, ok := d.Get(d.nameField)
	if !ok || strings.TrimSpace(name) == "" {
		return UnknownSubject
	}
	return strings.TrimSpace(name)
}

func (d SubjectDescriptor) Get(name string) (string, bool) {
	for _, f := range d.fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

func (d SubjectDescriptor) Fields() []htmlutil.Field {
	out := make([]htmlutil.Field, len(d.fields))
	copy(out, d.fields)
	return out
}

func (d SubjectDescriptor) Values() url.Values {
	values := url.Values{}
	for _, f := range d.fields {
		values.Add(f.Name, f.Value)
	}
	return values
}

// Subjects lists the subjects the student is enrolled in, in the order the
// portal renders them. An empty list is not an error.
func (s *Session) Subjects(ctx context.Context, profile Profile) ([]SubjectDescriptor, error) {
	res, err := s.Http.R().
		SetContext(ctx).
		SetFormData(profile.contextFields()).
		Post(s.opts.Endpoints.Subjects)
	if err != nil {
		s.tel.ReportBroken(
			report_client_subjects,
			fmt.Errorf("fetch: %w", err),
		)
		return nil, &ProtocolError{Component: "subjects", Err: err}
	}
	if res.IsError() {
		err := protocolError("subjects", "unexpected status %s", res.Status())
		s.tel.ReportBroken(report_client_subjects, err)
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		s.tel.ReportBroken(
			report_client_subjects,
			fmt.Errorf("parse: %w", err),
		)
		return nil, &ProtocolError{Component: "subjects", Err: err}
	}

	subjects := ParseSubjects(doc, s.opts.Fields.SubjectName)
	s.tel.ReportCount(report_client_subjects, int64(len(subjects)))
	return subjects, nil
}

// ParseSubjects turns every form carrying an id into a descriptor of its hidden inputs.
func ParseSubjects(doc *goquery.Document, nameField string) []SubjectDescriptor {
	var subjects []SubjectDescriptor
	doc.Find("form[id]").Each(func(_ int, form *goquery.Selection) {
		subjects = append(subjects, NewSubjectDescriptor(nameField, htmlutil.HiddenInputs(form)...))
	})
	return subjects
}
