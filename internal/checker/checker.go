// Package checker runs the whole attendance check for one student: log in,
// resolve the profile, list subjects, then fetch and summarize each subject
// in turn.
package checker

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"attendance-backend/internal/attendance"
	"attendance-backend/internal/components/assert"
	"attendance-backend/internal/components/chrono"
	"attendance-backend/internal/components/telemetry"
	"attendance-backend/internal/scrapers/portal"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("internal/checker")

const (
	report_check_panic    = "check.panic"
	report_check_degraded = "check.degraded"
)

// ErrMissingCredentials is returned before any request is made when either
// credential is blank.
var ErrMissingCredentials = errors.New("Please provide both username and password.")

type Report struct {
	Profile  portal.Profile
	Subjects []attendance.SubjectSummary
	Overall  attendance.Overall
}

type Checker struct {
	opts portal.Options
	tel  telemetry.API
}

// NewChecker validates `config`, `output` may be nil.
func NewChecker(config Config, tel telemetry.API, time chrono.TimeAPI, output telemetry.InstrumentOutput) (Checker, error) {
	assert.NotNil(tel)
	assert.NotNil(time)

	err := config.Validate()
	if err != nil {
		return Checker{}, err
	}
	return Checker{
		opts: config.options(time, output),
		tel:  telemetry.NewScopedAPI("checker", tel),
	}, nil
}

// Check fetches the attendance of the student owning `credentials`. Every
// call uses a fresh session, nothing is kept between calls.
//
// The returned error is ErrMissingCredentials, portal.ErrInvalidCredentials,
// a *portal.ProtocolError or something unexpected, see UserMessage.
func (c Checker) Check(ctx context.Context, credentials portal.Credentials) (report Report, err error) {
	ctx, span := tracer.Start(ctx, "Check")
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("check panicked: %v", r)
			c.tel.ReportBroken(report_check_panic, err)
			report = Report{}
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	if strings.TrimSpace(credentials.Username) == "" || credentials.Password == "" {
		return Report{}, ErrMissingCredentials
	}

	session, err := traced(ctx, "Authenticate", func(ctx context.Context) (*portal.Session, error) {
		return portal.Authenticate(ctx, c.opts, c.tel, credentials)
	})
	if err != nil {
		return Report{}, err
	}

	profile, err := traced(ctx, "Profile", session.Profile)
	if err != nil {
		return Report{}, err
	}

	subjects, err := traced(ctx, "Subjects", func(ctx context.Context) ([]portal.SubjectDescriptor, error) {
		return session.Subjects(ctx, profile)
	})
	if err != nil {
		return Report{}, err
	}
	span.SetAttributes(attribute.Int("subjects", len(subjects)))

	degraded := 0
	summaries := make([]attendance.SubjectSummary, 0, len(subjects))
	for _, descriptor := range subjects {
		if err := ctx.Err(); err != nil {
			return Report{}, err
		}
		summary := c.attendance(ctx, session, descriptor)
		if summary.Degraded() {
			degraded++
		}
		summaries = append(summaries, summary)
	}
	c.tel.ReportCount(report_check_degraded, int64(degraded))

	return Report{
		Profile:  profile,
		Subjects: summaries,
		Overall:  attendance.Aggregate(summaries),
	}, nil
}

func (c Checker) attendance(ctx context.Context, session *portal.Session, descriptor portal.SubjectDescriptor) attendance.SubjectSummary {
	ctx, span := tracer.Start(ctx, "Attendance", trace.WithAttributes(
		attribute.String("subject", descriptor.Name()),
	))
	defer span.End()

	summary := session.Attendance(ctx, descriptor)
	span.SetAttributes(attribute.String("note", string(summary.Note)))
	return summary
}

func traced[T any](ctx context.Context, name string, fn func(ctx context.Context) (T, error)) (T, error) {
	ctx, span := tracer.Start(ctx, name)
	defer span.End()

	out, err := fn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return out, err
}

const tryAgainLater = "The attendance portal did not respond as expected, please try again later."

// UserMessage turns an error returned by Check into something that can be
// shown to the student.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrMissingCredentials) || errors.Is(err, portal.ErrInvalidCredentials) {
		return err.Error()
	}
	var protocolErr *portal.ProtocolError
	if errors.As(err, &protocolErr) {
		return tryAgainLater
	}
	return fmt.Sprintf("An error occurred while fetching attendance data: %s", err.Error())
}
