package portal

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"attendance-backend/internal/components/telemetry"
	"attendance-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

type Credentials struct {
	Username string
	Password string
}

// Authenticate logs into the portal and returns a session carrying its cookies.
//
// The portal answers a bad login with a 200 on the login page, so success is
// decided by where the POST ends up after redirects rather than by status code.
func Authenticate(ctx context.Context, opts Options, tel telemetry.API, credentials Credentials) (*Session, error) {
	s, err := newSession(opts, tel)
	if err != nil {
		return nil, err
	}
	err = s.login(ctx, credentials)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Session) login(ctx context.Context, credentials Credentials) error {
	res, err := s.Http.R().
		SetContext(ctx).
		Get(s.opts.Endpoints.Login)
	if err != nil {
		s.tel.ReportBroken(
			report_client_login,
			fmt.Errorf("login page request: %w", err),
		)
		return &ProtocolError{Component: "login", Err: err}
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		s.tel.ReportBroken(
			report_client_login,
			fmt.Errorf("parse login page: %w", err),
		)
		return &ProtocolError{Component: "login", Err: err}
	}

	token, _ := htmlutil.InputValue(doc.Selection, s.opts.Fields.Token)
	if token == "" {
		err := protocolError("login", "could not find login token %q", s.opts.Fields.Token)
		s.tel.ReportBroken(report_client_login, err)
		return err
	}

	res, err = s.Http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			s.opts.Fields.Username: credentials.Username,
			s.opts.Fields.Password: credentials.Password,
			s.opts.Fields.Token:    token,
		}).
		Post(s.opts.Endpoints.Login)
	if err != nil {
		s.tel.ReportBroken(
			report_client_login,
			fmt.Errorf("login request: %w", err),
		)
		return &ProtocolError{Component: "login", Err: err}
	}

	if res.StatusCode() >= 300 && res.StatusCode() < 400 {
		// a redirect that was not followed points off the portal
		s.tel.ReportDebug(report_client_login, "redirected off the portal", res.Header().Get("Location"))
		return ErrInvalidCredentials
	}
	landed := res.RawResponse.Request.URL
	if !strings.Contains(landed.Path, s.opts.Endpoints.Home) {
		s.tel.ReportDebug(report_client_login, "did not land on home", landed.String(), res.StatusCode())
		return ErrInvalidCredentials
	}

	return nil
}
