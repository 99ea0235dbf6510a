// client.go contains the session carrier shared by every portal request, the
// scraping stages themselves live in their own files.

package portal

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"attendance-backend/internal/attendance"
	"attendance-backend/internal/components/assert"
	"attendance-backend/internal/components/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const (
	report_client_login      = "client.login"
	report_client_profile    = "client.profile"
	report_client_subjects   = "client.subjects"
	report_client_attendance = "client.attendance"
)

// ErrInvalidCredentials is returned when the portal does not land on the
// authenticated home resource after logging in.
var ErrInvalidCredentials = errors.New("Incorrect username or password.")

// ProtocolError is returned when the portal responds in a shape the scraper
// does not understand (or not at all), it is not something the student can fix.
type ProtocolError struct {
	Component string
	Err       error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("portal %s: %s", e.Component, e.Err.Error())
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

func protocolError(component string, format string, args ...any) *ProtocolError {
	return &ProtocolError{Component: component, Err: fmt.Errorf(format, args...)}
}

// Endpoints are paths relative to Options.BaseUrl.
type Endpoints struct {
	Login string `json:"login"`
	// Home is requested for the profile, a final login url whose path contains it means success.
	Home       string `json:"home"`
	Subjects   string `json:"subjects"`
	Attendance string `json:"attendance"`
}

// Fields are the names of the form fields the portal expects or renders.
type Fields struct {
	Token       string `json:"token"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	SubjectName string `json:"subject_name"`
}

var DefaultEndpoints = Endpoints{
	Login:      "/",
	Home:       "home.php",
	Subjects:   "studentsubject.php",
	Attendance: "studentsubatt.php",
}

var DefaultFields = Fields{
	Token:       "token",
	Username:    "username",
	Password:    "password",
	SubjectName: "sub_fullname",
}

const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

type Options struct {
	BaseUrl   string
	Endpoints Endpoints
	Fields    Fields
	UserAgent string
	// Timeout bounds every single request, not the whole session.
	Timeout time.Duration
	// RequestsPerSecond paces requests, 0 disables pacing.
	RequestsPerSecond float64
	CloudflareBypass  bool
	// Output, if set, receives a dump of every HTTP exchange.
	Output     telemetry.InstrumentOutput
	Summarizer attendance.Summarizer
}

// Session is one authenticated browsing session against the portal. It must
// not be shared between students or used from more than one goroutine.
type Session struct {
	BaseUrl *url.URL
	Http    *resty.Client

	opts Options
	tel  telemetry.API
}

// stayOnHostPolicy stops following redirects that leave `host`, the redirect
// response itself is returned instead of an error.
func stayOnHostPolicy(host string) resty.RedirectPolicy {
	return resty.RedirectPolicyFunc(func(req *http.Request, _ []*http.Request) error {
		if req.URL.Hostname() != host {
			return http.ErrUseLastResponse
		}
		return nil
	})
}

func newSession(opts Options, tel telemetry.API) (*Session, error) {
	assert.NotNil(tel)
	assert.NotEmptyStr(opts.BaseUrl)

	if opts.Endpoints.Home == "" || opts.Fields.Token == "" {
		return nil, fmt.Errorf("options must name the home endpoint and the token field")
	}
	if !opts.Summarizer.Ready() {
		return nil, fmt.Errorf("options must carry a summarizer")
	}

	tel = telemetry.NewScopedAPI("portal", tel)

	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, err
	}
	if baseUrl.Scheme == "" || baseUrl.Host == "" {
		return nil, fmt.Errorf("base url must be absolute: %s", opts.BaseUrl)
	}

	httpClient := resty.New()
	httpClient.SetBaseURL(opts.BaseUrl)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	httpClient.SetCookieJar(jar)
	if opts.CloudflareBypass {
		httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	httpClient.SetHeader("user-agent", userAgent)
	httpClient.SetRedirectPolicy(
		resty.FlexibleRedirectPolicy(10),
		stayOnHostPolicy(baseUrl.Hostname()),
	)
	if opts.Timeout > 0 {
		httpClient.SetTimeout(opts.Timeout)
	}

	if opts.RequestsPerSecond > 0 {
		// burst of 1, the requests are sequential anyway
		rateLimiter := rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
		httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return rateLimiter.Wait(req.Context())
		})
	}

	telemetry.InstrumentResty(httpClient, tel, opts.Output)

	return &Session{
		BaseUrl: baseUrl,
		Http:    httpClient,
		opts:    opts,
		tel:     tel,
	}, nil
}
