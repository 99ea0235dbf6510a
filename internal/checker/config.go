package checker

import (
	"fmt"
	"net/url"
	"time"

	"attendance-backend/internal/attendance"
	"attendance-backend/internal/components/chrono"
	"attendance-backend/internal/components/telemetry"
	"attendance-backend/internal/scrapers/portal"
)

type Config struct {
	BaseUrl           string           `json:"base_url"`
	Endpoints         portal.Endpoints `json:"endpoints"`
	Fields            portal.Fields    `json:"fields"`
	UserAgent         string           `json:"user_agent"`
	TimeoutSeconds    int              `json:"timeout_seconds"`
	// RequestsPerSecond of 0 disables pacing.
	RequestsPerSecond float64          `json:"requests_per_second"`
	CloudflareBypass  bool             `json:"cloudflare_bypass"`

	// Threshold is the minimum attendance ratio, ex. 0.75.
	Threshold float64 `json:"threshold"`
	// Rounding is either "floor" or "nearest".
	Rounding string `json:"rounding"`
	// StaleAfterDays of 0 disables the end date warning.
	StaleAfterDays int `json:"stale_after_days"`
}

// DefaultConfig is every setting but the base url.
func DefaultConfig() Config {
	return Config{
		Endpoints:         portal.DefaultEndpoints,
		Fields:            portal.DefaultFields,
		UserAgent:         portal.DefaultUserAgent,
		TimeoutSeconds:    30,
		RequestsPerSecond: 2,
		Threshold:         attendance.DefaultPolicy.Threshold,
		Rounding:          attendance.DefaultPolicy.Rounding.String(),
		StaleAfterDays:    30,
	}
}

func (c Config) Validate() error {
	if c.BaseUrl == "" {
		return fmt.Errorf("base_url is required")
	}
	parsed, err := url.Parse(c.BaseUrl)
	if err != nil {
		return fmt.Errorf("base_url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("base_url must be an http(s) url: %s", c.BaseUrl)
	}

	required := map[string]string{
		"endpoints.login":      c.Endpoints.Login,
		"endpoints.home":       c.Endpoints.Home,
		"endpoints.subjects":   c.Endpoints.Subjects,
		"endpoints.attendance": c.Endpoints.Attendance,
		"fields.token":         c.Fields.Token,
		"fields.username":      c.Fields.Username,
		"fields.password":      c.Fields.Password,
		"fields.subject_name":  c.Fields.SubjectName,
	}
	for key, value := range required {
		if value == "" {
			return fmt.Errorf("%s must not be empty", key)
		}
	}

	if c.Threshold <= 0 || c.Threshold >= 1 {
		return fmt.Errorf("threshold must be between 0 and 1 exclusive, got %v", c.Threshold)
	}
	if _, err := attendance.ParseRoundingMode(c.Rounding); err != nil {
		return err
	}
	if c.TimeoutSeconds <= 0 {
		return fmt.Errorf("timeout_seconds must be positive, got %d", c.TimeoutSeconds)
	}
	if c.RequestsPerSecond < 0 || c.StaleAfterDays < 0 {
		return fmt.Errorf("requests_per_second and stale_after_days must not be negative")
	}
	return nil
}

func (c Config) Policy() attendance.Policy {
	rounding, _ := attendance.ParseRoundingMode(c.Rounding)
	return attendance.Policy{
		Threshold: c.Threshold,
		Rounding:  rounding,
	}
}

func (c Config) options(time chrono.TimeAPI, output telemetry.InstrumentOutput) portal.Options {
	return portal.Options{
		BaseUrl:           c.BaseUrl,
		Endpoints:         c.Endpoints,
		Fields:            c.Fields,
		UserAgent:         c.UserAgent,
		Timeout:           secondsToDuration(c.TimeoutSeconds),
		RequestsPerSecond: c.RequestsPerSecond,
		CloudflareBypass:  c.CloudflareBypass,
		Output:            output,
		Summarizer:        attendance.NewSummarizer(c.Policy(), time, c.StaleAfterDays),
	}
}

func secondsToDuration(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}
