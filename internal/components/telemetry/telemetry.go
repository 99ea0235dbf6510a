package telemetry

import (
	"fmt"
)

// API is an abstraction over logging/metrics so that components can be tested
// for the reports they make.
type API interface {
	// ReportBroken reports a component that has broken in a way that an operator
	// should look at (ex. the portal changed its markup).
	//
	// `id` names the component, not the failing line: `portal.login` rather than
	// `portal.login-token-missing`. Put the detail in params, usually as a wrapped
	// error.
	//
	// Formatting rules:
	// 1) all lowercase
	// 2) use underscores for large components
	// 3) use dashes for methods part of a larger component
	ReportBroken(id string, params ...any)

	// ReportWarning reports something that was absorbed but may be worth
	// investigating (ex. a single subject that could not be parsed).
	ReportWarning(id string, params ...any)

	// ReportDebug reports information that is ignored in production.
	ReportDebug(msg string, params ...any)

	// ReportCount reports the current value of a count, these are points over
	// time and should not be summed.
	ReportCount(id string, count int64)
}

// ScopedAPI attaches a namespace to every report of an inner API.
type ScopedAPI struct {
	namespace string
	inner     API
}

// NewScopedAPI creates a ScopedAPI out of a given namespace and another api.
func NewScopedAPI(namespace string, inner API) ScopedAPI {
	return ScopedAPI{namespace: namespace, inner: inner}
}

func (s ScopedAPI) ReportBroken(id string, params ...any) {
	s.inner.ReportBroken(fmt.Sprintf("%s: %s", s.namespace, id), params...)
}

func (s ScopedAPI) ReportWarning(id string, params ...any) {
	s.inner.ReportWarning(fmt.Sprintf("%s: %s", s.namespace, id), params...)
}

func (s ScopedAPI) ReportDebug(msg string, params ...any) {
	s.inner.ReportDebug(fmt.Sprintf("%s: %s", s.namespace, msg), params...)
}

func (s ScopedAPI) ReportCount(id string, count int64) {
	s.inner.ReportCount(fmt.Sprintf("%s: %s", s.namespace, id), count)
}
