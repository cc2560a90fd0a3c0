package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
)

// FailureClass sorts request errors into the classes the status panels
// present.
type FailureClass int

const (
	FailNone FailureClass = iota
	FailTimeout
	FailUnreachable
	FailHTTP
	FailOther
)

// Failure is a classified request error. Status is set for FailHTTP.
type Failure struct {
	Class  FailureClass
	Status int
}

// Classify maps a request error to its failure class. Timeouts are checked
// before URL errors because the transport wraps deadline errors in *url.Error.
func Classify(err error) Failure {
	if err == nil {
		return Failure{Class: FailNone}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Failure{Class: FailTimeout}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return Failure{Class: FailTimeout}
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return Failure{Class: FailHTTP, Status: apiErr.Status}
	}
	if errors.Is(err, ErrUnauthorized) {
		return Failure{Class: FailHTTP, Status: http.StatusUnauthorized}
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return Failure{Class: FailUnreachable}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return Failure{Class: FailUnreachable}
	}
	return Failure{Class: FailOther}
}

// Describe renders err as the short form shown in status panels: "timeout",
// "unreachable", "http <status>", or the error text for anything else.
func Describe(err error) string {
	f := Classify(err)
	switch f.Class {
	case FailNone:
		return ""
	case FailTimeout:
		return "timeout"
	case FailUnreachable:
		return "unreachable"
	case FailHTTP:
		return fmt.Sprintf("http %d", f.Status)
	default:
		return strings.TrimSpace(err.Error())
	}
}
