package llm

import (
	"errors"
	"strings"
)

// ErrFatalAPI marks API errors that will not resolve on retry:
// authentication, billing and quota problems. The UI surfaces these
// differently from transient stream failures.
var ErrFatalAPI = errors.New("fatal API error")

// fatalPatterns are substrings of provider error messages that indicate
// a non-retryable account or credential problem.
var fatalPatterns = []string{
	"credit balance",
	"rate limit",
	"quota",
	"billing",
	"invalid api key",
	"authentication",
	"unauthorized",
	"401",
	"403",
}

// isFatalAPIError reports whether err looks like a non-retryable
// provider error. Matching is by message substring; provider SDKs do
// not expose a common typed error for these.
func isFatalAPIError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, p := range fatalPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// wrapFatalError wraps fatal API errors with ErrFatalAPI so callers can
// branch with errors.Is. Non-fatal errors pass through unchanged.
func wrapFatalError(err error) error {
	if err == nil {
		return nil
	}
	if isFatalAPIError(err) {
		return errors.Join(ErrFatalAPI, err)
	}
	return err
}
