package domain

import (
	"fmt"
)

// ConfigError reports a missing or invalid setting. It is fatal: the run is
// aborted before any network call.
type ConfigError struct {
	Key string
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %v", e.Key, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// FetchError reports a network or HTTP failure for one station feed.
type FetchError struct {
	Station    string
	URL        string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: %s: status %d", e.Station, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %s: %v", e.Station, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError reports a feed body whose format was not recognized.
type ParseError struct {
	Station string
	Reason  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %s", e.Station, e.Reason)
}

// WriteError reports a tabular backend that rejected a write. Prior writes are
// not rolled back.
type WriteError struct {
	Tab string
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %q: %v", e.Tab, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

func parseErrorf(station, format string, args ...any) *ParseError {
	return &ParseError{Station: station, Reason: fmt.Sprintf(format, args...)}
}
