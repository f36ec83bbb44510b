package provider

import (
	"fmt"
	"log"
	"net/http"
	"time"
)

// Option keys understood by more than one adapter.
const (
	OptionPollInterval = "poll_interval"
	OptionHTTPClient   = "http_client"
	OptionLogger       = "logger"
	OptionToken        = "token"
	OptionTimeout      = "timeout"
)

// Options is the opaque per-adapter configuration carried by ProviderConfig.
type Options map[string]any

// String returns the string option for key, or def when unset or empty.
func (o Options) String(key, def string) string {
	v, ok := o[key]
	if !ok || v == nil {
		return def
	}
	s := fmt.Sprint(v)
	if s == "" {
		return def
	}
	return s
}

// Duration returns a duration option. Strings are parsed with
// time.ParseDuration; bare numbers are seconds.
func (o Options) Duration(key string, def time.Duration) (time.Duration, error) {
	v, ok := o[key]
	if !ok || v == nil {
		return def, nil
	}
	switch d := v.(type) {
	case time.Duration:
		return d, nil
	case string:
		if d == "" {
			return def, nil
		}
		parsed, err := time.ParseDuration(d)
		if err != nil {
			return 0, fmt.Errorf("option %s: %w", key, err)
		}
		return parsed, nil
	case int:
		return time.Duration(d) * time.Second, nil
	case int64:
		return time.Duration(d) * time.Second, nil
	case float64:
		return time.Duration(d * float64(time.Second)), nil
	default:
		return 0, fmt.Errorf("option %s: unsupported duration value %v", key, v)
	}
}

// PollInterval returns the poll_interval option. Zero and negative intervals
// are rejected.
func (o Options) PollInterval(def time.Duration) (time.Duration, error) {
	d, err := o.Duration(OptionPollInterval, def)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("option %s: interval must be positive, got %v", OptionPollInterval, d)
	}
	return d, nil
}

// HTTPClient returns the injected *http.Client, or nil.
func (o Options) HTTPClient() *http.Client {
	if c, ok := o[OptionHTTPClient].(*http.Client); ok {
		return c
	}
	return nil
}

// Logger returns the injected *log.Logger, or the standard logger.
func (o Options) Logger() *log.Logger {
	if l, ok := o[OptionLogger].(*log.Logger); ok && l != nil {
		return l
	}
	return log.Default()
}
