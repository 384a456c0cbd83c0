package config

import (
	"fmt"
	"net/url"
	"strings"

	"replex/pkg/logging"
)

// ValidationError represents a validation error with context
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.Message
	}
	return fmt.Sprintf("field '%s': %s", ve.Field, ve.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for multiple validation errors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}

	var messages []string
	for _, err := range ve {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// HasErrors returns true if there are any validation errors
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// Add adds a new validation error
func (ve *ValidationErrors) Add(field, message string, value ...interface{}) {
	var val interface{}
	if len(value) > 0 {
		val = value[0]
	}
	*ve = append(*ve, ValidationError{
		Field:   field,
		Value:   val,
		Message: message,
	})
}

// Validate checks the configuration for values the application cannot run
// with. It returns ValidationErrors listing every problem.
func (c Config) Validate() error {
	var errs ValidationErrors

	validateHTTPURL(&errs, "auth.base_url", c.Auth.BaseURL)
	if strings.TrimSpace(c.Auth.Product) == "" {
		errs.Add("auth.product", "is required", c.Auth.Product)
	}
	if c.Auth.PollInterval <= 0 {
		errs.Add("auth.poll_interval", "must be positive", c.Auth.PollInterval)
	}
	if c.Auth.MaxAttempts < 1 {
		errs.Add("auth.max_attempts", "must be at least 1", c.Auth.MaxAttempts)
	}
	if c.Auth.MaxRetries < 0 {
		errs.Add("auth.max_retries", "must not be negative", c.Auth.MaxRetries)
	}

	validateHTTPURL(&errs, "discovery.fallback_url", c.Discovery.FallbackURL)

	if c.HTTP.Timeout <= 0 {
		errs.Add("http.timeout", "must be positive", c.HTTP.Timeout)
	}
	if c.HTTP.RateLimit < 0 {
		errs.Add("http.rate_limit", "must not be negative", c.HTTP.RateLimit)
	}
	if c.HTTP.RateLimit > 0 && c.HTTP.RateBurst < 1 {
		errs.Add("http.rate_burst", "must be at least 1 when rate_limit is set", c.HTTP.RateBurst)
	}

	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		errs.Add("logging.level", "must be one of: debug, info, warn, error", c.Logging.Level)
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

func validateHTTPURL(errs *ValidationErrors, field, value string) {
	u, err := url.Parse(strings.TrimSpace(value))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		errs.Add(field, "must be an absolute http or https URL", value)
	}
}
