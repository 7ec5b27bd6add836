package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure.
type ValidationError struct {
	Field   string // The config field path (e.g., "executor.parallelism")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError.
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels.
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// ValidFaultPolicies returns the list of valid submission fault policies.
func ValidFaultPolicies() []string {
	return []string{"requeue", "fail"}
}

// Validate checks the Config for invalid values and returns all
// validation errors found.
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError
	errors = append(errors, c.validateExecutor()...)
	errors = append(errors, c.validateScaling()...)
	errors = append(errors, c.validateLogging()...)
	return errors
}

func (c *Config) validateExecutor() []ValidationError {
	var errors []ValidationError

	if c.Executor.Parallelism < 0 {
		errors = append(errors, ValidationError{
			Field:   "executor.parallelism",
			Value:   c.Executor.Parallelism,
			Message: "must be non-negative",
		})
	}
	if !slices.Contains(ValidFaultPolicies(), c.Executor.SubmissionFaultPolicy) {
		errors = append(errors, ValidationError{
			Field:   "executor.submission_fault_policy",
			Value:   c.Executor.SubmissionFaultPolicy,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidFaultPolicies(), ", ")),
		})
	}
	if c.Executor.HeartbeatIntervalMs <= 0 {
		errors = append(errors, ValidationError{
			Field:   "executor.heartbeat_interval_ms",
			Value:   c.Executor.HeartbeatIntervalMs,
			Message: "must be positive",
		})
	}
	return errors
}

func (c *Config) validateScaling() []ValidationError {
	var errors []ValidationError

	if !c.Scaling.Enabled {
		return nil
	}
	if c.Scaling.MinSlots < 1 {
		errors = append(errors, ValidationError{
			Field:   "scaling.min_slots",
			Value:   c.Scaling.MinSlots,
			Message: "must be at least 1",
		})
	}
	if c.Scaling.MaxSlots < c.Scaling.MinSlots {
		errors = append(errors, ValidationError{
			Field:   "scaling.max_slots",
			Value:   c.Scaling.MaxSlots,
			Message: "must be >= scaling.min_slots",
		})
	}
	if c.Scaling.CooldownSeconds < 0 {
		errors = append(errors, ValidationError{
			Field:   "scaling.cooldown_seconds",
			Value:   c.Scaling.CooldownSeconds,
			Message: "must be non-negative",
		})
	}
	return errors
}

func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if !slices.Contains(ValidLogLevels(), c.Logging.Level) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}
	return errors
}
