package config

import (
	"fmt"
	"net"
	"os"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d error(s):\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidationWarning represents a non-fatal configuration issue
type ValidationWarning struct {
	Field        string
	Message      string
	DefaultValue string
}

func (w ValidationWarning) String() string {
	if w.DefaultValue != "" {
		return fmt.Sprintf("%s: %s (using default: %s)", w.Field, w.Message, w.DefaultValue)
	}
	return fmt.Sprintf("%s: %s", w.Field, w.Message)
}

// ValidationWarnings is a collection of validation warnings
type ValidationWarnings []ValidationWarning

// ValidationResult contains both errors and warnings from validation
type ValidationResult struct {
	Errors   ValidationErrors
	Warnings ValidationWarnings
}

// HasErrors returns true if there are validation errors
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// HasWarnings returns true if there are validation warnings
func (r *ValidationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// Validate validates the entire configuration, returning only errors
func Validate(cfg *Config) error {
	result := ValidateWithWarnings(cfg)
	if result.HasErrors() {
		return result.Errors
	}
	return nil
}

// ValidateWithWarnings validates the entire configuration and returns both errors and warnings
func ValidateWithWarnings(cfg *Config) *ValidationResult {
	result := &ValidationResult{}

	appErrs, appWarns := validateApp(&cfg.App)
	result.Errors = append(result.Errors, appErrs...)
	result.Warnings = append(result.Warnings, appWarns...)

	sinkErrs, sinkWarns := validateSinks(&cfg.Sinks)
	result.Errors = append(result.Errors, sinkErrs...)
	result.Warnings = append(result.Warnings, sinkWarns...)

	result.Errors = append(result.Errors, validateData(&cfg.Data)...)
	result.Errors = append(result.Errors, validateLogging(&cfg.Logging)...)
	result.Errors = append(result.Errors, validateMetrics(&cfg.Metrics, &cfg.App)...)

	return result
}

// validateApp validates the app configuration section
func validateApp(app *AppConfig) (ValidationErrors, ValidationWarnings) {
	var errs ValidationErrors
	var warns ValidationWarnings

	if app.Name == "" {
		errs = append(errs, ValidationError{
			Field:   "app.name",
			Message: "name is required and cannot be empty",
		})
	}

	if app.Port < 1 || app.Port > 65535 {
		errs = append(errs, ValidationError{
			Field:   "app.port",
			Message: fmt.Sprintf("port must be between 1 and 65535, got %d", app.Port),
		})
	}

	if app.Host == "" {
		errs = append(errs, ValidationError{
			Field:   "app.host",
			Message: "host is required and cannot be empty",
		})
	} else if !isLoopback(app.Host) {
		warns = append(warns, ValidationWarning{
			Field:   "app.host",
			Message: fmt.Sprintf("'%s' is not a loopback address; the service is deliberately vulnerable and will be reachable from the network", app.Host),
		})
	}

	if app.Version == "" {
		warns = append(warns, ValidationWarning{
			Field:        "app.version",
			Message:      "version is empty",
			DefaultValue: DefaultVersion,
		})
	}

	if app.DocumentRoot != "" {
		if err := checkDir(app.DocumentRoot); err != nil {
			errs = append(errs, ValidationError{
				Field:   "app.document_root",
				Message: err.Error(),
			})
		}
	}

	return errs, warns
}

// validateSinks validates the sinks configuration section
func validateSinks(sinks *SinksConfig) (ValidationErrors, ValidationWarnings) {
	var errs ValidationErrors
	var warns ValidationWarnings

	if sinks.Shell == "" {
		errs = append(errs, ValidationError{
			Field:   "sinks.shell",
			Message: "shell is required and cannot be empty",
		})
	}

	if strings.TrimSpace(sinks.LookupCommand) == "" {
		errs = append(errs, ValidationError{
			Field:   "sinks.lookup_command",
			Message: "lookup command is required and cannot be empty",
		})
	}

	if sinks.UserAgent == "" {
		warns = append(warns, ValidationWarning{
			Field:   "sinks.user_agent",
			Message: "no User-Agent will be sent on outbound requests",
		})
	}

	return errs, warns
}

// validateData validates the data configuration section
func validateData(data *DataConfig) ValidationErrors {
	var errs ValidationErrors

	if data.UsersFile == "" {
		return errs
	}

	info, err := os.Stat(data.UsersFile)
	switch {
	case err != nil:
		errs = append(errs, ValidationError{
			Field:   "data.users_file",
			Message: fmt.Sprintf("cannot access users file: %v", err),
		})
	case info.IsDir():
		errs = append(errs, ValidationError{
			Field:   "data.users_file",
			Message: fmt.Sprintf("'%s' is a directory", data.UsersFile),
		})
	}

	return errs
}

// validateLogging validates the logging configuration section
func validateLogging(logging *LoggingConfig) ValidationErrors {
	var errs ValidationErrors

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(logging.Level)] {
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", logging.Level),
		})
	}

	if logging.Format != "console" && logging.Format != "json" {
		errs = append(errs, ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("invalid format '%s', must be 'console' or 'json'", logging.Format),
		})
	}

	return errs
}

// validateMetrics validates the metrics configuration section
func validateMetrics(metrics *MetricsConfig, app *AppConfig) ValidationErrors {
	var errs ValidationErrors

	if !metrics.Enabled {
		return errs
	}

	host, port, err := net.SplitHostPort(metrics.Address)
	if err != nil {
		errs = append(errs, ValidationError{
			Field:   "metrics.address",
			Message: fmt.Sprintf("invalid address '%s': %v", metrics.Address, err),
		})
		return errs
	}

	if host == app.Host && port == fmt.Sprint(app.Port) {
		errs = append(errs, ValidationError{
			Field:   "metrics.address",
			Message: "metrics address must differ from the application address",
		})
	}

	return errs
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func checkDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot access directory: %v", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("'%s' is not a directory", path)
	}
	return nil
}
