package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/KilimcininKorOglu/automember/internal/acl"
	"github.com/KilimcininKorOglu/automember/internal/automember"
	"github.com/KilimcininKorOglu/automember/internal/backend"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// getValidator returns the shared validator. Field names are reported by
// their YAML keys.
func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("yaml"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// ValidateConfig validates the configuration and returns a list of
// validation errors. An empty slice indicates the configuration is valid.
func ValidateConfig(config *Config) []error {
	var errs []error

	if err := getValidator().Struct(config); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return []error{ValidationError{Field: "config", Message: err.Error()}}
		}
		for _, fe := range verrs {
			errs = append(errs, ValidationError{Field: fieldPath(fe), Message: describe(fe)})
		}
	}

	errs = append(errs, validateDirectoryConfig(&config.Directory)...)
	errs = append(errs, validateStorageConfig(&config.Storage)...)
	errs = append(errs, validateSchemaConfig(&config.Schema)...)
	errs = append(errs, validateAutomemberConfig(&config.Automember)...)
	errs = append(errs, validateAccessConfig(&config.Access)...)

	return errs
}

// fieldPath drops the root struct name from the validator namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of [%s], got %q", fe.Param(), fe.Value())
	case "min":
		return "needs at least " + fe.Param() + " value(s)"
	case "gte":
		return "must be at least " + fe.Param()
	case "hostname_port":
		return fmt.Sprintf("invalid address %q", fe.Value())
	case "startswith":
		return "must start with " + fe.Param()
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

func validateDirectoryConfig(config *DirectoryConfig) []error {
	var errs []error

	if err := validateDN(config.Suffix); err != nil {
		errs = append(errs, ValidationError{Field: "directory.suffix", Message: err.Error()})
	}
	if err := validateDN(config.RootDN); err != nil {
		errs = append(errs, ValidationError{Field: "directory.rootDN", Message: err.Error()})
	}

	return errs
}

func validateStorageConfig(config *StorageConfig) []error {
	var errs []error

	if config.Backend == BackendBadger && config.Path == "" {
		errs = append(errs, ValidationError{
			Field:   "storage.path",
			Message: "is required for the badger backend",
		})
	}
	if config.LDIF != "" {
		if err := checkFile(config.LDIF); err != nil {
			errs = append(errs, ValidationError{Field: "storage.ldif", Message: err.Error()})
		}
	}

	return errs
}

func validateSchemaConfig(config *SchemaConfig) []error {
	var errs []error
	for i, path := range config.Files {
		if path == "" {
			continue
		}
		if err := checkFile(path); err != nil {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("schema.files[%d]", i),
				Message: err.Error(),
			})
		}
	}
	return errs
}

func validateAutomemberConfig(config *AutomemberConfig) []error {
	var errs []error
	for i, line := range config.Directives {
		if _, err := (automember.Config{}).WithDirective(line); err != nil {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("automember.directives[%d]", i),
				Message: err.Error(),
			})
		}
	}
	return errs
}

func validateAccessConfig(config *AccessConfig) []error {
	var errs []error
	for i, r := range config.Rules {
		if _, err := acl.ParseRights(r.Rights); err != nil {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("access.rules[%d].rights", i),
				Message: err.Error(),
			})
		}
		if r.Target != "*" {
			if err := validateDN(r.Target); err != nil {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("access.rules[%d].target", i),
					Message: err.Error(),
				})
			}
		}
	}
	return errs
}

// validateDN checks that every RDN of dn has the attr=value form.
func validateDN(dn string) error {
	if dn == "" {
		return nil
	}
	for _, rdn := range strings.Split(backend.NormalizeDN(dn), ",") {
		if eq := strings.IndexByte(rdn, '='); eq <= 0 || eq == len(rdn)-1 {
			return fmt.Errorf("invalid RDN %q", rdn)
		}
	}
	return nil
}

func checkFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("file not found: %s", path)
		}
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("is a directory: %s", path)
	}
	return nil
}
