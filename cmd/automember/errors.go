package main

import (
	"errors"
	"strings"
)

// errValidation is returned when the configuration has validation errors.
var errValidation = errors.New("configuration errors")

type validationErrors []error

func (v validationErrors) Error() string {
	var b strings.Builder
	b.WriteString(errValidation.Error())
	b.WriteString(":")
	for _, err := range v {
		b.WriteString("\n  - ")
		b.WriteString(err.Error())
	}
	return b.String()
}

func (v validationErrors) Unwrap() []error {
	return append([]error{errValidation}, v...)
}

func validationFailure(errs []error) error {
	return validationErrors(errs)
}
