package config

import (
	"regexp"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate

	elementIDPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)
	bpmnTypePattern  = regexp.MustCompile(`^[a-zA-Z]+$`)
)

// validatorInstance configures and returns the shared validator instance
// used across the command layer, following Streamy's
// internal/config/validator_instance.go lazily-built singleton pattern.
func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()

		_ = v.RegisterValidation("bpmn_id", func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			return s == "" || elementIDPattern.MatchString(s)
		})

		_ = v.RegisterValidation("bpmn_type", func(fl validator.FieldLevel) bool {
			return bpmnTypePattern.MatchString(fl.Field().String())
		})

		validateInst = v
	})
	return validateInst
}

// GetValidator returns the shared validator instance for use outside this
// package (pkg/command's option-struct validation).
func GetValidator() *validator.Validate {
	return validatorInstance()
}
