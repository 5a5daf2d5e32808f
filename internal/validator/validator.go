package validator

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/code-samurai/learner-client/internal/errors"
	"github.com/code-samurai/learner-client/internal/models"
)

// Validator combines struct tag validation with lesson content checks
type Validator struct {
	structValidator  *validator.Validate
	problemValidator *ProblemValidator
}

// New creates a new centralized validator instance
func New() *Validator {
	structValidator := validator.New()

	// Register all custom validators once
	registerCustomValidators(structValidator)

	return &Validator{
		structValidator:  structValidator,
		problemValidator: NewProblemValidator(structValidator),
	}
}

// ValidateStruct validates struct tags only
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.structValidator.Struct(s)
}

// Validate validates s and converts failures into apperrors.ValidationErrors
func (v *Validator) Validate(s interface{}) error {
	if err := v.ValidateStruct(s); err != nil {
		if errs := apperrors.ToValidationErrors(err); len(errs) > 0 {
			return errs
		}
		return err
	}
	return nil
}

// Problem returns the problem validator
func (v *Validator) Problem() *ProblemValidator {
	return v.problemValidator
}

var phonePattern = regexp.MustCompile(`^\+?[0-9][0-9 ]{5,18}[0-9]$`)

// registerCustomValidators registers all custom validation functions
func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("problem_kind", validateProblemKind)
	validate.RegisterValidation("phone", validatePhone)

	// Custom tag name function for better error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

func validateProblemKind(fl validator.FieldLevel) bool {
	validKinds := []models.ProblemKind{
		models.SingleChoice,
		models.TokenAssembly,
		models.FreeText,
	}

	value := fl.Field().String()
	for _, kind := range validKinds {
		if string(kind) == value {
			return true
		}
	}
	return false
}

func validatePhone(fl validator.FieldLevel) bool {
	return phonePattern.MatchString(fl.Field().String())
}
