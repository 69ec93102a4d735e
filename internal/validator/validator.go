package validator

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/evalytics-ai/assessment-service/internal/models"
	"github.com/go-playground/validator/v10"
)

// Validator wraps struct-tag validation with the service's custom rules.
type Validator struct {
	structValidator *validator.Validate
}

// New creates a new centralized validator instance
func New() *Validator {
	structValidator := validator.New()
	registerCustomValidators(structValidator)
	return &Validator{structValidator: structValidator}
}

// ValidateStruct validates struct tags
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.structValidator.Struct(s)
}

// Validate performs complete validation and normalizes the error type
func (v *Validator) Validate(s interface{}) error {
	if err := v.structValidator.Struct(s); err != nil {
		if ve := ToValidationErrors(err); len(ve) > 0 {
			return ve
		}
		return err
	}
	return nil
}

var (
	usernameRegex = regexp.MustCompile(`^[A-Za-z0-9]{5,15}$`)
	phoneRegex    = regexp.MustCompile(`^\+\d{1,3}\d{10}$`)
	letterRegex   = regexp.MustCompile(`[A-Za-z]`)
	digitRegex    = regexp.MustCompile(`\d`)
	specialRegex  = regexp.MustCompile(`[@$!%*?&]`)
)

// registerCustomValidators registers all custom validation functions
func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("question_type", validateQuestionType)
	validate.RegisterValidation("assessment_kind", validateAssessmentKind)
	validate.RegisterValidation("difficulty_level", validateDifficultyLevel)
	validate.RegisterValidation("user_role", validateUserRole)
	validate.RegisterValidation("username", validateUsername)
	validate.RegisterValidation("password", validatePassword)
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

// Custom validation functions
func validateQuestionType(fl validator.FieldLevel) bool {
	switch models.QuestionType(fl.Field().String()) {
	case models.MultipleChoice, models.Coding:
		return true
	}
	return false
}

func validateAssessmentKind(fl validator.FieldLevel) bool {
	switch models.AssessmentKind(fl.Field().String()) {
	case models.KindExam, models.KindTest, models.KindPractice:
		return true
	}
	return false
}

func validateDifficultyLevel(fl validator.FieldLevel) bool {
	switch models.DifficultyLevel(fl.Field().String()) {
	case models.DifficultyEasy, models.DifficultyMedium, models.DifficultyHard:
		return true
	}
	return false
}

func validateUserRole(fl validator.FieldLevel) bool {
	switch models.UserRole(fl.Field().String()) {
	case models.RoleStudent, models.RoleAdmin:
		return true
	}
	return false
}

func validateUsername(fl validator.FieldLevel) bool {
	return usernameRegex.MatchString(fl.Field().String())
}

// validatePassword requires at least 8 characters with a letter, a digit and
// a special character.
func validatePassword(fl validator.FieldLevel) bool {
	pw := fl.Field().String()
	return len(pw) >= 8 &&
		letterRegex.MatchString(pw) &&
		digitRegex.MatchString(pw) &&
		specialRegex.MatchString(pw)
}

func validatePhone(fl validator.FieldLevel) bool {
	return phoneRegex.MatchString(fl.Field().String())
}
