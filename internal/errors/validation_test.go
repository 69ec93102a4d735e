package errors

import (
	stderrors "errors"
	"testing"

	"github.com/go-playground/validator/v10"
)

func TestValidationErrorFields(t *testing.T) {
	err := NewValidationError("pass_criteria", "must be at most 100", 120)

	if err.Field != "pass_criteria" {
		t.Errorf("field = %q, want 'pass_criteria'", err.Field)
	}
	if err.Message != "must be at most 100" {
		t.Errorf("message = %q, want 'must be at most 100'", err.Message)
	}
	if err.Value != 120 {
		t.Errorf("value = %v, want 120", err.Value)
	}

	want := "validation error on field 'pass_criteria': must be at most 100"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestNewValidationErrorWithRule(t *testing.T) {
	err := NewValidationErrorWithRule("username", "must be 5-15 alphanumeric characters", "username", "ab")

	if err.Rule != "username" {
		t.Errorf("rule = %q, want 'username'", err.Rule)
	}
	if err.Value != "ab" {
		t.Errorf("value = %v, want 'ab'", err.Value)
	}
}

func TestValidationErrorsMessage(t *testing.T) {
	var errs ValidationErrors
	if got := errs.Error(); got != "validation failed" {
		t.Errorf("empty Error() = %q, want 'validation failed'", got)
	}

	errs = append(errs, *NewValidationError("email", "must be a valid email address", "not-an-email"))
	if got, want := errs.Error(), "validation failed: email must be a valid email address"; got != want {
		t.Errorf("single Error() = %q, want %q", got, want)
	}

	errs = append(errs, *NewValidationError("title", "is required", ""))
	if got, want := errs.Error(), "validation failed: 2 field errors"; got != want {
		t.Errorf("multiple Error() = %q, want %q", got, want)
	}
}

func TestToValidationErrorsBuiltinTags(t *testing.T) {
	type createAssessment struct {
		Title        string `validate:"required"`
		Email        string `validate:"email"`
		PassCriteria int    `validate:"max=100"`
	}

	v := validator.New()
	err := v.Struct(createAssessment{Email: "not-an-email", PassCriteria: 120})
	if err == nil {
		t.Fatal("expected validation to fail")
	}

	errs := ToValidationErrors(err)
	if len(errs) != 3 {
		t.Fatalf("got %d errors, want 3", len(errs))
	}

	byField := make(map[string]ValidationError, len(errs))
	for _, e := range errs {
		byField[e.Field] = e
	}

	if got := byField["Title"].Message; got != "is required" {
		t.Errorf("Title message = %q, want 'is required'", got)
	}
	if got := byField["Email"].Message; got != "must be a valid email address" {
		t.Errorf("Email message = %q, want 'must be a valid email address'", got)
	}
	if got := byField["PassCriteria"].Message; got != "must be at most 100" {
		t.Errorf("PassCriteria message = %q, want 'must be at most 100'", got)
	}
	if got := byField["Email"].Rule; got != "email" {
		t.Errorf("Email rule = %q, want 'email'", got)
	}
	if got := byField["Email"].Value; got != "not-an-email" {
		t.Errorf("Email value = %v, want 'not-an-email'", got)
	}
}

func TestToValidationErrorsDomainTags(t *testing.T) {
	type question struct {
		Type string `validate:"question_type"`
		Kind string `validate:"assessment_kind"`
		User string `validate:"username"`
	}

	v := validator.New()
	reject := func(validator.FieldLevel) bool { return false }
	for _, tag := range []string{"question_type", "assessment_kind", "username"} {
		if err := v.RegisterValidation(tag, reject); err != nil {
			t.Fatalf("register %s: %v", tag, err)
		}
	}

	err := v.Struct(question{Type: "essay", Kind: "quiz", User: "ab"})
	if err == nil {
		t.Fatal("expected validation to fail")
	}

	errs := ToValidationErrors(err)
	byRule := make(map[string]string, len(errs))
	for _, e := range errs {
		byRule[e.Rule] = e.Message
	}

	if got := byRule["question_type"]; got != "must be a valid question type (mcq, coding)" {
		t.Errorf("question_type message = %q", got)
	}
	if got := byRule["assessment_kind"]; got != "must be a valid assessment kind (exam, test, practice)" {
		t.Errorf("assessment_kind message = %q", got)
	}
	if got := byRule["username"]; got != "must be 5-15 alphanumeric characters" {
		t.Errorf("username message = %q", got)
	}
}

func TestToValidationErrorsNonValidatorError(t *testing.T) {
	errs := ToValidationErrors(stderrors.New("connection refused"))
	if len(errs) != 0 {
		t.Errorf("got %d errors for a non-validator error, want 0", len(errs))
	}
}
