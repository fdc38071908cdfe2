package usecase

import (
	"fmt"
	"net/mail"
	"regexp"
	"strconv"
	"strings"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var nonDigits = regexp.MustCompile(`\D`)

// ValidateCustomFields checks fields against labels. Keys without a label
// are accepted untouched.
func ValidateCustomFields(labels []entity.Label, fields entity.CustomFields) []ValidationError {
	var errors []ValidationError

	for _, lb := range labels {
		raw, ok := fields[lb.Name]
		if !ok || raw == nil || isBlank(raw) {
			if lb.Required {
				errors = append(errors, ValidationError{lb.Name, "is required"})
			}
			continue
		}

		switch lb.Type {
		case entity.LabelText, entity.LabelTextarea:
			if _, ok := raw.(string); !ok {
				errors = append(errors, ValidationError{lb.Name, "must be text"})
			}
		case entity.LabelNumber:
			if !isNumber(raw) {
				errors = append(errors, ValidationError{lb.Name, "must be a number"})
			}
		case entity.LabelEmail:
			s, ok := raw.(string)
			if !ok {
				errors = append(errors, ValidationError{lb.Name, "must be an email"})
			} else if _, err := mail.ParseAddress(s); err != nil {
				errors = append(errors, ValidationError{lb.Name, "is not a valid email"})
			}
		case entity.LabelPhone:
			s, ok := raw.(string)
			if !ok || !isValidPhoneNumber(s) {
				errors = append(errors, ValidationError{lb.Name, "must be a valid phone number"})
			}
		case entity.LabelSelect:
			s, ok := raw.(string)
			if !ok || !contains(lb.Options, s) {
				errors = append(errors, ValidationError{lb.Name, "must be one of " + strings.Join(lb.Options, ", ")})
			}
		}
	}

	return errors
}

func validationFailure(errs []ValidationError) *DomainError {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return invalid("VALIDATION_ERROR", "validation failed: "+strings.Join(msgs, ", "))
}

func isBlank(v any) bool {
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}

func isNumber(v any) bool {
	switch n := v.(type) {
	case float64, float32, int, int32, int64:
		return true
	case string:
		_, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return err == nil
	}
	return false
}

// isValidPhoneNumber accepts local and international numbers of 7 to 15 digits.
func isValidPhoneNumber(phone string) bool {
	cleaned := nonDigits.ReplaceAllString(phone, "")
	return len(cleaned) >= 7 && len(cleaned) <= 15
}

func contains(options []string, v string) bool {
	for _, o := range options {
		if o == v {
			return true
		}
	}
	return false
}
