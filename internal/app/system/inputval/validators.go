// internal/app/system/inputval/validators.go
//
// Struct-tag validation for request payloads. Rules live in a `validate`
// tag; the optional `label` tag supplies the human-readable field name
// used in error messages.
package inputval

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/peterdrier/volunteerhub/internal/domain/models"
)

// IsValidObjectID reports whether the string is a 24-char hex ObjectID.
func IsValidObjectID(id string) bool {
	_, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	return err == nil
}

// IsValidVoteChoice reports whether the string is an accepted ballot choice.
func IsValidVoteChoice(choice string) bool {
	switch strings.ToLower(strings.TrimSpace(choice)) {
	case models.VoteYes, models.VoteNo, models.VoteAbstain:
		return true
	}
	return false
}

// AllowedVoteChoicesList returns the accepted ballot choices in display order.
func AllowedVoteChoicesList() []string {
	return []string{models.VoteYes, models.VoteNo, models.VoteAbstain}
}

// FieldError is one validation failure.
type FieldError struct {
	Field   string
	Message string
}

// Result collects validation failures for a payload.
type Result struct {
	Errors []FieldError
}

func (r *Result) HasErrors() bool { return len(r.Errors) > 0 }

// First returns the first error message, or "".
func (r *Result) First() string {
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0].Message
}

// All returns every error message joined with "; ".
func (r *Result) All() string {
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, "; ")
}

// Validate checks every string field of the struct against its `validate`
// tag. Supported rules: required, max=N, email, objectid, votechoice.
func Validate(input any) *Result {
	result := &Result{}

	v := reflect.ValueOf(input)
	if v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		rules := field.Tag.Get("validate")
		if rules == "" || field.Type.Kind() != reflect.String {
			continue
		}

		label := field.Tag.Get("label")
		if label == "" {
			label = field.Name
		}
		value := v.Field(i).String()

		for _, rule := range strings.Split(rules, ",") {
			if msg := applyRule(rule, label, value); msg != "" {
				result.Errors = append(result.Errors, FieldError{Field: field.Name, Message: msg})
				break // one message per field
			}
		}
	}
	return result
}

func applyRule(rule, label, value string) string {
	switch {
	case rule == "required":
		if strings.TrimSpace(value) == "" {
			return fmt.Sprintf("%s is required.", label)
		}
	case strings.HasPrefix(rule, "max="):
		n, err := strconv.Atoi(strings.TrimPrefix(rule, "max="))
		if err == nil && len(value) > n {
			return fmt.Sprintf("%s must be at most %d characters.", label, n)
		}
	case rule == "email":
		if value != "" && !IsValidEmail(value) {
			return "A valid email address is required."
		}
	case rule == "objectid":
		if value != "" && !IsValidObjectID(value) {
			return fmt.Sprintf("%s must be a valid id.", label)
		}
	case rule == "votechoice":
		if value != "" && !IsValidVoteChoice(value) {
			return fmt.Sprintf("%s must be one of: %s.", label, strings.Join(AllowedVoteChoicesList(), ", "))
		}
	}
	return ""
}
