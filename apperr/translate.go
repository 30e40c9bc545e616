package apperr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"food-marketplace-api/statemachine"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"
)

var (
	sqliteUnique   = regexp.MustCompile(`UNIQUE constraint failed: \w+\.(\w+)`)
	postgresUnique = regexp.MustCompile(`Key \((\w+)\)=`)
)

// Translate maps any error produced while serving a request onto an HTTPError.
func Translate(err error) *HTTPError {
	if err == nil {
		return nil
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return BadRequest("Validation failed", fieldErrors(validationErrs)...)
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return BadRequest("Request body is not valid JSON")
	case errors.As(err, &typeErr):
		return BadRequest(fmt.Sprintf("Field %s has the wrong type", typeErr.Field),
			FieldError{Field: typeErr.Field, Error: "must be " + typeErr.Type.String()})
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return NotFound("Resource not found")
	case errors.Is(err, gorm.ErrDuplicatedKey), isUniqueViolation(err):
		return Conflict(duplicateMessage(err))
	case errors.Is(err, statemachine.ErrInvalidTransition):
		return Unprocessable(err.Error())
	case errors.Is(err, jwt.ErrTokenExpired):
		return Unauthorized("Token has expired")
	case errors.Is(err, jwt.ErrTokenMalformed),
		errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenInvalidClaims),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return Unauthorized("Invalid token")
	case errors.Is(err, context.DeadlineExceeded):
		return newError(http.StatusGatewayTimeout, "Request timed out")
	case errors.Is(err, context.Canceled):
		return newError(http.StatusServiceUnavailable, "Request cancelled")
	}

	return Internal()
}

func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "SQLSTATE 23505")
}

func duplicateMessage(err error) string {
	msg := err.Error()
	column := ""
	if m := sqliteUnique.FindStringSubmatch(msg); len(m) > 1 {
		column = m[1]
	} else if m := postgresUnique.FindStringSubmatch(msg); len(m) > 1 {
		column = m[1]
	}
	if column == "" {
		return "A record with this identifier already exists"
	}
	return fmt.Sprintf("A record with this %s already exists", humanize(column))
}

func humanize(text string) string {
	return cases.Lower(language.English).String(strings.ReplaceAll(text, "_", " "))
}

func fieldErrors(errs validator.ValidationErrors) []FieldError {
	out := make([]FieldError, 0, len(errs))
	for _, e := range errs {
		var msg string
		switch e.Tag() {
		case "required":
			msg = "is required"
		case "min":
			if e.Kind() == reflect.String {
				msg = fmt.Sprintf("must be at least %s characters", e.Param())
			} else if e.Kind() == reflect.Slice {
				msg = fmt.Sprintf("must contain at least %s items", e.Param())
			} else {
				msg = fmt.Sprintf("must be at least %s", e.Param())
			}
		case "max":
			if e.Kind() == reflect.String {
				msg = fmt.Sprintf("must not exceed %s characters", e.Param())
			} else {
				msg = fmt.Sprintf("must not exceed %s", e.Param())
			}
		case "gt":
			msg = fmt.Sprintf("must be greater than %s", e.Param())
		case "gte":
			msg = fmt.Sprintf("must be at least %s", e.Param())
		case "lte":
			msg = fmt.Sprintf("must be at most %s", e.Param())
		case "oneof":
			msg = fmt.Sprintf("must be one of: %s", e.Param())
		case "email", "email_addr":
			msg = "must be a valid email address"
		case "latitude":
			msg = "must be a valid latitude"
		case "longitude":
			msg = "must be a valid longitude"
		case "nefield":
			msg = "must differ from " + snakeCase(e.Param())
		case "dive":
			msg = "some items are invalid"
		default:
			if e.Param() != "" {
				msg = fmt.Sprintf("failed %s:%s", e.Tag(), e.Param())
			} else {
				msg = fmt.Sprintf("failed %s", e.Tag())
			}
		}
		out = append(out, FieldError{Field: snakeCase(e.Field()), Error: msg})
	}
	return out
}

func snakeCase(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && (unicode.IsLower(runes[i-1]) || (i+1 < len(runes) && unicode.IsLower(runes[i+1]))) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
