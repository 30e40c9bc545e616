package handlers

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// plain checks values outside of struct validation.
var plain = validator.New()

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		// email_addr accepts an address that is valid once normalized, since
		// handlers store the trimmed, lower-cased form.
		_ = v.RegisterValidation("email_addr", func(fl validator.FieldLevel) bool {
			return plain.Var(normalizeEmail(fl.Field().String()), "required,email") == nil
		})
	}
}
