// Package validators checks request and service inputs with struct tags and
// reports failures as apperr validation errors keyed by JSON field name.
package validators

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"coursedelivery/apperr"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// Struct validates v and returns nil or an *apperr.Error of kind Validation.
func Struct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Internal(err, "validating input")
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if _, seen := fields[fe.Field()]; !seen {
			fields[fe.Field()] = message(fe)
		}
	}
	return apperr.Validation("Validation failed!", fields)
}

func message(fe validator.FieldError) string {
	label := humanize(fe.Field())
	switch fe.Tag() {
	case "required", "required_if", "required_without":
		return label + " is required!"
	case "email":
		return "Invalid email!"
	case "url", "http_url":
		return label + " must be a valid URL!"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s!", label, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters long!", label, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s!", label, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters long!", label, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s!", label, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be %s or more!", label, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s!", label, fe.Param())
	}
	return label + " is invalid!"
}

// humanize turns "watchedDuration" into "Watched duration" and "courseId"
// into "Course ID".
func humanize(field string) string {
	var b strings.Builder
	for i, r := range field {
		switch {
		case i == 0 && r >= 'a' && r <= 'z':
			b.WriteRune(r - ('a' - 'A'))
		case i > 0 && r >= 'A' && r <= 'Z':
			b.WriteByte(' ')
			b.WriteRune(r + ('a' - 'A'))
		default:
			b.WriteRune(r)
		}
	}
	out := b.String()
	for _, acr := range []string{"id", "url"} {
		if strings.HasSuffix(out, " "+acr) {
			out = strings.TrimSuffix(out, acr) + strings.ToUpper(acr)
		}
	}
	return out
}

// Body parses the JSON body into a fresh T, validates it and stores it under
// key for the controller.
func Body[T any](key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(T)
		if err := c.BodyParser(reqData); err != nil {
			return apperr.Validation("Invalid request body!", nil)
		}
		if err := Struct(reqData); err != nil {
			return err
		}
		c.Locals(key, reqData)
		return c.Next()
	}
}

// Query is Body for query strings. T's fields need query tags.
func Query[T any](key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(T)
		if err := c.QueryParser(reqData); err != nil {
			return apperr.Validation("Invalid query parameters!", nil)
		}
		if err := Struct(reqData); err != nil {
			return err
		}
		c.Locals(key, reqData)
		return c.Next()
	}
}

// ParamID checks that the route parameter is a positive integer and stores
// it as uint under key.
func ParamID(param, key, label string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := strings.TrimSpace(c.Params(param))
		if raw == "" {
			return apperr.Field(param, label+" is required!")
		}
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			return apperr.Field(param, "Invalid "+label+"!")
		}
		c.Locals(key, uint(id))
		return c.Next()
	}
}
