package http

import (
	"errors"
	"log/slog"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/placeshare/internal/core/domain"
	"github.com/samirrijal/placeshare/internal/core/usecases"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report JSON field names instead of Go ones.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// bind parses the JSON body into dst and validates it. Any failure is a
// KindValidation error with the generic invalid-input message.
func bind(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return domain.NewError(domain.KindValidation, usecases.MsgInvalidInputs, err)
	}
	if err := validate.Struct(dst); err != nil {
		slog.DebugContext(c.UserContext(), "invalid request body", "fields", fieldErrors(err))
		return domain.NewError(domain.KindValidation, usecases.MsgInvalidInputs, err)
	}
	return nil
}

// fieldErrors flattens validator errors to field -> failed rule.
func fieldErrors(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"payload": "invalid payload"}
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		out[fe.Field()] = rule
	}
	return out
}
