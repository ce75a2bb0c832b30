package marketserver

import (
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	apierrors "github.com/Apurer/brix-market/internal/shared/errors"
)

var requestValidator = newRequestValidator()

// newRequestValidator reports field errors under their JSON names.
func newRequestValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// bindAndValidate decodes the JSON body into out and validates it.
// On failure it writes the problem response and returns false.
func bindAndValidate(c *gin.Context, out any) bool {
	if err := c.ShouldBindJSON(out); err != nil {
		respondProblem(c, apierrors.ErrBadRequest.WithDetail(err.Error()))
		return false
	}
	if err := requestValidator.Struct(out); err != nil {
		respondProblem(c, apierrors.ValidationProblemFrom(err))
		return false
	}
	return true
}
