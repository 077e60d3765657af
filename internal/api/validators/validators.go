// Package validators holds the shared request validator and its custom tags.
package validators

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/invmap/engine/internal/inventory"
)

var (
	once     sync.Once
	validate *validator.Validate
)

// New returns the process-wide validator with custom tags registered:
//
//	nodetype  location, unit or equipment
//	finite    float that is neither NaN nor infinite
func New() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("nodetype", func(fl validator.FieldLevel) bool {
			return inventory.Kind(fl.Field().String()).Valid()
		})
		_ = v.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
			f := fl.Field().Float()
			return !math.IsNaN(f) && !math.IsInf(f, 0)
		})
		validate = v
	})
	return validate
}

// Message flattens validation errors into one readable line.
func Message(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err.Error()
	}
	parts := make([]string, 0, len(ve))
	for _, fe := range ve {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fe.Field()+" is required")
		case "oneof", "nodetype":
			parts = append(parts, fmt.Sprintf("%s must be one of: %s", fe.Field(), oneOf(fe)))
		default:
			parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}

func oneOf(fe validator.FieldError) string {
	if fe.Tag() == "nodetype" {
		return "location unit equipment"
	}
	return fe.Param()
}
