package handler

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"tgwallet/pkg/validate"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// RegisterValidators adds the "phone" binding tag and makes field errors report JSON names.
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = errors.New("unexpected binding validator engine")
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		err = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
			return validate.IsValidPhoneNumber(fl.Field().String())
		})
	})
	return err
}

func bindingMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid request data"
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "phone":
		return "Invalid phone number"
	}
	return "Invalid " + fe.Field()
}
