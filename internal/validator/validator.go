package validator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"ebake/internal/domain/model"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// 携帯番号（10桁、6-9始まり）
var phonePattern = regexp.MustCompile(`^[6-9][0-9]{9}$`)

// 項目ごとのエラー
type FieldError struct {
	Field   string
	Message string
}

// Struct が返すエラー。全項目分まとめて返す。
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	msgs := make([]string, 0, len(v))
	for _, fe := range v {
		msgs = append(msgs, fe.Field+": "+fe.Message)
	}
	return strings.Join(msgs, ", ")
}

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// エラーの項目名はJSONのキーにする
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})

	// decimalはfloatとして min/max を効かせる
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	mustRegister(v, "weight", func(fl validator.FieldLevel) bool {
		_, ok := model.ParseWeight(fl.Field().String())
		return ok
	})
	mustRegister(v, "category", func(fl validator.FieldLevel) bool {
		_, ok := model.ParseCategory(fl.Field().String())
		return ok
	})
	mustRegister(v, "pincode", func(fl validator.FieldLevel) bool {
		return model.ValidPincode(fl.Field().String())
	})
	mustRegister(v, "inphone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	mustRegister(v, "deliverycity", func(fl validator.FieldLevel) bool {
		return fl.Field().String() == model.DeliveryCity
	})
	mustRegister(v, "orderstatus", func(fl validator.FieldLevel) bool {
		_, ok := model.ParseOrderStatus(fl.Field().String())
		return ok
	})

	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register validation %q: %v", tag, err))
	}
}

// Struct はタグに従って検証する。問題がなければnil。
func Struct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := make(ValidationErrors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{
			Field:   fieldPath(fe),
			Message: messageFor(fe),
		})
	}
	return out
}

// "PlaceOrderRequest.items[0].weight" -> "items[0].weight"
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at least %s item(s)", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("cannot exceed %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "email":
		return "must be a valid email"
	case "uuid":
		return "must be a valid id"
	case "weight":
		return "must be one of " + joinWeights()
	case "category":
		return "must be a valid category"
	case "pincode":
		return "must be a valid 6-digit pincode"
	case "inphone":
		return "must be a valid 10-digit phone number"
	case "deliverycity":
		return "we only deliver in " + model.DeliveryCity
	case "orderstatus":
		return "must be a valid order status"
	default:
		return "is invalid"
	}
}

func joinWeights() string {
	ws := model.AllWeights()
	s := make([]string, 0, len(ws))
	for _, w := range ws {
		s = append(s, string(w))
	}
	return strings.Join(s, ", ")
}

// echo.Validator の実装（c.Validate から呼ばれる）
type EchoValidator struct{}

func (EchoValidator) Validate(i interface{}) error {
	return Struct(i)
}
