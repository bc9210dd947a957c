package utils

import (
	"context"
	"fmt"
	"reflect"

	"github.com/aagamsoft/billing_backend/config"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// check if id exists, return RecordNotFound error otherwise
func ValidateResourceId[T any](ctx context.Context, id interface{}) error {
	count, err := ResourceCountWhere[T](ctx, "id = ?", id)
	if err != nil {
		return err
	}
	if count <= 0 {
		return fmt.Errorf("%s: %w", GetTypeName[T](), ErrorRecordNotFound)
	}
	return nil
}

func ResourceCountWhere[T any](ctx context.Context, cond string, values ...interface{}) (int64, error) {
	db := config.GetDB()
	var model T
	var count int64
	err := db.WithContext(ctx).Model(&model).Where(cond, values...).Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// RegisterBindingValidations installs custom validations on gin's binding
// engine. Call once from main before routes are served.
//
// "percent" accepts decimal values in [0,100].
func RegisterBindingValidations() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	_ = v.RegisterValidation("percent", func(fl validator.FieldLevel) bool {
		f, ok := fl.Field().Interface().(float64)
		if !ok {
			return false
		}
		return f >= 0 && f <= 100
	})
}
