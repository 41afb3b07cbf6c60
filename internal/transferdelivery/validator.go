package transferdelivery

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-petr/pet-wallet/internal/domain"
	"github.com/go-petr/pet-wallet/pkg/moneypkg"
	"github.com/go-playground/validator/v10"
)

// ValidAccountType validates whether the bank account type is supported.
var ValidAccountType validator.Func = func(fl validator.FieldLevel) bool {
	if t, ok := fl.Field().Interface().(string); ok {
		return domain.AccountType(t).Valid()
	}

	return false
}

// RegisterValidators registers the money and accounttype binding tags with gin.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}

	if err := v.RegisterValidation("money", moneypkg.ValidAmount); err != nil {
		return err
	}

	return v.RegisterValidation("accounttype", ValidAccountType)
}
