package utils

import (
	"konsulin-wallet-service/internal/app/models"
	"konsulin-wallet-service/internal/pkg/money"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterValidation("owner_type", validateOwnerType)
	validate.RegisterValidation("billing_cycle", validateBillingCycle)
	validate.RegisterValidation("rate", validateRate)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

func validateOwnerType(fl validator.FieldLevel) bool {
	return models.OwnerType(fl.Field().String()).IsValid()
}

func validateBillingCycle(fl validator.FieldLevel) bool {
	return models.BillingCycle(fl.Field().String()).IsValid()
}

func validateRate(fl validator.FieldLevel) bool {
	_, err := money.ParseRate(fl.Field().String())
	return err == nil
}
