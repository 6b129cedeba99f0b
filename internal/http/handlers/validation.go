package handlers

import (
	"errors"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/tbourn/go-guias-backend/internal/carrier"
)

var (
	registerOnce sync.Once
	registerErr  error
)

// RegisterValidators installs the "carrier" binding tag on gin's validator
// engine. Only the first call does any work.
func RegisterValidators() error {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			registerErr = errors.New("gin binding engine is not go-playground/validator")
			return
		}
		registerErr = v.RegisterValidation("carrier", validCarrier)
	})
	return registerErr
}

// validCarrier accepts any enumerated carrier name, case-insensitively.
func validCarrier(fl validator.FieldLevel) bool {
	_, err := carrier.Parse(fl.Field().String())
	return err == nil
}
