// Package validation aplica el esquema (tags `validate`) de cada DTO de entrada y traduce
// los fallos a un domain.ValidationError por campo.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/jhoicas/agencia-leads-api/internal/domain"
	"github.com/jhoicas/agencia-leads-api/internal/domain/entity"
)

var (
	once     sync.Once
	instance *validator.Validate
)

func get() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		// Reportar los campos con el nombre JSON que ve el cliente.
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "" || name == "-" {
				return fld.Name
			}
			return name
		})
		_ = v.RegisterValidation("lead_status", func(fl validator.FieldLevel) bool {
			return entity.ValidStatus(fl.Field().String())
		})
		_ = v.RegisterValidation("priority", func(fl validator.FieldLevel) bool {
			return entity.ValidPriority(fl.Field().String())
		})
		_ = v.RegisterValidation("rotation_type", func(fl validator.FieldLevel) bool {
			return entity.RotationDays(fl.Field().String()) > 0
		})
		instance = v
	})
	return instance
}

// Struct valida s. Devuelve nil o un *domain.ValidationError.
func Struct(s any) error {
	err := get().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		ve := domain.NewValidationError()
		ve.Add("_", err.Error())
		return ve
	}
	ve := domain.NewValidationError()
	for _, fe := range verrs {
		ve.Add(fieldPath(fe), message(fe))
	}
	return ve
}

// fieldPath quita el nombre del struct raíz: "CreateLeadRequest.email" -> "email".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_without":
		return "es obligatorio"
	case "email":
		return "debe ser un email válido"
	case "uuid", "uuid4":
		return "debe ser un UUID válido"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("debe tener al menos %s caracteres", fe.Param())
		}
		return fmt.Sprintf("debe ser mayor o igual a %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("debe tener como máximo %s caracteres", fe.Param())
		}
		return fmt.Sprintf("debe ser menor o igual a %s", fe.Param())
	case "oneof":
		return "debe ser uno de: " + fe.Param()
	case "eq":
		return "debe ser " + fe.Param()
	case "lead_status":
		return "estado inválido (new, contacted, qualified, proposal, closed, lost)"
	case "priority":
		return "prioridad inválida (low, medium, high)"
	case "rotation_type":
		return "tipo de rotación inválido (30_days, 90_days)"
	case "datetime":
		return "formato de fecha inválido, use " + fe.Param()
	case "e164", "phone":
		return "teléfono inválido"
	}
	return "valor inválido (" + fe.Tag() + ")"
}
