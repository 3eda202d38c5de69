package controllers

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/yeremiapane/restaurant-reservations/models"
)

var registerOnce sync.Once

// RegisterValidators adds the custom binding tags. Safe to call more than once.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("mealperiod", func(fl validator.FieldLevel) bool {
			_, ok := models.ParseMealPeriod(fl.Field().String())
			return ok
		})
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
}

var fieldLabels = map[string]string{
	"name":          "nome",
	"email":         "e-mail",
	"phone":         "telefone",
	"date":          "data",
	"time":          "horário",
	"guests":        "número de convidados",
	"meal_period":   "período de refeição",
	"status":        "status",
	"notes":         "observações",
	"max_breakfast": "capacidade do café da manhã",
	"max_lunch":     "capacidade do almoço",
	"max_dinner":    "capacidade do jantar",
}

// bindingMessage turns a ShouldBindJSON error into a user-facing message.
func bindingMessage(err error) string {
	if errors.Is(err, io.EOF) {
		return "Corpo da requisição vazio."
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Dados da requisição inválidos."
	}

	fe := verrs[0]
	label := fieldLabels[fe.Field()]
	if label == "" {
		label = fe.Field()
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("O campo %s é obrigatório.", label)
	case "email":
		return "E-mail inválido."
	case "mealperiod":
		return "Período de refeição inválido."
	case "min", "gte":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("O campo %s deve ter pelo menos %s caracteres.", label, fe.Param())
		}
		return fmt.Sprintf("O campo %s deve ser no mínimo %s.", label, fe.Param())
	case "max", "lte":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("O campo %s deve ter no máximo %s caracteres.", label, fe.Param())
		}
		return fmt.Sprintf("O campo %s deve ser no máximo %s.", label, fe.Param())
	case "oneof":
		return fmt.Sprintf("O campo %s deve ser um de: %s.", label, fe.Param())
	}
	return fmt.Sprintf("O campo %s é inválido.", label)
}
