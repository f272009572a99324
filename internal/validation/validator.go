// Package validation проверяет входные формы через go-playground/validator.
// Экземпляр валидатора один на процесс: он потокобезопасен и кэширует разбор структур.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Labels человекочитаемые названия полей форм.
var Labels = map[string]string{
	"username":         "Имя пользователя",
	"password":         "Пароль",
	"confirm_password": "Подтвердите пароль",
	"avatar_url":       "URL аватара",
	"social_link":      "Ссылка на соцсеть",
	"about_me":         "О себе",
	"lat":              "Широта",
	"lng":              "Долгота",
}

// FieldErrors ошибки по имени поля формы; показываются рядом с полем.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	parts := make([]string, 0, len(fe))
	for field, msg := range fe {
		parts = append(parts, field+": "+msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Validator возвращает общий экземпляр валидатора.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// в ошибках используем имя поля формы, а не Go-имя
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, tag := range []string{"form", "json"} {
				name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
				if name != "" && name != "-" {
					return name
				}
			}
			return f.Name
		})
	})
	return validate
}

// ValidateStruct проверяет структуру. Ошибка валидации возвращается как FieldErrors.
func ValidateStruct(s any) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("ошибка валидации: %w", err)
	}

	fe := make(FieldErrors, len(verrs))
	for _, e := range verrs {
		if _, exists := fe[e.Field()]; exists {
			continue
		}
		fe[e.Field()] = message(e)
	}
	return fe
}

func message(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "Обязательное поле."
	case "min":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("Минимум %s символов.", e.Param())
		}
		return fmt.Sprintf("Значение должно быть не меньше %s.", e.Param())
	case "max":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("Максимум %s символов.", e.Param())
		}
		return fmt.Sprintf("Значение должно быть не больше %s.", e.Param())
	case "eqfield":
		return "Пароли должны совпадать."
	case "url", "http_url":
		return "Некорректный URL."
	case "latitude":
		return "Широта должна быть в диапазоне от -90 до 90."
	case "longitude":
		return "Долгота должна быть в диапазоне от -180 до 180."
	case "alphanumunicode", "username":
		return "Допустимы только буквы, цифры, точка, дефис и подчёркивание."
	default:
		return "Некорректное значение."
	}
}
