// Package structval адаптирует декларативную валидацию структур по тегам
// (go-playground/validator) к контракту валидатора диспетчера. Адаптер
// позволяет описывать правила валидации команды прямо в ее объявлении и
// получать на выходе обычный агрегированный ValidationFailedError.
package structval

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/x-research-team/mediator"
)

// New создает валидатор диспетчера для запросов типа C на основе тегов
// `validate` их полей. Если экземпляр validator.Validate не передан (nil),
// используется новый экземпляр validator.New().
func New[C any](v *validator.Validate) func(ctx context.Context, req C) mediator.ValidationResult {
	if v == nil {
		v = validator.New()
	}

	return func(ctx context.Context, req C) mediator.ValidationResult {
		err := v.StructCtx(ctx, req)
		if err == nil {
			return mediator.Success()
		}

		validationErrs, ok := err.(validator.ValidationErrors)
		if !ok {
			// validator возвращает InvalidValidationError, если C не структура.
			return mediator.Failure("", err.Error())
		}

		result := mediator.ValidationResult{
			Errors: make([]mediator.ValidationError, 0, len(validationErrs)),
		}
		for _, fieldErr := range validationErrs {
			result.Errors = append(result.Errors, mediator.ValidationError{
				Field:   fieldErr.Field(),
				Message: formatMessage(fieldErr),
			})
		}
		return result
	}
}

// Register регистрирует валидатор по тегам для запросов типа C в реестре.
func Register[C any](r *mediator.Registry, v *validator.Validate) error {
	return mediator.RegisterValidator(r, New[C](v))
}

// formatMessage превращает ошибку поля в читаемое сообщение.
func formatMessage(err validator.FieldError) string {
	if err.Param() == "" {
		return fmt.Sprintf("не пройдено правило '%s'", err.Tag())
	}
	return fmt.Sprintf("не пройдено правило '%s=%s'", err.Tag(), err.Param())
}
