package mediator

import "context"

// Validator — это обобщенная (стертая) форма валидатора запроса. Валидаторы
// регистрируются для конкретного типа запроса и выполняются встроенным шагом
// валидации до вызова обработчика.
type Validator func(ctx context.Context, req any) ValidationResult

// validationStep возвращает интерцептор, реализующий встроенный шаг валидации.
// Валидаторы выполняются последовательно; ошибки всех неуспешных валидаторов
// накапливаются в один упорядоченный список — шаг не останавливается на
// первом сбое. При непустом списке ошибок конвейер обрывается с
// ValidationFailedError и обработчик не вызывается.
//
// Шаг конструируется только при наличии хотя бы одного валидатора для типа
// запроса: в типичном случае, когда валидаторов нет, конвейер его вообще не
// содержит.
func validationStep(validators []Validator) Interceptor {
	return InterceptorFunc(func(ctx context.Context, req any, next Next) (any, error) {
		var errs []ValidationError
		for _, validate := range validators {
			if result := validate(ctx, req); !result.OK() {
				errs = append(errs, result.Errors...)
			}
		}
		if len(errs) > 0 {
			return nil, &ValidationFailedError{Errors: errs}
		}
		return next(ctx)
	})
}
