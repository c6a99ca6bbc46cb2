package mediator

import "context"

// Next представляет собой продолжение конвейера: все интерцепторы глубже
// текущего плюс терминальный вызов обработчика.
type Next func(ctx context.Context) (any, error)

// Interceptor определяет интерфейс для сквозной функциональности вокруг
// обработки команды или запроса. Интерцептор получает запрос и продолжение
// next; он вправе не вызывать next вовсе, оборвав конвейер — именно так
// работает встроенный шаг валидации.
type Interceptor interface {
	Intercept(ctx context.Context, req any, next Next) (any, error)
}

// InterceptorFunc является адаптером, позволяющим использовать обычные
// функции как интерцепторы.
type InterceptorFunc func(ctx context.Context, req any, next Next) (any, error)

// Intercept реализует интерфейс Interceptor.
func (f InterceptorFunc) Intercept(ctx context.Context, req any, next Next) (any, error) {
	return f(ctx, req, next)
}

// buildPipeline собирает из списка интерцепторов и терминального продолжения
// единую цепочку вызовов. Интерцепторы применяются в обратном порядке
// регистрации, поэтому первый зарегистрированный интерцептор оказывается
// внешним: он первым видит запрос и последним — результат или ошибку.
// При пустом списке цепочка вырождается в терминальное продолжение без
// дополнительных оберток.
func buildPipeline(req any, interceptors []Interceptor, terminal Next) Next {
	pipeline := terminal
	for i := len(interceptors) - 1; i >= 0; i-- {
		interceptor := interceptors[i]
		inner := pipeline
		pipeline = func(ctx context.Context) (any, error) {
			return interceptor.Intercept(ctx, req, inner)
		}
	}
	return pipeline
}
