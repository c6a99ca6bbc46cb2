package mediator

import (
	"log/slog"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// config содержит неэкспортируемую конфигурацию диспетчера.
// Это позволяет добавлять новые опции без изменения публичного API.
type config struct {
	logger         *slog.Logger
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	propagator     propagation.TextMapPropagator
	observer       Observer
	interceptors   []Interceptor
}

// Option определяет тип для функциональных опций, которые изменяют
// конфигурацию диспетчера.
type Option func(*config)

// WithLogger возвращает опцию, которая устанавливает логгер диспетчера.
// Логгер используется интерцептором логирования и наблюдателем доставки
// уведомлений по умолчанию.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithTracerProvider возвращает опцию, которая устанавливает провайдер
// трассировки OpenTelemetry. Без провайдера трассировка не добавляется
// к конвейеру вовсе.
func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(c *config) {
		c.tracerProvider = provider
	}
}

// WithMeterProvider возвращает опцию, которая устанавливает провайдер метрик
// OpenTelemetry. Без провайдера сбор метрик не добавляется к конвейеру вовсе.
func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(c *config) {
		c.meterProvider = provider
	}
}

// WithPropagator возвращает опцию, которая устанавливает механизм
// распространения контекста трассировки.
func WithPropagator(propagator propagation.TextMapPropagator) Option {
	return func(c *config) {
		c.propagator = propagator
	}
}

// WithObserver возвращает опцию, которая устанавливает наблюдателя доставки
// уведомлений. Наблюдатель получает отчет о каждом вызове Notify, включая
// захваченные сбои отдельных обработчиков.
func WithObserver(observer Observer) Option {
	return func(c *config) {
		c.observer = observer
	}
}

// WithInterceptor возвращает опцию, которая добавляет один или несколько
// интерцепторов уровня диспетчера. Они выполняются после встроенных
// интерцепторов наблюдаемости, но снаружи интерцепторов, зарегистрированных
// в реестре.
func WithInterceptor(interceptors ...Interceptor) Option {
	return func(c *config) {
		c.interceptors = append(c.interceptors, interceptors...)
	}
}
