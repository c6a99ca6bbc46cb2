package mediator

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/goccy/go-reflect"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	instrumentationName    = "github.com/x-research-team/mediator"
	instrumentationVersion = "0.1.0"
	metricKeyPrefix        = "messaging."
)

// loggingInterceptor логирует начало диспетчеризации и ее сбои.
type loggingInterceptor struct {
	logger *slog.Logger
}

// NewLoggingInterceptor создает новый интерцептор логирования.
// Если логгер не предоставлен (nil), возвращается no-op интерцептор.
func NewLoggingInterceptor(logger *slog.Logger) Interceptor {
	if logger == nil {
		return noopInterceptor{}
	}
	return &loggingInterceptor{
		logger: logger,
	}
}

// Intercept логирует и передает запрос дальше по конвейеру.
func (i *loggingInterceptor) Intercept(ctx context.Context, req any, next Next) (result any, err error) {
	reqType, reqID := getRequestTypeAndID(req)
	i.logger.Info("отправка запроса", slog.String("request_type", reqType), slog.String("request_id", reqID))

	startTime := time.Now()
	defer func() {
		duration := time.Since(startTime)
		if err != nil {
			i.logger.Error("ошибка обработки запроса",
				slog.String("request_type", reqType),
				slog.String("request_id", reqID),
				slog.Any("error", err),
				slog.Duration("duration", duration),
			)
		}
	}()

	return next(ctx)
}

// metricsInterceptor собирает метрики OpenTelemetry по диспетчеризации.
type metricsInterceptor struct {
	meter               metric.Meter
	dispatchCounter     metric.Int64Counter
	processDurationHist metric.Float64Histogram
}

// NewMetricsInterceptor создает новый интерцептор для сбора метрик.
// Если провайдер метрик не предоставлен (nil), возвращается no-op интерцептор.
func NewMetricsInterceptor(provider metric.MeterProvider) Interceptor {
	if provider == nil {
		return noopInterceptor{}
	}

	meter := provider.Meter(instrumentationName)

	dispatchCounter, err := meter.Int64Counter(
		metricKeyPrefix+"dispatch.count",
		metric.WithDescription("Количество диспетчеризованных запросов"),
		metric.WithUnit("{requests}"),
	)
	if err != nil {
		panic(fmt.Sprintf("не удалось создать счетчик dispatch.count: %v", err))
	}

	processDurationHist, err := meter.Float64Histogram(
		metricKeyPrefix+"process.duration",
		metric.WithDescription("Длительность обработки запроса"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		panic(fmt.Sprintf("не удалось создать гистограмму process.duration: %v", err))
	}

	return &metricsInterceptor{
		meter:               meter,
		dispatchCounter:     dispatchCounter,
		processDurationHist: processDurationHist,
	}
}

// Intercept собирает метрики и передает запрос дальше по конвейеру.
func (i *metricsInterceptor) Intercept(ctx context.Context, req any, next Next) (any, error) {
	startTime := time.Now()
	result, err := next(ctx)
	duration := float64(time.Since(startTime).Milliseconds())

	status := "success"
	if err != nil {
		status = "error"
	}
	reqType, _ := getRequestTypeAndID(req)

	i.dispatchCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("request.type", reqType),
		attribute.String("status", status),
	))

	i.processDurationHist.Record(ctx, duration, metric.WithAttributes(
		attribute.String("request.type", reqType),
		attribute.String("status", status),
	))

	return result, err
}

// tracingInterceptor управляет спанами распределенной трассировки OpenTelemetry.
type tracingInterceptor struct {
	tracer     trace.Tracer
	propagator propagation.TextMapPropagator
}

// NewTracingInterceptor создает новый интерцептор трассировки.
// Если провайдер трассировки не предоставлен (nil), возвращается no-op интерцептор.
func NewTracingInterceptor(tp trace.TracerProvider, p propagation.TextMapPropagator) Interceptor {
	if tp == nil {
		return noopInterceptor{}
	}

	if p == nil {
		p = propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{})
	}

	return &tracingInterceptor{
		tracer: tp.Tracer(
			instrumentationName,
			trace.WithInstrumentationVersion(instrumentationVersion),
		),
		propagator: p,
	}
}

// Intercept создает спан обработки запроса и извлекает контекст трассировки
// из метаданных запроса, если запрос их переносит.
func (i *tracingInterceptor) Intercept(ctx context.Context, req any, next Next) (result any, err error) {
	if md, ok := req.(Metadatable); ok {
		ctx = i.propagator.Extract(ctx, propagation.MapCarrier(md.Metadata()))
	}

	reqType, _ := getRequestTypeAndID(req)
	spanName := fmt.Sprintf("%s process", reqType)

	ctx, span := i.tracer.Start(ctx, spanName, trace.WithSpanKind(trace.SpanKindInternal))
	defer func() {
		if err != nil {
			span.RecordError(err)
		}
		span.End()
	}()

	return next(ctx)
}

// noopInterceptor представляет собой пустой интерцептор, который просто
// вызывает продолжение конвейера.
type noopInterceptor struct{}

// Intercept вызывает следующее звено без изменений.
func (noopInterceptor) Intercept(ctx context.Context, req any, next Next) (any, error) {
	return next(ctx)
}

// getRequestTypeAndID извлекает тип и ID запроса с помощью рефлексии.
func getRequestTypeAndID(req any) (string, string) {
	val := reflect.ValueOf(req)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	reqType := val.Type().Name()
	reqID := "unknown"

	if val.Kind() == reflect.Struct {
		if idField := val.FieldByName("ID"); idField.IsValid() {
			reqID = fmt.Sprintf("%v", idField.Interface())
		}
	}

	return reqType, reqID
}

// getHandlerName извлекает имя обработчика.
func getHandlerName(handler any) string {
	v := reflect.ValueOf(handler)
	if v.Kind() == reflect.Func {
		if pc := v.Pointer(); pc != 0 {
			if f := runtime.FuncForPC(pc); f != nil {
				return f.Name()
			}
		}
	}
	return reflect.TypeOf(handler).String()
}
