package mediator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Outcome описывает исход вызова одного обработчика уведомления.
// Сбой обработчика захватывается в Err и не влияет на остальные привязки.
type Outcome struct {
	// BindingID — идентификатор привязки обработчика.
	BindingID uuid.UUID
	// Handler — имя функции-обработчика.
	Handler string
	// Err — захваченная ошибка обработчика; nil при успехе.
	Err error
	// Duration — длительность вызова обработчика.
	Duration time.Duration
}

// OK сообщает, завершился ли вызов обработчика успешно.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Report — это отчет об одном вызове Notify: исходы всех обработчиков
// уведомления в порядке их регистрации.
type Report struct {
	// NotificationType — имя типа уведомления.
	NotificationType string
	// Outcomes — исходы вызовов обработчиков в порядке регистрации.
	Outcomes []Outcome
}

// Failed возвращает исходы только тех обработчиков, которые завершились
// ошибкой.
func (r Report) Failed() []Outcome {
	var failed []Outcome
	for _, outcome := range r.Outcomes {
		if !outcome.OK() {
			failed = append(failed, outcome)
		}
	}
	return failed
}

// Observer определяет интерфейс наблюдателя доставки уведомлений.
// Наблюдатель получает отчет о каждом вызове Notify; именно через него
// внешняя сторона узнает о захваченных сбоях обработчиков.
type Observer interface {
	ObserveFanout(ctx context.Context, report Report)
}

// slogObserver — наблюдатель по умолчанию при настроенном логгере:
// логирует каждый захваченный сбой обработчика.
type slogObserver struct {
	logger *slog.Logger
}

// ObserveFanout логирует сбои обработчиков из отчета.
func (o *slogObserver) ObserveFanout(ctx context.Context, report Report) {
	for _, outcome := range report.Failed() {
		o.logger.Error("ошибка обработчика уведомления",
			slog.String("notification_type", report.NotificationType),
			slog.String("binding_id", outcome.BindingID.String()),
			slog.String("handler_name", outcome.Handler),
			slog.Any("error", outcome.Err),
			slog.Duration("duration", outcome.Duration),
		)
	}
}

// noopObserver — наблюдатель-заглушка, используется, когда не настроены
// ни логгер, ни пользовательский наблюдатель.
type noopObserver struct{}

// ObserveFanout ничего не делает.
func (noopObserver) ObserveFanout(ctx context.Context, report Report) {}

// fanoutTelemetry содержит инструменты наблюдаемости для пути доставки
// уведомлений. Любое из полей может быть нулевым, если соответствующий
// провайдер не настроен.
type fanoutTelemetry struct {
	tracer              trace.Tracer
	consumeCounter      metric.Int64Counter
	consumeDurationHist metric.Float64Histogram
}

// newFanoutTelemetry создает набор инструментов наблюдаемости для доставки
// уведомлений. Возвращает nil, если не настроен ни один провайдер.
func newFanoutTelemetry(tp trace.TracerProvider, mp metric.MeterProvider) *fanoutTelemetry {
	if tp == nil && mp == nil {
		return nil
	}

	ft := &fanoutTelemetry{}

	if tp != nil {
		ft.tracer = tp.Tracer(
			instrumentationName,
			trace.WithInstrumentationVersion(instrumentationVersion),
		)
	}

	if mp != nil {
		meter := mp.Meter(instrumentationName)

		consumeCounter, err := meter.Int64Counter(
			metricKeyPrefix+"fanout.count",
			metric.WithDescription("Количество вызовов обработчиков уведомлений"),
			metric.WithUnit("{handlers}"),
		)
		if err != nil {
			panic(fmt.Sprintf("не удалось создать счетчик fanout.count: %v", err))
		}

		consumeDurationHist, err := meter.Float64Histogram(
			metricKeyPrefix+"fanout.duration",
			metric.WithDescription("Длительность вызова обработчика уведомления"),
			metric.WithUnit("ms"),
		)
		if err != nil {
			panic(fmt.Sprintf("не удалось создать гистограмму fanout.duration: %v", err))
		}

		ft.consumeCounter = consumeCounter
		ft.consumeDurationHist = consumeDurationHist
	}

	return ft
}

// runFanout последовательно вызывает все привязки обработчиков уведомления
// в порядке их регистрации. Ошибка или паника одного обработчика
// захватывается в Outcome и не мешает последующим обработчикам; итоговый
// отчет передается наблюдателю.
func (m *Mediator) runFanout(ctx context.Context, notification any, bindings []*NotificationBinding) {
	typeName, _ := getRequestTypeAndID(notification)

	if m.fanout != nil && m.fanout.tracer != nil {
		var span trace.Span
		ctx, span = m.fanout.tracer.Start(ctx,
			fmt.Sprintf("%s fanout", typeName),
			trace.WithSpanKind(trace.SpanKindInternal),
		)
		defer span.End()
	}

	report := Report{
		NotificationType: typeName,
		Outcomes:         make([]Outcome, 0, len(bindings)),
	}

	for _, binding := range bindings {
		startTime := time.Now()
		err := invokeIsolated(ctx, binding, notification)
		duration := time.Since(startTime)

		if m.fanout != nil && m.fanout.consumeCounter != nil {
			status := "success"
			if err != nil {
				status = "error"
			}
			attrs := metric.WithAttributes(
				attribute.String("notification.type", typeName),
				attribute.String("handler.name", binding.Name),
				attribute.String("status", status),
			)
			m.fanout.consumeCounter.Add(ctx, 1, attrs)
			m.fanout.consumeDurationHist.Record(ctx, float64(duration.Milliseconds()), attrs)
		}

		report.Outcomes = append(report.Outcomes, Outcome{
			BindingID: binding.ID,
			Handler:   binding.Name,
			Err:       err,
			Duration:  duration,
		})
	}

	m.observer.ObserveFanout(ctx, report)
}

// invokeIsolated вызывает обработчик уведомления, преобразуя панику в ошибку,
// чтобы сбой одного обработчика не мог прервать доставку остальным.
func invokeIsolated(ctx context.Context, binding *NotificationBinding, notification any) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("паника в обработчике уведомления: %v", p)
		}
	}()
	return binding.Invoke(ctx, notification)
}
