package mediator

import (
	"context"
	"fmt"

	"github.com/goccy/go-reflect"
)

// Mediator — это фасад диспетчеризации запросов внутри процесса.
// Он разрешает обработчики через Resolver, строит конвейер интерцепторов
// заново на каждый вызов и определяет семантику сбоев для каждой операции:
// команды и запросы «падают громко», уведомления — «падают тихо и
// изолированно».
type Mediator struct {
	resolver     Resolver
	interceptors []Interceptor
	observer     Observer
	fanout       *fanoutTelemetry
}

// New создает новый, готовый к использованию экземпляр диспетчера поверх
// указанного реестра привязок.
func New(resolver Resolver, opts ...Option) (*Mediator, error) {
	if resolver == nil {
		return nil, fmt.Errorf("resolver не может быть nil")
	}

	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	m := &Mediator{
		resolver: resolver,
		observer: noopObserver{},
		fanout:   newFanoutTelemetry(cfg.tracerProvider, cfg.meterProvider),
	}

	// Интерцепторы наблюдаемости устанавливаются только при настроенных
	// провайдерах: неиспользуемая наблюдаемость не добавляет конвейеру
	// ни одного лишнего вызова.
	if cfg.logger != nil {
		m.interceptors = append(m.interceptors, NewLoggingInterceptor(cfg.logger))
		m.observer = &slogObserver{logger: cfg.logger}
	}
	if cfg.meterProvider != nil {
		m.interceptors = append(m.interceptors, NewMetricsInterceptor(cfg.meterProvider))
	}
	if cfg.tracerProvider != nil {
		m.interceptors = append(m.interceptors, NewTracingInterceptor(cfg.tracerProvider, cfg.propagator))
	}
	m.interceptors = append(m.interceptors, cfg.interceptors...)

	if cfg.observer != nil {
		m.observer = cfg.observer
	}

	return m, nil
}

// Send находит и выполняет обработчик для указанной команды, возвращая его
// результат. Если обработчик не найден, возвращается HandlerNotFoundError.
// Ошибки обработчика и интерцепторов передаются вызывающей стороне без
// оборачивания.
func Send[R any](ctx context.Context, m *Mediator, cmd Command[R]) (R, error) {
	return dispatch[R](ctx, m, KindCommand, cmd)
}

// Exec находит и выполняет обработчик для команды без результата.
// Маркер Unit отбрасывается сигнатурой; семантика идентична Send.
func Exec(ctx context.Context, m *Mediator, cmd Command[Unit]) error {
	_, err := dispatch[Unit](ctx, m, KindCommand, cmd)
	return err
}

// Ask находит и выполняет обработчик для указанного запроса на чтение.
// Разрешение идет в отдельном от команд пространстве привязок: запрос
// никогда не попадет в обработчик команды, даже при совпадении типов.
func Ask[R any](ctx context.Context, m *Mediator, q Query[R]) (R, error) {
	return dispatch[R](ctx, m, KindQuery, q)
}

// Notify доставляет уведомление всем зарегистрированным обработчикам его
// конкретного типа, строго последовательно и в порядке регистрации.
// Отсутствие обработчиков — штатная ситуация, а не ошибка. Сбой любого
// обработчика захватывается, передается наблюдателю и не прерывает доставку
// остальным; Notify возвращает ошибку только для nil-уведомления.
func (m *Mediator) Notify(ctx context.Context, notification Notification) error {
	if notification == nil {
		return ErrNilRequest
	}

	notificationType := reflect.TypeOf(notification)
	bindings := m.resolver.ResolveNotificationHandlers(notificationType)
	if len(bindings) == 0 {
		return nil
	}

	m.runFanout(ctx, notification, bindings)
	return nil
}

// dispatch — общий путь выполнения команд и запросов: разрешение привязки по
// конкретному типу значения запроса, сборка конвейера и вызов.
func dispatch[R any](ctx context.Context, m *Mediator, kind Kind, req any) (R, error) {
	var zero R

	if req == nil {
		return zero, ErrNilRequest
	}

	// Разрешением управляет конкретный тип значения, а не статический тип
	// вызова: ссылка на базовый тип диспетчеризуется в обработчик,
	// зарегистрированный для производного.
	requestType := reflect.TypeOf(req)
	responseType := typeFor[R]()

	binding, ok := m.resolver.ResolveHandler(kind, requestType, responseType)
	if !ok {
		return zero, &HandlerNotFoundError{Kind: kind, RequestType: requestType}
	}

	terminal := Next(func(ctx context.Context) (any, error) {
		return binding.Invoke(ctx, req)
	})

	resolved := m.resolver.ResolveInterceptors(requestType)
	validators := m.resolver.ResolveValidators(requestType)

	size := len(m.interceptors) + len(resolved)
	if len(validators) > 0 {
		size++
	}

	var pipeline Next
	if size == 0 {
		pipeline = terminal
	} else {
		chain := make([]Interceptor, 0, size)
		chain = append(chain, m.interceptors...)
		chain = append(chain, resolved...)
		if len(validators) > 0 {
			chain = append(chain, validationStep(validators))
		}
		pipeline = buildPipeline(req, chain, terminal)
	}

	result, err := pipeline(ctx)
	if err != nil {
		return zero, err
	}
	if result == nil {
		return zero, nil
	}

	typed, ok := result.(R)
	if !ok {
		return zero, fmt.Errorf("обработчик '%s' вернул значение неожиданного типа %T", binding.Name, result)
	}
	return typed, nil
}
