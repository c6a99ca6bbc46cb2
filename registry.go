package mediator

import (
	"context"
	"fmt"
	"sync"

	"github.com/goccy/go-reflect"
	"github.com/google/uuid"
)

// HandlerBinding — это стертая привязка обработчика команды или запроса.
// Она связывает конкретный тип запроса и объявленный тип ответа с функцией,
// вызывающей строго типизированный обработчик.
type HandlerBinding struct {
	// RequestType — конкретный тип запроса.
	RequestType reflect.Type
	// ResponseType — объявленный тип ответа обработчика.
	ResponseType reflect.Type
	// Name — имя функции-обработчика для диагностики.
	Name string
	// Invoke вызывает обработчик с уже стертым запросом.
	Invoke func(ctx context.Context, req any) (any, error)
}

// NotificationBinding — это стертая привязка обработчика уведомления.
// Для одного типа уведомления допускается произвольное число независимых
// привязок; их порядок регистрации значим и сохраняется.
type NotificationBinding struct {
	// ID — уникальный идентификатор привязки, используется для отписки
	// и в отчетах о доставке.
	ID uuid.UUID
	// Name — имя функции-обработчика для диагностики.
	Name string
	// Invoke вызывает обработчик с уже стертым уведомлением.
	Invoke func(ctx context.Context, n any) error
}

// interceptorBinding связывает интерцептор либо со всеми запросами
// (requestType == nil), либо с одним конкретным типом запроса.
type interceptorBinding struct {
	requestType reflect.Type
	interceptor Interceptor
}

// Resolver определяет контракт реестра, который потребляет диспетчер.
// Возвращаемые срезы упорядочены в порядке регистрации; реализация обязана
// быть безопасной для конкурентного чтения.
type Resolver interface {
	// ResolveHandler возвращает привязку обработчика команды или запроса
	// для пары (тип запроса, тип ответа) в указанном пространстве привязок.
	ResolveHandler(kind Kind, requestType, responseType reflect.Type) (*HandlerBinding, bool)

	// ResolveNotificationHandlers возвращает все привязки обработчиков
	// уведомления указанного типа; срез может быть пустым.
	ResolveNotificationHandlers(notificationType reflect.Type) []*NotificationBinding

	// ResolveInterceptors возвращает интерцепторы, применимые к указанному
	// типу запроса: глобальные и привязанные к типу, в порядке регистрации.
	ResolveInterceptors(requestType reflect.Type) []Interceptor

	// ResolveValidators возвращает валидаторы, привязанные к точному типу
	// запроса; срез может быть пустым.
	ResolveValidators(requestType reflect.Type) []Validator
}

// Registry — это потокобезопасный, индексированный по типам реестр привязок.
// Реестр наполняется один раз на этапе конфигурации приложения и после
// начала диспетчеризации считается неизменяемым.
type Registry struct {
	mu            sync.RWMutex
	commands      map[reflect.Type]*HandlerBinding
	queries       map[reflect.Type]*HandlerBinding
	notifications map[reflect.Type][]*NotificationBinding
	interceptors  []interceptorBinding
	validators    map[reflect.Type][]Validator
}

// NewRegistry создает новый пустой реестр привязок.
func NewRegistry() *Registry {
	return &Registry{
		commands:      make(map[reflect.Type]*HandlerBinding),
		queries:       make(map[reflect.Type]*HandlerBinding),
		notifications: make(map[reflect.Type][]*NotificationBinding),
		validators:    make(map[reflect.Type][]Validator),
	}
}

// RegisterCommandHandler регистрирует обработчик для конкретного типа команды.
// Для одной пары (тип команды, тип ответа) допускается не более одной
// привязки; повторная регистрация возвращает ошибку.
func RegisterCommandHandler[C Command[R], R any](r *Registry, handler CommandHandler[C, R]) error {
	if handler == nil {
		return fmt.Errorf("обработчик команды не может быть nil")
	}

	cmdType := typeFor[C]()
	binding := &HandlerBinding{
		RequestType:  cmdType,
		ResponseType: typeFor[R](),
		Name:         getHandlerName(handler),
		Invoke: func(ctx context.Context, req any) (any, error) {
			return handler(ctx, req.(C))
		},
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.commands[cmdType]; exists {
		return fmt.Errorf("обработчик для команды '%s' уже зарегистрирован", cmdType)
	}
	r.commands[cmdType] = binding

	return nil
}

// RegisterQueryHandler регистрирует обработчик для конкретного типа запроса.
// Запросы живут в отдельном от команд пространстве привязок.
func RegisterQueryHandler[Q Query[R], R any](r *Registry, handler QueryHandler[Q, R]) error {
	if handler == nil {
		return fmt.Errorf("обработчик запроса не может быть nil")
	}

	queryType := typeFor[Q]()
	binding := &HandlerBinding{
		RequestType:  queryType,
		ResponseType: typeFor[R](),
		Name:         getHandlerName(handler),
		Invoke: func(ctx context.Context, req any) (any, error) {
			return handler(ctx, req.(Q))
		},
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.queries[queryType]; exists {
		return fmt.Errorf("обработчик для запроса '%s' уже зарегистрирован", queryType)
	}
	r.queries[queryType] = binding

	return nil
}

// RegisterNotificationHandler регистрирует обработчик уведомления указанного
// типа. Привязки независимы, их может быть сколько угодно. Возвращается
// функция отписки, удаляющая ровно эту привязку.
func RegisterNotificationHandler[N Notification](r *Registry, handler NotificationHandler[N]) (unsubscribe func(), err error) {
	if handler == nil {
		return nil, fmt.Errorf("обработчик уведомления не может быть nil")
	}

	notificationType := typeFor[N]()
	binding := &NotificationBinding{
		ID:   uuid.New(),
		Name: getHandlerName(handler),
		Invoke: func(ctx context.Context, n any) error {
			return handler(ctx, n.(N))
		},
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.notifications[notificationType] = append(r.notifications[notificationType], binding)

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()

		bindings := r.notifications[notificationType]
		for i, b := range bindings {
			if b.ID == binding.ID {
				r.notifications[notificationType] = append(bindings[:i], bindings[i+1:]...)
				break
			}
		}
	}, nil
}

// RegisterValidator регистрирует валидатор для конкретного типа запроса.
// Валидаторы одного типа выполняются в порядке регистрации.
func RegisterValidator[C any](r *Registry, validate func(ctx context.Context, req C) ValidationResult) error {
	if validate == nil {
		return fmt.Errorf("валидатор не может быть nil")
	}

	requestType := typeFor[C]()
	wrapped := Validator(func(ctx context.Context, req any) ValidationResult {
		return validate(ctx, req.(C))
	})

	r.mu.Lock()
	defer r.mu.Unlock()

	r.validators[requestType] = append(r.validators[requestType], wrapped)

	return nil
}

// Use регистрирует интерцепторы, применяемые ко всем типам запросов.
// Порядок регистрации значим: первый зарегистрированный интерцептор
// становится внешним в конвейере.
func (r *Registry) Use(interceptors ...Interceptor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, interceptor := range interceptors {
		r.interceptors = append(r.interceptors, interceptorBinding{interceptor: interceptor})
	}
}

// UseFor регистрирует интерцепторы, применяемые только к запросам типа C.
// Привязки к типу и глобальные привязки образуют общий порядок регистрации.
func UseFor[C any](r *Registry, interceptors ...Interceptor) {
	requestType := typeFor[C]()

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, interceptor := range interceptors {
		r.interceptors = append(r.interceptors, interceptorBinding{
			requestType: requestType,
			interceptor: interceptor,
		})
	}
}

// ResolveHandler возвращает привязку обработчика для пары
// (тип запроса, тип ответа) в указанном пространстве привязок.
func (r *Registry) ResolveHandler(kind Kind, requestType, responseType reflect.Type) (*HandlerBinding, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bindings := r.commands
	if kind == KindQuery {
		bindings = r.queries
	}

	binding, ok := bindings[requestType]
	if !ok || binding.ResponseType != responseType {
		return nil, false
	}
	return binding, true
}

// ResolveNotificationHandlers возвращает все привязки обработчиков
// уведомления указанного типа в порядке регистрации.
func (r *Registry) ResolveNotificationHandlers(notificationType reflect.Type) []*NotificationBinding {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bindings := r.notifications[notificationType]
	if len(bindings) == 0 {
		return nil
	}

	out := make([]*NotificationBinding, len(bindings))
	copy(out, bindings)
	return out
}

// ResolveInterceptors возвращает интерцепторы, применимые к указанному типу
// запроса, в порядке регистрации.
func (r *Registry) ResolveInterceptors(requestType reflect.Type) []Interceptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Interceptor
	for _, binding := range r.interceptors {
		if binding.requestType == nil || binding.requestType == requestType {
			out = append(out, binding.interceptor)
		}
	}
	return out
}

// ResolveValidators возвращает валидаторы точного типа запроса в порядке
// регистрации.
func (r *Registry) ResolveValidators(requestType reflect.Type) []Validator {
	r.mu.RLock()
	defer r.mu.RUnlock()

	validators := r.validators[requestType]
	if len(validators) == 0 {
		return nil
	}

	out := make([]Validator, len(validators))
	copy(out, validators)
	return out
}

// typeFor возвращает reflect.Type для параметра типа T без создания значения.
func typeFor[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
