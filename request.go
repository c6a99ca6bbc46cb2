package mediator

import "context"

// Command представляет собой интерфейс-маркер для команды, параметризованный
// типом возвращаемого значения R.
// Команда — это запрос на изменение состояния; каждая команда обрабатывается
// ровно одним обработчиком.
type Command[R any] interface{}

// Query представляет собой интерфейс-маркер для запроса на чтение,
// параметризованный типом возвращаемого значения R.
// Запросы разрешаются в отдельном от команд пространстве привязок: даже при
// совпадении конкретных типов запрос никогда не попадет в обработчик команды.
type Query[R any] interface{}

// Notification представляет собой интерфейс-маркер для уведомления —
// события в прошедшем времени, у которого нет возвращаемого значения.
// Уведомление доставляется нулю или более независимым обработчикам.
type Notification interface{}

// Unit — это маркер «отсутствия значения», используемый как тип ответа для
// команд без результата. Он сохраняет единый контракт «каждая диспетчеризация
// возвращает ответ».
type Unit struct{}

// CommandHandler определяет строго типизированную функцию-обработчик для
// команды C, которая возвращает результат типа R.
type CommandHandler[C Command[R], R any] func(ctx context.Context, cmd C) (R, error)

// QueryHandler определяет строго типизированную функцию-обработчик для
// запроса Q, которая возвращает результат типа R.
type QueryHandler[Q Query[R], R any] func(ctx context.Context, q Q) (R, error)

// NotificationHandler определяет строго типизированную функцию-обработчик
// для уведомления N.
type NotificationHandler[N Notification] func(ctx context.Context, n N) error

// Metadatable — это интерфейс для запросов и уведомлений, которые могут
// переносить метаданные, например, контекст трассировки.
type Metadatable interface {
	Metadata() map[string]string
}
