package mediator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-reflect"
)

// ErrNilRequest возвращается любой операцией диспетчера, если ей передан
// nil-запрос. Ошибка возникает до какого-либо разрешения обработчиков.
var ErrNilRequest = errors.New("запрос не может быть nil")

// Kind обозначает пространство привязок, в котором разрешается запрос.
type Kind string

const (
	// KindCommand — пространство привязок команд.
	KindCommand Kind = "command"
	// KindQuery — пространство привязок запросов на чтение.
	KindQuery Kind = "query"
)

// HandlerNotFoundError возвращается, когда для команды или запроса не
// зарегистрирован ни один обработчик. Ошибка несет конкретный тип запроса
// для диагностики — отсутствие обработчика является самой частой ошибкой
// интеграции и не должна смешиваться с прочими сбоями.
type HandlerNotFoundError struct {
	// Kind — пространство привязок, в котором выполнялся поиск.
	Kind Kind
	// RequestType — конкретный тип запроса, для которого не нашлось обработчика.
	RequestType reflect.Type
}

// Error реализует интерфейс error.
func (e *HandlerNotFoundError) Error() string {
	switch e.Kind {
	case KindQuery:
		return fmt.Sprintf("обработчик для запроса '%s' не найден", e.RequestType)
	default:
		return fmt.Sprintf("обработчик для команды '%s' не найден", e.RequestType)
	}
}

// ValidationError описывает одну ошибку валидации: имя поля и сообщение.
type ValidationError struct {
	Field   string
	Message string
}

// Error реализует интерфейс error.
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationResult представляет результат работы одного валидатора:
// упорядоченный список ошибок, пустой при успехе.
type ValidationResult struct {
	Errors []ValidationError
}

// OK сообщает, прошла ли валидация успешно.
func (r ValidationResult) OK() bool {
	return len(r.Errors) == 0
}

// Failure создает неуспешный ValidationResult с одной ошибкой.
func Failure(field, message string) ValidationResult {
	return ValidationResult{Errors: []ValidationError{{Field: field, Message: message}}}
}

// Success создает успешный ValidationResult.
func Success() ValidationResult {
	return ValidationResult{}
}

// ValidationFailedError возвращается встроенным шагом валидации, когда хотя бы
// один валидатор нашел ошибки. Ошибка агрегирует ошибки всех неуспешных
// валидаторов в порядке их регистрации; обработчик при этом не вызывается.
type ValidationFailedError struct {
	Errors []ValidationError
}

// Error реализует интерфейс error.
func (e *ValidationFailedError) Error() string {
	messages := make([]string, 0, len(e.Errors))
	for _, ve := range e.Errors {
		messages = append(messages, ve.Error())
	}
	return fmt.Sprintf("валидация запроса не пройдена: %s", strings.Join(messages, "; "))
}
