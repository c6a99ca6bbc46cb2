package mediator_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/x-research-team/mediator"
)

// --- Тестовые запросы ---

type createItemCommand struct {
	Name string
}

type renameItemCommand struct {
	ID      string
	NewName string
}

type doubleQuery struct {
	Value int
}

type itemCreatedNotification struct {
	Name string
}

// newMediator создает реестр и диспетчер для теста.
func newMediator(t *testing.T) (*mediator.Registry, *mediator.Mediator) {
	t.Helper()

	registry := mediator.NewRegistry()
	m, err := mediator.New(registry)
	require.NoError(t, err, "Создание диспетчера не должно вызывать ошибку")
	return registry, m
}

// Тест успешной диспетчеризации команды с результатом.
func TestSend_Success(t *testing.T) {
	t.Parallel()

	registry, m := newMediator(t)
	err := mediator.RegisterCommandHandler(registry, func(ctx context.Context, cmd createItemCommand) (string, error) {
		return cmd.Name + "-handled", nil
	})
	require.NoError(t, err, "Регистрация обработчика не должна вызывать ошибку")

	result, err := mediator.Send[string](context.Background(), m, createItemCommand{Name: "test"})

	require.NoError(t, err, "Выполнение команды не должно вызывать ошибку")
	assert.Equal(t, "test-handled", result, "Результат выполнения команды некорректен")
}

// Тест диспетчеризации команды без зарегистрированного обработчика.
func TestSend_HandlerNotFound(t *testing.T) {
	t.Parallel()

	_, m := newMediator(t)

	_, err := mediator.Send[string](context.Background(), m, createItemCommand{Name: "test"})

	require.Error(t, err, "Выполнение команды без обработчика должно вызывать ошибку")

	var notFound *mediator.HandlerNotFoundError
	require.ErrorAs(t, err, &notFound, "Ошибка должна иметь тип HandlerNotFoundError")
	assert.Equal(t, mediator.KindCommand, notFound.Kind, "Ошибка должна указывать пространство привязок команд")
	assert.Equal(t, "createItemCommand", notFound.RequestType.Name(), "Ошибка должна нести конкретный тип команды")
	assert.Contains(t, err.Error(), "не найден", "Текст ошибки должен сообщать об отсутствии обработчика")
}

// Тест: nil-запрос отклоняется до разрешения обработчика.
func TestDispatch_NilRequest(t *testing.T) {
	t.Parallel()

	_, m := newMediator(t)

	_, err := mediator.Send[string](context.Background(), m, nil)
	require.ErrorIs(t, err, mediator.ErrNilRequest, "Send с nil-командой должен возвращать ErrNilRequest")

	err = mediator.Exec(context.Background(), m, nil)
	require.ErrorIs(t, err, mediator.ErrNilRequest, "Exec с nil-командой должен возвращать ErrNilRequest")

	_, err = mediator.Ask[int](context.Background(), m, nil)
	require.ErrorIs(t, err, mediator.ErrNilRequest, "Ask с nil-запросом должен возвращать ErrNilRequest")

	err = m.Notify(context.Background(), nil)
	require.ErrorIs(t, err, mediator.ErrNilRequest, "Notify с nil-уведомлением должен возвращать ErrNilRequest")
}

// Тест команды без результата: маркер Unit отбрасывается сигнатурой.
func TestExec_VoidCommand(t *testing.T) {
	t.Parallel()

	registry, m := newMediator(t)

	var handled atomic.Int32
	err := mediator.RegisterCommandHandler(registry, func(ctx context.Context, cmd renameItemCommand) (mediator.Unit, error) {
		handled.Add(1)
		return mediator.Unit{}, nil
	})
	require.NoError(t, err)

	err = mediator.Exec(context.Background(), m, renameItemCommand{ID: "42", NewName: "new"})

	require.NoError(t, err, "Выполнение команды без результата не должно вызывать ошибку")
	assert.Equal(t, int32(1), handled.Load(), "Обработчик должен быть вызван ровно один раз")
}

// Тест успешной диспетчеризации запроса на чтение.
func TestAsk_Success(t *testing.T) {
	t.Parallel()

	registry, m := newMediator(t)
	err := mediator.RegisterQueryHandler(registry, func(ctx context.Context, q doubleQuery) (int, error) {
		return q.Value * 2, nil
	})
	require.NoError(t, err)

	result, err := mediator.Ask[int](context.Background(), m, doubleQuery{Value: 42})

	require.NoError(t, err, "Выполнение запроса не должно вызывать ошибку")
	assert.Equal(t, 84, result, "Результат выполнения запроса некорректен")
}

// Тест: команды и запросы живут в разных пространствах привязок.
// Обработчик команды не должен разрешаться для запроса того же типа.
func TestAsk_SeparateNamespace(t *testing.T) {
	t.Parallel()

	registry, m := newMediator(t)
	err := mediator.RegisterCommandHandler(registry, func(ctx context.Context, q doubleQuery) (int, error) {
		return -1, nil
	})
	require.NoError(t, err)

	_, err = mediator.Ask[int](context.Background(), m, doubleQuery{Value: 42})

	var notFound *mediator.HandlerNotFoundError
	require.ErrorAs(t, err, &notFound, "Запрос не должен попадать в обработчик команды того же типа")
	assert.Equal(t, mediator.KindQuery, notFound.Kind)
}

// Тест: ошибка обработчика передается вызывающей стороне без оборачивания.
func TestSend_HandlerErrorPassthrough(t *testing.T) {
	t.Parallel()

	registry, m := newMediator(t)

	sentinel := errors.New("отказ хранилища")
	err := mediator.RegisterCommandHandler(registry, func(ctx context.Context, cmd createItemCommand) (string, error) {
		return "", sentinel
	})
	require.NoError(t, err)

	_, err = mediator.Send[string](context.Background(), m, createItemCommand{Name: "x"})

	require.ErrorIs(t, err, sentinel, "Ошибка обработчика должна доходить до вызывающей стороны неизменной")
}

// Тест повторной регистрации обработчика команды.
func TestRegisterCommandHandler_AlreadyRegistered(t *testing.T) {
	t.Parallel()

	registry := mediator.NewRegistry()

	handler := func(ctx context.Context, cmd createItemCommand) (string, error) {
		return "", nil
	}
	require.NoError(t, mediator.RegisterCommandHandler(registry, handler))

	err := mediator.RegisterCommandHandler(registry, handler)

	require.Error(t, err, "Повторная регистрация обработчика должна вызывать ошибку")
	assert.Contains(t, err.Error(), "уже зарегистрирован", "Текст ошибки должен сообщать о дубликате привязки")
}

// Тест доставки уведомления двум обработчикам: оба получают событие
// в порядке регистрации.
func TestNotify_TwoHandlers(t *testing.T) {
	t.Parallel()

	registry, m := newMediator(t)

	var counter atomic.Int32
	for i := 0; i < 2; i++ {
		_, err := mediator.RegisterNotificationHandler(registry, func(ctx context.Context, n itemCreatedNotification) error {
			counter.Add(1)
			return nil
		})
		require.NoError(t, err)
	}

	err := m.Notify(context.Background(), itemCreatedNotification{Name: "test"})

	require.NoError(t, err, "Notify не должен возвращать ошибку")
	assert.Equal(t, int32(2), counter.Load(), "Оба обработчика должны получить уведомление")
}

// Тест: уведомление без обработчиков — штатная ситуация.
func TestNotify_NoHandlers(t *testing.T) {
	t.Parallel()

	_, m := newMediator(t)

	err := m.Notify(context.Background(), itemCreatedNotification{Name: "test"})

	require.NoError(t, err, "Notify без обработчиков должен завершаться успешно")
}

// Тест отписки обработчика уведомления.
func TestNotify_Unsubscribe(t *testing.T) {
	t.Parallel()

	registry, m := newMediator(t)

	var counter atomic.Int32
	unsubscribe, err := mediator.RegisterNotificationHandler(registry, func(ctx context.Context, n itemCreatedNotification) error {
		counter.Add(1)
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, m.Notify(context.Background(), itemCreatedNotification{}))
	unsubscribe()
	require.NoError(t, m.Notify(context.Background(), itemCreatedNotification{}))

	assert.Equal(t, int32(1), counter.Load(), "После отписки обработчик не должен получать уведомления")
}

// Тест на потокобезопасность диспетчеризации: множество горутин
// одновременно отправляют команды и уведомления.
func TestMediator_ConcurrentDispatch(t *testing.T) {
	t.Parallel()

	registry, m := newMediator(t)

	var handled atomic.Int64
	require.NoError(t, mediator.RegisterCommandHandler(registry, func(ctx context.Context, cmd createItemCommand) (string, error) {
		return cmd.Name, nil
	}))
	_, err := mediator.RegisterNotificationHandler(registry, func(ctx context.Context, n itemCreatedNotification) error {
		handled.Add(1)
		return nil
	})
	require.NoError(t, err)

	goroutines := 100
	var wg sync.WaitGroup
	wg.Add(goroutines)

	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()

			result, err := mediator.Send[string](context.Background(), m, createItemCommand{Name: "c"})
			require.NoError(t, err)
			require.Equal(t, "c", result)

			require.NoError(t, m.Notify(context.Background(), itemCreatedNotification{}))
		}()
	}

	wg.Wait()
	assert.Equal(t, int64(goroutines), handled.Load(), "Каждый вызов Notify должен доставить уведомление ровно один раз")
}

// Тест: создание диспетчера без реестра запрещено.
func TestNew_NilResolver(t *testing.T) {
	t.Parallel()

	_, err := mediator.New(nil)

	require.Error(t, err, "Создание диспетчера без реестра должно вызывать ошибку")
}
