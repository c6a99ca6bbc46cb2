// Package mediator реализует внутрипроцессный диспетчер запросов по схеме
// «команда/запрос/уведомление»: вызывающая сторона передает типизированный
// запрос в единую точку входа, которая разрешает ровно один обработчик
// (команды, запросы) или ноль и более обработчиков (уведомления) и выполняет
// его через упорядоченную цепочку сквозных интерцепторов.
//
// Привязки обработчиков, интерцепторов и валидаторов наполняются один раз на
// этапе конфигурации и далее только читаются. Конвейер интерцепторов
// собирается заново на каждый вызов: первый зарегистрированный интерцептор —
// внешний, обработчик — внутренний. Встроенный шаг валидации накапливает
// ошибки всех валидаторов типа запроса и обрывает конвейер до обработчика.
// Доставка уведомлений строго последовательна, сбой одного обработчика
// изолируется от остальных и никогда не поднимается к вызывающей стороне.
package mediator
