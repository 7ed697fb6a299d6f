package domain

import "fmt"

// Status — этап жизненного цикла заказа.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusDelivering Status = "delivering"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Known сообщает, является ли статус одним из четырёх известных.
func (s Status) Known() bool {
	switch s {
	case StatusProcessing, StatusDelivering, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal — из completed и cancelled переходов нет.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// transitions — допустимые переходы строгого режима. Переход в тот же
// статус всегда разрешён (идемпотентный no-op).
var transitions = map[Status][]Status{
	StatusProcessing: {StatusDelivering, StatusCompleted, StatusCancelled},
	StatusDelivering: {StatusCompleted, StatusCancelled},
	StatusCompleted:  {},
	StatusCancelled:  {},
}

// Lifecycle — машина состояний заказа. В разрешающем режиме (по
// умолчанию) любой известный статус перезаписывает предыдущий:
// операторы используют это для исправления ошибок. Строгий режим
// дополнительно отклоняет переходы, не входящие в таблицу.
type Lifecycle struct {
	Strict bool
}

// Transition проверяет переход from→to. Неизвестный целевой статус
// отклоняется в обоих режимах.
func (l Lifecycle) Transition(from, to Status) error {
	if !to.Known() {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, to)
	}
	if !l.Strict || from == to {
		return nil
	}
	for _, next := range transitions[from] {
		if next == to {
			return nil
		}
	}
	if from.Terminal() {
		return fmt.Errorf("%w: order is already %s", ErrValidation, from)
	}
	return fmt.Errorf("%w: cannot move order from %s to %s", ErrValidation, from, to)
}
