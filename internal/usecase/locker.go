package usecase

import "sync"

// OrderLocker — взаимное исключение по идентификатору заказа.
// Сериализует read-modify-write статуса и оценки, чтобы параллельные
// действия операторов не теряли обновления. Записи считаются по
// ссылкам и удаляются, когда последний держатель отпустил замок.
type OrderLocker struct {
	mu    sync.Mutex
	locks map[string]*orderLock
}

type orderLock struct {
	mu   sync.Mutex
	refs int
}

func NewOrderLocker() *OrderLocker {
	return &OrderLocker{locks: make(map[string]*orderLock)}
}

// Lock блокирует заказ и возвращает функцию разблокировки.
func (l *OrderLocker) Lock(id string) func() {
	l.mu.Lock()
	e, ok := l.locks[id]
	if !ok {
		e = &orderLock{}
		l.locks[id] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}
