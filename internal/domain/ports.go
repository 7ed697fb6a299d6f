package domain

import (
	"context"
	"io"
)

// ProductRepository — порт персистентности каталога.
type ProductRepository interface {
	List(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, id string) (Product, error)
	Create(ctx context.Context, p Product) error
	Update(ctx context.Context, p Product) error
	Delete(ctx context.Context, id string) error
}

// OrderRepository — порт персистентности заказов. Create возвращает
// ErrConflict при повторном идентификаторе; Update перезаписывает
// запись целиком (защита от потерянных обновлений — уровнем выше).
type OrderRepository interface {
	List(ctx context.Context) ([]Order, error)
	Get(ctx context.Context, id string) (Order, error)
	Create(ctx context.Context, o Order) error
	Update(ctx context.Context, o Order) error
}

// AssetUpload — загружаемое изображение товара.
type AssetUpload struct {
	Filename string
	Data     io.Reader
}

// AssetStore — порт хранилища изображений. Save проверяет расширение
// файла по списку допустимых и возвращает публичный путь к файлу.
type AssetStore interface {
	Save(id string, upload AssetUpload) (string, error)
	Remove(path string) error
}

// OrderPublisher — порт публикации события о новом заказе.
type OrderPublisher interface {
	Publish(ctx context.Context, o Order) error
}

// MessageSubscriber — порт подписчика на входящие сообщения заказов.
type MessageSubscriber interface {
	// Subscribe регистрирует обработчик; ack/повторные доставки реализует адаптер.
	Subscribe(ctx context.Context, handler func(ctx context.Context, raw []byte) error) error
}

// OrderCache — порт быстрого доступа к заказам (кэш отображения).
type OrderCache interface {
	Get(id string) (Order, bool)
	Set(id string, o Order)
}

// Общие доменные ошибки
var (
	ErrNotFound         = notFoundError("not found")
	ErrValidation       = validationError("invalid data")
	ErrConflict         = conflictError("already exists")
	ErrUnsupportedMedia = mediaError("unsupported media type")
)

type notFoundError string

func (e notFoundError) Error() string { return string(e) }

type validationError string

func (e validationError) Error() string { return string(e) }

type conflictError string

func (e conflictError) Error() string { return string(e) }

type mediaError string

func (e mediaError) Error() string { return string(e) }
