package domain

import (
	"fmt"
	"time"
)

// Customer — данные клиента, зафиксированные в момент заказа.
type Customer struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// LineItem — снимок позиции каталога на момент заказа. Не ссылается на
// живой каталог: заказ остаётся неизменным, даже если товар позже
// отредактируют или удалят.
type LineItem struct {
	ProductID   string  `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
	Description string  `json:"description,omitempty"`
	Image       string  `json:"image,omitempty"`
	Category    string  `json:"category,omitempty"`
}

// Order — доменная сущность заказа.
type Order struct {
	ID           string     `json:"id"`
	Items        []LineItem `json:"items"`
	Customer     Customer   `json:"customer"`
	Total        float64    `json:"total"`
	FreeDelivery bool       `json:"freeDelivery"`
	Status       Status     `json:"status"`
	Rating       *int       `json:"rating,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// Validate проверяет, что заказ сформирован полностью: частичное
// создание заказов не поддерживается.
func (o Order) Validate() error {
	if o.ID == "" {
		return fmt.Errorf("%w: order id is empty", ErrValidation)
	}
	if len(o.Items) == 0 {
		return fmt.Errorf("%w: order has no items", ErrValidation)
	}
	for i, it := range o.Items {
		if it.Name == "" {
			return fmt.Errorf("%w: item %d has no name", ErrValidation, i)
		}
		if it.Quantity <= 0 {
			return fmt.Errorf("%w: item %q has non-positive quantity", ErrValidation, it.Name)
		}
		if it.Price < 0 {
			return fmt.Errorf("%w: item %q has negative price", ErrValidation, it.Name)
		}
	}
	if o.Customer.Name == "" || o.Customer.Phone == "" || o.Customer.Address == "" {
		return fmt.Errorf("%w: customer name, phone and address are required", ErrValidation)
	}
	if !o.Status.Known() {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, o.Status)
	}
	if o.Rating != nil {
		if err := ValidateRating(*o.Rating); err != nil {
			return err
		}
	}
	return nil
}

// ItemsTotal — сумма позиций (цена × количество), без доставки.
func (o Order) ItemsTotal() float64 {
	var sum float64
	for _, it := range o.Items {
		sum += it.Price * float64(it.Quantity)
	}
	return sum
}

// ValidateRating проверяет оценку заказа. Значения вне [1,5]
// отклоняются, никогда не приводятся к границе.
func ValidateRating(r int) error {
	if r < 1 || r > 5 {
		return fmt.Errorf("%w: rating must be between 1 and 5, got %d", ErrValidation, r)
	}
	return nil
}
