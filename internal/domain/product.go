package domain

import "fmt"

// Product — позиция каталога.
type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	Image       string  `json:"image,omitempty"`
	Popular     bool    `json:"popular"`
}

// Validate проверяет обязательные поля товара.
func (p Product) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("%w: product name is required", ErrValidation)
	}
	if p.Description == "" {
		return fmt.Errorf("%w: product description is required", ErrValidation)
	}
	if p.Category == "" {
		return fmt.Errorf("%w: product category is required", ErrValidation)
	}
	if p.Price <= 0 {
		return fmt.Errorf("%w: price must be greater than 0", ErrValidation)
	}
	return nil
}
