package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrProductNotFound is returned when a product lookup finds nothing
	ErrProductNotFound = errors.New("product not found")

	// ErrDuplicateBarcode is returned when creating a product whose barcode already exists
	ErrDuplicateBarcode = errors.New("a product with this barcode already exists")

	// ErrTransactionNotFound is returned when a sale lookup finds nothing
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrEmptyCart is returned when a checkout is submitted with no items
	ErrEmptyCart = errors.New("cart is empty")
)

// InsufficientStockError is returned when a sale or adjustment would drive
// a product's stock below zero.
type InsufficientStockError struct {
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d",
		e.ProductName, e.Requested, e.Available)
}
