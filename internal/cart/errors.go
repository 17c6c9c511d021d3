package cart

import (
	"errors"
	"fmt"
)

var (
	// ErrQuantityTooLow means a decrease would drop an entry below one
	// unit; callers should remove the entry instead.
	ErrQuantityTooLow = errors.New("minimum quantity is 1, remove the item instead")

	// ErrItemNotFound means the referenced cart entry does not exist.
	ErrItemNotFound = errors.New("item not found in cart")
)

// InsufficientQuantityError rejects a cart mutation that would leave the
// product below its minimum order quantity. Shortfall tells the customer
// exactly how much more is needed.
type InsufficientQuantityError struct {
	ProductName string
	Required    float64
	Have        float64
}

func (e *InsufficientQuantityError) Error() string {
	return fmt.Sprintf("minimum order for %s is %g, add %g more",
		e.ProductName, e.Required, e.Shortfall())
}

func (e *InsufficientQuantityError) Shortfall() float64 {
	return e.Required - e.Have
}
