package store

import "errors"

// Sentinel errors returned by store operations. Callers match them with
// errors.Is; backends wrap them with additional context.
var (
	// ErrDuplicateItem is returned by AddItem when the item id is already
	// present in the catalog.
	ErrDuplicateItem = errors.New("item id already exists")

	// ErrUsernameTaken is returned by Register when the username is already
	// used by another account of the same role.
	ErrUsernameTaken = errors.New("username already exists")

	// ErrInvalidItem is returned when item fields fail validation.
	ErrInvalidItem = errors.New("invalid item")

	// ErrNegativeQuantity is returned by UpdateQuantity for quantities below
	// zero; item quantity is never allowed to go negative.
	ErrNegativeQuantity = errors.New("quantity cannot be negative")
)
