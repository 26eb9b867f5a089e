package store

// RentOutcome is the domain result of a rent attempt. These are normal
// return values, not errors: the protocol reports them inside an OK reply.
type RentOutcome int

const (
	// Rented: the item was available and is now on loan to the account.
	Rented RentOutcome = iota

	// NotAvailable: the item is unknown or its quantity is zero. The two
	// cases are deliberately not distinguished on the wire.
	NotAvailable

	// AlreadyRented: the account already holds this item.
	AlreadyRented
)

// String returns the human-readable status text sent to clients.
func (o RentOutcome) String() string {
	switch o {
	case Rented:
		return "Item rented successfully"
	case NotAvailable:
		return "Item not available"
	case AlreadyRented:
		return "Item already rented by this account"
	default:
		return "Unknown rent outcome"
	}
}

// ReturnOutcome is the domain result of a return attempt.
type ReturnOutcome int

const (
	// Returned: the rental was cleared and the item quantity incremented.
	Returned ReturnOutcome = iota

	// NotRented: the account holds no rental for this item.
	NotRented

	// ItemGone: the rental existed and was cleared, but the item was deleted
	// from the catalog while on loan, so no quantity was restored.
	ItemGone
)

// String returns the human-readable status text sent to clients.
func (o ReturnOutcome) String() string {
	switch o {
	case Returned:
		return "Item returned successfully"
	case NotRented:
		return "Item not rented by this account"
	case ItemGone:
		return "Item deleted from catalog"
	default:
		return "Unknown return outcome"
	}
}
