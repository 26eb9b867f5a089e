package badger

import "fmt"

// Database Key Namespace Design
// ==============================
//
// BadgerDB is a key-value store, so prefixed keys organize the three logical
// tables into namespaces. Numeric ids are zero-padded to ten digits so that
// the lexicographic key order matches ascending id order, which lets listing
// operations emit records sorted by primary key straight from a prefix scan.
//
// Data Type   Prefix    Key Format                      Value
// =========================================================================
// Items       "item:"   item:<itemID>                   store.Item (JSON)
// Accounts    "acct:"   acct:<accountID>                store.Account (JSON)
// Rentals     "rent:"   rent:<accountID>:<itemID>       empty
//
// Rental rows carry no payload: the (accountID, itemID) pair is the whole
// record, so existence of the key is the row. Cascade deletion of an item's
// rentals scans the full "rent:" namespace; rental counts are small (one row
// per open loan), so the scan is cheap.
const (
	itemPrefix    = "item:"
	accountPrefix = "acct:"
	rentalPrefix  = "rent:"
)

func itemKey(id int) []byte {
	return fmt.Appendf(nil, "%s%010d", itemPrefix, id)
}

func accountKey(id int) []byte {
	return fmt.Appendf(nil, "%s%010d", accountPrefix, id)
}

func rentalKey(accountID, itemID int) []byte {
	return fmt.Appendf(nil, "%s%010d:%010d", rentalPrefix, accountID, itemID)
}

func parseRentalKey(key []byte) (accountID, itemID int, err error) {
	_, err = fmt.Sscanf(string(key), rentalPrefix+"%010d:%010d", &accountID, &itemID)
	return accountID, itemID, err
}
