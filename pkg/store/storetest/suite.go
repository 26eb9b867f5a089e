// Package storetest provides a reusable conformance suite for store.Store
// implementations. Every backend runs the same suite so the catalog,
// account, and rental semantics stay identical regardless of persistence.
package storetest

import (
	"testing"

	"github.com/rentory/rentory/pkg/store"
)

// StoreTestSuite runs behavioral tests against any store.Store backend.
type StoreTestSuite struct {
	// NewStore is a factory function that creates a fresh Store instance
	// for each test. This ensures test isolation.
	NewStore func(t *testing.T) store.Store
}

// Run executes all tests in the suite.
func (suite *StoreTestSuite) Run(test *testing.T) {
	test.Run("Catalog", suite.RunCatalogTests)
	test.Run("Accounts", suite.RunAccountTests)
	test.Run("Rentals", suite.RunRentalTests)
	test.Run("Concurrency", suite.RunConcurrencyTests)
}
