package memory_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rentory/rentory/pkg/store"
	"github.com/rentory/rentory/pkg/store/memory"
	"github.com/rentory/rentory/pkg/store/storetest"
)

func TestMemoryStore_Conformance(t *testing.T) {
	suite := &storetest.StoreTestSuite{
		NewStore: func(t *testing.T) store.Store {
			st, err := memory.New()
			require.NoError(t, err)
			return st
		},
	}
	suite.Run(t)
}
