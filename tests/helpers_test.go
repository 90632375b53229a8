// Package tests contains database-backed tests of the pricing repositories and flows
package tests

import (
	"errors"
	"testing"

	testingutil "github.com/amirphl/Kusanagi/testing"
	"github.com/stretchr/testify/require"
)

// withDB runs fn against a throwaway database and skips when Postgres is unreachable
func withDB(t *testing.T, fn func(testDB *testingutil.TestDB) error) {
	t.Helper()
	err := testingutil.TestWithDB(fn)
	if errors.Is(err, testingutil.ErrTestDBUnavailable) {
		t.Skipf("skipping database test: %v", err)
	}
	require.NoError(t, err)
}
