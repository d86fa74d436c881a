package testutil

import "testing"

// Given, When and Then nest subtests so that a failing step reads as a
// sentence in the test output, e.g. "TestRouter/Given_a_ledger/When_...".
func Given(t *testing.T, desc string, fn func(t *testing.T)) bool {
	t.Helper()
	return t.Run("Given "+desc, fn)
}

func When(t *testing.T, desc string, fn func(t *testing.T)) bool {
	t.Helper()
	return t.Run("When "+desc, fn)
}

// Then returns false when the assertions failed, letting callers stop early.
func Then(t *testing.T, desc string, fn func(t *testing.T)) bool {
	t.Helper()
	return t.Run("Then "+desc, fn)
}
