//go:build !race

package phonebook

func passwordHashCost() int {
	return 14
}
