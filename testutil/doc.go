// Package testutil provides seeded randomness and geometry fixtures shared
// by tests across the module.
package testutil
