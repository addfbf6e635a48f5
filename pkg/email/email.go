// Package email normalizes and validates the addresses that key staff
// credentials. The identity provider treats the normalized form as unique.
package email

import (
	"net/mail"
	"strings"
)

// Normalize lowercases and trims an address. Uniqueness at the identity
// provider is enforced on the normalized form.
func Normalize(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// Valid reports whether the address is a plain RFC 5322 addr-spec.
// Display names ("Fr. Cruz <cruz@parish.org>") are rejected: registration
// forms submit bare addresses.
func Valid(address string) bool {
	parsed, err := mail.ParseAddress(address)
	if err != nil {
		return false
	}
	return parsed.Address == address
}
