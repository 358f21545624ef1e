// Package identity is the client for the hosted identity provider: credential
// sign-in and sign-up, token minting for store calls, and principal-changed
// notifications driving session lifecycle.
package identity

import "strings"

// Principal is the authenticated identity scoping all store access.
type Principal struct {
	UID         string
	Email       string
	DisplayName string
}

var handleSanitizer = strings.NewReplacer(".", "_", "@", "_", "#", "_", "$", "_", "[", "_", "]", "_")

// StoreHandle returns the identifier the principal's ledger subtree is keyed
// by: the provider's stable UID, or a sanitized form of the email when the
// provider did not supply one.
func (p *Principal) StoreHandle() string {
	if p == nil {
		return ""
	}
	if p.UID != "" {
		return p.UID
	}
	return handleSanitizer.Replace(p.Email)
}
