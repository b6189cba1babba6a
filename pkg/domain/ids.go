// Package domain defines the typed identifiers shared across the registry
// and ceremony packages. Parsing happens once at trust boundaries; inner
// code works with values that are already known to be well formed.
package domain

import (
	"strings"

	dErrors "chainpass/pkg/domain-errors"
)

// Address is an account address: 0x followed by 40 hex characters,
// normalized to lower case. It is the registry's primary key.
type Address string

// IDHash is the privacy-preserving digest of a national ID number:
// 64 lower-case hex characters.
type IDHash string

// Email is a normalized (lower-cased, trimmed) email address.
type Email string

func (a Address) String() string { return string(a) }
func (h IDHash) String() string  { return string(h) }
func (e Email) String() string   { return string(e) }

// ParseAddress validates and normalizes an account address.
func ParseAddress(raw string) (Address, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if len(s) != 42 || !strings.HasPrefix(s, "0x") || !isHex(s[2:]) {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid account address")
	}
	return Address(s), nil
}

// ParseIDHash validates a pre-computed national-ID digest.
func ParseIDHash(raw string) (IDHash, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if len(s) != 64 || !isHex(s) {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid id hash")
	}
	return IDHash(s), nil
}

// ParseEmail applies a structural check only; deliverability is not our
// concern here.
func ParseEmail(raw string) (Email, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	at := strings.IndexByte(s, '@')
	if at <= 0 || at == len(s)-1 || len(s) > 254 {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid email")
	}
	if !strings.Contains(s[at+1:], ".") || strings.ContainsAny(s, " \t") {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid email")
	}
	return Email(s), nil
}

func isHex(s string) bool {
	for _, r := range s {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}
	return true
}
