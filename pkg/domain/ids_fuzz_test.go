package domain

import (
	"strings"
	"testing"
)

// FuzzParseAddress checks the parser never panics and that anything it
// accepts round-trips as a normalized 0x-prefixed 40-hex string.
func FuzzParseAddress(f *testing.F) {
	f.Add("0x00112233445566778899aabbccddeeff00112233")
	f.Add("0X00112233445566778899AABBCCDDEEFF00112233")
	f.Add("")
	f.Add("0x")
	f.Add("not-an-address")

	f.Fuzz(func(t *testing.T, raw string) {
		addr, err := ParseAddress(raw)
		if err != nil {
			return
		}
		s := addr.String()
		if len(s) != 42 || !strings.HasPrefix(s, "0x") {
			t.Fatalf("accepted malformed address %q", s)
		}
		if s != strings.ToLower(s) {
			t.Fatalf("address not normalized: %q", s)
		}
	})
}

func FuzzParseEmail(f *testing.F) {
	f.Add("a@x.com")
	f.Add("A@X.COM ")
	f.Add("@x.com")
	f.Add("a@")

	f.Fuzz(func(t *testing.T, raw string) {
		email, err := ParseEmail(raw)
		if err != nil {
			return
		}
		s := email.String()
		if !strings.Contains(s, "@") || s != strings.ToLower(s) {
			t.Fatalf("accepted malformed email %q", s)
		}
	})
}
