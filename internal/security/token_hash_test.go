package security

import (
	"encoding/base64"
	"testing"
)

func TestHashToken_Consistent(t *testing.T) {
	if HashToken("abc") != HashToken("abc") {
		t.Fatal("HashToken is not deterministic")
	}
	if len(HashToken("abc")) != 64 {
		t.Errorf("HashToken length = %d, want 64", len(HashToken("abc")))
	}
	if HashToken("abc") == HashToken("abd") {
		t.Fatal("different tokens hashed to the same value")
	}
}

func TestTokenHashEqual(t *testing.T) {
	stored := HashToken("temp-token")
	testCases := []struct {
		name     string
		provided string
		stored   string
		want     bool
	}{
		{"match", "temp-token", stored, true},
		{"wrong token", "temp-token2", stored, false},
		{"empty token", "", stored, false},
		{"empty stored", "temp-token", "", false},
		{"uppercase stored hash", "temp-token", "ABC", false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := TokenHashEqual(tc.provided, tc.stored); got != tc.want {
				t.Errorf("TokenHashEqual = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestNewOpaqueToken(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		tok, err := NewOpaqueToken()
		if err != nil {
			t.Fatalf("NewOpaqueToken: %v", err)
		}
		raw, err := base64.RawURLEncoding.DecodeString(tok)
		if err != nil {
			t.Fatalf("token is not base64url: %v", err)
		}
		if len(raw) != 32 {
			t.Fatalf("token entropy = %d bytes, want 32", len(raw))
		}
		if seen[tok] {
			t.Fatal("NewOpaqueToken repeated a value")
		}
		seen[tok] = true
	}
}
