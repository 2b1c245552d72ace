package security

import (
	"strings"
	"testing"
)

func TestRandomString(t *testing.T) {
	s := RandomString(32)
	if len(s) != 32 {
		t.Errorf("len = %d, want 32", len(s))
	}
	for _, c := range s {
		if !strings.ContainsRune(tokenAlphabet, c) {
			t.Errorf("character %q outside the base62 alphabet", c)
		}
	}

	// Two draws must differ (probability of collision is negligible)
	if RandomString(32) == RandomString(32) {
		t.Error("consecutive random strings are identical")
	}
}

func TestGenerateConsumerKey(t *testing.T) {
	key := GenerateConsumerKey()
	if len(key) != ConsumerKeyLength {
		t.Errorf("len = %d, want %d", len(key), ConsumerKeyLength)
	}
}

func TestGenerateTokenKey(t *testing.T) {
	tests := []struct {
		prefix string
	}{
		{RequestTokenKeyPrefix},
		{AccessTokenKeyPrefix},
	}

	for _, tt := range tests {
		key := GenerateTokenKey(tt.prefix)
		if !strings.HasPrefix(key, tt.prefix+"_") {
			t.Errorf("key %q missing prefix %q", key, tt.prefix+"_")
		}
		if len(key) != len(tt.prefix)+1+TokenKeyLength {
			t.Errorf("len = %d, want %d", len(key), len(tt.prefix)+1+TokenKeyLength)
		}
	}
}

func TestGenerateSecret(t *testing.T) {
	secret := GenerateSecret()
	if len(secret) != SecretLength {
		t.Errorf("len = %d, want %d", len(secret), SecretLength)
	}
}

func TestGenerateVerifier(t *testing.T) {
	tests := []struct {
		name    string
		n       int
		wantLen int
	}{
		{"requested length", 16, 16},
		{"below floor", 4, MinVerifierLength},
		{"zero", 0, MinVerifierLength},
		{"exact floor", MinVerifierLength, MinVerifierLength},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GenerateVerifier(tt.n); len(got) != tt.wantLen {
				t.Errorf("len = %d, want %d", len(got), tt.wantLen)
			}
		})
	}
}

func TestConstantTimeEquals(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"equal", "verifier123", "verifier123", true},
		{"different", "verifier123", "verifier124", false},
		{"different length", "short", "longer-value", false},
		{"both empty", "", "", true},
		{"one empty", "x", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ConstantTimeEquals(tt.a, tt.b); got != tt.want {
				t.Errorf("ConstantTimeEquals(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}
