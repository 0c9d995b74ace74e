package security

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestNewHasher_CostClamping(t *testing.T) {
	testCases := []struct {
		name string
		cost int
		want int
	}{
		{"zero uses default", 0, bcrypt.DefaultCost},
		{"negative uses default", -1, bcrypt.DefaultCost},
		{"below min clamped", 2, bcrypt.MinCost},
		{"above max clamped", 40, bcrypt.MaxCost},
		{"valid kept", 10, 10},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewHasher(tc.cost)
			if h.Cost != tc.want {
				t.Errorf("Cost = %d, want %d", h.Cost, tc.want)
			}
		})
	}
}

func TestHashAndCompare(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	cred, err := NewCredential()
	if err != nil {
		t.Fatalf("NewCredential: %v", err)
	}

	hash, err := h.Hash([]byte(cred))
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if hash == cred {
		t.Fatal("hash must not equal the raw credential")
	}

	if err := h.Compare(hash, []byte(cred)); err != nil {
		t.Errorf("Compare with the issued credential: %v", err)
	}
	if err := h.Compare(hash, []byte(cred+"x")); err == nil {
		t.Error("Compare should fail for any other value")
	}
	if err := h.Compare("not-a-hash", []byte(cred)); err == nil {
		t.Error("Compare should fail for an invalid stored hash")
	}
}

func TestNewCredential_UniqueAndURLSafe(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 64; i++ {
		cred, err := NewCredential()
		if err != nil {
			t.Fatalf("NewCredential: %v", err)
		}
		if len(cred) < 40 {
			t.Fatalf("credential too short: %d chars", len(cred))
		}
		for _, r := range cred {
			if r == '+' || r == '/' || r == '=' {
				t.Fatalf("credential contains non-URL-safe char %q", r)
			}
		}
		if seen[cred] {
			t.Fatal("duplicate credential generated")
		}
		seen[cred] = true
	}
}

func TestCredentialPrefix(t *testing.T) {
	cred, err := NewCredential()
	if err != nil {
		t.Fatalf("NewCredential: %v", err)
	}
	prefix, err := CredentialPrefix(cred)
	if err != nil {
		t.Fatalf("CredentialPrefix: %v", err)
	}
	if len(prefix) != PrefixLength {
		t.Errorf("prefix length = %d, want %d", len(prefix), PrefixLength)
	}
	if cred[:PrefixLength] != prefix {
		t.Error("prefix must be the leading credential characters")
	}

	if _, err := CredentialPrefix("short"); err == nil {
		t.Error("CredentialPrefix should reject values shorter than the prefix")
	}
}

func TestNewStateToken(t *testing.T) {
	a, err := NewStateToken()
	if err != nil {
		t.Fatalf("NewStateToken: %v", err)
	}
	b, err := NewStateToken()
	if err != nil {
		t.Fatalf("NewStateToken: %v", err)
	}
	if a == b {
		t.Error("state tokens must not repeat")
	}
	if len(a) != 43 { // 32 bytes, base64url without padding
		t.Errorf("state token length = %d, want 43", len(a))
	}
}
