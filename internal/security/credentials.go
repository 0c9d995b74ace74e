package security

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
)

// credentialBytes is the raw entropy of a session credential. 32 bytes gives
// 256 bits, well above the minimum needed to resist brute force.
const credentialBytes = 32

// PrefixLength is the number of leading credential characters stored in clear
// for session lookup. The bcrypt hash of the full credential still gates
// verification; the prefix only narrows the candidate rows.
const PrefixLength = 8

// ErrCredentialTooShort is returned when a presented credential is shorter than the lookup prefix.
var ErrCredentialTooShort = errors.New("credential too short")

// NewCredential generates a random, URL-safe session credential.
func NewCredential() (string, error) {
	b := make([]byte, credentialBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// CredentialPrefix returns the lookup prefix of credential, or an error if the
// value is too short to carry one.
func CredentialPrefix(credential string) (string, error) {
	if len(credential) < PrefixLength {
		return "", ErrCredentialTooShort
	}
	return credential[:PrefixLength], nil
}

// NewStateToken generates a random, URL-safe flow state token. State tokens
// key pending auth flows and must be unguessable; 32 bytes of entropy makes
// accidental collision practically impossible.
func NewStateToken() (string, error) {
	b := make([]byte, credentialBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
