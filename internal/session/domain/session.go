package domain

import "time"

// Session is a minted login session. Only a one-way hash of the credential is
// stored; the raw value is handed to the browser once at issuance and is not
// recoverable from this row.
type Session struct {
	ID string
	// CredentialPrefix is the leading characters of the credential, stored in
	// clear to narrow lookup. Verification always goes through the hash.
	CredentialPrefix string
	// CredentialHash is the bcrypt hash of the full credential.
	CredentialHash string
	PersonID       string
	CreatedAt      time.Time
}
