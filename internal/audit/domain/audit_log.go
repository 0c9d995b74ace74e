package domain

import "time"

// Event is a single audit trail entry for a login or logout outcome.
type Event struct {
	ID        string
	OrgID     string
	PersonID  string
	Action    string
	Outcome   string
	IP        string
	Metadata  string
	CreatedAt time.Time
}
