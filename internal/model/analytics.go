package model

import (
	"time"

	"github.com/google/uuid"
)

// ProfessionEarnings is one aggregation row: total paid-out earnings of all
// contractors sharing a profession inside a date window.
type ProfessionEarnings struct {
	Profession  string
	TotalEarned float64
}

// ClientSpend is one aggregation row: total amount a client paid inside a
// date window.
type ClientSpend struct {
	ID        uuid.UUID
	FirstName string
	LastName  string
	TotalPaid float64
}

// ClientStatement is the export view of the best-clients aggregate.
type ClientStatement struct {
	PeriodStart time.Time
	PeriodEnd   time.Time
	Clients     []ClientSpend
}
