package model

import (
	"time"

	"github.com/google/uuid"
)

// Job is a billable unit of work under a contract. Paid is left unset until
// settlement; it never goes back from true.
type Job struct {
	ID          uuid.UUID
	ContractID  uuid.UUID
	Description string
	Price       float64
	Paid        *bool
	PaymentDate *time.Time
}

// IsPaid treats an unset flag as unpaid.
func (j Job) IsPaid() bool {
	return j.Paid != nil && *j.Paid
}
