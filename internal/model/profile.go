package model

import "github.com/google/uuid"

type ProfileType string

const (
	ProfileTypeClient     ProfileType = "client"
	ProfileTypeContractor ProfileType = "contractor"
)

// Profile is a ledger account. Balance is never assigned directly; it only
// moves through the guarded increments in the repository.
type Profile struct {
	ID         uuid.UUID
	FirstName  string
	LastName   string
	Profession string
	Type       ProfileType
	Balance    float64
}
