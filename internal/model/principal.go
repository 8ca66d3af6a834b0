package model

import "github.com/google/uuid"

// Principal is the already-authenticated caller identity resolved by the auth
// middleware.
type Principal struct {
	ProfileID uuid.UUID
	Type      ProfileType
}

func (p Principal) IsClient() bool {
	return p.Type == ProfileTypeClient
}

func (p Principal) IsContractor() bool {
	return p.Type == ProfileTypeContractor
}

func (p Principal) Owns(accountID uuid.UUID) bool {
	return p.ProfileID == accountID
}
