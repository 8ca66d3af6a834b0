package model

// ReceiptDocument carries everything the PDF receipt needs for a settled job.
type ReceiptDocument struct {
	Job        Job
	Contract   Contract
	Client     Profile
	Contractor Profile
}
