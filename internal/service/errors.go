package service

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrNotAuthorized     = errors.New("not authorized")
	ErrJobNotPayable     = errors.New("job already paid or not found")
	ErrInsufficientFunds = errors.New("balance too low to pay for this job")
	ErrAccountNotFound   = errors.New("client account not found")
	ErrNoDataInRange     = errors.New("no paid jobs in selected period")
	ErrInvalidInput      = errors.New("invalid input")
)
