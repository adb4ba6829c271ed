package ledger

import "errors"

// Service errors
var (
	ErrInvalidAmount    = errors.New("amount must be a positive integer")
	ErrBalanceBelowZero = errors.New("adjustment would drive balance below zero")
)
