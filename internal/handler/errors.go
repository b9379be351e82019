package handler

import "errors"

// Sentinel errors for state races detected inside the order transaction,
// after the pre-check snapshot passed but the locked row disagrees.
var (
	errInsufficientBalance = errors.New("insufficient balance")
	errInsufficientShares  = errors.New("insufficient shares")
	errUserGone            = errors.New("user not found")
)
