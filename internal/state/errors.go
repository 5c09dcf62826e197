package state

import "errors"

var (
	ErrInvalidPhase    = errors.New("invalid phase")
	ErrInvalidApproval = errors.New("invalid approval type")
)
