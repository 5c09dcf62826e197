package pipeline

import "errors"

var (
	ErrUnknownPhase     = errors.New("no node registered for phase")
	ErrStepLimit        = errors.New("step limit exceeded")
	ErrRevisionCap      = errors.New("revision cap exceeded")
	ErrContract         = errors.New("output failed validation")
	ErrMissingInput     = errors.New("session input missing")
	ErrNoPending        = errors.New("session is not awaiting approval")
	ErrApprovalMismatch = errors.New("approval does not match the pending checkpoint")
	ErrNotReached       = errors.New("rollback target was never reached")
)
