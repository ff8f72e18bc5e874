package safrole

import "errors"

var (
	ErrUnknownTicket          = errors.New("safrole: ticket not found in registry")
	ErrTicketAttemptMismatch  = errors.New("safrole: ticket attempt index mismatch")
	ErrRingVerifyFailed       = errors.New("safrole: ring-VRF proof verification failed")
	ErrAuthorMismatch         = errors.New("safrole: block author does not match slot assignment")
	ErrTicketAccumulatorFull  = errors.New("safrole: ticket accumulator already holds epoch_length tickets")
	ErrInvalidAttemptIndex    = errors.New("safrole: ticket attempt index out of range")
)
