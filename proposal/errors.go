package proposal

import (
	"errors"

	"github.com/icon-project/governance/types"
)

var (
	ErrValidationFailed = errors.New("validation failed")
	ErrNotFound         = errors.New("no registered proposal")
	ErrExpired          = errors.New("this proposal has already expired")
	ErrAlreadyFinalized = errors.New("proposal already finalized")
	ErrDuplicateVote    = errors.New("already voted")
	ErrUnauthorized     = errors.New("no permission")
)

// ExpiredError rejects a ballot cast after the end height. Settled is set
// when the rejected call wrote DISAPPROVED back to the store.
type ExpiredError struct {
	Settled bool
	Status  types.ProposalStatus
}

func (e *ExpiredError) Error() string {
	return ErrExpired.Error()
}

func (e *ExpiredError) Is(target error) bool {
	return target == ErrExpired
}
