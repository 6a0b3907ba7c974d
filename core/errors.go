package core

import (
	"github.com/axiomesh/govtracker/store"
	"github.com/pkg/errors"
)

var (
	// lookup
	ErrProposalNotFound = store.ErrNotFound

	// lifecycle
	ErrProposalClosed    = errors.New("proposal closed")
	ErrAlreadyClosed     = errors.New("proposal already closed")
	ErrVotingPeriodEnded = errors.New("voting period ended")

	// validation
	ErrInsufficientDeposit = errors.New("insufficient deposit")
	ErrInvalidAsset        = errors.New("invalid asset")
	ErrTitleTooLong        = errors.New("title too long")
	ErrDescriptionTooLong  = errors.New("description too long")
	ErrBalanceOverflow     = store.ErrStakeOverflow
	ErrDeadlineOverflow    = errors.New("deadline overflows block range")

	// authorization
	ErrNotCreator = errors.New("caller is neither proposal creator nor owner")

	// integration
	ErrReferendumSubmissionFailed = errors.New("referendum submission failed")
)
