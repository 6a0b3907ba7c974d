package core

import (
	"fmt"
	"unicode/utf8"

	"github.com/axiomesh/govtracker/notify"
	"github.com/axiomesh/govtracker/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// SubmitProposal opens a proposal whose voting window ends voting_period
// blocks after call.Block, and returns its id.
func (g *Governor) SubmitProposal(call Call, title, description string) (uint64, error) {
	var id uint64
	err := g.apply(call.Block, func(t *txn) error {
		if !g.params.meetsDeposit(call.Deposit) {
			return errors.Wrapf(ErrInsufficientDeposit, "deposit %s below %s", types.FormatBalance(call.Deposit), types.FormatBalance(g.params.MinDeposit))
		}
		if g.params.MaxTitleLength > 0 && utf8.RuneCountInString(title) > g.params.MaxTitleLength {
			return errors.Wrapf(ErrTitleTooLong, "max %d characters", g.params.MaxTitleLength)
		}
		if g.params.MaxDescriptionLength > 0 && utf8.RuneCountInString(description) > g.params.MaxDescriptionLength {
			return errors.Wrapf(ErrDescriptionTooLong, "max %d characters", g.params.MaxDescriptionLength)
		}
		deadline := call.Block + g.params.VotingPeriod
		if deadline < call.Block {
			return ErrDeadlineOverflow
		}

		p := &types.Proposal{
			Title:         title,
			Description:   description,
			Creator:       call.Caller,
			SubmittedAt:   call.Block,
			Deadline:      deadline,
			Result:        types.Unresolved,
			ForVoters:     []common.Address{},
			AgainstVoters: []common.Address{},
		}
		var err error
		if id, err = t.CreateProposal(p); err != nil {
			return err
		}

		t.emit(
			&notify.ProposalCreated{ProposalID: id, Creator: call.Caller, Title: title},
			&notify.CrossChainMessage{
				ProposalID:  id,
				TargetChain: g.params.TargetChain,
				Message:     fmt.Sprintf("New proposal %d created: %s", id, title),
			},
		)
		return nil
	})
	if err != nil {
		g.logger.WithFields(logrus.Fields{
			"caller": call.Caller,
			"block":  call.Block,
		}).Warnf("submit proposal rejected: %s", err)
		return 0, err
	}

	g.logger.WithFields(logrus.Fields{
		"proposal": id,
		"caller":   call.Caller,
		"block":    call.Block,
	}).Info("proposal submitted")
	return id, nil
}

func (g *Governor) VoteFor(call Call, id uint64, asset types.AssetID) error {
	return g.Vote(call, id, asset, types.For)
}

func (g *Governor) VoteAgainst(call Call, id uint64, asset types.AssetID) error {
	return g.Vote(call, id, asset, types.Against)
}

// Vote stakes call.Deposit of asset on one side of proposal id. Every accepted
// vote counts as a supporter, the voter list only records the caller once.
func (g *Governor) Vote(call Call, id uint64, asset types.AssetID, side types.Side) error {
	fields := logrus.Fields{
		"proposal": id,
		"caller":   call.Caller,
		"side":     side,
		"asset":    asset,
		"block":    call.Block,
	}

	err := g.apply(call.Block, func(t *txn) error {
		if !g.params.IsSupported(asset) {
			return errors.Wrapf(ErrInvalidAsset, "asset %d", asset)
		}
		p, err := t.Proposal(id)
		if err != nil {
			return err
		}
		if p.Closed {
			return errors.Wrapf(ErrProposalClosed, "proposal %d", id)
		}
		if call.Block > p.Deadline {
			return errors.Wrapf(ErrVotingPeriodEnded, "proposal %d deadline %d, block %d", id, p.Deadline, call.Block)
		}
		if !g.params.meetsDeposit(call.Deposit) {
			return errors.Wrapf(ErrInsufficientDeposit, "deposit %s below %s", types.FormatBalance(call.Deposit), types.FormatBalance(g.params.MinDeposit))
		}

		p.AddVote(side, call.Caller)
		if _, err := t.RecordStake(id, call.Caller, side, asset, call.amount()); err != nil {
			return err
		}
		if err := t.UpdateProposal(p); err != nil {
			return err
		}

		t.emit(&notify.Voted{
			ProposalID: id,
			Voter:      call.Caller,
			InFavor:    side.InFavor(),
			Amount:     types.FormatBalance(call.amount()),
			AssetID:    asset,
		})
		return nil
	})
	if err != nil {
		g.logger.WithFields(fields).Debugf("vote rejected: %s", err)
		return err
	}

	g.logger.WithFields(fields).Debug("vote accepted")
	return nil
}
