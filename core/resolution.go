package core

import (
	"context"
	"fmt"

	"github.com/axiomesh/govtracker/notify"
	"github.com/axiomesh/govtracker/referendum"
	"github.com/axiomesh/govtracker/store"
	"github.com/axiomesh/govtracker/types"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type Tally struct {
	TotalFor     *uint256.Int
	TotalAgainst *uint256.Int
}

// Decide compares the totals exactly, equal totals are an indecision.
func (t *Tally) Decide() types.Result {
	switch t.TotalFor.Cmp(t.TotalAgainst) {
	case 1:
		return types.InFavor
	case -1:
		return types.ResultAgainst
	default:
		return types.Indecision
	}
}

type Outcome struct {
	Tally
	Result          types.Result
	ReferendumIndex *uint64
}

// tally sums the ledger over every supported asset and every recorded voter of each side.
func (g *Governor) tally(tx *store.Tx, p *types.Proposal) (*Tally, error) {
	sum := func(side types.Side) (*uint256.Int, error) {
		total := uint256.NewInt(0)
		for _, asset := range g.params.SupportedAssets {
			for _, voter := range p.Voters(side) {
				if _, overflow := total.AddOverflow(total, tx.Stake(p.ID, voter, side, asset)); overflow {
					return nil, errors.Wrapf(ErrBalanceOverflow, "proposal %d %s total", p.ID, side)
				}
			}
		}
		return total, nil
	}

	forTotal, err := sum(types.For)
	if err != nil {
		return nil, err
	}
	againstTotal, err := sum(types.Against)
	if err != nil {
		return nil, err
	}
	return &Tally{TotalFor: forTotal, TotalAgainst: againstTotal}, nil
}

// Tally previews the totals close would compute right now.
func (g *Governor) Tally(id uint64) (*Tally, error) {
	var out *Tally
	err := g.view(func(tx *store.Tx) error {
		p, err := tx.Proposal(id)
		if err != nil {
			return err
		}
		out, err = g.tally(tx, p)
		return err
	})
	return out, err
}

// CloseVote resolves proposal id. An in-favor result is filed with the
// referendum submitter first; if that fails nothing about the proposal changes.
func (g *Governor) CloseVote(ctx context.Context, call Call, id uint64) (*Outcome, error) {
	var out *Outcome
	err := g.apply(call.Block, func(t *txn) error {
		p, err := t.Proposal(id)
		if err != nil {
			return err
		}
		if p.Closed {
			return errors.Wrapf(ErrAlreadyClosed, "proposal %d", id)
		}
		if err := checkFinalizer(g.params, p, call.Caller); err != nil {
			return err
		}

		tally, err := g.tally(t.Tx, p)
		if err != nil {
			return err
		}
		out = &Outcome{Tally: *tally, Result: tally.Decide()}

		if out.Result == types.InFavor {
			referenda := t.ReferendumCount()
			idx, err := g.referendum.Submit(ctx, &referendum.Request{
				ProposalID:      id,
				Title:           p.Title,
				Description:     p.Description,
				Creator:         p.Creator,
				TotalFor:        tally.TotalFor,
				TotalAgainst:    tally.TotalAgainst,
				Block:           call.Block,
				ProposalCount:   t.ProposalCount(),
				ReferendumCount: referenda,
			})
			if err != nil {
				return errors.Wrapf(ErrReferendumSubmissionFailed, "proposal %d: %s", id, err)
			}
			out.ReferendumIndex = &idx
			t.SetReferendumCount(referenda + 1)
		}

		p.Closed = true
		p.Result = out.Result
		p.ReferendumIndex = out.ReferendumIndex
		if err := t.UpdateProposal(p); err != nil {
			return err
		}

		t.emit(&notify.ProposalClosed{
			ProposalID:      id,
			Result:          out.Result,
			ReferendumIndex: out.ReferendumIndex,
		})
		if out.ReferendumIndex != nil {
			t.emit(&notify.CrossChainMessage{
				ProposalID:  id,
				TargetChain: g.params.TargetChain,
				Message:     fmt.Sprintf("Proposal %d passed, referendum %d submitted", id, *out.ReferendumIndex),
			})
		}
		return nil
	})

	fields := logrus.Fields{
		"proposal": id,
		"caller":   call.Caller,
		"block":    call.Block,
	}
	if err != nil {
		g.logger.WithFields(fields).Warnf("close proposal failed: %s", err)
		return nil, err
	}

	fields["result"] = out.Result
	fields["for"] = types.FormatBalance(out.TotalFor)
	fields["against"] = types.FormatBalance(out.TotalAgainst)
	if out.ReferendumIndex != nil {
		fields["referendum"] = *out.ReferendumIndex
	}
	g.logger.WithFields(fields).Info("proposal closed")
	return out, nil
}

// CancelProposal closes proposal id without a decision.
func (g *Governor) CancelProposal(call Call, id uint64) error {
	err := g.apply(call.Block, func(t *txn) error {
		p, err := t.Proposal(id)
		if err != nil {
			return err
		}
		if p.Closed {
			return errors.Wrapf(ErrAlreadyClosed, "proposal %d", id)
		}
		if err := checkFinalizer(g.params, p, call.Caller); err != nil {
			return err
		}

		p.Closed = true
		p.Result = types.Unresolved
		if err := t.UpdateProposal(p); err != nil {
			return err
		}
		t.emit(&notify.ProposalCancelled{ProposalID: id})
		return nil
	})

	fields := logrus.Fields{
		"proposal": id,
		"caller":   call.Caller,
	}
	if err != nil {
		g.logger.WithFields(fields).Warnf("cancel proposal failed: %s", err)
		return err
	}
	g.logger.WithFields(fields).Info("proposal cancelled")
	return nil
}
