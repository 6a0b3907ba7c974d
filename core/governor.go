package core

import (
	"sync"

	"github.com/axiomesh/axiom-kit/log"
	"github.com/axiomesh/govtracker/notify"
	"github.com/axiomesh/govtracker/referendum"
	"github.com/axiomesh/govtracker/store"
	"github.com/axiomesh/govtracker/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Call carries what the hosting environment supplies with every operation.
type Call struct {
	Caller  common.Address
	Deposit *uint256.Int
	Block   uint64
}

func (c Call) amount() *uint256.Int {
	if c.Deposit == nil {
		return uint256.NewInt(0)
	}
	return c.Deposit
}

// Governor runs every operation as one serialized transaction against the
// proposal table and the stake ledger. Events are published only after the
// transaction committed.
type Governor struct {
	params     *Params
	store      *store.Store
	referendum referendum.Submitter
	sink       notify.Sink
	logger     logrus.FieldLogger

	mu sync.Mutex
}

func NewGovernor(params *Params, st *store.Store, submitter referendum.Submitter, sink notify.Sink, logger logrus.FieldLogger) (*Governor, error) {
	if params == nil || st == nil {
		return nil, errors.New("governor needs params and a store")
	}
	if submitter == nil {
		submitter = referendum.Sequence{}
	}
	if sink == nil {
		sink = notify.Discard{}
	}
	if logger == nil {
		logger = log.New()
	}
	return &Governor{
		params:     params.clone(),
		store:      st,
		referendum: submitter,
		sink:       sink,
		logger:     logger,
	}, nil
}

type txn struct {
	*store.Tx
	events []notify.Event
}

func (t *txn) emit(events ...notify.Event) {
	t.events = append(t.events, events...)
}

// apply runs fn in a fresh transaction. Any error discards every write and
// every event fn produced.
func (g *Governor) apply(block uint64, fn func(t *txn) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	t := &txn{Tx: g.store.Begin()}
	if err := fn(t); err != nil {
		t.Discard()
		return err
	}
	if err := t.Commit(); err != nil {
		return errors.Wrap(err, "commit")
	}
	if len(t.events) > 0 {
		g.sink.Publish(block, t.events...)
	}
	return nil
}

func (g *Governor) view(fn func(tx *store.Tx) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	tx := g.store.Begin()
	defer tx.Discard()
	return fn(tx)
}

func (g *Governor) Params() Params {
	return *g.params.clone()
}

func (g *Governor) MinDeposit() *uint256.Int {
	return new(uint256.Int).Set(g.params.MinDeposit)
}

func (g *Governor) VotingPeriod() uint64 {
	return g.params.VotingPeriod
}

func (g *Governor) Owner() common.Address {
	return g.params.Owner
}

func (g *Governor) SupportedAssets() []types.AssetID {
	return append([]types.AssetID{}, g.params.SupportedAssets...)
}

func (g *Governor) Proposal(id uint64) (*types.Proposal, error) {
	var p *types.Proposal
	err := g.view(func(tx *store.Tx) error {
		var err error
		p, err = tx.Proposal(id)
		return err
	})
	return p, err
}

func (g *Governor) ProposalCount() uint64 {
	var n uint64
	_ = g.view(func(tx *store.Tx) error {
		n = tx.ProposalCount()
		return nil
	})
	return n
}

// Proposals returns up to limit proposals starting at id from; limit 0 means all.
func (g *Governor) Proposals(from, limit uint64) ([]*types.Proposal, error) {
	var list []*types.Proposal
	err := g.view(func(tx *store.Tx) error {
		count := tx.ProposalCount()
		for id := from; id < count; id++ {
			if limit > 0 && uint64(len(list)) >= limit {
				break
			}
			p, err := tx.Proposal(id)
			if err != nil {
				return err
			}
			list = append(list, p)
		}
		return nil
	})
	return list, err
}

// VoterStakes returns the for and against stake of voter in asset, zeros for unknown proposals.
func (g *Governor) VoterStakes(id uint64, voter common.Address, asset types.AssetID) (forStake, againstStake *uint256.Int) {
	_ = g.view(func(tx *store.Tx) error {
		forStake = tx.Stake(id, voter, types.For, asset)
		againstStake = tx.Stake(id, voter, types.Against, asset)
		return nil
	})
	return forStake, againstStake
}

// Voters returns both voter lists, empty for unknown proposals.
func (g *Governor) Voters(id uint64) (forVoters, againstVoters []common.Address) {
	forVoters, againstVoters = []common.Address{}, []common.Address{}
	_ = g.view(func(tx *store.Tx) error {
		p, err := tx.Proposal(id)
		if err != nil {
			return err
		}
		forVoters = append(forVoters, p.ForVoters...)
		againstVoters = append(againstVoters, p.AgainstVoters...)
		return nil
	})
	return forVoters, againstVoters
}
