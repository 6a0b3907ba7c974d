package store

import (
	"encoding/json"

	"github.com/axiomesh/govtracker/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

var (
	ErrNotFound        = errors.New("proposal not found")
	ErrClosedRecord    = errors.New("proposal record is already closed")
	ErrStakeOverflow   = errors.New("stake overflow")
	ErrTxFinished      = errors.New("transaction already committed or discarded")
	ErrCorruptProposal = errors.New("corrupt proposal record")
)

// Store holds the proposal table and the stake ledger. All reads and writes go
// through a Tx; nothing reaches the backend until Commit.
type Store struct {
	backend Backend
}

func New(backend Backend) *Store {
	return &Store{backend: backend}
}

func (s *Store) Begin() *Tx {
	return &Tx{
		backend: s.backend,
		writes:  make(map[string][]byte),
	}
}

// Tx buffers writes in memory and overlays them on backend reads.
type Tx struct {
	backend Backend
	writes  map[string][]byte
	order   []string
	done    bool
}

func (tx *Tx) get(key []byte) []byte {
	if v, ok := tx.writes[string(key)]; ok {
		return v
	}
	return tx.backend.Get(key)
}

func (tx *Tx) put(key, value []byte) {
	k := string(key)
	if _, ok := tx.writes[k]; !ok {
		tx.order = append(tx.order, k)
	}
	tx.writes[k] = value
}

// Commit writes the buffered changes in one batch.
func (tx *Tx) Commit() error {
	if tx.done {
		return ErrTxFinished
	}
	tx.done = true
	if len(tx.writes) == 0 {
		return nil
	}
	batch := tx.backend.NewBatch()
	for _, k := range tx.order {
		batch.Put([]byte(k), tx.writes[k])
	}
	batch.Commit()
	return nil
}

// Discard drops every buffered write.
func (tx *Tx) Discard() {
	tx.done = true
	tx.writes = nil
	tx.order = nil
}

func (tx *Tx) ProposalCount() uint64 {
	return decodeUint64(tx.get(proposalCountKey))
}

// CreateProposal stores p under the next sequential id and returns it.
func (tx *Tx) CreateProposal(p *types.Proposal) (uint64, error) {
	id := tx.ProposalCount()
	p.ID = id
	if err := tx.putProposal(p); err != nil {
		return 0, err
	}
	tx.put(proposalCountKey, encodeUint64(id+1))
	return id, nil
}

func (tx *Tx) Proposal(id uint64) (*types.Proposal, error) {
	if id >= tx.ProposalCount() {
		return nil, errors.Wrapf(ErrNotFound, "id %d", id)
	}
	data := tx.get(proposalKey(id))
	if data == nil {
		return nil, errors.Wrapf(ErrNotFound, "id %d", id)
	}
	p := &types.Proposal{}
	if err := json.Unmarshal(data, p); err != nil {
		return nil, errors.Wrapf(ErrCorruptProposal, "id %d: %s", id, err)
	}
	return p, nil
}

// UpdateProposal replaces the whole record. A record that is already closed
// can not be written again.
func (tx *Tx) UpdateProposal(p *types.Proposal) error {
	old, err := tx.Proposal(p.ID)
	if err != nil {
		return err
	}
	if old.Closed {
		return errors.Wrapf(ErrClosedRecord, "id %d", p.ID)
	}
	return tx.putProposal(p)
}

func (tx *Tx) putProposal(p *types.Proposal) error {
	data, err := json.Marshal(p)
	if err != nil {
		return errors.Wrap(err, "marshal proposal")
	}
	tx.put(proposalKey(p.ID), data)
	return nil
}

// Stake returns the accumulated stake, zero when nothing was recorded.
func (tx *Tx) Stake(id uint64, voter common.Address, side types.Side, asset types.AssetID) *uint256.Int {
	data := tx.get(stakeKey(id, voter, side, asset))
	if data == nil {
		return uint256.NewInt(0)
	}
	return types.DecodeBalance(data)
}

// RecordStake adds amount to the entry and returns the new total.
func (tx *Tx) RecordStake(id uint64, voter common.Address, side types.Side, asset types.AssetID, amount *uint256.Int) (*uint256.Int, error) {
	total, overflow := new(uint256.Int).AddOverflow(tx.Stake(id, voter, side, asset), amount)
	if overflow {
		return nil, errors.Wrapf(ErrStakeOverflow, "proposal %d voter %s asset %d", id, voter, asset)
	}
	tx.put(stakeKey(id, voter, side, asset), types.EncodeBalance(total))
	return total, nil
}

func (tx *Tx) ReferendumCount() uint64 {
	return decodeUint64(tx.get(referendumCountKey))
}

func (tx *Tx) SetReferendumCount(n uint64) {
	tx.put(referendumCountKey, encodeUint64(n))
}
