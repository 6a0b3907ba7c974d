package notify

import (
	"github.com/axiomesh/govtracker/types"
	"github.com/ethereum/go-ethereum/common"
)

// Event is a structured record pushed after a transaction commits.
type Event interface {
	// Signature names the event and its fields, its keccak hash is the log topic.
	Signature() string
	Proposal() uint64
}

type ProposalCreated struct {
	ProposalID uint64         `json:"proposal_id"`
	Creator    common.Address `json:"creator"`
	Title      string         `json:"title"`
}

func (e *ProposalCreated) Signature() string {
	return "ProposalCreated(uint64,address,string)"
}

func (e *ProposalCreated) Proposal() uint64 { return e.ProposalID }

type Voted struct {
	ProposalID uint64         `json:"proposal_id"`
	Voter      common.Address `json:"voter"`
	InFavor    bool           `json:"in_favor"`
	Amount     string         `json:"amount"`
	AssetID    types.AssetID  `json:"asset_id"`
}

func (e *Voted) Signature() string {
	return "Voted(uint64,address,bool,uint256,uint32)"
}

func (e *Voted) Proposal() uint64 { return e.ProposalID }

type ProposalClosed struct {
	ProposalID      uint64       `json:"proposal_id"`
	Result          types.Result `json:"result"`
	ReferendumIndex *uint64      `json:"referendum_index,omitempty"`
}

func (e *ProposalClosed) Signature() string {
	return "ProposalClosed(uint64,string,uint64)"
}

func (e *ProposalClosed) Proposal() uint64 { return e.ProposalID }

type ProposalCancelled struct {
	ProposalID uint64 `json:"proposal_id"`
}

func (e *ProposalCancelled) Signature() string {
	return "ProposalCancelled(uint64)"
}

func (e *ProposalCancelled) Proposal() uint64 { return e.ProposalID }

// CrossChainMessage is an advisory for other chains, delivery is up to the subscriber.
type CrossChainMessage struct {
	ProposalID  uint64 `json:"proposal_id"`
	TargetChain uint32 `json:"target_chain"`
	Message     string `json:"message"`
}

func (e *CrossChainMessage) Signature() string {
	return "CrossChainMessage(uint64,uint32,string)"
}

func (e *CrossChainMessage) Proposal() uint64 { return e.ProposalID }

// Sink receives the events of one committed transaction, in emission order.
type Sink interface {
	Publish(block uint64, events ...Event)
}

type Multi []Sink

func (m Multi) Publish(block uint64, events ...Event) {
	for _, s := range m {
		s.Publish(block, events...)
	}
}

type Discard struct{}

func (Discard) Publish(uint64, ...Event) {}
