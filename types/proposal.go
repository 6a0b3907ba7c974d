package types

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

type AssetID uint32

type Side uint8

const (
	Against Side = iota
	For
)

func (s Side) InFavor() bool {
	return s == For
}

func (s Side) String() string {
	if s == For {
		return "for"
	}
	return "against"
}

func ParseSide(s string) (Side, error) {
	switch s {
	case "for", "yes", "in_favor":
		return For, nil
	case "against", "no":
		return Against, nil
	default:
		return Against, fmt.Errorf("unknown vote side %q", s)
	}
}

// Result is the outcome recorded when a proposal is closed.
type Result uint8

const (
	Unresolved Result = iota
	InFavor
	ResultAgainst
	Indecision
)

func (r Result) String() string {
	switch r {
	case InFavor:
		return "in_favor"
	case ResultAgainst:
		return "against"
	case Indecision:
		return "indecision"
	default:
		return "unresolved"
	}
}

func (r Result) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Result) UnmarshalText(text []byte) error {
	switch string(text) {
	case "unresolved", "":
		*r = Unresolved
	case "in_favor":
		*r = InFavor
	case "against":
		*r = ResultAgainst
	case "indecision":
		*r = Indecision
	default:
		return fmt.Errorf("unknown proposal result %q", text)
	}
	return nil
}

type Proposal struct {
	ID          uint64         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Creator     common.Address `json:"creator"`
	SubmittedAt uint64         `json:"submitted_at"`
	Deadline    uint64         `json:"deadline"`
	Closed      bool           `json:"closed"`
	Result      Result         `json:"result"`

	// ReferendumIndex is only set when Result is InFavor
	ReferendumIndex *uint64 `json:"referendum_index,omitempty"`

	// supporter counts grow on every accepted vote, the voter lists only on the first one
	SupporterCount        uint64           `json:"supporter_count"`
	SupporterCountAgainst uint64           `json:"supporter_count_against"`
	ForVoters             []common.Address `json:"for_voters"`
	AgainstVoters         []common.Address `json:"against_voters"`
}

func (p *Proposal) Voters(side Side) []common.Address {
	if side == For {
		return p.ForVoters
	}
	return p.AgainstVoters
}

func (p *Proposal) HasVoter(side Side, voter common.Address) bool {
	for _, v := range p.Voters(side) {
		if v == voter {
			return true
		}
	}
	return false
}

// AddVote bumps the side's supporter count and records the voter once.
func (p *Proposal) AddVote(side Side, voter common.Address) {
	known := p.HasVoter(side, voter)
	if side == For {
		p.SupporterCount++
		if !known {
			p.ForVoters = append(p.ForVoters, voter)
		}
		return
	}
	p.SupporterCountAgainst++
	if !known {
		p.AgainstVoters = append(p.AgainstVoters, voter)
	}
}
