package core

import (
	"github.com/axiomesh/govtracker/repo"
	"github.com/axiomesh/govtracker/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

// Params is the governance configuration, fixed for the lifetime of a Governor.
type Params struct {
	MinDeposit           *uint256.Int
	VotingPeriod         uint64
	Owner                common.Address
	SupportedAssets      []types.AssetID
	MaxTitleLength       int
	MaxDescriptionLength int
	TargetChain          uint32
}

func NewParams(cfg *repo.Governance) (*Params, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	minDeposit, err := types.ParseBalance(cfg.MinDeposit)
	if err != nil {
		return nil, errors.Wrap(err, "min_deposit")
	}

	assets := make([]types.AssetID, 0, len(cfg.SupportedAssets))
	for _, a := range cfg.SupportedAssets {
		assets = append(assets, types.AssetID(a))
	}

	return &Params{
		MinDeposit:           minDeposit,
		VotingPeriod:         cfg.VotingPeriod,
		Owner:                common.HexToAddress(cfg.Owner),
		SupportedAssets:      uniqueAssets(assets),
		MaxTitleLength:       cfg.MaxTitleLength,
		MaxDescriptionLength: cfg.MaxDescriptionLength,
		TargetChain:          cfg.TargetChain,
	}, nil
}

// clone shares no memory with p. A nil MinDeposit becomes zero and repeated
// assets are dropped, so every asset is tallied once.
func (p *Params) clone() *Params {
	cp := *p
	cp.MinDeposit = uint256.NewInt(0)
	if p.MinDeposit != nil {
		cp.MinDeposit.Set(p.MinDeposit)
	}
	cp.SupportedAssets = uniqueAssets(p.SupportedAssets)
	return &cp
}

func uniqueAssets(assets []types.AssetID) []types.AssetID {
	out := make([]types.AssetID, 0, len(assets))
	seen := make(map[types.AssetID]bool, len(assets))
	for _, a := range assets {
		if seen[a] {
			continue
		}
		seen[a] = true
		out = append(out, a)
	}
	return out
}

func (p *Params) IsSupported(asset types.AssetID) bool {
	for _, a := range p.SupportedAssets {
		if a == asset {
			return true
		}
	}
	return false
}

// meetsDeposit treats a missing deposit as zero.
func (p *Params) meetsDeposit(deposit *uint256.Int) bool {
	if deposit == nil {
		return p.MinDeposit.IsZero()
	}
	return !deposit.Lt(p.MinDeposit)
}
