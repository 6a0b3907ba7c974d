package core

import (
	"github.com/axiomesh/govtracker/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// canFinalize reports whether caller may close or cancel p.
func canFinalize(params *Params, p *types.Proposal, caller common.Address) bool {
	return caller == p.Creator || caller == params.Owner
}

func checkFinalizer(params *Params, p *types.Proposal, caller common.Address) error {
	if !canFinalize(params, p, caller) {
		return errors.Wrapf(ErrNotCreator, "proposal %d caller %s", p.ID, caller)
	}
	return nil
}
