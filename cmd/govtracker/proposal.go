package main

import (
	"encoding/json"
	"fmt"

	"github.com/axiomesh/govtracker/clock"
	"github.com/axiomesh/govtracker/core"
	"github.com/axiomesh/govtracker/repo"
	"github.com/axiomesh/govtracker/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

var (
	fromFlag = &cli.StringFlag{
		Name:  "from",
		Usage: "Caller account (hex address)",
	}
	blockFlag = &cli.Uint64Flag{
		Name:  "block",
		Usage: "Block number of the call, defaults to the configured clock",
	}
	depositFlag = &cli.StringFlag{
		Name:  "deposit",
		Usage: "Deposit attached to the call, decimal in the smallest unit",
		Value: "0",
	}
	idFlag = &cli.Uint64Flag{
		Name:     "id",
		Usage:    "Proposal id",
		Required: true,
	}
)

var proposalCMD = &cli.Command{
	Name:  "proposal",
	Usage: "Operate on the proposal database directly (the daemon must not be running)",
	Subcommands: []*cli.Command{
		{
			Name:  "submit",
			Usage: "Submit a new proposal",
			Flags: []cli.Flag{
				fromFlag, blockFlag, depositFlag,
				&cli.StringFlag{Name: "title", Required: true},
				&cli.StringFlag{Name: "description"},
			},
			Action: withNode(submitProposal),
		},
		{
			Name:  "vote",
			Usage: "Stake a deposit for or against a proposal",
			Flags: []cli.Flag{
				fromFlag, blockFlag, depositFlag, idFlag,
				&cli.StringFlag{Name: "side", Usage: "for or against", Required: true},
				&cli.UintFlag{Name: "asset", Usage: "Asset id of the deposit"},
			},
			Action: withNode(vote),
		},
		{
			Name:   "close",
			Usage:  "Resolve a proposal and file a referendum when it passed",
			Flags:  []cli.Flag{fromFlag, blockFlag, idFlag},
			Action: withNode(closeVote),
		},
		{
			Name:   "cancel",
			Usage:  "Close a proposal without a decision",
			Flags:  []cli.Flag{fromFlag, blockFlag, idFlag},
			Action: withNode(cancelProposal),
		},
		{
			Name:   "show",
			Usage:  "Show one proposal",
			Flags:  []cli.Flag{idFlag},
			Action: withNode(showProposal),
		},
		{
			Name:  "list",
			Usage: "List proposals",
			Flags: []cli.Flag{
				&cli.Uint64Flag{Name: "start", Usage: "First proposal id"},
				&cli.Uint64Flag{Name: "limit", Usage: "Maximum number of proposals, 0 for all"},
			},
			Action: withNode(listProposals),
		},
		{
			Name:   "voters",
			Usage:  "Show the voters of a proposal",
			Flags:  []cli.Flag{idFlag},
			Action: withNode(showVoters),
		},
		{
			Name:  "stakes",
			Usage: "Show the stake of one voter in one asset",
			Flags: []cli.Flag{
				idFlag,
				&cli.StringFlag{Name: "voter", Required: true},
				&cli.UintFlag{Name: "asset"},
			},
			Action: withNode(showStakes),
		},
		{
			Name:   "tally",
			Usage:  "Show the totals a close would decide on right now",
			Flags:  []cli.Flag{idFlag},
			Action: withNode(showTally),
		},
	},
}

func withNode(action func(ctx *cli.Context, n *node) error) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		p, err := getRootPath(ctx)
		if err != nil {
			return err
		}
		r, err := repo.Load(p)
		if err != nil {
			return err
		}
		n, err := openNode(r, newLogger(r.Config))
		if err != nil {
			return err
		}
		defer n.Close()
		return action(ctx, n)
	}
}

func buildCall(ctx *cli.Context, n *node) (core.Call, error) {
	from := ctx.String("from")
	if !common.IsHexAddress(from) {
		return core.Call{}, errors.Errorf("--from %q is not a hex address", from)
	}
	deposit, err := types.ParseBalance(ctx.String("deposit"))
	if err != nil {
		return core.Call{}, err
	}

	block := ctx.Uint64("block")
	if !ctx.IsSet("block") {
		clk, err := clock.New(ctx.Context, &n.config.Clock, n.logger)
		if err != nil {
			return core.Call{}, err
		}
		if block, err = clk.BlockNumber(ctx.Context); err != nil {
			return core.Call{}, err
		}
		if chain, ok := clk.(*clock.Chain); ok {
			chain.Close()
		}
	}
	return core.Call{Caller: common.HexToAddress(from), Deposit: deposit, Block: block}, nil
}

func printJSON(ctx *cli.Context, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(ctx.App.Writer, string(data))
	return err
}

func submitProposal(ctx *cli.Context, n *node) error {
	call, err := buildCall(ctx, n)
	if err != nil {
		return err
	}
	id, err := n.gov.SubmitProposal(call, ctx.String("title"), ctx.String("description"))
	if err != nil {
		return err
	}
	p, err := n.gov.Proposal(id)
	if err != nil {
		return err
	}
	return printJSON(ctx, p)
}

func vote(ctx *cli.Context, n *node) error {
	side, err := types.ParseSide(ctx.String("side"))
	if err != nil {
		return err
	}
	call, err := buildCall(ctx, n)
	if err != nil {
		return err
	}
	id := ctx.Uint64("id")
	if err := n.gov.Vote(call, id, types.AssetID(ctx.Uint("asset")), side); err != nil {
		return err
	}
	fmt.Fprintf(ctx.App.Writer, "voted %s proposal %d with %s\n", side, id, types.FormatBalance(call.Deposit))
	return nil
}

func closeVote(ctx *cli.Context, n *node) error {
	call, err := buildCall(ctx, n)
	if err != nil {
		return err
	}
	out, err := n.gov.CloseVote(ctx.Context, call, ctx.Uint64("id"))
	if err != nil {
		return err
	}
	return printJSON(ctx, map[string]any{
		"result":           out.Result,
		"total_for":        types.FormatBalance(out.TotalFor),
		"total_against":    types.FormatBalance(out.TotalAgainst),
		"referendum_index": out.ReferendumIndex,
	})
}

func cancelProposal(ctx *cli.Context, n *node) error {
	call, err := buildCall(ctx, n)
	if err != nil {
		return err
	}
	id := ctx.Uint64("id")
	if err := n.gov.CancelProposal(call, id); err != nil {
		return err
	}
	fmt.Fprintf(ctx.App.Writer, "proposal %d cancelled\n", id)
	return nil
}

func showProposal(ctx *cli.Context, n *node) error {
	p, err := n.gov.Proposal(ctx.Uint64("id"))
	if err != nil {
		return err
	}
	return printJSON(ctx, p)
}

func listProposals(ctx *cli.Context, n *node) error {
	list, err := n.gov.Proposals(ctx.Uint64("start"), ctx.Uint64("limit"))
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.App.Writer, "%d proposals\n", n.gov.ProposalCount())
	for _, p := range list {
		state := "open"
		if p.Closed {
			state = p.Result.String()
		}
		fmt.Fprintf(ctx.App.Writer, "%-6d %-12s deadline %-10d %s\n", p.ID, state, p.Deadline, p.Title)
	}
	return nil
}

func showVoters(ctx *cli.Context, n *node) error {
	forVoters, againstVoters := n.gov.Voters(ctx.Uint64("id"))
	return printJSON(ctx, map[string]any{
		"for":     forVoters,
		"against": againstVoters,
	})
}

func showStakes(ctx *cli.Context, n *node) error {
	voter := ctx.String("voter")
	if !common.IsHexAddress(voter) {
		return errors.Errorf("--voter %q is not a hex address", voter)
	}
	forStake, againstStake := n.gov.VoterStakes(ctx.Uint64("id"), common.HexToAddress(voter), types.AssetID(ctx.Uint("asset")))
	return printJSON(ctx, map[string]string{
		"for":     types.FormatBalance(forStake),
		"against": types.FormatBalance(againstStake),
	})
}

func showTally(ctx *cli.Context, n *node) error {
	t, err := n.gov.Tally(ctx.Uint64("id"))
	if err != nil {
		return err
	}
	return printJSON(ctx, map[string]any{
		"total_for":     types.FormatBalance(t.TotalFor),
		"total_against": types.FormatBalance(t.TotalAgainst),
		"result":        t.Decide(),
	})
}
