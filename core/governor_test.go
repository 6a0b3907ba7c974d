package core

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/axiomesh/axiom-kit/log"
	"github.com/axiomesh/govtracker/notify"
	"github.com/axiomesh/govtracker/referendum"
	"github.com/axiomesh/govtracker/repo"
	"github.com/axiomesh/govtracker/store"
	"github.com/axiomesh/govtracker/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	owner   = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	creator = common.HexToAddress("0xff00000000000000000000000000000000001001")
	alice   = common.HexToAddress("0x110000000000000000000000000000000000ffff")
	bob     = common.HexToAddress("0x220000000000000000000000000000000000ffff")
	carol   = common.HexToAddress("0x330000000000000000000000000000000000ffff")
)

const (
	minDeposit   = 100
	votingPeriod = 10
)

type fixture struct {
	gov     *Governor
	backend *store.MemoryBackend
	events  *notify.Recorder
}

func testParams() *Params {
	return &Params{
		MinDeposit:           uint256.NewInt(minDeposit),
		VotingPeriod:         votingPeriod,
		Owner:                owner,
		SupportedAssets:      []types.AssetID{0, 1, 2},
		MaxTitleLength:       32,
		MaxDescriptionLength: 128,
		TargetChain:          1000,
	}
}

func newFixture(t *testing.T, submitter referendum.Submitter) *fixture {
	backend := store.NewMemoryBackend()
	events := &notify.Recorder{}
	logger := log.New()
	logger.SetLevel(log.ParseLevel("debug"))

	gov, err := NewGovernor(testParams(), store.New(backend), submitter, events, logger)
	require.Nil(t, err)
	return &fixture{gov: gov, backend: backend, events: events}
}

func call(caller common.Address, deposit uint64, block uint64) Call {
	return Call{Caller: caller, Deposit: uint256.NewInt(deposit), Block: block}
}

func (f *fixture) submit(t *testing.T, block uint64) uint64 {
	id, err := f.gov.SubmitProposal(call(creator, minDeposit, block), "mock title", "mock desc")
	require.Nil(t, err)
	return id
}

func (f *fixture) snapshot(t *testing.T, id uint64) []byte {
	p, err := f.gov.Proposal(id)
	require.Nil(t, err)
	data, err := json.Marshal(p)
	require.Nil(t, err)
	return data
}

func TestSubmitProposal(t *testing.T) {
	f := newFixture(t, nil)

	id, err := f.gov.SubmitProposal(call(creator, minDeposit, 5), "mock title", "mock desc")
	require.Nil(t, err)
	assert.EqualValues(t, 0, id)

	id, err = f.gov.SubmitProposal(call(alice, minDeposit+1, 7), "second", "")
	require.Nil(t, err)
	assert.EqualValues(t, 1, id)
	assert.EqualValues(t, 2, f.gov.ProposalCount())

	p, err := f.gov.Proposal(0)
	require.Nil(t, err)
	assert.Equal(t, "mock title", p.Title)
	assert.Equal(t, "mock desc", p.Description)
	assert.Equal(t, creator, p.Creator)
	assert.EqualValues(t, 5, p.SubmittedAt)
	assert.EqualValues(t, 5+votingPeriod, p.Deadline)
	assert.False(t, p.Closed)
	assert.Equal(t, types.Unresolved, p.Result)
	assert.Nil(t, p.ReferendumIndex)
	assert.Empty(t, p.ForVoters)
	assert.Empty(t, p.AgainstVoters)
	assert.Zero(t, p.SupporterCount)
	assert.Zero(t, p.SupporterCountAgainst)

	events := f.events.Events()
	require.Len(t, events, 4)
	assert.Equal(t, &notify.ProposalCreated{ProposalID: 0, Creator: creator, Title: "mock title"}, events[0])
	assert.Equal(t, &notify.CrossChainMessage{ProposalID: 0, TargetChain: 1000, Message: "New proposal 0 created: mock title"}, events[1])
}

func TestSubmitProposalRejections(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.gov.SubmitProposal(call(creator, minDeposit-1, 1), "t", "d")
	assert.ErrorIs(t, err, ErrInsufficientDeposit)

	_, err = f.gov.SubmitProposal(Call{Caller: creator, Block: 1}, "t", "d")
	assert.ErrorIs(t, err, ErrInsufficientDeposit)

	_, err = f.gov.SubmitProposal(call(creator, minDeposit, 1), "this title is definitely longer than thirty-two characters", "d")
	assert.ErrorIs(t, err, ErrTitleTooLong)

	long := make([]byte, 129)
	for i := range long {
		long[i] = 'x'
	}
	_, err = f.gov.SubmitProposal(call(creator, minDeposit, 1), "t", string(long))
	assert.ErrorIs(t, err, ErrDescriptionTooLong)

	_, err = f.gov.SubmitProposal(call(creator, minDeposit, ^uint64(0)-3), "t", "d")
	assert.ErrorIs(t, err, ErrDeadlineOverflow)

	assert.EqualValues(t, 0, f.gov.ProposalCount())
	assert.Zero(t, f.backend.Len())
	assert.Empty(t, f.events.Events())
}

func TestRepeatedVotesCountTwiceButRecordVoterOnce(t *testing.T) {
	f := newFixture(t, nil)
	id := f.submit(t, 1)

	require.Nil(t, f.gov.VoteFor(call(alice, 150, 2), id, 1))
	require.Nil(t, f.gov.VoteFor(call(alice, 150, 3), id, 1))

	p, err := f.gov.Proposal(id)
	require.Nil(t, err)
	assert.EqualValues(t, 2, p.SupporterCount)
	assert.Equal(t, []common.Address{alice}, p.ForVoters)
	assert.Empty(t, p.AgainstVoters)

	forStake, againstStake := f.gov.VoterStakes(id, alice, 1)
	assert.EqualValues(t, 300, forStake.Uint64())
	assert.True(t, againstStake.IsZero())

	// the same account may also back the other side
	require.Nil(t, f.gov.VoteAgainst(call(alice, 100, 3), id, 2))
	forVoters, againstVoters := f.gov.Voters(id)
	assert.Equal(t, []common.Address{alice}, forVoters)
	assert.Equal(t, []common.Address{alice}, againstVoters)

	events := f.events.Events()
	assert.Equal(t, &notify.Voted{ProposalID: id, Voter: alice, InFavor: false, Amount: "100", AssetID: 2}, events[len(events)-1])
}

func TestVoteErrorOrder(t *testing.T) {
	f := newFixture(t, nil)
	open := f.submit(t, 1)
	closed := f.submit(t, 1)
	require.Nil(t, f.gov.CancelProposal(call(creator, 0, 2), closed))

	cases := []struct {
		name string
		call Call
		id   uint64
		asst types.AssetID
		err  error
	}{
		{"unsupported asset wins over unknown proposal", call(alice, 0, 100), 42, 9, ErrInvalidAsset},
		{"unknown proposal", call(alice, 0, 100), 42, 0, ErrProposalNotFound},
		{"closed wins over deadline and deposit", call(alice, 0, 100), closed, 0, ErrProposalClosed},
		{"deadline wins over deposit", call(alice, 0, 1+votingPeriod+1), open, 0, ErrVotingPeriodEnded},
		{"deposit", call(alice, minDeposit-1, 2), open, 0, ErrInsufficientDeposit},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.ErrorIs(t, f.gov.VoteFor(c.call, c.id, c.asst), c.err)
			assert.ErrorIs(t, f.gov.VoteAgainst(c.call, c.id, c.asst), c.err)
		})
	}

	// the deadline block itself is still open
	assert.Nil(t, f.gov.VoteFor(call(alice, minDeposit, 1+votingPeriod), open, 0))
}

func TestVotingPeriodEndedIsPureRejection(t *testing.T) {
	f := newFixture(t, nil)
	id := f.submit(t, 1)
	require.Nil(t, f.gov.VoteFor(call(alice, minDeposit, 5), id, 0))

	before := f.snapshot(t, id)
	keys := f.backend.Len()
	f.events.Reset()

	err := f.gov.VoteFor(call(bob, minDeposit, 1+votingPeriod+1), id, 0)
	assert.ErrorIs(t, err, ErrVotingPeriodEnded)
	err = f.gov.VoteAgainst(call(alice, minDeposit, 1+votingPeriod+1), id, 0)
	assert.ErrorIs(t, err, ErrVotingPeriodEnded)

	assert.Equal(t, before, f.snapshot(t, id))
	assert.Equal(t, keys, f.backend.Len())
	forStake, _ := f.gov.VoterStakes(id, bob, 0)
	assert.True(t, forStake.IsZero())
	_, againstStake := f.gov.VoterStakes(id, alice, 0)
	assert.True(t, againstStake.IsZero())
	assert.Empty(t, f.events.Events())
}

func TestInvalidAssetLeavesStateIdentical(t *testing.T) {
	f := newFixture(t, nil)
	id := f.submit(t, 1)
	require.Nil(t, f.gov.VoteFor(call(alice, 200, 2), id, 0))

	before := f.snapshot(t, id)
	forBefore, againstBefore := f.gov.VoterStakes(id, alice, 0)
	keys := f.backend.Len()

	assert.ErrorIs(t, f.gov.VoteFor(call(alice, 500, 3), id, 7), ErrInvalidAsset)
	assert.ErrorIs(t, f.gov.VoteAgainst(call(bob, 500, 3), id, 7), ErrInvalidAsset)

	assert.Equal(t, before, f.snapshot(t, id))
	forAfter, againstAfter := f.gov.VoterStakes(id, alice, 0)
	assert.Equal(t, types.EncodeBalance(forBefore), types.EncodeBalance(forAfter))
	assert.Equal(t, types.EncodeBalance(againstBefore), types.EncodeBalance(againstAfter))
	unsupported, _ := f.gov.VoterStakes(id, alice, 7)
	assert.True(t, unsupported.IsZero())
	assert.Equal(t, keys, f.backend.Len())
}

func TestCloseInFavorFilesReferendum(t *testing.T) {
	f := newFixture(t, nil)
	id := f.submit(t, 1)
	require.Nil(t, f.gov.VoteFor(call(alice, 300, 2), id, 0))
	require.Nil(t, f.gov.VoteAgainst(call(bob, 200, 2), id, 0))
	f.events.Reset()

	out, err := f.gov.CloseVote(context.Background(), call(creator, 0, 20), id)
	require.Nil(t, err)
	assert.Equal(t, types.InFavor, out.Result)
	require.NotNil(t, out.ReferendumIndex)
	assert.EqualValues(t, 0, *out.ReferendumIndex)
	assert.EqualValues(t, 300, out.TotalFor.Uint64())
	assert.EqualValues(t, 200, out.TotalAgainst.Uint64())

	p, err := f.gov.Proposal(id)
	require.Nil(t, err)
	assert.True(t, p.Closed)
	assert.Equal(t, types.InFavor, p.Result)
	require.NotNil(t, p.ReferendumIndex)
	assert.EqualValues(t, 0, *p.ReferendumIndex)

	events := f.events.Events()
	require.Len(t, events, 2)
	assert.Equal(t, &notify.ProposalClosed{ProposalID: id, Result: types.InFavor, ReferendumIndex: out.ReferendumIndex}, events[0])
	assert.Equal(t, &notify.CrossChainMessage{ProposalID: id, TargetChain: 1000, Message: "Proposal 0 passed, referendum 0 submitted"}, events[1])

	assert.ErrorIs(t, f.gov.CancelProposal(call(creator, 0, 21), id), ErrAlreadyClosed)
}

func TestCloseTieIsIndecision(t *testing.T) {
	f := newFixture(t, nil)
	const d = 500
	id, err := f.gov.SubmitProposal(call(creator, d, 1), "tie", "")
	require.Nil(t, err)
	// the submission deposit is not a stake, the creator backs the proposal explicitly
	require.Nil(t, f.gov.VoteFor(call(creator, d, 2), id, 0))
	require.Nil(t, f.gov.VoteAgainst(call(alice, d, 2), id, 0))

	out, err := f.gov.CloseVote(context.Background(), call(creator, 0, 3), id)
	require.Nil(t, err)
	assert.Equal(t, types.Indecision, out.Result)
	assert.Nil(t, out.ReferendumIndex)

	p, err := f.gov.Proposal(id)
	require.Nil(t, err)
	assert.Nil(t, p.ReferendumIndex)
}

func TestCloseWithoutForStakeIsAgainst(t *testing.T) {
	f := newFixture(t, nil)
	id := f.submit(t, 1)
	require.Nil(t, f.gov.VoteAgainst(call(alice, minDeposit, 2), id, 0))

	out, err := f.gov.CloseVote(context.Background(), call(owner, 0, 3), id)
	require.Nil(t, err)
	assert.Equal(t, types.ResultAgainst, out.Result)
	assert.Nil(t, out.ReferendumIndex)
}

func TestCloseEmptyProposalIsIndecision(t *testing.T) {
	f := newFixture(t, nil)
	id := f.submit(t, 1)

	out, err := f.gov.CloseVote(context.Background(), call(creator, 0, 50), id)
	require.Nil(t, err)
	assert.Equal(t, types.Indecision, out.Result)
	assert.True(t, out.TotalFor.IsZero())
	assert.True(t, out.TotalAgainst.IsZero())
}

func TestCloseAggregatesAcrossAssetsAndVoters(t *testing.T) {
	f := newFixture(t, nil)
	id := f.submit(t, 1)

	require.Nil(t, f.gov.VoteFor(call(alice, 100, 2), id, 0))
	require.Nil(t, f.gov.VoteFor(call(alice, 100, 2), id, 1))
	require.Nil(t, f.gov.VoteFor(call(bob, 150, 2), id, 2))
	require.Nil(t, f.gov.VoteAgainst(call(carol, 300, 2), id, 0))
	require.Nil(t, f.gov.VoteAgainst(call(carol, 140, 2), id, 2))

	preview, err := f.gov.Tally(id)
	require.Nil(t, err)
	assert.EqualValues(t, 350, preview.TotalFor.Uint64())
	assert.EqualValues(t, 440, preview.TotalAgainst.Uint64())

	out, err := f.gov.CloseVote(context.Background(), call(creator, 0, 3), id)
	require.Nil(t, err)
	assert.Equal(t, preview.TotalFor, out.TotalFor)
	assert.Equal(t, preview.TotalAgainst, out.TotalAgainst)
	assert.Equal(t, types.ResultAgainst, out.Result)

	_, err = f.gov.Tally(99)
	assert.ErrorIs(t, err, ErrProposalNotFound)
}

func TestGovernorOwnsItsParams(t *testing.T) {
	params := testParams()
	params.SupportedAssets = []types.AssetID{0, 0, 1}
	gov, err := NewGovernor(params, store.New(store.NewMemoryBackend()), nil, nil, nil)
	require.Nil(t, err)
	assert.Equal(t, []types.AssetID{0, 1}, gov.SupportedAssets())

	params.SupportedAssets[1] = 2
	params.MinDeposit.SetUint64(1)
	params.VotingPeriod = 1
	assert.Equal(t, []types.AssetID{0, 1}, gov.SupportedAssets())
	assert.EqualValues(t, minDeposit, gov.MinDeposit().Uint64())
	assert.EqualValues(t, votingPeriod, gov.VotingPeriod())

	id, err := gov.SubmitProposal(call(creator, minDeposit, 1), "mock title", "")
	require.Nil(t, err)
	require.Nil(t, gov.VoteFor(call(alice, 100, 2), id, 0))
	require.Nil(t, gov.VoteAgainst(call(bob, 150, 2), id, 1))

	out, err := gov.CloseVote(context.Background(), call(creator, 0, 3), id)
	require.Nil(t, err)
	assert.EqualValues(t, 100, out.TotalFor.Uint64())
	assert.EqualValues(t, 150, out.TotalAgainst.Uint64())
	assert.Equal(t, types.ResultAgainst, out.Result)

	withoutFloor := testParams()
	withoutFloor.MinDeposit = nil
	gov, err = NewGovernor(withoutFloor, store.New(store.NewMemoryBackend()), nil, nil, nil)
	require.Nil(t, err)
	assert.Nil(t, withoutFloor.MinDeposit)
	assert.True(t, gov.MinDeposit().IsZero())
}

func TestResolutionIsOrderIndependent(t *testing.T) {
	type vote struct {
		voter common.Address
		side  types.Side
		asset types.AssetID
		amt   uint64
	}
	votes := []vote{
		{alice, types.For, 0, 120},
		{bob, types.Against, 1, 180},
		{alice, types.For, 2, 110},
		{carol, types.Against, 0, 100},
		{bob, types.For, 1, 100},
	}

	run := func(order []int) *Outcome {
		f := newFixture(t, nil)
		id := f.submit(t, 1)
		for _, i := range order {
			v := votes[i]
			require.Nil(t, f.gov.Vote(call(v.voter, v.amt, 2), id, v.asset, v.side))
		}
		out, err := f.gov.CloseVote(context.Background(), call(creator, 0, 3), id)
		require.Nil(t, err)
		return out
	}

	a := run([]int{0, 1, 2, 3, 4})
	b := run([]int{4, 3, 2, 1, 0})
	c := run([]int{2, 0, 4, 1, 3})
	for _, o := range []*Outcome{b, c} {
		assert.Equal(t, a.Result, o.Result)
		assert.Equal(t, a.TotalFor, o.TotalFor)
		assert.Equal(t, a.TotalAgainst, o.TotalAgainst)
	}
	assert.EqualValues(t, 330, a.TotalFor.Uint64())
	assert.EqualValues(t, 280, a.TotalAgainst.Uint64())
	assert.Equal(t, types.InFavor, a.Result)
}

func TestCloseAndCancelAuthorization(t *testing.T) {
	f := newFixture(t, nil)
	first := f.submit(t, 1)
	second := f.submit(t, 1)
	third := f.submit(t, 1)

	_, err := f.gov.CloseVote(context.Background(), call(alice, 0, 2), first)
	assert.ErrorIs(t, err, ErrNotCreator)
	assert.ErrorIs(t, f.gov.CancelProposal(call(alice, 0, 2), first), ErrNotCreator)

	_, err = f.gov.CloseVote(context.Background(), call(owner, 0, 2), first)
	assert.Nil(t, err)
	_, err = f.gov.CloseVote(context.Background(), call(creator, 0, 2), second)
	assert.Nil(t, err)
	assert.Nil(t, f.gov.CancelProposal(call(owner, 0, 2), third))

	_, err = f.gov.CloseVote(context.Background(), call(creator, 0, 2), 3)
	assert.ErrorIs(t, err, ErrProposalNotFound)
	assert.ErrorIs(t, f.gov.CancelProposal(call(creator, 0, 2), 3), ErrProposalNotFound)

	// already closed is reported before authorization
	_, err = f.gov.CloseVote(context.Background(), call(alice, 0, 2), first)
	assert.ErrorIs(t, err, ErrAlreadyClosed)
	assert.ErrorIs(t, f.gov.CancelProposal(call(alice, 0, 2), third), ErrAlreadyClosed)
}

func TestReferendumFailureRollsBackClose(t *testing.T) {
	fail := true
	submitter := referendum.Func(func(ctx context.Context, req *referendum.Request) (uint64, error) {
		if fail {
			return 0, errors.New("democracy pallet unavailable")
		}
		return 77, nil
	})
	f := newFixture(t, submitter)
	id := f.submit(t, 1)
	require.Nil(t, f.gov.VoteFor(call(alice, 300, 2), id, 0))

	before := f.snapshot(t, id)
	keys := f.backend.Len()
	f.events.Reset()

	_, err := f.gov.CloseVote(context.Background(), call(creator, 0, 3), id)
	assert.ErrorIs(t, err, ErrReferendumSubmissionFailed)
	assert.Contains(t, err.Error(), "democracy pallet unavailable")

	assert.Equal(t, before, f.snapshot(t, id))
	assert.Equal(t, keys, f.backend.Len())
	assert.Empty(t, f.events.Events())

	// the proposal is still open for business
	require.Nil(t, f.gov.VoteFor(call(bob, 100, 4), id, 1))

	fail = false
	out, err := f.gov.CloseVote(context.Background(), call(creator, 0, 5), id)
	require.Nil(t, err)
	require.NotNil(t, out.ReferendumIndex)
	assert.EqualValues(t, 77, *out.ReferendumIndex)
}

func TestReferendumIndexPolicies(t *testing.T) {
	passing := func(f *fixture) *Outcome {
		id := f.submit(t, 1)
		require.Nil(t, f.gov.VoteFor(call(alice, 100, 2), id, 0))
		out, err := f.gov.CloseVote(context.Background(), call(creator, 0, 3), id)
		require.Nil(t, err)
		require.NotNil(t, out.ReferendumIndex)
		return out
	}

	seq := newFixture(t, referendum.Sequence{})
	assert.EqualValues(t, 0, *passing(seq).ReferendumIndex)
	// a failed proposal does not consume an index
	failed := seq.submit(t, 1)
	_, err := seq.gov.CloseVote(context.Background(), call(creator, 0, 3), failed)
	require.Nil(t, err)
	assert.EqualValues(t, 1, *passing(seq).ReferendumIndex)

	legacy := newFixture(t, referendum.ProposalCount{})
	legacy.submit(t, 1)
	assert.EqualValues(t, 2, *passing(legacy).ReferendumIndex)
}

func TestNothingChangesAfterClose(t *testing.T) {
	f := newFixture(t, nil)
	id := f.submit(t, 1)
	require.Nil(t, f.gov.VoteFor(call(alice, 300, 2), id, 0))
	require.Nil(t, f.gov.VoteAgainst(call(bob, 100, 2), id, 0))
	_, err := f.gov.CloseVote(context.Background(), call(creator, 0, 3), id)
	require.Nil(t, err)

	before := f.snapshot(t, id)
	keys := f.backend.Len()

	assert.ErrorIs(t, f.gov.VoteFor(call(alice, 300, 4), id, 0), ErrProposalClosed)
	assert.ErrorIs(t, f.gov.VoteAgainst(call(carol, 900, 4), id, 1), ErrProposalClosed)
	_, err = f.gov.CloseVote(context.Background(), call(owner, 0, 4), id)
	assert.ErrorIs(t, err, ErrAlreadyClosed)
	assert.ErrorIs(t, f.gov.CancelProposal(call(owner, 0, 4), id), ErrAlreadyClosed)

	assert.Equal(t, before, f.snapshot(t, id))
	assert.Equal(t, keys, f.backend.Len())
	forStake, _ := f.gov.VoterStakes(id, alice, 0)
	assert.EqualValues(t, 300, forStake.Uint64())
}

func TestCancelProposal(t *testing.T) {
	f := newFixture(t, nil)
	id := f.submit(t, 1)
	require.Nil(t, f.gov.VoteFor(call(alice, 300, 2), id, 0))
	f.events.Reset()

	require.Nil(t, f.gov.CancelProposal(call(creator, 0, 3), id))

	p, err := f.gov.Proposal(id)
	require.Nil(t, err)
	assert.True(t, p.Closed)
	assert.Equal(t, types.Unresolved, p.Result)
	assert.Nil(t, p.ReferendumIndex)
	assert.Equal(t, []notify.Event{&notify.ProposalCancelled{ProposalID: id}}, f.events.Events())

	assert.ErrorIs(t, f.gov.VoteFor(call(alice, 300, 4), id, 0), ErrProposalClosed)
}

func TestQueries(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.gov.Proposal(0)
	assert.ErrorIs(t, err, ErrProposalNotFound)

	forVoters, againstVoters := f.gov.Voters(0)
	assert.NotNil(t, forVoters)
	assert.Empty(t, forVoters)
	assert.Empty(t, againstVoters)

	forStake, againstStake := f.gov.VoterStakes(0, alice, 0)
	assert.True(t, forStake.IsZero())
	assert.True(t, againstStake.IsZero())

	assert.EqualValues(t, minDeposit, f.gov.MinDeposit().Uint64())
	assert.EqualValues(t, votingPeriod, f.gov.VotingPeriod())
	assert.Equal(t, owner, f.gov.Owner())
	assert.Equal(t, []types.AssetID{0, 1, 2}, f.gov.SupportedAssets())

	// returned params are copies
	params := f.gov.Params()
	params.MinDeposit.SetUint64(1)
	params.SupportedAssets[0] = 9
	assert.EqualValues(t, minDeposit, f.gov.MinDeposit().Uint64())
	assert.Equal(t, []types.AssetID{0, 1, 2}, f.gov.SupportedAssets())

	for i := 0; i < 5; i++ {
		f.submit(t, uint64(i))
	}
	list, err := f.gov.Proposals(0, 0)
	require.Nil(t, err)
	assert.Len(t, list, 5)
	list, err = f.gov.Proposals(3, 10)
	require.Nil(t, err)
	require.Len(t, list, 2)
	assert.EqualValues(t, 3, list[0].ID)
	list, err = f.gov.Proposals(1, 2)
	require.Nil(t, err)
	require.Len(t, list, 2)
	assert.EqualValues(t, 2, list[1].ID)
}

func TestConcurrentVotesAreSerialized(t *testing.T) {
	f := newFixture(t, nil)
	id := f.submit(t, 1)

	voters := []common.Address{alice, bob, carol}
	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.Nil(t, f.gov.VoteFor(call(voters[i%3], minDeposit, 2), id, types.AssetID(i%3)))
		}(i)
	}
	wg.Wait()

	p, err := f.gov.Proposal(id)
	require.Nil(t, err)
	assert.EqualValues(t, 30, p.SupporterCount)
	assert.Len(t, p.ForVoters, 3)

	tally, err := f.gov.Tally(id)
	require.Nil(t, err)
	assert.EqualValues(t, 30*minDeposit, tally.TotalFor.Uint64())
}

func TestStakeOverflowIsRejected(t *testing.T) {
	f := newFixture(t, nil)
	id := f.submit(t, 1)
	ceiling := new(uint256.Int).SetAllOne()

	require.Nil(t, f.gov.VoteFor(Call{Caller: alice, Deposit: ceiling, Block: 2}, id, 0))
	before := f.snapshot(t, id)

	err := f.gov.VoteFor(call(alice, minDeposit, 2), id, 0)
	assert.ErrorIs(t, err, ErrBalanceOverflow)
	assert.Equal(t, before, f.snapshot(t, id))

	// separate entries that only overflow when summed fail the close, not the votes
	require.Nil(t, f.gov.VoteFor(call(alice, minDeposit, 2), id, 1))
	_, err = f.gov.CloseVote(context.Background(), call(creator, 0, 3), id)
	assert.ErrorIs(t, err, ErrBalanceOverflow)
}

func TestNewParams(t *testing.T) {
	cfg := repo.DefaultConfig(t.TempDir()).Governance
	cfg.SupportedAssets = []uint32{1, 2, 1, 3}
	cfg.Owner = owner.Hex()

	p, err := NewParams(&cfg)
	require.Nil(t, err)
	assert.Equal(t, "1000000000000", types.FormatBalance(p.MinDeposit))
	assert.Equal(t, owner, p.Owner)
	assert.Equal(t, []types.AssetID{1, 2, 3}, p.SupportedAssets)
	assert.True(t, p.IsSupported(3))
	assert.False(t, p.IsSupported(0))

	bad := cfg
	bad.Owner = "alice"
	_, err = NewParams(&bad)
	assert.NotNil(t, err)

	bad = cfg
	bad.MinDeposit = "1.5"
	_, err = NewParams(&bad)
	assert.ErrorIs(t, err, types.ErrInvalidBalance)

	bad = cfg
	bad.MaxTitleLength = -1
	_, err = NewParams(&bad)
	assert.NotNil(t, err)

	_, err = NewGovernor(nil, nil, nil, nil, nil)
	assert.NotNil(t, err)
}
