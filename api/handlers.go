package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/axiomesh/govtracker/core"
	"github.com/axiomesh/govtracker/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var errBadRequest = errors.New("bad request")

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errorCodes = []struct {
	err    error
	code   string
	status int
}{
	{core.ErrProposalNotFound, "proposal_not_found", http.StatusNotFound},
	{core.ErrProposalClosed, "proposal_closed", http.StatusConflict},
	{core.ErrAlreadyClosed, "already_closed", http.StatusConflict},
	{core.ErrVotingPeriodEnded, "voting_period_ended", http.StatusConflict},
	{core.ErrInsufficientDeposit, "insufficient_deposit", http.StatusBadRequest},
	{core.ErrInvalidAsset, "invalid_asset", http.StatusBadRequest},
	{core.ErrTitleTooLong, "title_too_long", http.StatusBadRequest},
	{core.ErrDescriptionTooLong, "description_too_long", http.StatusBadRequest},
	{core.ErrDeadlineOverflow, "deadline_overflow", http.StatusBadRequest},
	{core.ErrBalanceOverflow, "balance_overflow", http.StatusBadRequest},
	{core.ErrNotCreator, "not_creator", http.StatusForbidden},
	{core.ErrReferendumSubmissionFailed, "referendum_submission_failed", http.StatusBadGateway},
	{errBadRequest, "bad_request", http.StatusBadRequest},
}

func errorCode(err error) string {
	for _, c := range errorCodes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return "internal"
}

func statusOf(err error) int {
	for _, c := range errorCodes {
		if errors.Is(err, c.err) {
			return c.status
		}
	}
	return http.StatusInternalServerError
}

func (s *Server) throw(w http.ResponseWriter, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		s.logger.Errorf("api: %s", err)
	}
	s.write(w, status, &errorResponse{Error: err.Error(), Code: errorCode(err)})
}

func (s *Server) write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warnf("api: write response: %s", err)
	}
}

func (s *Server) decode(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, s.maxPostSize+1))
	if err != nil {
		return errors.Wrap(errBadRequest, err.Error())
	}
	if int64(len(body)) > s.maxPostSize {
		return errors.Wrap(errBadRequest, "request body too large")
	}
	if err := json.Unmarshal(body, v); err != nil {
		return errors.Wrap(errBadRequest, err.Error())
	}
	return nil
}

func proposalID(r *http.Request) (uint64, error) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		return 0, errors.Wrap(errBadRequest, "proposal id")
	}
	return id, nil
}

func parseAddress(field, s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, errors.Wrapf(errBadRequest, "%s %q is not a hex address", field, s)
	}
	return common.HexToAddress(s), nil
}

func parseDeposit(s string) (*uint256.Int, error) {
	v, err := types.ParseBalance(s)
	if err != nil {
		return nil, errors.Wrap(errBadRequest, err.Error())
	}
	return v, nil
}

func (s *Server) call(r *http.Request, caller, deposit string) (core.Call, error) {
	addr, err := parseAddress("caller", caller)
	if err != nil {
		return core.Call{}, err
	}
	amount, err := parseDeposit(deposit)
	if err != nil {
		return core.Call{}, err
	}
	block, err := s.clock.BlockNumber(r.Context())
	if err != nil {
		return core.Call{}, errors.Wrap(err, "read block number")
	}
	return core.Call{Caller: addr, Deposit: amount, Block: block}, nil
}

func (s *Server) handleGovernance() http.HandlerFunc {
	type response struct {
		MinDeposit           string          `json:"min_deposit"`
		VotingPeriod         uint64          `json:"voting_period"`
		Owner                common.Address  `json:"owner"`
		SupportedAssets      []types.AssetID `json:"supported_assets"`
		MaxTitleLength       int             `json:"max_title_length"`
		MaxDescriptionLength int             `json:"max_description_length"`
		TargetChain          uint32          `json:"target_chain"`
		ProposalCount        uint64          `json:"proposal_count"`
		Block                uint64          `json:"block"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		block, err := s.clock.BlockNumber(r.Context())
		if err != nil {
			s.throw(w, err)
			return
		}
		p := s.gov.Params()
		s.write(w, http.StatusOK, &response{
			MinDeposit:           types.FormatBalance(p.MinDeposit),
			VotingPeriod:         p.VotingPeriod,
			Owner:                p.Owner,
			SupportedAssets:      p.SupportedAssets,
			MaxTitleLength:       p.MaxTitleLength,
			MaxDescriptionLength: p.MaxDescriptionLength,
			TargetChain:          p.TargetChain,
			ProposalCount:        s.gov.ProposalCount(),
			Block:                block,
		})
	}
}

func (s *Server) handleListProposals() http.HandlerFunc {
	type response struct {
		Count     uint64            `json:"count"`
		Proposals []*types.Proposal `json:"proposals"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var from, limit uint64
		var err error
		if v := r.URL.Query().Get("from"); v != "" {
			if from, err = strconv.ParseUint(v, 10, 64); err != nil {
				s.throw(w, errors.Wrap(errBadRequest, "from"))
				return
			}
		}
		if v := r.URL.Query().Get("limit"); v != "" {
			if limit, err = strconv.ParseUint(v, 10, 64); err != nil {
				s.throw(w, errors.Wrap(errBadRequest, "limit"))
				return
			}
		}

		list, err := s.gov.Proposals(from, limit)
		if err != nil {
			s.throw(w, err)
			return
		}
		if list == nil {
			list = []*types.Proposal{}
		}
		s.write(w, http.StatusOK, &response{Count: s.gov.ProposalCount(), Proposals: list})
	}
}

func (s *Server) handleSubmitProposal() http.HandlerFunc {
	type request struct {
		Caller      string `json:"caller"`
		Title       string `json:"title"`
		Description string `json:"description"`
		Deposit     string `json:"deposit"`
	}
	type response struct {
		ID       uint64 `json:"id"`
		Deadline uint64 `json:"deadline"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		err := s.decode(r, &req)
		var c core.Call
		if err == nil {
			c, err = s.call(r, req.Caller, req.Deposit)
		}
		var id uint64
		if err == nil {
			id, err = s.gov.SubmitProposal(c, req.Title, req.Description)
		}
		s.metrics.observe("submit_proposal", err)
		if err != nil {
			s.throw(w, err)
			return
		}

		s.metrics.proposals.Set(float64(s.gov.ProposalCount()))
		p, err := s.gov.Proposal(id)
		if err != nil {
			s.throw(w, err)
			return
		}
		s.write(w, http.StatusCreated, &response{ID: id, Deadline: p.Deadline})
	}
}

func (s *Server) handleProposal() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := proposalID(r)
		if err != nil {
			s.throw(w, err)
			return
		}
		p, err := s.gov.Proposal(id)
		if err != nil {
			s.throw(w, err)
			return
		}
		s.write(w, http.StatusOK, p)
	}
}

func (s *Server) handleVoters() http.HandlerFunc {
	type response struct {
		For     []common.Address `json:"for"`
		Against []common.Address `json:"against"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		id, err := proposalID(r)
		if err != nil {
			s.throw(w, err)
			return
		}
		forVoters, againstVoters := s.gov.Voters(id)
		s.write(w, http.StatusOK, &response{For: forVoters, Against: againstVoters})
	}
}

type tallyResponse struct {
	TotalFor        string       `json:"total_for"`
	TotalAgainst    string       `json:"total_against"`
	Result          types.Result `json:"result"`
	ReferendumIndex *uint64      `json:"referendum_index,omitempty"`
}

func (s *Server) handleTally() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := proposalID(r)
		if err != nil {
			s.throw(w, err)
			return
		}
		t, err := s.gov.Tally(id)
		if err != nil {
			s.throw(w, err)
			return
		}
		s.write(w, http.StatusOK, &tallyResponse{
			TotalFor:     types.FormatBalance(t.TotalFor),
			TotalAgainst: types.FormatBalance(t.TotalAgainst),
			Result:       t.Decide(),
		})
	}
}

func (s *Server) handleStakes() http.HandlerFunc {
	type response struct {
		For     string `json:"for"`
		Against string `json:"against"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		id, err := proposalID(r)
		if err != nil {
			s.throw(w, err)
			return
		}
		vars := mux.Vars(r)
		voter, err := parseAddress("voter", vars["voter"])
		if err != nil {
			s.throw(w, err)
			return
		}
		asset, err := strconv.ParseUint(vars["asset"], 10, 32)
		if err != nil {
			s.throw(w, errors.Wrap(errBadRequest, "asset"))
			return
		}

		forStake, againstStake := s.gov.VoterStakes(id, voter, types.AssetID(asset))
		s.write(w, http.StatusOK, &response{
			For:     types.FormatBalance(forStake),
			Against: types.FormatBalance(againstStake),
		})
	}
}

func (s *Server) handleVote() http.HandlerFunc {
	type request struct {
		Caller  string        `json:"caller"`
		Side    string        `json:"side"`
		Asset   types.AssetID `json:"asset"`
		Deposit string        `json:"deposit"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		id, err := proposalID(r)
		var req request
		if err == nil {
			err = s.decode(r, &req)
		}
		var side types.Side
		if err == nil {
			if side, err = types.ParseSide(req.Side); err != nil {
				err = errors.Wrap(errBadRequest, err.Error())
			}
		}
		var c core.Call
		if err == nil {
			c, err = s.call(r, req.Caller, req.Deposit)
		}
		if err == nil {
			err = s.gov.Vote(c, id, req.Asset, side)
		}
		s.metrics.observe("vote", err)
		if err != nil {
			s.throw(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type finalizeRequest struct {
	Caller string `json:"caller"`
}

func (s *Server) handleClose() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := proposalID(r)
		var req finalizeRequest
		if err == nil {
			err = s.decode(r, &req)
		}
		var c core.Call
		if err == nil {
			c, err = s.call(r, req.Caller, "")
		}
		var out *core.Outcome
		if err == nil {
			out, err = s.gov.CloseVote(r.Context(), c, id)
		}
		s.metrics.observe("close_vote", err)
		if err != nil {
			s.throw(w, err)
			return
		}

		s.metrics.results.WithLabelValues(out.Result.String()).Inc()
		if out.ReferendumIndex != nil {
			s.metrics.referenda.Inc()
		}
		s.logger.WithFields(logrus.Fields{"proposal": id, "result": out.Result}).Debug("api close")
		s.write(w, http.StatusOK, &tallyResponse{
			TotalFor:        types.FormatBalance(out.TotalFor),
			TotalAgainst:    types.FormatBalance(out.TotalAgainst),
			Result:          out.Result,
			ReferendumIndex: out.ReferendumIndex,
		})
	}
}

func (s *Server) handleCancel() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := proposalID(r)
		var req finalizeRequest
		if err == nil {
			err = s.decode(r, &req)
		}
		var c core.Call
		if err == nil {
			c, err = s.call(r, req.Caller, "")
		}
		if err == nil {
			err = s.gov.CancelProposal(c, id)
		}
		s.metrics.observe("cancel_proposal", err)
		if err != nil {
			s.throw(w, err)
			return
		}
		s.metrics.results.WithLabelValues(types.Unresolved.String()).Inc()
		w.WriteHeader(http.StatusNoContent)
	}
}
